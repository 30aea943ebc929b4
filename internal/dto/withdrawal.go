package dto

import "time"

type CreateWithdrawalRequestDTO struct {
	ExternalID string `json:"external_id" example:"tg_184467"`
	Amount     string `json:"amount" example:"50"`
	Address    string `json:"address" example:"TWd4WrZ9wn84f5x1hZhL4DHvk738ns5jwb"`
	Network    string `json:"network,omitempty" example:"TRON"`
}

type WithdrawalResponseDTO struct {
	ID          int        `json:"id" example:"3"`
	Amount      string     `json:"amount" example:"50"`
	Fee         string     `json:"fee" example:"1.7"`
	Currency    string     `json:"currency" example:"USDT"`
	Address     string     `json:"address" example:"TWd4WrZ9wn84f5x1hZhL4DHvk738ns5jwb"`
	Network     string     `json:"network" example:"TRON"`
	Status      string     `json:"status" example:"pending"`
	TxID        string     `json:"txid,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}
