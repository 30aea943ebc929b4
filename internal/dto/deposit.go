package dto

import "time"

type CreateDepositRequestDTO struct {
	ExternalID string `json:"external_id" example:"tg_184467"`
	Amount     string `json:"amount" example:"100"`
	Network    string `json:"network,omitempty" example:"TRON"`
}

type DepositResponseDTO struct {
	ID             int        `json:"id" example:"7"`
	Amount         string     `json:"amount" example:"100"`
	ReceivedAmount string     `json:"received_amount,omitempty" example:"99.5"`
	Currency       string     `json:"currency" example:"USDT"`
	Network        string     `json:"network" example:"TRON"`
	Status         string     `json:"status" example:"pending"`
	Address        string     `json:"address,omitempty" example:"TWd4WrZ9wn84f5x1hZhL4DHvk738ns5jwb"`
	PaymentURL     string     `json:"payment_url,omitempty" example:"https://pay.cryptomus.com/pay/abc"`
	TxID           string     `json:"txid,omitempty"`
	ExpiredAt      *time.Time `json:"expired_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
