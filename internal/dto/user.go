package dto

type RegisterRequestDTO struct {
	ExternalID string `json:"external_id" example:"tg_184467"`
	RefCode    string `json:"ref_code,omitempty" example:"9F2C41AB"`
}

type RegisterResponseDTO struct {
	ID         int    `json:"id" example:"42"`
	ExternalID string `json:"external_id" example:"tg_184467"`
	RefCode    string `json:"ref_code" example:"B0E11D07"`
}

type BalanceResponseDTO struct {
	Currency  string `json:"currency" example:"USDT"`
	Available string `json:"available" example:"150.25"`
	Bonus     string `json:"bonus" example:"10"`
	Locked    string `json:"locked" example:"25"`
}

type TransactionResponseDTO struct {
	Kind      string `json:"kind" example:"deposit"`
	ID        int    `json:"id" example:"7"`
	Amount    string `json:"amount" example:"100"`
	Status    string `json:"status" example:"confirmed"`
	CreatedAt string `json:"created_at" example:"2025-11-02T16:09:57+03:00"`
}
