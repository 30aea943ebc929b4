package dto

type AdminLoginRequestDTO struct {
	Login    string `json:"login" example:"admin"`
	Password string `json:"password" example:"s3cret"`
}

type AdminLoginResponseDTO struct {
	Token string `json:"token"`
}

type ProcessWithdrawalRequestDTO struct {
	WithdrawalID int    `json:"withdrawal_id" example:"3"`
	Action       string `json:"action" example:"approve"`
}
