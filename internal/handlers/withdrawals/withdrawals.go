package withdrawals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/dto"
	"github.com/tarvale/coinledger/internal/service/balanceservice"
	"github.com/tarvale/coinledger/internal/service/withdrawalservice"
	"github.com/tarvale/coinledger/pkg/utils"
)

type WithdrawalService interface {
	Create(ctx context.Context, userID int, amount decimal.Decimal, address, network string) (*domain.Withdrawal, error)
}

type UserService interface {
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
}

type WithdrawalHandler struct {
	withdrawalService WithdrawalService
	userService       UserService
}

func New(withdrawalService WithdrawalService, userService UserService) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalService: withdrawalService,
		userService:       userService,
	}
}

func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWithdrawalRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	user, err := h.userService.GetByExternalID(r.Context(), req.ExternalID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		utils.RespondWithError(w, http.StatusNotFound, "user not found")
		return
	}

	withdrawal, err := h.withdrawalService.Create(r.Context(), user.ID, amount, req.Address, req.Network)
	if err != nil {
		switch {
		case errors.Is(err, withdrawalservice.ErrAmountTooSmall),
			errors.Is(err, withdrawalservice.ErrInvalidAddress):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, balanceservice.ErrInsufficientFunds):
			utils.RespondWithError(w, http.StatusPaymentRequired, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, ToDTO(withdrawal))
}

func ToDTO(w *domain.Withdrawal) dto.WithdrawalResponseDTO {
	return dto.WithdrawalResponseDTO{
		ID:          w.ID,
		Amount:      w.Amount.String(),
		Fee:         w.Fee.String(),
		Currency:    w.Currency,
		Address:     w.Address,
		Network:     w.NetworkCode,
		Status:      string(w.Status),
		TxID:        w.TxID,
		RequestedAt: w.RequestedAt,
		ProcessedAt: w.ProcessedAt,
	}
}
