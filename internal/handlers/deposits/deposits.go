package deposits

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/dto"
	"github.com/tarvale/coinledger/internal/service/depositservice"
	"github.com/tarvale/coinledger/pkg/utils"
)

type DepositService interface {
	Create(ctx context.Context, userID int, amount decimal.Decimal, network string) (*domain.Deposit, error)
}

type UserService interface {
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
}

type DepositHandler struct {
	depositService DepositService
	userService    UserService
}

func New(depositService DepositService, userService UserService) *DepositHandler {
	return &DepositHandler{
		depositService: depositService,
		userService:    userService,
	}
}

func (h *DepositHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDepositRequestDTO
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

	deposit, err := h.depositService.Create(r.Context(), user.ID, amount, req.Network)
	if err != nil {
		switch {
		case errors.Is(err, depositservice.ErrAmountTooSmall):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, depositservice.ErrProvider):
			utils.RespondWithError(w, http.StatusBadGateway, "payment provider unavailable")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, ToDTO(deposit))
}

func ToDTO(d *domain.Deposit) dto.DepositResponseDTO {
	received := ""
	if !d.ReceivedAmount.IsZero() {
		received = d.ReceivedAmount.String()
	}
	return dto.DepositResponseDTO{
		ID:             d.ID,
		ReceivedAmount: received,
		Amount:         d.Amount.String(),
		Currency:       d.Currency,
		Network:        d.NetworkCode,
		Status:         string(d.Status),
		Address:        d.Address,
		PaymentURL:     d.PaymentURL,
		TxID:           d.TxID,
		ExpiredAt:      d.ExpiredAt,
		CreatedAt:      d.CreatedAt,
	}
}
