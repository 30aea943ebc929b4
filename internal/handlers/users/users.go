package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/dto"
	"github.com/tarvale/coinledger/internal/service/userservice"
	"github.com/tarvale/coinledger/pkg/utils"
)

type UserService interface {
	Register(ctx context.Context, externalID, refCode string) (*domain.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	Transactions(ctx context.Context, userID int) ([]userservice.Transaction, error)
}

type BalanceService interface {
	GetBalance(ctx context.Context, userID int) (*domain.Balance, error)
}

type UserHandler struct {
	userService    UserService
	balanceService BalanceService
}

func New(userService UserService, balanceService BalanceService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		balanceService: balanceService,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), req.ExternalID, req.RefCode)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrInvalidExternalID):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.RegisterResponseDTO{
		ID:         user.ID,
		ExternalID: user.ExternalID,
		RefCode:    user.RefCode,
	})
}

func (h *UserHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	balance, err := h.balanceService.GetBalance(r.Context(), user.ID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResponseDTO{
		Currency:  balance.Currency,
		Available: balance.Available.String(),
		Bonus:     balance.Bonus.String(),
		Locked:    balance.Locked.String(),
	})
}

func (h *UserHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	transactions, err := h.userService.Transactions(r.Context(), user.ID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}

	response := make([]dto.TransactionResponseDTO, len(transactions))
	for i, t := range transactions {
		response[i] = dto.TransactionResponseDTO{
			Kind:      t.Kind,
			ID:        t.ID,
			Amount:    t.Amount,
			Status:    t.Status,
			CreatedAt: t.CreatedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

func (h *UserHandler) resolveUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	externalID := r.URL.Query().Get("external_id")
	if externalID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "external_id is required")
		return nil, false
	}
	user, err := h.userService.GetByExternalID(r.Context(), externalID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	if user == nil {
		utils.RespondWithError(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return user, true
}
