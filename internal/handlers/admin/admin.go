package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/dto"
	depositshandlers "github.com/tarvale/coinledger/internal/handlers/deposits"
	withdrawalshandlers "github.com/tarvale/coinledger/internal/handlers/withdrawals"
	"github.com/tarvale/coinledger/internal/service/adminservice"
	"github.com/tarvale/coinledger/internal/service/withdrawalservice"
	"github.com/tarvale/coinledger/pkg/auth"
	"github.com/tarvale/coinledger/pkg/utils"
)

const defaultPageSize = 50

type AdminService interface {
	Login(login, password string) (string, error)
}

type DepositService interface {
	List(ctx context.Context, status string, limit, offset int) ([]domain.Deposit, error)
}

type WithdrawalService interface {
	List(ctx context.Context, status string, limit, offset int) ([]domain.Withdrawal, error)
	Approve(ctx context.Context, id int, actor string) (*domain.Withdrawal, error)
	Reject(ctx context.Context, id int, actor string) (*domain.Withdrawal, error)
}

type AdminHandler struct {
	adminService      AdminService
	depositService    DepositService
	withdrawalService WithdrawalService
}

func New(adminService AdminService, depositService DepositService, withdrawalService WithdrawalService) *AdminHandler {
	return &AdminHandler{
		adminService:      adminService,
		depositService:    depositService,
		withdrawalService: withdrawalService,
	}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.AdminLoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.adminService.Login(req.Login, req.Password)
	if err != nil {
		if errors.Is(err, adminservice.ErrInvalidCredentials) {
			utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.AdminLoginResponseDTO{Token: token})
}

func (h *AdminHandler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	status, limit, offset := listParams(r)
	deposits, err := h.depositService.List(r.Context(), status, limit, offset)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch deposits")
		return
	}

	response := make([]dto.DepositResponseDTO, len(deposits))
	for i, d := range deposits {
		response[i] = depositshandlers.ToDTO(&d)
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

func (h *AdminHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	status, limit, offset := listParams(r)
	withdrawals, err := h.withdrawalService.List(r.Context(), status, limit, offset)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch withdrawals")
		return
	}

	response := make([]dto.WithdrawalResponseDTO, len(withdrawals))
	for i, wd := range withdrawals {
		response[i] = withdrawalshandlers.ToDTO(&wd)
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// ProcessWithdrawal applies the operator's decision to a pending withdrawal.
func (h *AdminHandler) ProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor, _ := r.Context().Value(auth.AdminKey).(string)

	var req dto.ProcessWithdrawalRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var withdrawal *domain.Withdrawal
	var err error
	switch req.Action {
	case "approve":
		withdrawal, err = h.withdrawalService.Approve(r.Context(), req.WithdrawalID, actor)
	case "reject":
		withdrawal, err = h.withdrawalService.Reject(r.Context(), req.WithdrawalID, actor)
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "action must be approve or reject")
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, withdrawalservice.ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, withdrawalservice.ErrAlreadyProcessed):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, withdrawalservice.ErrProvider):
			utils.RespondWithError(w, http.StatusBadGateway, "payout provider rejected the request")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, withdrawalshandlers.ToDTO(withdrawal))
}

func listParams(r *http.Request) (status string, limit, offset int) {
	q := r.URL.Query()
	status = q.Get("status")
	limit = defaultPageSize
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return status, limit, offset
}
