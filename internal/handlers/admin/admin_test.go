package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/dto"
	"github.com/tarvale/coinledger/internal/service/adminservice"
	"github.com/tarvale/coinledger/internal/service/withdrawalservice"
	"github.com/tarvale/coinledger/pkg/auth"
)

func NewMock(t *testing.T) (*AdminHandler, *MockAdminService, *MockDepositService, *MockWithdrawalService) {
	ctrl := gomock.NewController(t)
	adminService := NewMockAdminService(ctrl)
	depositService := NewMockDepositService(ctrl)
	withdrawalService := NewMockWithdrawalService(ctrl)
	handler := New(adminService, depositService, withdrawalService)
	defer ctrl.Finish()
	return handler, adminService, depositService, withdrawalService
}

func TestLoginHandler(t *testing.T) {
	handler, adminService, _, _ := NewMock(t)

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful login",
			body: `{"login":"admin","password":"secret"}`,
			prepareMock: func() {
				adminService.EXPECT().
					Login("admin", "secret").
					Return("token-123", nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:          "Invalid request body",
			body:          `{"login":invalid}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid request body",
		},
		{
			name: "Wrong credentials",
			body: `{"login":"admin","password":"wrong"}`,
			prepareMock: func() {
				adminService.EXPECT().
					Login("admin", "wrong").
					Return("", adminservice.ErrInvalidCredentials)
			},
			expectedCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			r := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.Login(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
			if tt.expectedCode == http.StatusOK {
				var body dto.AdminLoginResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, "token-123", body.Token)
			}
		})
	}
}

func TestListWithdrawalsHandler(t *testing.T) {
	handler, _, _, withdrawalService := NewMock(t)
	now := time.Now()

	t.Run("Filters by status with paging", func(t *testing.T) {
		withdrawalService.EXPECT().
			List(gomock.Any(), "pending", 10, 20).
			Return([]domain.Withdrawal{
				{
					ID:          3,
					Amount:      decimal.NewFromInt(50),
					Fee:         decimal.NewFromFloat(1.7),
					Currency:    "USDT",
					NetworkCode: "TRON",
					Status:      domain.WithdrawalPending,
					RequestedAt: now,
				},
			}, nil)

		r := httptest.NewRequest(http.MethodGet, "/api/admin/withdrawals?status=pending&limit=10&offset=20", nil)
		w := httptest.NewRecorder()

		handler.ListWithdrawals(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var body []dto.WithdrawalResponseDTO
		_ = json.NewDecoder(w.Body).Decode(&body)
		assert.Len(t, body, 1)
		assert.Equal(t, "pending", body[0].Status)
	})

	t.Run("Default paging", func(t *testing.T) {
		withdrawalService.EXPECT().
			List(gomock.Any(), "", defaultPageSize, 0).
			Return([]domain.Withdrawal{}, nil)

		r := httptest.NewRequest(http.MethodGet, "/api/admin/withdrawals", nil)
		w := httptest.NewRecorder()

		handler.ListWithdrawals(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Internal server error", func(t *testing.T) {
		withdrawalService.EXPECT().
			List(gomock.Any(), "", defaultPageSize, 0).
			Return(nil, errors.New("error"))

		r := httptest.NewRequest(http.MethodGet, "/api/admin/withdrawals", nil)
		w := httptest.NewRecorder()

		handler.ListWithdrawals(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestListDepositsHandler(t *testing.T) {
	handler, _, depositService, _ := NewMock(t)
	now := time.Now()

	depositService.EXPECT().
		List(gomock.Any(), "confirmed", defaultPageSize, 0).
		Return([]domain.Deposit{
			{
				ID:             7,
				Amount:         decimal.NewFromInt(100),
				ReceivedAmount: decimal.NewFromInt(100),
				Currency:       "USDT",
				NetworkCode:    "TRON",
				Status:         domain.DepositConfirmed,
				CreatedAt:      now,
			},
		}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/deposits?status=confirmed", nil)
	w := httptest.NewRecorder()

	handler.ListDeposits(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	var body []dto.DepositResponseDTO
	_ = json.NewDecoder(w.Body).Decode(&body)
	assert.Len(t, body, 1)
	assert.Equal(t, "100", body[0].ReceivedAmount)
}

func TestProcessWithdrawalHandler(t *testing.T) {
	handler, _, _, withdrawalService := NewMock(t)
	now := time.Now()
	approved := &domain.Withdrawal{
		ID:          3,
		Amount:      decimal.NewFromInt(50),
		Fee:         decimal.NewFromFloat(1.7),
		Currency:    "USDT",
		NetworkCode: "TRON",
		Status:      domain.WithdrawalProcessing,
		RequestedAt: now,
	}

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Approves the withdrawal",
			body: `{"withdrawal_id":3,"action":"approve"}`,
			prepareMock: func() {
				withdrawalService.EXPECT().
					Approve(gomock.Any(), 3, "admin").
					Return(approved, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Rejects the withdrawal",
			body: `{"withdrawal_id":3,"action":"reject"}`,
			prepareMock: func() {
				withdrawalService.EXPECT().
					Reject(gomock.Any(), 3, "admin").
					Return(&domain.Withdrawal{ID: 3, Status: domain.WithdrawalRejected, RequestedAt: now}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:          "Unknown action",
			body:          `{"withdrawal_id":3,"action":"defer"}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "action must be approve or reject",
		},
		{
			name: "Unknown withdrawal",
			body: `{"withdrawal_id":99,"action":"approve"}`,
			prepareMock: func() {
				withdrawalService.EXPECT().
					Approve(gomock.Any(), 99, "admin").
					Return(nil, withdrawalservice.ErrNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Already processed",
			body: `{"withdrawal_id":3,"action":"approve"}`,
			prepareMock: func() {
				withdrawalService.EXPECT().
					Approve(gomock.Any(), 3, "admin").
					Return(nil, withdrawalservice.ErrAlreadyProcessed)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "Provider rejects the payout",
			body: `{"withdrawal_id":3,"action":"approve"}`,
			prepareMock: func() {
				withdrawalService.EXPECT().
					Approve(gomock.Any(), 3, "admin").
					Return(nil, withdrawalservice.ErrProvider)
			},
			expectedCode:  http.StatusBadGateway,
			expectedError: "payout provider rejected the request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			r := httptest.NewRequest(http.MethodPost, "/api/admin/withdrawals/process", bytes.NewBufferString(tt.body))
			r = r.WithContext(context.WithValue(context.Background(), auth.AdminKey, "admin"))
			w := httptest.NewRecorder()

			handler.ProcessWithdrawal(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
			if tt.expectedCode == http.StatusOK {
				var body dto.WithdrawalResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, 3, body.ID)
			}
		})
	}
}
