package users

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/dto"
	"github.com/tarvale/coinledger/internal/service/userservice"
)

func NewMock(t *testing.T) (*UserHandler, *MockUserService, *MockBalanceService) {
	ctrl := gomock.NewController(t)
	userService := NewMockUserService(ctrl)
	balanceService := NewMockBalanceService(ctrl)
	handler := New(userService, balanceService)
	defer ctrl.Finish()
	return handler, userService, balanceService
}

func TestRegisterHandler(t *testing.T) {
	handler, userService, _ := NewMock(t)

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
		expectedBody  dto.RegisterResponseDTO
	}{
		{
			name: "Successful registration",
			body: `{"external_id":"shop-1001"}`,
			prepareMock: func() {
				userService.EXPECT().
					Register(gomock.Any(), "shop-1001", "").
					Return(&domain.User{ID: 42, ExternalID: "shop-1001", RefCode: "A1B2C3D4"}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: dto.RegisterResponseDTO{
				ID:         42,
				ExternalID: "shop-1001",
				RefCode:    "A1B2C3D4",
			},
		},
		{
			name:          "Invalid request body",
			body:          `{"external_id":invalid}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid request body",
		},
		{
			name: "Blank external id",
			body: `{"external_id":"   "}`,
			prepareMock: func() {
				userService.EXPECT().
					Register(gomock.Any(), "   ", "").
					Return(nil, userservice.ErrInvalidExternalID)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Internal server error",
			body: `{"external_id":"shop-1001"}`,
			prepareMock: func() {
				userService.EXPECT().
					Register(gomock.Any(), "shop-1001", "").
					Return(nil, errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			r := httptest.NewRequest(http.MethodPost, "/api/user/register", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.Register(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
			if tt.expectedCode == http.StatusOK {
				var body dto.RegisterResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, tt.expectedBody, body)
			}
		})
	}
}

func TestGetBalanceHandler(t *testing.T) {
	handler, userService, balanceService := NewMock(t)
	user := &domain.User{ID: 42, ExternalID: "shop-1001"}

	tests := []struct {
		name          string
		target        string
		prepareMock   func()
		expectedCode  int
		expectedError string
		expectedBody  dto.BalanceResponseDTO
	}{
		{
			name:   "Successful retrieval",
			target: "/api/user/balance?external_id=shop-1001",
			prepareMock: func() {
				userService.EXPECT().
					GetByExternalID(gomock.Any(), "shop-1001").
					Return(user, nil)
				balanceService.EXPECT().
					GetBalance(gomock.Any(), 42).
					Return(&domain.Balance{
						Currency:  "USDT",
						Available: decimal.NewFromFloat(100.5),
						Bonus:     decimal.NewFromInt(10),
						Locked:    decimal.NewFromInt(25),
					}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: dto.BalanceResponseDTO{
				Currency:  "USDT",
				Available: "100.5",
				Bonus:     "10",
				Locked:    "25",
			},
		},
		{
			name:          "Missing external id",
			target:        "/api/user/balance",
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "external_id is required",
		},
		{
			name:   "Unknown user",
			target: "/api/user/balance?external_id=missing",
			prepareMock: func() {
				userService.EXPECT().
					GetByExternalID(gomock.Any(), "missing").
					Return(nil, nil)
			},
			expectedCode:  http.StatusNotFound,
			expectedError: "user not found",
		},
		{
			name:   "Internal server error",
			target: "/api/user/balance?external_id=shop-1001",
			prepareMock: func() {
				userService.EXPECT().
					GetByExternalID(gomock.Any(), "shop-1001").
					Return(user, nil)
				balanceService.EXPECT().
					GetBalance(gomock.Any(), 42).
					Return(nil, errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()

			handler.GetBalance(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
			if tt.expectedCode == http.StatusOK {
				var body dto.BalanceResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, tt.expectedBody, body)
			}
		})
	}
}

func TestGetTransactionsHandler(t *testing.T) {
	handler, userService, _ := NewMock(t)
	user := &domain.User{ID: 42, ExternalID: "shop-1001"}

	t.Run("Successful retrieval", func(t *testing.T) {
		userService.EXPECT().
			GetByExternalID(gomock.Any(), "shop-1001").
			Return(user, nil)
		userService.EXPECT().
			Transactions(gomock.Any(), 42).
			Return([]userservice.Transaction{
				{Kind: "withdrawal", ID: 3, Amount: "50", Status: "completed", CreatedAt: "2026-08-30T12:00:00Z"},
				{Kind: "deposit", ID: 7, Amount: "100", Status: "confirmed", CreatedAt: "2026-08-29T09:00:00Z"},
			}, nil)

		r := httptest.NewRequest(http.MethodGet, "/api/user/transactions?external_id=shop-1001", nil)
		w := httptest.NewRecorder()

		handler.GetTransactions(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var body []dto.TransactionResponseDTO
		_ = json.NewDecoder(w.Body).Decode(&body)
		assert.Len(t, body, 2)
		assert.Equal(t, "withdrawal", body[0].Kind)
		assert.Equal(t, "deposit", body[1].Kind)
	})

	t.Run("Internal server error", func(t *testing.T) {
		userService.EXPECT().
			GetByExternalID(gomock.Any(), "shop-1001").
			Return(user, nil)
		userService.EXPECT().
			Transactions(gomock.Any(), 42).
			Return(nil, errors.New("error"))

		r := httptest.NewRequest(http.MethodGet, "/api/user/transactions?external_id=shop-1001", nil)
		w := httptest.NewRecorder()

		handler.GetTransactions(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
