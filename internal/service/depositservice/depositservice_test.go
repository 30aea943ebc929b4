package depositservice

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/tarvale/coinledger/internal/config"
	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/pg"
	"github.com/tarvale/coinledger/internal/provider"
)

func NewMock(t *testing.T) (*Service, *MockDepositRepo, *MockBalanceService, *MockProvider, *pg.MockTXManager) {
	ctrl := gomock.NewController(t)
	depositRepo := NewMockDepositRepo(ctrl)
	balanceService := NewMockBalanceService(ctrl)
	prov := NewMockProvider(ctrl)
	txManager := pg.NewMockTXManager(ctrl)
	cfg := &config.Config{MinDeposit: 10, DepositLifetime: 3600}
	service := New(cfg, depositRepo, balanceService, prov, txManager)
	defer ctrl.Finish()
	return service, depositRepo, balanceService, prov, txManager
}

func passthroughTx(txManager *pg.MockTXManager) {
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
}

func TestCreate(t *testing.T) {
	service, depositRepo, _, prov, _ := NewMock(t)

	tests := []struct {
		name          string
		amount        decimal.Decimal
		prepareMock   func()
		expectedError error
	}{
		{
			name:   "Creates deposit and stores provider acknowledgement",
			amount: decimal.NewFromInt(100),
			prepareMock: func() {
				depositRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, d *domain.Deposit) (*domain.Deposit, error) {
						assert.Equal(t, domain.DepositPending, d.Status)
						assert.Contains(t, d.ProviderOrderID, "deposit_1_")
						d.ID = 7
						return d, nil
					})
				prov.EXPECT().CreatePayment(gomock.Any()).Return(&provider.PaymentResult{
					UUID:    "uuid-1",
					Address: "TWd4WrZ9wn84f5x1hZhL4DHvk738ns5jwb",
					URL:     "https://pay.example/abc",
					Status:  "check",
				}, nil)
				depositRepo.EXPECT().SetProviderAck(gomock.Any(), 7, "uuid-1", "TWd4WrZ9wn84f5x1hZhL4DHvk738ns5jwb", "https://pay.example/abc", "check", nil).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:          "Amount below minimum",
			amount:        decimal.NewFromInt(5),
			prepareMock:   func() {},
			expectedError: ErrAmountTooSmall,
		},
		{
			name:   "Provider failure marks the deposit failed",
			amount: decimal.NewFromInt(100),
			prepareMock: func() {
				depositRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, d *domain.Deposit) (*domain.Deposit, error) {
						d.ID = 8
						return d, nil
					})
				prov.EXPECT().CreatePayment(gomock.Any()).Return(nil, errors.New("provider down"))
				depositRepo.EXPECT().UpdateStatus(gomock.Any(), 8, domain.DepositFailed).Return(nil)
			},
			expectedError: ErrProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			deposit, err := service.Create(context.Background(), 1, tt.amount, "TRON")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, deposit)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "uuid-1", deposit.ProviderUUID)
				assert.Equal(t, "https://pay.example/abc", deposit.PaymentURL)
			}
		})
	}
}

func TestApplyPaymentEvent(t *testing.T) {
	service, depositRepo, balanceService, _, txManager := NewMock(t)
	received := decimal.NewFromFloat(99.5)

	tests := []struct {
		name          string
		event         PaymentEvent
		prepareMock   func()
		expectedError error
	}{
		{
			name: "First confirmation credits the received amount",
			event: PaymentEvent{
				UUID: "ev-1", OrderID: "deposit_1_x", Status: "paid",
				MerchantAmount: received, TxID: "0xabc", IsFinal: true,
			},
			prepareMock: func() {
				depositRepo.EXPECT().GetByOrderID(gomock.Any(), "deposit_1_x").Return(&domain.Deposit{
					ID: 7, UserID: 1, Status: domain.DepositPending,
				}, nil)
				passthroughTx(txManager)
				depositRepo.EXPECT().ApplyEvent(gomock.Any(), 7, domain.DepositConfirmed, "paid", received, "0xabc", gomock.Any()).Return(nil)
				depositID := 7
				balanceService.EXPECT().Credit(gomock.Any(), 1, received, &depositID, "deposit_7_ev-1", "available").Return(nil)
			},
			expectedError: nil,
		},
		{
			name: "Replay on a confirmed deposit is a no-op",
			event: PaymentEvent{
				UUID: "ev-1", OrderID: "deposit_1_x", Status: "paid",
				MerchantAmount: received, IsFinal: true,
			},
			prepareMock: func() {
				depositRepo.EXPECT().GetByOrderID(gomock.Any(), "deposit_1_x").Return(&domain.Deposit{
					ID: 7, UserID: 1, Status: domain.DepositConfirmed,
				}, nil)
			},
			expectedError: nil,
		},
		{
			name: "Conflicting outcome on a terminal deposit",
			event: PaymentEvent{
				UUID: "ev-2", OrderID: "deposit_1_x", Status: "fail", IsFinal: true,
			},
			prepareMock: func() {
				depositRepo.EXPECT().GetByOrderID(gomock.Any(), "deposit_1_x").Return(&domain.Deposit{
					ID: 7, UserID: 1, Status: domain.DepositConfirmed,
				}, nil)
			},
			expectedError: domain.ErrIllegalTransition,
		},
		{
			name: "Cancellation expires the deposit without credit",
			event: PaymentEvent{
				UUID: "ev-3", OrderID: "deposit_1_y", Status: "cancel", IsFinal: true,
			},
			prepareMock: func() {
				depositRepo.EXPECT().GetByOrderID(gomock.Any(), "deposit_1_y").Return(&domain.Deposit{
					ID: 9, UserID: 1, Status: domain.DepositPending,
				}, nil)
				passthroughTx(txManager)
				depositRepo.EXPECT().ApplyEvent(gomock.Any(), 9, domain.DepositExpired, "cancel", decimal.Decimal{}, "", nil).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:  "Unknown order",
			event: PaymentEvent{UUID: "ev-4", OrderID: "missing", Status: "paid"},
			prepareMock: func() {
				depositRepo.EXPECT().GetByOrderID(gomock.Any(), "missing").Return(nil, nil)
			},
			expectedError: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			err := service.ApplyPaymentEvent(context.Background(), tt.event)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestListByUser(t *testing.T) {
	service, depositRepo, _, _, _ := NewMock(t)

	deposits := []domain.Deposit{{ID: 7, UserID: 1}}
	depositRepo.EXPECT().ListByUser(gomock.Any(), 1).Return(deposits, nil)

	got, err := service.ListByUser(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, deposits, got)
}
