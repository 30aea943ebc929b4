package depositservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tarvale/coinledger/internal/config"
	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/pg"
	"github.com/tarvale/coinledger/internal/provider"
	"go.uber.org/zap"
)

const providerName = "cryptomus"

type DepositRepo interface {
	Create(ctx context.Context, deposit *domain.Deposit) (*domain.Deposit, error)
	SetProviderAck(ctx context.Context, id int, uuid, address, url, paymentStatus string, expiredAt *time.Time) error
	UpdateStatus(ctx context.Context, id int, status domain.DepositStatus) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.Deposit, error)
	ApplyEvent(ctx context.Context, id int, status domain.DepositStatus, paymentStatus string, received decimal.Decimal, txid string, confirmedAt *time.Time) error
	ListByUser(ctx context.Context, userID int) ([]domain.Deposit, error)
	List(ctx context.Context, status string, limit, offset int) ([]domain.Deposit, error)
}

type BalanceService interface {
	Credit(ctx context.Context, userID int, amount decimal.Decimal, depositID *int, key string, sub string) error
}

type Provider interface {
	CreatePayment(req provider.CreatePaymentRequest) (*provider.PaymentResult, error)
}

var (
	ErrAmountTooSmall = errors.New("amount below minimum deposit")
	ErrNotFound       = errors.New("deposit not found")
	ErrProvider       = errors.New("payment provider rejected the request")
)

// PaymentEvent is one provider notification about a payment, already
// authenticated and parsed by the caller.
type PaymentEvent struct {
	UUID           string
	OrderID        string
	Status         string
	MerchantAmount decimal.Decimal
	TxID           string
	IsFinal        bool
}

type Service struct {
	depositRepo    DepositRepo
	balanceService BalanceService
	provider       Provider
	txManager      pg.TXManager

	minDeposit  decimal.Decimal
	lifetime    int
	callbackURL string
}

func New(cfg *config.Config, depositRepo DepositRepo, balanceService BalanceService, prov Provider, txManager pg.TXManager) *Service {
	return &Service{
		depositRepo:    depositRepo,
		balanceService: balanceService,
		provider:       prov,
		txManager:      txManager,
		minDeposit:     decimal.NewFromFloat(cfg.MinDeposit),
		lifetime:       cfg.DepositLifetime,
		callbackURL:    cfg.PaymentCallbackURL,
	}
}

// Create registers a funding intent and asks the provider for a deposit
// address. The deposit stays pending until a webhook settles it.
func (s *Service) Create(ctx context.Context, userID int, amount decimal.Decimal, network string) (*domain.Deposit, error) {
	if amount.LessThan(s.minDeposit) {
		return nil, ErrAmountTooSmall
	}

	deposit := &domain.Deposit{
		UserID:          userID,
		Currency:        domain.DefaultCurrency,
		Amount:          amount,
		Status:          domain.DepositPending,
		NetworkCode:     network,
		Provider:        providerName,
		ProviderOrderID: fmt.Sprintf("deposit_%d_%s", userID, uuid.NewString()),
	}
	deposit, err := s.depositRepo.Create(ctx, deposit)
	if err != nil {
		return nil, err
	}

	result, err := s.provider.CreatePayment(provider.CreatePaymentRequest{
		Amount:      amount.String(),
		Currency:    domain.DefaultCurrency,
		OrderID:     deposit.ProviderOrderID,
		Network:     network,
		URLCallback: s.callbackURL,
		Lifetime:    s.lifetime,
	})
	if err != nil {
		zap.L().Error("payment creation failed",
			zap.String("orderID", deposit.ProviderOrderID), zap.Error(err))
		if updErr := s.depositRepo.UpdateStatus(ctx, deposit.ID, domain.DepositFailed); updErr != nil {
			return nil, updErr
		}
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	var expiredAt *time.Time
	if result.ExpiredAt > 0 {
		t := time.Unix(result.ExpiredAt, 0)
		expiredAt = &t
	}
	if err := s.depositRepo.SetProviderAck(ctx, deposit.ID, result.UUID, result.Address, result.URL, result.Status, expiredAt); err != nil {
		return nil, err
	}

	deposit.ProviderUUID = result.UUID
	deposit.Address = result.Address
	deposit.PaymentURL = result.URL
	deposit.PaymentStatus = result.Status
	deposit.ExpiredAt = expiredAt
	return deposit, nil
}

// ApplyPaymentEvent advances the deposit state machine with one provider
// notification. The first transition into confirmed credits the provider-
// reported received amount exactly once; replays are structural no-ops via
// the ledger idempotency key.
func (s *Service) ApplyPaymentEvent(ctx context.Context, ev PaymentEvent) error {
	deposit, err := s.depositRepo.GetByOrderID(ctx, ev.OrderID)
	if err != nil {
		return err
	}
	if deposit == nil {
		zap.L().Warn("payment event for unknown order", zap.String("orderID", ev.OrderID))
		return ErrNotFound
	}

	mapped := domain.MapPaymentStatus(ev.Status)
	next, credit, err := domain.DepositTransition(deposit.Status, mapped)
	if err != nil {
		zap.L().Error("conflicting payment event",
			zap.String("orderID", ev.OrderID),
			zap.String("current", string(deposit.Status)),
			zap.String("incoming", ev.Status),
		)
		return err
	}

	if deposit.Status.Terminal() {
		// already settled; nothing to record
		return nil
	}

	var confirmedAt *time.Time
	if next == domain.DepositConfirmed {
		now := time.Now()
		confirmedAt = &now
	}

	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.depositRepo.ApplyEvent(ctx, deposit.ID, next, ev.Status, ev.MerchantAmount, ev.TxID, confirmedAt); err != nil {
			return err
		}
		if credit && ev.MerchantAmount.IsPositive() {
			key := fmt.Sprintf("deposit_%d_%s", deposit.ID, ev.UUID)
			return s.balanceService.Credit(ctx, deposit.UserID, ev.MerchantAmount, &deposit.ID, key, "available")
		}
		return nil
	})
}

func (s *Service) ListByUser(ctx context.Context, userID int) ([]domain.Deposit, error) {
	deposits, err := s.depositRepo.ListByUser(ctx, userID)
	if err != nil {
		zap.L().Error("failed to fetch user deposits", zap.Error(err))
		return nil, err
	}
	return deposits, nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]domain.Deposit, error) {
	deposits, err := s.depositRepo.List(ctx, status, limit, offset)
	if err != nil {
		zap.L().Error("failed to list deposits", zap.Error(err))
		return nil, err
	}
	return deposits, nil
}
