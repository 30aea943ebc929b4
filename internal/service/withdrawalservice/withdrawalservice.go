package withdrawalservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tarvale/coinledger/internal/config"
	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/pg"
	"github.com/tarvale/coinledger/internal/provider"
	"github.com/tarvale/coinledger/pkg/validate"
	"go.uber.org/zap"
)

const providerName = "cryptomus"

type WithdrawalRepo interface {
	Create(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error)
	GetByID(ctx context.Context, id int) (*domain.Withdrawal, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.Withdrawal, error)
	UpdateStatusIf(ctx context.Context, id int, from, to domain.WithdrawalStatus) (bool, error)
	SetDispatched(ctx context.Context, id int, uuid string) error
	ApplyEvent(ctx context.Context, id int, status domain.WithdrawalStatus, txid string, processedAt *time.Time) error
	ListByUser(ctx context.Context, userID int) ([]domain.Withdrawal, error)
	List(ctx context.Context, status string, limit, offset int) ([]domain.Withdrawal, error)
}

type BalanceService interface {
	Lock(ctx context.Context, userID int, amount decimal.Decimal, withdrawalID *int, key string) error
	Release(ctx context.Context, userID int, amount decimal.Decimal, withdrawalID *int, key string) error
	Settle(ctx context.Context, userID int, amount decimal.Decimal, withdrawalID *int, key string) error
	RecordFee(ctx context.Context, userID int, fee decimal.Decimal, withdrawalID *int, key string) error
}

type Provider interface {
	CreatePayout(req provider.CreatePayoutRequest) (*provider.PayoutResult, error)
}

type AuditRepo interface {
	Record(ctx context.Context, rec *domain.AuditRecord) error
}

var (
	ErrAmountTooSmall   = errors.New("amount below minimum withdrawal")
	ErrInvalidAddress   = errors.New("invalid destination address")
	ErrNotFound         = errors.New("withdrawal not found")
	ErrAlreadyProcessed = errors.New("withdrawal already processed")
	ErrProvider         = errors.New("payout provider rejected the request")
)

// PayoutEvent is one provider notification about a payout, already
// authenticated and parsed by the caller.
type PayoutEvent struct {
	UUID    string
	OrderID string
	Status  string
	TxID    string
	IsFinal bool
}

type Service struct {
	withdrawalRepo WithdrawalRepo
	balanceService BalanceService
	provider       Provider
	auditRepo      AuditRepo
	txManager      pg.TXManager

	minWithdrawal decimal.Decimal
	callbackURL   string
}

func New(cfg *config.Config, withdrawalRepo WithdrawalRepo, balanceService BalanceService, prov Provider, auditRepo AuditRepo, txManager pg.TXManager) *Service {
	return &Service{
		withdrawalRepo: withdrawalRepo,
		balanceService: balanceService,
		provider:       prov,
		auditRepo:      auditRepo,
		txManager:      txManager,
		minWithdrawal:  decimal.NewFromFloat(cfg.MinWithdrawal),
		callbackURL:    cfg.PayoutCallbackURL,
	}
}

// Create validates the request, locks the requested amount and inserts the
// pending withdrawal — all in one transaction, so a failed lock leaves no
// row and a failed insert leaves no lock.
func (s *Service) Create(ctx context.Context, userID int, amount decimal.Decimal, address, network string) (*domain.Withdrawal, error) {
	if amount.LessThan(s.minWithdrawal) {
		return nil, ErrAmountTooSmall
	}
	if !validate.IsAddress(network, address) {
		return nil, ErrInvalidAddress
	}

	withdrawal := &domain.Withdrawal{
		UserID:          userID,
		Currency:        domain.DefaultCurrency,
		Amount:          amount,
		Fee:             domain.NetworkFee(network),
		Address:         address,
		NetworkCode:     network,
		Status:          domain.WithdrawalPending,
		Provider:        providerName,
		ProviderOrderID: fmt.Sprintf("withdrawal_%d_%s", userID, uuid.NewString()),
	}

	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		if _, err := s.withdrawalRepo.Create(ctx, withdrawal); err != nil {
			return err
		}
		return s.balanceService.Lock(ctx, userID, amount, &withdrawal.ID, withdrawal.ProviderOrderID)
	})
	if err != nil {
		return nil, err
	}
	return withdrawal, nil
}

// Approve authorizes the payout and dispatches it to the provider. The
// provider call runs outside any transaction; its outcome is recorded in a
// second short step. A failed dispatch releases the lock immediately.
func (s *Service) Approve(ctx context.Context, id int, actor string) (*domain.Withdrawal, error) {
	withdrawal, err := s.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil {
		return nil, ErrNotFound
	}
	if _, _, err := domain.WithdrawalAdminTransition(withdrawal.Status, true); err != nil {
		return nil, ErrAlreadyProcessed
	}

	ok, err := s.withdrawalRepo.UpdateStatusIf(ctx, id, domain.WithdrawalPending, domain.WithdrawalApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyProcessed
	}

	result, err := s.provider.CreatePayout(provider.CreatePayoutRequest{
		Amount:      withdrawal.Amount.String(),
		Currency:    withdrawal.Currency,
		OrderID:     withdrawal.ProviderOrderID,
		Address:     withdrawal.Address,
		Network:     withdrawal.NetworkCode,
		IsSubtract:  true,
		URLCallback: s.callbackURL,
	})
	if err != nil {
		zap.L().Error("payout dispatch failed",
			zap.Int("withdrawalID", id), zap.Error(err))
		if compErr := s.compensateDispatch(ctx, withdrawal); compErr != nil {
			return nil, compErr
		}
		s.audit(ctx, actor, "withdrawal_dispatch_failed", withdrawal)
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	if err := s.withdrawalRepo.SetDispatched(ctx, id, result.UUID); err != nil {
		return nil, err
	}
	withdrawal.Status = domain.WithdrawalProcessing
	withdrawal.ProviderUUID = result.UUID

	s.audit(ctx, actor, "withdrawal_approved", withdrawal)
	return withdrawal, nil
}

// compensateDispatch unwinds the lock after a failed provider call so the
// funds never stay reserved for a payout that was not accepted.
func (s *Service) compensateDispatch(ctx context.Context, withdrawal *domain.Withdrawal) error {
	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		if _, err := s.withdrawalRepo.UpdateStatusIf(ctx, withdrawal.ID, domain.WithdrawalApproved, domain.WithdrawalFailed); err != nil {
			return err
		}
		key := fmt.Sprintf("withdrawal_%d_dispatch_failed", withdrawal.ID)
		return s.balanceService.Release(ctx, withdrawal.UserID, withdrawal.Amount, &withdrawal.ID, key)
	})
}

// Reject releases the lock and closes the withdrawal without any provider
// call. The full amount goes back to available; the fee was never charged.
func (s *Service) Reject(ctx context.Context, id int, actor string) (*domain.Withdrawal, error) {
	withdrawal, err := s.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil {
		return nil, ErrNotFound
	}
	if _, _, err := domain.WithdrawalAdminTransition(withdrawal.Status, false); err != nil {
		return nil, ErrAlreadyProcessed
	}

	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		ok, err := s.withdrawalRepo.UpdateStatusIf(ctx, id, domain.WithdrawalPending, domain.WithdrawalRejected)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyProcessed
		}
		key := fmt.Sprintf("withdrawal_%d_rejected", id)
		return s.balanceService.Release(ctx, withdrawal.UserID, withdrawal.Amount, &withdrawal.ID, key)
	})
	if err != nil {
		return nil, err
	}

	withdrawal.Status = domain.WithdrawalRejected
	s.audit(ctx, actor, "withdrawal_rejected", withdrawal)
	return withdrawal, nil
}

// ApplyPayoutEvent advances the withdrawal state machine with one provider
// notification. Completion settles the lock and records the fee; failure
// releases the lock. Either effect happens at most once.
func (s *Service) ApplyPayoutEvent(ctx context.Context, ev PayoutEvent) error {
	withdrawal, err := s.withdrawalRepo.GetByOrderID(ctx, ev.OrderID)
	if err != nil {
		return err
	}
	if withdrawal == nil {
		zap.L().Warn("payout event for unknown order", zap.String("orderID", ev.OrderID))
		return ErrNotFound
	}

	mapped := domain.MapPayoutStatus(ev.Status)
	next, effect, err := domain.WithdrawalPayoutTransition(withdrawal.Status, mapped)
	if err != nil {
		zap.L().Error("conflicting payout event",
			zap.String("orderID", ev.OrderID),
			zap.String("current", string(withdrawal.Status)),
			zap.String("incoming", ev.Status),
		)
		return err
	}

	if withdrawal.Status.Terminal() {
		return nil
	}

	var processedAt *time.Time
	if ev.IsFinal {
		now := time.Now()
		processedAt = &now
	}

	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.withdrawalRepo.ApplyEvent(ctx, withdrawal.ID, next, ev.TxID, processedAt); err != nil {
			return err
		}
		switch effect {
		case domain.EffectSettle:
			key := fmt.Sprintf("withdrawal_%d_%s", withdrawal.ID, ev.UUID)
			if err := s.balanceService.Settle(ctx, withdrawal.UserID, withdrawal.Amount, &withdrawal.ID, key); err != nil {
				return err
			}
			if withdrawal.Fee.IsPositive() {
				feeKey := fmt.Sprintf("withdrawal_%d_fee", withdrawal.ID)
				return s.balanceService.RecordFee(ctx, withdrawal.UserID, withdrawal.Fee, &withdrawal.ID, feeKey)
			}
			return nil
		case domain.EffectRelease:
			key := fmt.Sprintf("withdrawal_failed_%d_%s", withdrawal.ID, ev.UUID)
			return s.balanceService.Release(ctx, withdrawal.UserID, withdrawal.Amount, &withdrawal.ID, key)
		default:
			return nil
		}
	})
}

func (s *Service) ListByUser(ctx context.Context, userID int) ([]domain.Withdrawal, error) {
	withdrawals, err := s.withdrawalRepo.ListByUser(ctx, userID)
	if err != nil {
		zap.L().Error("failed to fetch user withdrawals", zap.Error(err))
		return nil, err
	}
	return withdrawals, nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]domain.Withdrawal, error) {
	withdrawals, err := s.withdrawalRepo.List(ctx, status, limit, offset)
	if err != nil {
		zap.L().Error("failed to list withdrawals", zap.Error(err))
		return nil, err
	}
	return withdrawals, nil
}

func (s *Service) audit(ctx context.Context, actor, action string, withdrawal *domain.Withdrawal) {
	metadata, _ := json.Marshal(map[string]any{
		"amount":  withdrawal.Amount.String(),
		"address": withdrawal.Address,
		"network": withdrawal.NetworkCode,
	})
	rec := &domain.AuditRecord{
		Actor:      actor,
		Action:     action,
		TargetType: "withdrawal",
		TargetID:   withdrawal.ID,
		Metadata:   metadata,
	}
	if err := s.auditRepo.Record(ctx, rec); err != nil {
		zap.L().Error("failed to record audit entry", zap.Error(err))
	}
}
