package balanceservice

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/pg"
	"go.uber.org/zap"
)

type BalanceRepo interface {
	GetBalance(ctx context.Context, userID int, currency string) (*domain.Balance, error)
	CreateBalance(ctx context.Context, userID int, currency string) (*domain.Balance, error)
	Lock(ctx context.Context, userID int, currency string, amount decimal.Decimal) (bool, error)
	Release(ctx context.Context, userID int, currency string, amount decimal.Decimal) (bool, error)
	Settle(ctx context.Context, userID int, currency string, amount decimal.Decimal) (bool, error)
	Credit(ctx context.Context, userID int, currency string, amount decimal.Decimal, sub string) error
}

type LedgerRepo interface {
	Insert(ctx context.Context, entry *domain.LedgerEntry) (bool, error)
	HasDepositCredit(ctx context.Context, depositID int) (bool, error)
	ListByUser(ctx context.Context, userID, limit, offset int) ([]domain.LedgerEntry, error)
}

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrLockedMismatch    = errors.New("locked balance below requested amount")
)

// Service is the only mutation path into balances. Every operation writes
// its ledger entry and applies its balance delta inside one transaction, so
// a balance can never change without a matching entry. When the entry's
// idempotency key already exists the whole operation is a no-op.
type Service struct {
	balanceRepo BalanceRepo
	ledgerRepo  LedgerRepo
	txManager   pg.TXManager
}

func New(balanceRepo BalanceRepo, ledgerRepo LedgerRepo, txManager pg.TXManager) *Service {
	return &Service{
		balanceRepo: balanceRepo,
		ledgerRepo:  ledgerRepo,
		txManager:   txManager,
	}
}

func (s *Service) GetBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	balance, err := s.balanceRepo.GetBalance(ctx, userID, domain.DefaultCurrency)
	if err != nil {
		zap.L().Error("failed to get balance", zap.Error(err))
		return nil, err
	}
	if balance == nil {
		return &domain.Balance{UserID: userID, Currency: domain.DefaultCurrency}, nil
	}
	return balance, nil
}

func (s *Service) CreateBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	balance, err := s.balanceRepo.CreateBalance(ctx, userID, domain.DefaultCurrency)
	if err != nil {
		zap.L().Error("failed to create balance", zap.Error(err))
		return nil, err
	}
	return balance, nil
}

// Lock reserves amount against an in-flight withdrawal.
func (s *Service) Lock(ctx context.Context, userID int, amount decimal.Decimal, withdrawalID *int, key string) error {
	entry := &domain.LedgerEntry{
		UserID:         userID,
		Currency:       domain.DefaultCurrency,
		EntryType:      domain.EntryWithdrawalLock,
		Amount:         amount,
		AvailableDelta: amount.Neg(),
		LockedDelta:    amount,
		WithdrawalID:   withdrawalID,
		IdempotencyKey: &key,
	}
	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		inserted, err := s.ledgerRepo.Insert(ctx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		ok, err := s.balanceRepo.Lock(ctx, userID, domain.DefaultCurrency, amount)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientFunds
		}
		return nil
	})
}

// Release returns a lock to available after a rejection or failure.
func (s *Service) Release(ctx context.Context, userID int, amount decimal.Decimal, withdrawalID *int, key string) error {
	entry := &domain.LedgerEntry{
		UserID:         userID,
		Currency:       domain.DefaultCurrency,
		EntryType:      domain.EntryWithdrawalReversal,
		Amount:         amount,
		AvailableDelta: amount,
		LockedDelta:    amount.Neg(),
		WithdrawalID:   withdrawalID,
		IdempotencyKey: &key,
	}
	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		inserted, err := s.ledgerRepo.Insert(ctx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		ok, err := s.balanceRepo.Release(ctx, userID, domain.DefaultCurrency, amount)
		if err != nil {
			return err
		}
		if !ok {
			return ErrLockedMismatch
		}
		return nil
	})
}

// Settle extinguishes a lock on a completed payout.
func (s *Service) Settle(ctx context.Context, userID int, amount decimal.Decimal, withdrawalID *int, key string) error {
	entry := &domain.LedgerEntry{
		UserID:         userID,
		Currency:       domain.DefaultCurrency,
		EntryType:      domain.EntryWithdrawalDebit,
		Amount:         amount,
		LockedDelta:    amount.Neg(),
		WithdrawalID:   withdrawalID,
		IdempotencyKey: &key,
	}
	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		inserted, err := s.ledgerRepo.Insert(ctx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		ok, err := s.balanceRepo.Settle(ctx, userID, domain.DefaultCurrency, amount)
		if err != nil {
			return err
		}
		if !ok {
			return ErrLockedMismatch
		}
		return nil
	})
}

// Credit adds funds to a spendable sub-balance on a confirmed deposit.
func (s *Service) Credit(ctx context.Context, userID int, amount decimal.Decimal, depositID *int, key string, sub string) error {
	entry := &domain.LedgerEntry{
		UserID:         userID,
		Currency:       domain.DefaultCurrency,
		EntryType:      domain.EntryDepositCredit,
		Amount:         amount,
		DepositID:      depositID,
		IdempotencyKey: &key,
	}
	switch sub {
	case "bonus":
		entry.BonusDelta = amount
	default:
		sub = "available"
		entry.AvailableDelta = amount
	}
	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		if depositID != nil {
			credited, err := s.ledgerRepo.HasDepositCredit(ctx, *depositID)
			if err != nil {
				return err
			}
			if credited {
				return nil
			}
		}
		inserted, err := s.ledgerRepo.Insert(ctx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		return s.balanceRepo.Credit(ctx, userID, domain.DefaultCurrency, amount, sub)
	})
}

// RecordFee writes the informational fee entry for a completed withdrawal.
// It carries no balance deltas; the fee was never part of the user balance.
func (s *Service) RecordFee(ctx context.Context, userID int, fee decimal.Decimal, withdrawalID *int, key string) error {
	entry := &domain.LedgerEntry{
		UserID:         userID,
		Currency:       domain.DefaultCurrency,
		EntryType:      domain.EntryWithdrawalFee,
		Amount:         fee,
		WithdrawalID:   withdrawalID,
		IdempotencyKey: &key,
	}
	_, err := s.ledgerRepo.Insert(ctx, entry)
	return err
}

func (s *Service) History(ctx context.Context, userID, limit, offset int) ([]domain.LedgerEntry, error) {
	entries, err := s.ledgerRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		zap.L().Error("failed to fetch ledger history", zap.Error(err))
		return nil, err
	}
	return entries, nil
}
