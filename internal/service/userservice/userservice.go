package userservice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sort"
	"strings"

	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/pg"
	"go.uber.org/zap"
)

type UserRepo interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	GetByRefCode(ctx context.Context, refCode string) (*domain.User, error)
}

type BalanceService interface {
	CreateBalance(ctx context.Context, userID int) (*domain.Balance, error)
}

type DepositService interface {
	ListByUser(ctx context.Context, userID int) ([]domain.Deposit, error)
}

type WithdrawalService interface {
	ListByUser(ctx context.Context, userID int) ([]domain.Withdrawal, error)
}

var (
	ErrInvalidExternalID = errors.New("external id must not be empty")
	ErrRefCodeExhausted  = errors.New("could not allocate a unique referral code")
)

const refCodeAttempts = 10

// Transaction is one row of a user's merged money-movement history.
type Transaction struct {
	Kind      string `json:"kind"`
	ID        int    `json:"id"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type Service struct {
	userRepo          UserRepo
	balanceService    BalanceService
	depositService    DepositService
	withdrawalService WithdrawalService
	txManager         pg.TXManager
}

func New(userRepo UserRepo, balanceService BalanceService, depositService DepositService, withdrawalService WithdrawalService, txManager pg.TXManager) *Service {
	return &Service{
		userRepo:          userRepo,
		balanceService:    balanceService,
		depositService:    depositService,
		withdrawalService: withdrawalService,
		txManager:         txManager,
	}
}

// Register creates the user together with a zeroed balance row. Registration
// is idempotent on the external id: a repeat call returns the existing user.
func (s *Service) Register(ctx context.Context, externalID, refCode string) (*domain.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, ErrInvalidExternalID
	}

	existing, err := s.userRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	var referredBy *int
	if refCode != "" {
		referrer, err := s.userRepo.GetByRefCode(ctx, strings.ToUpper(refCode))
		if err != nil {
			return nil, err
		}
		if referrer != nil {
			referredBy = &referrer.ID
		}
	}

	code, err := s.allocateRefCode(ctx)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ExternalID: externalID,
		RefCode:    code,
		ReferredBy: referredBy,
	}
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		if _, err := s.userRepo.CreateUser(ctx, user); err != nil {
			return err
		}
		_, err := s.balanceService.CreateBalance(ctx, user.ID)
		return err
	})
	if err != nil {
		zap.L().Error("failed to register user", zap.String("externalID", externalID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *Service) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	return s.userRepo.GetByExternalID(ctx, externalID)
}

func (s *Service) allocateRefCode(ctx context.Context) (string, error) {
	for i := 0; i < refCodeAttempts; i++ {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		code := strings.ToUpper(hex.EncodeToString(buf))
		taken, err := s.userRepo.GetByRefCode(ctx, code)
		if err != nil {
			return "", err
		}
		if taken == nil {
			return code, nil
		}
	}
	return "", ErrRefCodeExhausted
}

// Transactions merges the user's deposits and withdrawals into one list,
// newest first.
func (s *Service) Transactions(ctx context.Context, userID int) ([]Transaction, error) {
	deposits, err := s.depositService.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	withdrawals, err := s.withdrawalService.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	transactions := make([]Transaction, 0, len(deposits)+len(withdrawals))
	for _, d := range deposits {
		transactions = append(transactions, Transaction{
			Kind:      "deposit",
			ID:        d.ID,
			Amount:    d.Amount.String(),
			Status:    string(d.Status),
			CreatedAt: d.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	for _, w := range withdrawals {
		transactions = append(transactions, Transaction{
			Kind:      "withdrawal",
			ID:        w.ID,
			Amount:    w.Amount.String(),
			Status:    string(w.Status),
			CreatedAt: w.RequestedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].CreatedAt > transactions[j].CreatedAt
	})
	return transactions, nil
}
