package reconciler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/provider"
	"github.com/tarvale/coinledger/internal/service/depositservice"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	maxRetries    = 3
	retryInterval = time.Second * 1
)

var inFlight sync.Map

type DepositRepo interface {
	FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Deposit, error)
}

type DepositService interface {
	ApplyPaymentEvent(ctx context.Context, ev depositservice.PaymentEvent) error
}

type Provider interface {
	GetPaymentInfo(orderID string) (*provider.PaymentResult, error)
}

// Service periodically re-queries the provider for deposits whose webhook
// never arrived and applies whatever status the provider reports. The state
// machine downstream makes repeated application harmless.
type Service struct {
	depositRepo    DepositRepo
	depositService DepositService
	provider       Provider
	limit          uint32
	staleAfter     time.Duration
	workerPool     WorkerPoolI
	updateInterval time.Duration
}

func New(depositRepo DepositRepo, depositService DepositService, prov Provider) *Service {
	return &Service{
		depositRepo:    depositRepo,
		depositService: depositService,
		provider:       prov,
		limit:          1000,
		staleAfter:     time.Minute * 2,
		workerPool:     NewWorkerPool(10),
		updateInterval: time.Second * 30,
	}
}

func (s *Service) Start(ctx context.Context) {
	zap.L().Info("Reconciler started")
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping reconciler")
			return
		case <-ticker.C:
			s.processDeposits(ctx)
		}
	}
}

func (s *Service) processDeposits(ctx context.Context) {
	deposits, err := s.depositRepo.FindStalePending(ctx, s.staleAfter, int(atomic.LoadUint32(&s.limit)))
	if err != nil {
		zap.L().Error("Failed to fetch stale deposits", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, deposit := range deposits {
		deposit := deposit

		if _, loaded := inFlight.LoadOrStore(deposit.ProviderOrderID, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := s.workerPool.AddTask(ctx, func() error {
				defer inFlight.Delete(deposit.ProviderOrderID)
				return s.reconcile(ctx, deposit)
			})
			if err != nil {
				inFlight.Delete(deposit.ProviderOrderID)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Error reconciling deposits", zap.Error(err))
	}
}

func (s *Service) reconcile(ctx context.Context, deposit domain.Deposit) error {
	var info *provider.PaymentResult
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			info, err = s.provider.GetPaymentInfo(deposit.ProviderOrderID)
			if err != nil {
				if attempt < maxRetries {
					time.Sleep(retryInterval * time.Duration(attempt))
					continue
				}
				return fmt.Errorf("failed to query deposit %s after %d retries: %w", deposit.ProviderOrderID, maxRetries, err)
			}
		}
		break
	}

	if info.OrderID != deposit.ProviderOrderID {
		return fmt.Errorf("order id mismatch: expected %s, got %s", deposit.ProviderOrderID, info.OrderID)
	}

	merchantAmount := decimal.Zero
	if info.MerchantAmount != "" {
		merchantAmount, err = decimal.NewFromString(info.MerchantAmount)
		if err != nil {
			return fmt.Errorf("failed to parse merchant amount for %s: %w", deposit.ProviderOrderID, err)
		}
	}

	ev := depositservice.PaymentEvent{
		UUID:           info.UUID,
		OrderID:        info.OrderID,
		Status:         info.Status,
		MerchantAmount: merchantAmount,
		TxID:           info.TxID,
		IsFinal:        info.IsFinal,
	}
	if err := s.depositService.ApplyPaymentEvent(ctx, ev); err != nil {
		return fmt.Errorf("failed to apply provider status for %s: %w", deposit.ProviderOrderID, err)
	}
	return nil
}
