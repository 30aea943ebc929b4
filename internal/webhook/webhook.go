package webhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/pg"
	"github.com/tarvale/coinledger/internal/service/depositservice"
	"github.com/tarvale/coinledger/internal/service/withdrawalservice"
	"go.uber.org/zap"
)

const source = "cryptomus"

type DepositService interface {
	ApplyPaymentEvent(ctx context.Context, ev depositservice.PaymentEvent) error
}

type WithdrawalService interface {
	ApplyPayoutEvent(ctx context.Context, ev withdrawalservice.PayoutEvent) error
}

type EventRepo interface {
	Insert(ctx context.Context, event *domain.ProviderEvent) (bool, domain.EventStatus, error)
	MarkProcessed(ctx context.Context, source, externalID string) error
	MarkFailed(ctx context.Context, source, externalID string) error
}

type SignatureVerifier interface {
	VerifySignature(payload map[string]any, signature string, isPayment bool) bool
}

var (
	ErrInvalidSignature = errors.New("webhook signature mismatch")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)

// PaymentWebhook is the provider's payment notification body. Amount fields
// arrive as strings and stay strings until the deposit service needs them.
type PaymentWebhook struct {
	UUID           string `json:"uuid"`
	OrderID        string `json:"order_id"`
	Status         string `json:"status"`
	Amount         string `json:"amount"`
	MerchantAmount string `json:"merchant_amount"`
	Currency       string `json:"currency"`
	Network        string `json:"network"`
	TxID           string `json:"txid"`
	IsFinal        bool   `json:"is_final"`
	Sign           string `json:"sign"`
}

type PayoutWebhook struct {
	UUID     string `json:"uuid"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Network  string `json:"network"`
	TxID     string `json:"txid"`
	IsFinal  bool   `json:"is_final"`
	Sign     string `json:"sign"`
}

// Ingestor authenticates, deduplicates and applies provider notifications.
// Every accepted event is stored before it is applied, so a crash between
// the two leaves a pending row the next delivery attempt picks up.
type Ingestor struct {
	depositService    DepositService
	withdrawalService WithdrawalService
	eventRepo         EventRepo
	verifier          SignatureVerifier
	txManager         pg.TXManager
}

func NewIngestor(depositService DepositService, withdrawalService WithdrawalService, eventRepo EventRepo, verifier SignatureVerifier, txManager pg.TXManager) *Ingestor {
	return &Ingestor{
		depositService:    depositService,
		withdrawalService: withdrawalService,
		eventRepo:         eventRepo,
		verifier:          verifier,
		txManager:         txManager,
	}
}

// IngestPayment processes one raw payment webhook body.
func (i *Ingestor) IngestPayment(ctx context.Context, body []byte) error {
	payload, hook, err := parsePayment(body)
	if err != nil {
		return err
	}
	if !i.verifier.VerifySignature(payload, hook.Sign, true) {
		zap.L().Warn("payment webhook rejected", zap.String("orderID", hook.OrderID))
		return ErrInvalidSignature
	}

	fresh, err := i.record(ctx, "payment", hook.UUID, body)
	if err != nil || !fresh {
		return err
	}

	merchantAmount, err := decimal.NewFromString(hook.MerchantAmount)
	if err != nil && hook.MerchantAmount != "" {
		return ErrMalformedPayload
	}

	ev := depositservice.PaymentEvent{
		UUID:           hook.UUID,
		OrderID:        hook.OrderID,
		Status:         hook.Status,
		MerchantAmount: merchantAmount,
		TxID:           hook.TxID,
		IsFinal:        hook.IsFinal,
	}
	return i.apply(ctx, hook.UUID, func(ctx context.Context) error {
		return i.depositService.ApplyPaymentEvent(ctx, ev)
	})
}

// IngestPayout processes one raw payout webhook body.
func (i *Ingestor) IngestPayout(ctx context.Context, body []byte) error {
	payload, hook, err := parsePayout(body)
	if err != nil {
		return err
	}
	if !i.verifier.VerifySignature(payload, hook.Sign, false) {
		zap.L().Warn("payout webhook rejected", zap.String("orderID", hook.OrderID))
		return ErrInvalidSignature
	}

	fresh, err := i.record(ctx, "payout", hook.UUID, body)
	if err != nil || !fresh {
		return err
	}

	ev := withdrawalservice.PayoutEvent{
		UUID:    hook.UUID,
		OrderID: hook.OrderID,
		Status:  hook.Status,
		TxID:    hook.TxID,
		IsFinal: hook.IsFinal,
	}
	return i.apply(ctx, hook.UUID, func(ctx context.Context) error {
		return i.withdrawalService.ApplyPayoutEvent(ctx, ev)
	})
}

// record stores the event and resolves duplicates: a replay of a processed
// event is acknowledged without reapplying it, a replay of a failed one is
// retried.
func (i *Ingestor) record(ctx context.Context, eventType, externalID string, body []byte) (bool, error) {
	inserted, existing, err := i.eventRepo.Insert(ctx, &domain.ProviderEvent{
		Source:     source,
		EventType:  eventType,
		ExternalID: externalID,
		Payload:    body,
		Status:     domain.EventPending,
	})
	if err != nil {
		return false, err
	}
	if !inserted && existing == domain.EventProcessed {
		zap.L().Info("duplicate webhook ignored",
			zap.String("eventType", eventType), zap.String("externalID", externalID))
		return false, nil
	}
	return true, nil
}

func (i *Ingestor) apply(ctx context.Context, externalID string, fn func(ctx context.Context) error) error {
	err := i.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return i.eventRepo.MarkProcessed(ctx, source, externalID)
	})
	if err != nil {
		if markErr := i.eventRepo.MarkFailed(ctx, source, externalID); markErr != nil {
			zap.L().Error("failed to mark event failed",
				zap.String("externalID", externalID), zap.Error(markErr))
		}
		return err
	}
	return nil
}

func parsePayment(body []byte) (map[string]any, *PaymentWebhook, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, ErrMalformedPayload
	}
	var hook PaymentWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, nil, ErrMalformedPayload
	}
	if hook.UUID == "" || hook.OrderID == "" || hook.Sign == "" {
		return nil, nil, ErrMalformedPayload
	}
	return payload, &hook, nil
}

func parsePayout(body []byte) (map[string]any, *PayoutWebhook, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, ErrMalformedPayload
	}
	var hook PayoutWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, nil, ErrMalformedPayload
	}
	if hook.UUID == "" || hook.OrderID == "" || hook.Sign == "" {
		return nil, nil, ErrMalformedPayload
	}
	return payload, &hook, nil
}
