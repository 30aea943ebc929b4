package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the single stable-coin the ledger accounts for.
const DefaultCurrency = "USDT"

type User struct {
	ID         int       `db:"id"`
	ExternalID string    `db:"external_id"`
	RefCode    string    `db:"ref_code"`
	ReferredBy *int      `db:"referred_by"`
	CreatedAt  time.Time `db:"created_at"`
}

type Balance struct {
	ID        int             `db:"id"`
	UserID    int             `db:"user_id"`
	Currency  string          `db:"currency"`
	Available decimal.Decimal `db:"available"`
	Bonus     decimal.Decimal `db:"bonus"`
	Locked    decimal.Decimal `db:"locked"`
	UpdatedAt time.Time       `db:"updated_at"`
}

type Deposit struct {
	ID              int             `db:"id"`
	UserID          int             `db:"user_id"`
	Currency        string          `db:"currency"`
	Amount          decimal.Decimal `db:"amount"`
	ReceivedAmount  decimal.Decimal `db:"received_amount"`
	Status          DepositStatus   `db:"status"`
	PaymentStatus   string          `db:"payment_status"`
	NetworkCode     string          `db:"network_code"`
	Provider        string          `db:"provider"`
	ProviderOrderID string          `db:"provider_order_id"`
	ProviderUUID    string          `db:"provider_uuid"`
	Address         string          `db:"address"`
	PaymentURL      string          `db:"payment_url"`
	TxID            string          `db:"txid"`
	ExpiredAt       *time.Time      `db:"expired_at"`
	ConfirmedAt     *time.Time      `db:"confirmed_at"`
	CreatedAt       time.Time       `db:"created_at"`
}

type Withdrawal struct {
	ID              int              `db:"id"`
	UserID          int              `db:"user_id"`
	Currency        string           `db:"currency"`
	Amount          decimal.Decimal  `db:"amount"`
	Fee             decimal.Decimal  `db:"fee"`
	Address         string           `db:"address"`
	NetworkCode     string           `db:"network_code"`
	Status          WithdrawalStatus `db:"status"`
	Provider        string           `db:"provider"`
	ProviderOrderID string           `db:"provider_order_id"`
	ProviderUUID    string           `db:"provider_uuid"`
	TxID            string           `db:"txid"`
	RequestedAt     time.Time        `db:"requested_at"`
	ProcessedAt     *time.Time       `db:"processed_at"`
}

// LedgerEntry is the immutable record of one balance mutation. Entries are
// only ever inserted; the idempotency key carries a uniqueness constraint so
// a replayed provider event cannot produce a second entry.
type LedgerEntry struct {
	ID             int             `db:"id"`
	UserID         int             `db:"user_id"`
	Currency       string          `db:"currency"`
	EntryType      EntryType       `db:"entry_type"`
	Amount         decimal.Decimal `db:"amount"`
	AvailableDelta decimal.Decimal `db:"available_delta"`
	BonusDelta     decimal.Decimal `db:"bonus_delta"`
	LockedDelta    decimal.Decimal `db:"locked_delta"`
	DepositID      *int            `db:"deposit_id"`
	WithdrawalID   *int            `db:"withdrawal_id"`
	IdempotencyKey *string         `db:"idempotency_key"`
	CreatedAt      time.Time       `db:"created_at"`
}

type ProviderEvent struct {
	ID          int         `db:"id"`
	Source      string      `db:"source"`
	EventType   string      `db:"event_type"`
	ExternalID  string      `db:"external_id"`
	Payload     []byte      `db:"payload"`
	Status      EventStatus `db:"status"`
	ReceivedAt  time.Time   `db:"received_at"`
	ProcessedAt *time.Time  `db:"processed_at"`
}

type AuditRecord struct {
	ID         int       `db:"id"`
	Actor      string    `db:"actor"`
	Action     string    `db:"action"`
	TargetType string    `db:"target_type"`
	TargetID   int       `db:"target_id"`
	Metadata   []byte    `db:"metadata"`
	CreatedAt  time.Time `db:"created_at"`
}
