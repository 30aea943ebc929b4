package domain

import "github.com/shopspring/decimal"

type DepositStatus string

const (
	DepositPending   DepositStatus = "pending"
	DepositConfirmed DepositStatus = "confirmed"
	DepositFailed    DepositStatus = "failed"
	DepositExpired   DepositStatus = "expired"
)

func (s DepositStatus) Terminal() bool {
	return s == DepositConfirmed || s == DepositFailed || s == DepositExpired
}

type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "pending"
	WithdrawalApproved   WithdrawalStatus = "approved"
	WithdrawalProcessing WithdrawalStatus = "processing"
	WithdrawalCompleted  WithdrawalStatus = "completed"
	WithdrawalFailed     WithdrawalStatus = "failed"
	WithdrawalRejected   WithdrawalStatus = "rejected"
)

func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalCompleted || s == WithdrawalFailed || s == WithdrawalRejected
}

type EntryType string

const (
	EntryDepositCredit      EntryType = "deposit_credit"
	EntryWithdrawalLock     EntryType = "withdrawal_lock"
	EntryWithdrawalDebit    EntryType = "withdrawal_debit"
	EntryWithdrawalFee      EntryType = "withdrawal_fee"
	EntryWithdrawalReversal EntryType = "withdrawal_reversal"
)

type EventStatus string

const (
	EventPending   EventStatus = "pending"
	EventProcessed EventStatus = "processed"
	EventFailed    EventStatus = "failed"
)

// Provider status vocabularies are case-sensitive; anything unmapped keeps
// the entity awaiting a later notification.
var paymentStatusMap = map[string]DepositStatus{
	"paid":         DepositConfirmed,
	"paid_over":    DepositConfirmed,
	"wrong_amount": DepositConfirmed,
	"cancel":       DepositExpired,
	"fail":         DepositFailed,
	"system_fail":  DepositFailed,
}

var payoutStatusMap = map[string]WithdrawalStatus{
	"process":     WithdrawalProcessing,
	"check":       WithdrawalProcessing,
	"paid":        WithdrawalCompleted,
	"fail":        WithdrawalFailed,
	"cancel":      WithdrawalFailed,
	"system_fail": WithdrawalFailed,
}

func MapPaymentStatus(providerStatus string) DepositStatus {
	if s, ok := paymentStatusMap[providerStatus]; ok {
		return s
	}
	return DepositPending
}

func MapPayoutStatus(providerStatus string) WithdrawalStatus {
	if s, ok := payoutStatusMap[providerStatus]; ok {
		return s
	}
	return WithdrawalProcessing
}

var networkFees = map[string]decimal.Decimal{
	"TRON":    decimal.RequireFromString("1.70"),
	"BSC":     decimal.RequireFromString("0.30"),
	"ETH":     decimal.RequireFromString("10.00"),
	"POLYGON": decimal.RequireFromString("0.01"),
}

// NetworkFee returns the flat payout fee for a network code; unknown
// networks fall back to the TRON fee.
func NetworkFee(network string) decimal.Decimal {
	if fee, ok := networkFees[network]; ok {
		return fee
	}
	return networkFees["TRON"]
}
