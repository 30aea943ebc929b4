package domain

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition marks a state change the machine does not allow, such
// as crediting a deposit that already failed. Callers decide whether to
// surface it or treat a repeated terminal notification as a no-op.
var ErrIllegalTransition = errors.New("illegal state transition")

// BalanceEffect names the balance-store operation a transition requires.
// Every effect is paired with exactly one ledger entry by the caller.
type BalanceEffect int

const (
	EffectNone BalanceEffect = iota
	EffectCredit
	EffectSettle
	EffectRelease
)

// DepositTransition applies a mapped provider status to a deposit. It
// reports the next status and whether the deposit has to be credited, which
// happens only on the first entry into confirmed.
func DepositTransition(current, mapped DepositStatus) (DepositStatus, bool, error) {
	if current.Terminal() {
		if mapped == current || mapped == DepositPending {
			return current, false, nil
		}
		return current, false, fmt.Errorf("deposit %s -> %s: %w", current, mapped, ErrIllegalTransition)
	}

	switch mapped {
	case DepositPending:
		return DepositPending, false, nil
	case DepositConfirmed:
		return DepositConfirmed, true, nil
	case DepositFailed, DepositExpired:
		return mapped, false, nil
	default:
		return current, false, fmt.Errorf("deposit %s -> %s: %w", current, mapped, ErrIllegalTransition)
	}
}

// WithdrawalAdminTransition resolves the synchronous approval gate. Only a
// pending withdrawal may be approved or rejected; rejection releases the
// lock.
func WithdrawalAdminTransition(current WithdrawalStatus, approve bool) (WithdrawalStatus, BalanceEffect, error) {
	if current != WithdrawalPending {
		return current, EffectNone, fmt.Errorf("withdrawal %s: %w", current, ErrIllegalTransition)
	}
	if approve {
		return WithdrawalApproved, EffectNone, nil
	}
	return WithdrawalRejected, EffectRelease, nil
}

// WithdrawalDispatchTransition records the outcome of the provider payout
// call. A failed dispatch releases the lock immediately so it can never be
// left dangling.
func WithdrawalDispatchTransition(current WithdrawalStatus, ok bool) (WithdrawalStatus, BalanceEffect, error) {
	if current != WithdrawalApproved {
		return current, EffectNone, fmt.Errorf("withdrawal %s: %w", current, ErrIllegalTransition)
	}
	if ok {
		return WithdrawalProcessing, EffectNone, nil
	}
	return WithdrawalFailed, EffectRelease, nil
}

// WithdrawalPayoutTransition applies a mapped provider payout status to a
// dispatched withdrawal. Terminal states absorb repeated notifications of
// the same outcome; conflicting outcomes are illegal.
func WithdrawalPayoutTransition(current, mapped WithdrawalStatus) (WithdrawalStatus, BalanceEffect, error) {
	if current.Terminal() {
		if mapped == current || mapped == WithdrawalProcessing {
			return current, EffectNone, nil
		}
		return current, EffectNone, fmt.Errorf("withdrawal %s -> %s: %w", current, mapped, ErrIllegalTransition)
	}

	if current != WithdrawalApproved && current != WithdrawalProcessing {
		return current, EffectNone, fmt.Errorf("withdrawal %s -> %s: %w", current, mapped, ErrIllegalTransition)
	}

	switch mapped {
	case WithdrawalProcessing:
		return WithdrawalProcessing, EffectNone, nil
	case WithdrawalCompleted:
		return WithdrawalCompleted, EffectSettle, nil
	case WithdrawalFailed:
		return WithdrawalFailed, EffectRelease, nil
	default:
		return current, EffectNone, fmt.Errorf("withdrawal %s -> %s: %w", current, mapped, ErrIllegalTransition)
	}
}
