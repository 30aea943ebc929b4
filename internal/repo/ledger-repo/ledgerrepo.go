package ledgerrepo

import (
	"context"

	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/pg"
	"go.uber.org/zap"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

// Insert appends one immutable entry. The unique index on idempotency_key
// turns a replayed write into a no-op; the return value reports whether a
// row was actually written.
func (r *Repository) Insert(ctx context.Context, entry *domain.LedgerEntry) (bool, error) {
	query := `
        INSERT INTO ledger_entries
            (user_id, currency, entry_type, amount,
             available_delta, bonus_delta, locked_delta,
             deposit_id, withdrawal_id, idempotency_key)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (idempotency_key) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query,
		entry.UserID, entry.Currency, entry.EntryType, entry.Amount,
		entry.AvailableDelta, entry.BonusDelta, entry.LockedDelta,
		entry.DepositID, entry.WithdrawalID, entry.IdempotencyKey,
	)
	if err != nil {
		zap.L().Error("can't insert ledger entry", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) HasDepositCredit(ctx context.Context, depositID int) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM ledger_entries
            WHERE deposit_id = $1 AND entry_type = $2
        )
    `
	var exists bool
	err := r.db.QueryRow(ctx, query, depositID, domain.EntryDepositCredit).Scan(&exists)
	if err != nil {
		zap.L().Error("failed to check deposit credit", zap.Error(err))
		return false, err
	}
	return exists, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID, limit, offset int) ([]domain.LedgerEntry, error) {
	query := `
        SELECT id, user_id, currency, entry_type, amount,
               available_delta, bonus_delta, locked_delta,
               deposit_id, withdrawal_id, idempotency_key, created_at
        FROM ledger_entries
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		zap.L().Error("failed to fetch ledger entries", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		err := rows.Scan(&e.ID, &e.UserID, &e.Currency, &e.EntryType, &e.Amount,
			&e.AvailableDelta, &e.BonusDelta, &e.LockedDelta,
			&e.DepositID, &e.WithdrawalID, &e.IdempotencyKey, &e.CreatedAt)
		if err != nil {
			zap.L().Error("failed to scan ledger entry row", zap.Error(err))
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, nil
}
