package balancerepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

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

func (r *Repository) GetBalance(ctx context.Context, userID int, currency string) (*domain.Balance, error) {
	query := `
        SELECT id, user_id, currency, available, bonus, locked, updated_at
        FROM balances
        WHERE user_id = $1 AND currency = $2
    `
	row := r.db.QueryRow(ctx, query, userID, currency)
	var balance domain.Balance
	err := row.Scan(&balance.ID, &balance.UserID, &balance.Currency,
		&balance.Available, &balance.Bonus, &balance.Locked, &balance.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get balance", zap.Error(err))
		return nil, err
	}
	return &balance, nil
}

func (r *Repository) CreateBalance(ctx context.Context, userID int, currency string) (*domain.Balance, error) {
	query := `
        INSERT INTO balances (user_id, currency, available, bonus, locked)
        VALUES ($1, $2, 0, 0, 0)
        RETURNING id, user_id, currency, available, bonus, locked, updated_at
    `
	row := r.db.QueryRow(ctx, query, userID, currency)
	var balance domain.Balance
	err := row.Scan(&balance.ID, &balance.UserID, &balance.Currency,
		&balance.Available, &balance.Bonus, &balance.Locked, &balance.UpdatedAt)
	if err != nil {
		zap.L().Error("failed to create balance", zap.Error(err))
		return nil, err
	}
	return &balance, nil
}

// Lock moves amount from available into locked. The WHERE guard makes an
// over-lock a zero-row update rather than a negative balance.
func (r *Repository) Lock(ctx context.Context, userID int, currency string, amount decimal.Decimal) (bool, error) {
	query := `
        UPDATE balances
        SET available = available - $1, locked = locked + $1, updated_at = NOW()
        WHERE user_id = $2 AND currency = $3 AND available >= $1
    `
	tag, err := r.db.Exec(ctx, query, amount, userID, currency)
	if err != nil {
		zap.L().Error("failed to lock funds", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Release returns a lock to available.
func (r *Repository) Release(ctx context.Context, userID int, currency string, amount decimal.Decimal) (bool, error) {
	query := `
        UPDATE balances
        SET available = available + $1, locked = locked - $1, updated_at = NOW()
        WHERE user_id = $2 AND currency = $3 AND locked >= $1
    `
	tag, err := r.db.Exec(ctx, query, amount, userID, currency)
	if err != nil {
		zap.L().Error("failed to release funds", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Settle extinguishes a lock; the funds leave the system.
func (r *Repository) Settle(ctx context.Context, userID int, currency string, amount decimal.Decimal) (bool, error) {
	query := `
        UPDATE balances
        SET locked = locked - $1, updated_at = NOW()
        WHERE user_id = $2 AND currency = $3 AND locked >= $1
    `
	tag, err := r.db.Exec(ctx, query, amount, userID, currency)
	if err != nil {
		zap.L().Error("failed to settle funds", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Credit increments a spendable sub-balance, creating the balance row when
// the user has never held funds in this currency.
func (r *Repository) Credit(ctx context.Context, userID int, currency string, amount decimal.Decimal, sub string) error {
	var query string
	switch sub {
	case "available":
		query = `
            INSERT INTO balances (user_id, currency, available, bonus, locked)
            VALUES ($1, $2, $3, 0, 0)
            ON CONFLICT (user_id, currency) DO UPDATE
            SET available = balances.available + EXCLUDED.available, updated_at = NOW()
        `
	case "bonus":
		query = `
            INSERT INTO balances (user_id, currency, available, bonus, locked)
            VALUES ($1, $2, 0, $3, 0)
            ON CONFLICT (user_id, currency) DO UPDATE
            SET bonus = balances.bonus + EXCLUDED.bonus, updated_at = NOW()
        `
	default:
		return fmt.Errorf("unknown sub-balance: %s", sub)
	}

	if _, err := r.db.Exec(ctx, query, userID, currency, amount); err != nil {
		zap.L().Error("failed to credit funds", zap.Error(err))
		return err
	}
	return nil
}
