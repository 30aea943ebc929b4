package withdrawalrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/pg"
	"go.uber.org/zap"
)

const withdrawalColumns = `
        id, user_id, currency, amount, fee, address, network_code, status,
        provider, provider_order_id, COALESCE(provider_uuid, ''),
        COALESCE(txid, ''), requested_at, processed_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error) {
	query := `
        INSERT INTO withdrawals
            (user_id, currency, amount, fee, address, network_code, status, provider, provider_order_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, requested_at
    `
	err := r.db.QueryRow(ctx, query,
		withdrawal.UserID, withdrawal.Currency, withdrawal.Amount, withdrawal.Fee,
		withdrawal.Address, withdrawal.NetworkCode, withdrawal.Status,
		withdrawal.Provider, withdrawal.ProviderOrderID,
	).Scan(&withdrawal.ID, &withdrawal.RequestedAt)
	if err != nil {
		zap.L().Error("can't create withdrawal", zap.Error(err))
		return nil, err
	}
	return withdrawal, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1`
	w, err := scanWithdrawal(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get withdrawal", zap.Error(err))
		return nil, err
	}
	return w, nil
}

func (r *Repository) GetByOrderID(ctx context.Context, orderID string) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE provider_order_id = $1`
	w, err := scanWithdrawal(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get withdrawal by order id", zap.Error(err))
		return nil, err
	}
	return w, nil
}

// UpdateStatusIf flips the status only when the current value still matches.
// The check-then-act lives in one statement so concurrent admin actions on
// the same withdrawal cannot both succeed.
func (r *Repository) UpdateStatusIf(ctx context.Context, id int, from, to domain.WithdrawalStatus) (bool, error) {
	query := `
        UPDATE withdrawals
        SET status = $1, updated_at = NOW()
        WHERE id = $2 AND status = $3
    `
	tag, err := r.db.Exec(ctx, query, to, id, from)
	if err != nil {
		zap.L().Error("failed to update withdrawal status", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetDispatched records the provider's payout acceptance.
func (r *Repository) SetDispatched(ctx context.Context, id int, uuid string) error {
	query := `
        UPDATE withdrawals
        SET status = $1, provider_uuid = $2, processed_at = NOW(), updated_at = NOW()
        WHERE id = $3
    `
	if _, err := r.db.Exec(ctx, query, domain.WithdrawalProcessing, uuid, id); err != nil {
		zap.L().Error("failed to record payout dispatch", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ApplyEvent(ctx context.Context, id int, status domain.WithdrawalStatus, txid string, processedAt *time.Time) error {
	query := `
        UPDATE withdrawals
        SET status = $1, txid = $2, processed_at = COALESCE($3, processed_at), updated_at = NOW()
        WHERE id = $4
    `
	if _, err := r.db.Exec(ctx, query, status, txid, processedAt, id); err != nil {
		zap.L().Error("failed to apply withdrawal event", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int) ([]domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE user_id = $1 ORDER BY requested_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("failed to fetch withdrawals", zap.Error(err))
		return nil, err
	}
	return collectWithdrawals(rows)
}

func (r *Repository) List(ctx context.Context, status string, limit, offset int) ([]domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + `
        FROM withdrawals
        WHERE ($1 = '' OR status = $1)
        ORDER BY requested_at DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		zap.L().Error("failed to list withdrawals", zap.Error(err))
		return nil, err
	}
	return collectWithdrawals(rows)
}

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	err := row.Scan(&w.ID, &w.UserID, &w.Currency, &w.Amount, &w.Fee,
		&w.Address, &w.NetworkCode, &w.Status, &w.Provider,
		&w.ProviderOrderID, &w.ProviderUUID, &w.TxID,
		&w.RequestedAt, &w.ProcessedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func collectWithdrawals(rows pgx.Rows) ([]domain.Withdrawal, error) {
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			zap.L().Error("failed to scan withdrawal row", zap.Error(err))
			return nil, err
		}
		withdrawals = append(withdrawals, *w)
	}
	return withdrawals, nil
}
