package depositrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tarvale/coinledger/internal/domain"
	"github.com/tarvale/coinledger/internal/pg"
	"go.uber.org/zap"
)

const depositColumns = `
        id, user_id, currency, amount, COALESCE(received_amount, 0),
        status, COALESCE(payment_status, ''), network_code, provider,
        provider_order_id, COALESCE(provider_uuid, ''), COALESCE(address, ''),
        COALESCE(payment_url, ''), COALESCE(txid, ''),
        expired_at, confirmed_at, created_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, deposit *domain.Deposit) (*domain.Deposit, error) {
	query := `
        INSERT INTO deposits (user_id, currency, amount, status, network_code, provider, provider_order_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		deposit.UserID, deposit.Currency, deposit.Amount, deposit.Status,
		deposit.NetworkCode, deposit.Provider, deposit.ProviderOrderID,
	).Scan(&deposit.ID, &deposit.CreatedAt)
	if err != nil {
		zap.L().Error("can't create deposit", zap.Error(err))
		return nil, err
	}
	return deposit, nil
}

func (r *Repository) SetProviderAck(ctx context.Context, id int, uuid, address, url, paymentStatus string, expiredAt *time.Time) error {
	query := `
        UPDATE deposits
        SET provider_uuid = $1, address = $2, payment_url = $3,
            payment_status = $4, expired_at = $5, updated_at = NOW()
        WHERE id = $6
    `
	if _, err := r.db.Exec(ctx, query, uuid, address, url, paymentStatus, expiredAt, id); err != nil {
		zap.L().Error("failed to record provider ack", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int, status domain.DepositStatus) error {
	query := `UPDATE deposits SET status = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.Exec(ctx, query, status, id); err != nil {
		zap.L().Error("failed to update deposit status", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) GetByOrderID(ctx context.Context, orderID string) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE provider_order_id = $1`
	row := r.db.QueryRow(ctx, query, orderID)
	deposit, err := scanDeposit(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get deposit by order id", zap.Error(err))
		return nil, err
	}
	return deposit, nil
}

// ApplyEvent persists the outcome of one provider notification.
func (r *Repository) ApplyEvent(ctx context.Context, id int, status domain.DepositStatus, paymentStatus string, received decimal.Decimal, txid string, confirmedAt *time.Time) error {
	query := `
        UPDATE deposits
        SET status = $1, payment_status = $2, received_amount = $3,
            txid = $4, confirmed_at = COALESCE(confirmed_at, $5), updated_at = NOW()
        WHERE id = $6
    `
	if _, err := r.db.Exec(ctx, query, status, paymentStatus, received, txid, confirmedAt, id); err != nil {
		zap.L().Error("failed to apply deposit event", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int) ([]domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("failed to fetch deposits", zap.Error(err))
		return nil, err
	}
	return collectDeposits(rows)
}

func (r *Repository) List(ctx context.Context, status string, limit, offset int) ([]domain.Deposit, error) {
	query := `SELECT ` + depositColumns + `
        FROM deposits
        WHERE ($1 = '' OR status = $1)
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		zap.L().Error("failed to list deposits", zap.Error(err))
		return nil, err
	}
	return collectDeposits(rows)
}

// FindStalePending returns pending deposits that have not seen a provider
// notification for longer than the staleness window.
func (r *Repository) FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Deposit, error) {
	query := `SELECT ` + depositColumns + `
        FROM deposits
        WHERE status = $1 AND provider_uuid IS NOT NULL AND updated_at < NOW() - $2::interval
        ORDER BY updated_at ASC
        LIMIT $3`
	rows, err := r.db.Query(ctx, query, domain.DepositPending, olderThan.String(), limit)
	if err != nil {
		zap.L().Error("failed to fetch stale pending deposits", zap.Error(err))
		return nil, err
	}
	return collectDeposits(rows)
}

func scanDeposit(row pgx.Row) (*domain.Deposit, error) {
	var d domain.Deposit
	err := row.Scan(&d.ID, &d.UserID, &d.Currency, &d.Amount, &d.ReceivedAmount,
		&d.Status, &d.PaymentStatus, &d.NetworkCode, &d.Provider,
		&d.ProviderOrderID, &d.ProviderUUID, &d.Address,
		&d.PaymentURL, &d.TxID, &d.ExpiredAt, &d.ConfirmedAt, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDeposits(rows pgx.Rows) ([]domain.Deposit, error) {
	defer rows.Close()

	var deposits []domain.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			zap.L().Error("failed to scan deposit row", zap.Error(err))
			return nil, err
		}
		deposits = append(deposits, *d)
	}
	return deposits, nil
}
