package depositrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tarvale/coinledger/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	defer mockDB.Close()

	return repo, mockDB
}

var selectColumns = []string{
	"id", "user_id", "currency", "amount", "received_amount", "status", "payment_status",
	"network_code", "provider", "provider_order_id", "provider_uuid", "address",
	"payment_url", "txid", "expired_at", "confirmed_at", "created_at",
}

func depositRow(now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(selectColumns).AddRow(
		7, 1, "USDT", decimal.NewFromInt(100), decimal.Zero,
		domain.DepositPending, "check", "TRON", "cryptomus",
		"deposit_1_x", "pay-uuid", "TWd4WrZ9wn84f5x1hZhL4DHvk738ns5jwb",
		"https://pay.example/d7", "", (*time.Time)(nil), (*time.Time)(nil), now,
	)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	query := regexp.QuoteMeta(`
        INSERT INTO deposits (user_id, currency, amount, status, network_code, provider, provider_order_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `)

	deposit := &domain.Deposit{
		UserID:          1,
		Currency:        "USDT",
		Amount:          decimal.NewFromInt(100),
		Status:          domain.DepositPending,
		NetworkCode:     "TRON",
		Provider:        "cryptomus",
		ProviderOrderID: "deposit_1_x",
	}

	t.Run("Creates a pending deposit", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "created_at"}).AddRow(7, now)
		mock.ExpectQuery(query).
			WithArgs(1, "USDT", deposit.Amount, domain.DepositPending, "TRON", "cryptomus", "deposit_1_x").
			WillReturnRows(rows)

		created, err := repo.Create(context.Background(), deposit)
		assert.NoError(t, err)
		assert.Equal(t, 7, created.ID)
		assert.Equal(t, now, created.CreatedAt)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(1, "USDT", deposit.Amount, domain.DepositPending, "TRON", "cryptomus", "deposit_1_x").
			WillReturnError(errors.New("database error"))

		created, err := repo.Create(context.Background(), deposit)
		assert.Error(t, err)
		assert.Nil(t, created)
	})
}

func TestRepository_SetProviderAck(t *testing.T) {
	repo, mock := NewMock(t)
	expiredAt := time.Now().Add(time.Hour)

	query := regexp.QuoteMeta(`
        UPDATE deposits
        SET provider_uuid = $1, address = $2, payment_url = $3,
            payment_status = $4, expired_at = $5, updated_at = NOW()
        WHERE id = $6
    `)

	mock.ExpectExec(query).
		WithArgs("pay-uuid", "TWd4WrZ9wn84f5x1hZhL4DHvk738ns5jwb", "https://pay.example/d7", "check", &expiredAt, 7).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SetProviderAck(context.Background(), 7, "pay-uuid",
		"TWd4WrZ9wn84f5x1hZhL4DHvk738ns5jwb", "https://pay.example/d7", "check", &expiredAt)
	assert.NoError(t, err)
}

func TestRepository_GetByOrderID(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	query := regexp.QuoteMeta(`SELECT ` + depositColumns + ` FROM deposits WHERE provider_order_id = $1`)

	t.Run("Returns the deposit", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("deposit_1_x").WillReturnRows(depositRow(now))

		deposit, err := repo.GetByOrderID(context.Background(), "deposit_1_x")
		assert.NoError(t, err)
		assert.NotNil(t, deposit)
		assert.Equal(t, 7, deposit.ID)
		assert.Equal(t, domain.DepositPending, deposit.Status)
	})

	t.Run("Unknown order id returns nil", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

		deposit, err := repo.GetByOrderID(context.Background(), "missing")
		assert.NoError(t, err)
		assert.Nil(t, deposit)
	})
}

func TestRepository_ApplyEvent(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	query := regexp.QuoteMeta(`
        UPDATE deposits
        SET status = $1, payment_status = $2, received_amount = $3,
            txid = $4, confirmed_at = COALESCE(confirmed_at, $5), updated_at = NOW()
        WHERE id = $6
    `)

	t.Run("Confirmation stamps confirmed_at", func(t *testing.T) {
		received := decimal.NewFromInt(100)
		mock.ExpectExec(query).
			WithArgs(domain.DepositConfirmed, "paid", received, "0xabc", &now, 7).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.ApplyEvent(context.Background(), 7, domain.DepositConfirmed, "paid", received, "0xabc", &now)
		assert.NoError(t, err)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(domain.DepositExpired, "cancel", decimal.Zero, "", (*time.Time)(nil), 7).
			WillReturnError(errors.New("database error"))

		err := repo.ApplyEvent(context.Background(), 7, domain.DepositExpired, "cancel", decimal.Zero, "", nil)
		assert.Error(t, err)
	})
}

func TestRepository_FindStalePending(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	query := regexp.QuoteMeta(`SELECT ` + depositColumns + `
        FROM deposits
        WHERE status = $1 AND provider_uuid IS NOT NULL AND updated_at < NOW() - $2::interval
        ORDER BY updated_at ASC
        LIMIT $3`)

	t.Run("Returns stale pending deposits", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(domain.DepositPending, "2m0s", 1000).
			WillReturnRows(depositRow(now))

		deposits, err := repo.FindStalePending(context.Background(), 2*time.Minute, 1000)
		assert.NoError(t, err)
		assert.Len(t, deposits, 1)
		assert.Equal(t, "deposit_1_x", deposits[0].ProviderOrderID)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(domain.DepositPending, "2m0s", 1000).
			WillReturnError(errors.New("database error"))

		deposits, err := repo.FindStalePending(context.Background(), 2*time.Minute, 1000)
		assert.Error(t, err)
		assert.Nil(t, deposits)
	})
}

func TestRepository_List(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	query := regexp.QuoteMeta(`SELECT ` + depositColumns + `
        FROM deposits
        WHERE ($1 = '' OR status = $1)
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`)

	mock.ExpectQuery(query).WithArgs("pending", 50, 0).WillReturnRows(depositRow(now))

	deposits, err := repo.List(context.Background(), "pending", 50, 0)
	assert.NoError(t, err)
	assert.Len(t, deposits, 1)
}
