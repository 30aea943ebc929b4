package withdrawalrepo

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
	"id", "user_id", "currency", "amount", "fee", "address", "network_code", "status",
	"provider", "provider_order_id", "provider_uuid", "txid", "requested_at", "processed_at",
}

func withdrawalRow(now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(selectColumns).AddRow(
		3, 1, "USDT", decimal.NewFromInt(50), decimal.NewFromFloat(1.7),
		"TWd4WrZ9wn84f5x1hZhL4DHvk738ns5jwb", "TRON", domain.WithdrawalPending,
		"cryptomus", "withdrawal_1_x", "", "", now, (*time.Time)(nil),
	)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	query := regexp.QuoteMeta(`
        INSERT INTO withdrawals
            (user_id, currency, amount, fee, address, network_code, status, provider, provider_order_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, requested_at
    `)

	withdrawal := &domain.Withdrawal{
		UserID:          1,
		Currency:        "USDT",
		Amount:          decimal.NewFromInt(50),
		Fee:             decimal.NewFromFloat(1.7),
		Address:         "TWd4WrZ9wn84f5x1hZhL4DHvk738ns5jwb",
		NetworkCode:     "TRON",
		Status:          domain.WithdrawalPending,
		Provider:        "cryptomus",
		ProviderOrderID: "withdrawal_1_x",
	}

	t.Run("Creates a pending withdrawal", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "requested_at"}).AddRow(3, now)
		mock.ExpectQuery(query).
			WithArgs(1, "USDT", withdrawal.Amount, withdrawal.Fee,
				withdrawal.Address, "TRON", domain.WithdrawalPending,
				"cryptomus", "withdrawal_1_x").
			WillReturnRows(rows)

		created, err := repo.Create(context.Background(), withdrawal)
		assert.NoError(t, err)
		assert.Equal(t, 3, created.ID)
		assert.Equal(t, now, created.RequestedAt)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(1, "USDT", withdrawal.Amount, withdrawal.Fee,
				withdrawal.Address, "TRON", domain.WithdrawalPending,
				"cryptomus", "withdrawal_1_x").
			WillReturnError(errors.New("database error"))

		created, err := repo.Create(context.Background(), withdrawal)
		assert.Error(t, err)
		assert.Nil(t, created)
	})
}

func TestRepository_GetByOrderID(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	query := regexp.QuoteMeta(`SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE provider_order_id = $1`)

	t.Run("Returns the withdrawal", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("withdrawal_1_x").WillReturnRows(withdrawalRow(now))

		w, err := repo.GetByOrderID(context.Background(), "withdrawal_1_x")
		assert.NoError(t, err)
		assert.NotNil(t, w)
		assert.Equal(t, 3, w.ID)
		assert.Equal(t, domain.WithdrawalPending, w.Status)
	})

	t.Run("Unknown order id returns nil", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

		w, err := repo.GetByOrderID(context.Background(), "missing")
		assert.NoError(t, err)
		assert.Nil(t, w)
	})
}

func TestRepository_UpdateStatusIf(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`
        UPDATE withdrawals
        SET status = $1, updated_at = NOW()
        WHERE id = $2 AND status = $3
    `)

	t.Run("Flips the status when the current value matches", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(domain.WithdrawalApproved, 3, domain.WithdrawalPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := repo.UpdateStatusIf(context.Background(), 3, domain.WithdrawalPending, domain.WithdrawalApproved)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Lost race updates nothing", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(domain.WithdrawalApproved, 3, domain.WithdrawalPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		ok, err := repo.UpdateStatusIf(context.Background(), 3, domain.WithdrawalPending, domain.WithdrawalApproved)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRepository_SetDispatched(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`
        UPDATE withdrawals
        SET status = $1, provider_uuid = $2, processed_at = NOW(), updated_at = NOW()
        WHERE id = $3
    `)

	mock.ExpectExec(query).
		WithArgs(domain.WithdrawalProcessing, "payout-uuid", 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SetDispatched(context.Background(), 3, "payout-uuid")
	assert.NoError(t, err)
}

func TestRepository_ApplyEvent(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	query := regexp.QuoteMeta(`
        UPDATE withdrawals
        SET status = $1, txid = $2, processed_at = COALESCE($3, processed_at), updated_at = NOW()
        WHERE id = $4
    `)

	t.Run("Final event stamps processed_at", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(domain.WithdrawalCompleted, "0xdef", &now, 3).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.ApplyEvent(context.Background(), 3, domain.WithdrawalCompleted, "0xdef", &now)
		assert.NoError(t, err)
	})

	t.Run("Progress event keeps processed_at untouched", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(domain.WithdrawalProcessing, "", (*time.Time)(nil), 3).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.ApplyEvent(context.Background(), 3, domain.WithdrawalProcessing, "", nil)
		assert.NoError(t, err)
	})
}

func TestRepository_List(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	query := regexp.QuoteMeta(`SELECT ` + withdrawalColumns + `
        FROM withdrawals
        WHERE ($1 = '' OR status = $1)
        ORDER BY requested_at DESC
        LIMIT $2 OFFSET $3`)

	t.Run("Filters by status", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("pending", 50, 0).WillReturnRows(withdrawalRow(now))

		withdrawals, err := repo.List(context.Background(), "pending", 50, 0)
		assert.NoError(t, err)
		assert.Len(t, withdrawals, 1)
	})

	t.Run("Empty status returns everything", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("", 50, 0).WillReturnRows(withdrawalRow(now))

		withdrawals, err := repo.List(context.Background(), "", 50, 0)
		assert.NoError(t, err)
		assert.Len(t, withdrawals, 1)
	})
}
