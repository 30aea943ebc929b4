package ledgerrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

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

func TestRepository_Insert(t *testing.T) {
	repo, mock := NewMock(t)

	key := "deposit_7_uuid"
	depositID := 7
	entry := &domain.LedgerEntry{
		UserID:         1,
		Currency:       "USDT",
		EntryType:      domain.EntryDepositCredit,
		Amount:         decimal.NewFromInt(100),
		AvailableDelta: decimal.NewFromInt(100),
		DepositID:      &depositID,
		IdempotencyKey: &key,
	}

	query := regexp.QuoteMeta(`
        INSERT INTO ledger_entries
            (user_id, currency, entry_type, amount,
             available_delta, bonus_delta, locked_delta,
             deposit_id, withdrawal_id, idempotency_key)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (idempotency_key) DO NOTHING
    `)

	tests := []struct {
		name         string
		mockSetup    func()
		expectInsert bool
		expectErr    bool
	}{
		{
			name: "Fresh key inserts a row",
			mockSetup: func() {
				mock.ExpectExec(query).
					WithArgs(1, "USDT", domain.EntryDepositCredit, entry.Amount,
						entry.AvailableDelta, entry.BonusDelta, entry.LockedDelta,
						&depositID, nil, &key).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			expectInsert: true,
		},
		{
			name: "Duplicate key inserts nothing",
			mockSetup: func() {
				mock.ExpectExec(query).
					WithArgs(1, "USDT", domain.EntryDepositCredit, entry.Amount,
						entry.AvailableDelta, entry.BonusDelta, entry.LockedDelta,
						&depositID, nil, &key).
					WillReturnResult(pgxmock.NewResult("INSERT", 0))
			},
			expectInsert: false,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectExec(query).
					WithArgs(1, "USDT", domain.EntryDepositCredit, entry.Amount,
						entry.AvailableDelta, entry.BonusDelta, entry.LockedDelta,
						&depositID, nil, &key).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			inserted, err := repo.Insert(context.Background(), entry)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectInsert, inserted)
		})
	}
}

func TestRepository_HasDepositCredit(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`
        SELECT EXISTS (
            SELECT 1 FROM ledger_entries
            WHERE deposit_id = $1 AND entry_type = $2
        )
    `)

	t.Run("Credit exists", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"exists"}).AddRow(true)
		mock.ExpectQuery(query).WithArgs(7, domain.EntryDepositCredit).WillReturnRows(rows)

		exists, err := repo.HasDepositCredit(context.Background(), 7)
		assert.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("No credit yet", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"exists"}).AddRow(false)
		mock.ExpectQuery(query).WithArgs(7, domain.EntryDepositCredit).WillReturnRows(rows)

		exists, err := repo.HasDepositCredit(context.Background(), 7)
		assert.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestRepository_ListByUser(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	query := regexp.QuoteMeta(`
        SELECT id, user_id, currency, entry_type, amount,
               available_delta, bonus_delta, locked_delta,
               deposit_id, withdrawal_id, idempotency_key, created_at
        FROM ledger_entries
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `)

	t.Run("Returns entries newest first", func(t *testing.T) {
		key := "deposit_7_uuid"
		depositID := 7
		rows := pgxmock.NewRows([]string{
			"id", "user_id", "currency", "entry_type", "amount",
			"available_delta", "bonus_delta", "locked_delta",
			"deposit_id", "withdrawal_id", "idempotency_key", "created_at",
		}).AddRow(1, 1, "USDT", domain.EntryDepositCredit, decimal.NewFromInt(100),
			decimal.NewFromInt(100), decimal.Zero, decimal.Zero,
			&depositID, (*int)(nil), &key, now)
		mock.ExpectQuery(query).WithArgs(1, 50, 0).WillReturnRows(rows)

		entries, err := repo.ListByUser(context.Background(), 1, 50, 0)
		assert.NoError(t, err)
		assert.Len(t, entries, 1)
		assert.Equal(t, domain.EntryDepositCredit, entries[0].EntryType)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(1, 50, 0).WillReturnError(errors.New("database error"))

		entries, err := repo.ListByUser(context.Background(), 1, 50, 0)
		assert.Error(t, err)
		assert.Nil(t, entries)
	})
}
