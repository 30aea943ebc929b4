package userrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
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

func TestRepository_CreateUser(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	query := regexp.QuoteMeta(`
        INSERT INTO users (external_id, ref_code, referred_by)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `)

	t.Run("Creates a user", func(t *testing.T) {
		user := &domain.User{ExternalID: "shop-1001", RefCode: "A1B2C3D4"}
		rows := pgxmock.NewRows([]string{"id", "created_at"}).AddRow(42, now)
		mock.ExpectQuery(query).
			WithArgs("shop-1001", "A1B2C3D4", (*int)(nil)).
			WillReturnRows(rows)

		created, err := repo.CreateUser(context.Background(), user)
		assert.NoError(t, err)
		assert.Equal(t, 42, created.ID)
		assert.Equal(t, now, created.CreatedAt)
	})

	t.Run("Database error", func(t *testing.T) {
		user := &domain.User{ExternalID: "shop-1001", RefCode: "A1B2C3D4"}
		mock.ExpectQuery(query).
			WithArgs("shop-1001", "A1B2C3D4", (*int)(nil)).
			WillReturnError(errors.New("database error"))

		created, err := repo.CreateUser(context.Background(), user)
		assert.Error(t, err)
		assert.Nil(t, created)
	})
}

func TestRepository_GetByExternalID(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	query := regexp.QuoteMeta(`
        SELECT id, external_id, ref_code, referred_by, created_at
        FROM users
        WHERE external_id = $1
    `)

	t.Run("Returns the user", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "external_id", "ref_code", "referred_by", "created_at"}).
			AddRow(42, "shop-1001", "A1B2C3D4", (*int)(nil), now)
		mock.ExpectQuery(query).WithArgs("shop-1001").WillReturnRows(rows)

		user, err := repo.GetByExternalID(context.Background(), "shop-1001")
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.Equal(t, 42, user.ID)
		assert.Equal(t, "A1B2C3D4", user.RefCode)
	})

	t.Run("Unknown external id returns nil", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

		user, err := repo.GetByExternalID(context.Background(), "missing")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("shop-1001").WillReturnError(errors.New("database error"))

		user, err := repo.GetByExternalID(context.Background(), "shop-1001")
		assert.Error(t, err)
		assert.Nil(t, user)
	})
}

func TestRepository_GetByRefCode(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	query := regexp.QuoteMeta(`
        SELECT id, external_id, ref_code, referred_by, created_at
        FROM users
        WHERE ref_code = $1
    `)

	t.Run("Returns the referrer", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "external_id", "ref_code", "referred_by", "created_at"}).
			AddRow(42, "shop-1001", "A1B2C3D4", (*int)(nil), now)
		mock.ExpectQuery(query).WithArgs("A1B2C3D4").WillReturnRows(rows)

		user, err := repo.GetByRefCode(context.Background(), "A1B2C3D4")
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.Equal(t, 42, user.ID)
	})

	t.Run("Unknown code returns nil", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("ZZZZZZZZ").WillReturnError(pgx.ErrNoRows)

		user, err := repo.GetByRefCode(context.Background(), "ZZZZZZZZ")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})
}
