package userrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

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

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
        INSERT INTO users (external_id, ref_code, referred_by)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, user.ExternalID, user.RefCode, user.ReferredBy).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		zap.L().Error("can't create user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *Repository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	query := `
        SELECT id, external_id, ref_code, referred_by, created_at
        FROM users
        WHERE external_id = $1
    `
	row := r.db.QueryRow(ctx, query, externalID)
	var user domain.User
	err := row.Scan(&user.ID, &user.ExternalID, &user.RefCode, &user.ReferredBy, &user.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get user by external id", zap.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetByRefCode(ctx context.Context, refCode string) (*domain.User, error) {
	query := `
        SELECT id, external_id, ref_code, referred_by, created_at
        FROM users
        WHERE ref_code = $1
    `
	row := r.db.QueryRow(ctx, query, refCode)
	var user domain.User
	err := row.Scan(&user.ID, &user.ExternalID, &user.RefCode, &user.ReferredBy, &user.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get user by ref code", zap.Error(err))
		return nil, err
	}
	return &user, nil
}
