package auditrepo

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

func (r *Repository) Record(ctx context.Context, rec *domain.AuditRecord) error {
	query := `
        INSERT INTO audit_log (actor, action, target_type, target_id, metadata)
        VALUES ($1, $2, $3, $4, $5)
    `
	if _, err := r.db.Exec(ctx, query, rec.Actor, rec.Action, rec.TargetType, rec.TargetID, rec.Metadata); err != nil {
		zap.L().Error("can't record audit entry", zap.Error(err))
		return err
	}
	return nil
}
