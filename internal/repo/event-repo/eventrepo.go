package eventrepo

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

// Insert records a received notification before any processing happens. The
// unique (source, external_id) pair makes redelivery structural: a duplicate
// insert writes nothing and the previous processing status is returned.
func (r *Repository) Insert(ctx context.Context, event *domain.ProviderEvent) (bool, domain.EventStatus, error) {
	query := `
        INSERT INTO provider_events (source, event_type, external_id, payload, status)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (source, external_id) DO NOTHING
        RETURNING id
    `
	err := r.db.QueryRow(ctx, query,
		event.Source, event.EventType, event.ExternalID, event.Payload, event.Status,
	).Scan(&event.ID)
	if err == nil {
		return true, event.Status, nil
	}
	if err != pgx.ErrNoRows {
		zap.L().Error("can't insert provider event", zap.Error(err))
		return false, "", err
	}

	var existing domain.EventStatus
	statusQuery := `SELECT status FROM provider_events WHERE source = $1 AND external_id = $2`
	if err := r.db.QueryRow(ctx, statusQuery, event.Source, event.ExternalID).Scan(&existing); err != nil {
		zap.L().Error("can't read existing provider event", zap.Error(err))
		return false, "", err
	}
	return false, existing, nil
}

func (r *Repository) MarkProcessed(ctx context.Context, source, externalID string) error {
	return r.setStatus(ctx, source, externalID, domain.EventProcessed)
}

func (r *Repository) MarkFailed(ctx context.Context, source, externalID string) error {
	return r.setStatus(ctx, source, externalID, domain.EventFailed)
}

func (r *Repository) setStatus(ctx context.Context, source, externalID string, status domain.EventStatus) error {
	query := `
        UPDATE provider_events
        SET status = $1, processed_at = NOW()
        WHERE source = $2 AND external_id = $3
    `
	if _, err := r.db.Exec(ctx, query, status, source, externalID); err != nil {
		zap.L().Error("failed to update provider event status", zap.Error(err))
		return err
	}
	return nil
}
