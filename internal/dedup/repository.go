package dedup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository remembers processor webhook events that were handled to completion.
// Events are marked after handling, so a crash in between means one redelivery,
// which the handlers tolerate. Seen is a fast path only; concurrent deliveries of
// one event can both pass it, and the order status transition decides which of
// them publishes.
type Repository interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Seen(ctx context.Context, eventID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM processed_webhook_events WHERE event_id = $1
	`, eventID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("select processed event: %w", err)
	}
	return true, nil
}

func (r *repo) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO processed_webhook_events (event_id, event_type, processed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType)
	if err != nil {
		return fmt.Errorf("insert processed event: %w", err)
	}
	return nil
}
