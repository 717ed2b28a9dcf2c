package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authgo/backend/domain"
	"github.com/authgo/backend/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository instantiates a Postgres-backed auth event repository.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	if event == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO auth_events (id, user_id, username, action, outcome, created_at)
	VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING;
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.UserID,
		event.Username,
		event.Action,
		event.Outcome,
		event.CreatedAt,
	)
	return err
}
