package auditlog

import (
	"time"

	"github.com/google/uuid"

	"github.com/authgo/backend/domain"
)

// Entry wraps an auth event while it waits in the local journal for a flush
// to Postgres.
type Entry struct {
	Event   domain.AuthEvent `json:"event"`
	Retries int              `json:"retries"`
	Queued  time.Time        `json:"queued"`

	bucketKey []byte
}

func (e *Entry) normalize() {
	if e.Event.ID == "" {
		e.Event.ID = uuid.NewString()
	}
	if e.Event.CreatedAt.IsZero() {
		e.Event.CreatedAt = time.Now()
	}
	if e.Queued.IsZero() {
		e.Queued = time.Now()
	}
}
