package usecase

import (
	"context"

	"github.com/authgo/backend/domain"
)

// AuditTrail abstracts the auth-event journal so use cases stay storage-agnostic.
type AuditTrail interface {
	RecordEvent(ctx context.Context, event *domain.AuthEvent) error
}
