package repository

import (
	"context"

	"github.com/authgo/backend/domain"
)

type EventRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}
