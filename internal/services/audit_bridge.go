package services

import (
	"context"

	"github.com/authgo/backend/domain"
	"github.com/authgo/backend/usecase"
)

// AuditBridge adapts the flusher to the audit port the use cases depend on.
type AuditBridge struct {
	flusher *AuditFlusher
}

func NewAuditBridge(flusher *AuditFlusher) *AuditBridge {
	return &AuditBridge{flusher: flusher}
}

func (b *AuditBridge) RecordEvent(ctx context.Context, event *domain.AuthEvent) error {
	if b.flusher == nil || event == nil {
		return domain.ErrInvalidPayload
	}
	return b.flusher.Record(ctx, event)
}

var _ usecase.AuditTrail = (*AuditBridge)(nil)
