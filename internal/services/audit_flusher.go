package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/authgo/backend/domain"
	"github.com/authgo/backend/internal/infrastructure/auditlog"
	"github.com/authgo/backend/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// FlusherConfig controls how frequently the journal is drained.
type FlusherConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// AuditFlusher moves journaled auth events into the Postgres audit table.
type AuditFlusher struct {
	journal *auditlog.Journal
	monitor ConnectionHealth
	events  repository.EventRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     FlusherConfig
}

func NewAuditFlusher(
	journal *auditlog.Journal,
	monitor ConnectionHealth,
	events repository.EventRepository,
	logger *zap.Logger,
	cfg FlusherConfig,
) *AuditFlusher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &AuditFlusher{
		journal: journal,
		monitor: monitor,
		events:  events,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = f.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := f.Drain(ctx); err != nil {
			f.logger.Error("audit journal drain failed", zap.Error(err))
		}
	})

	return f
}

// Start launches the cron scheduler.
func (f *AuditFlusher) Start() {
	if f == nil || f.cron == nil {
		return
	}
	f.cron.Start()
	f.logger.Info("audit flusher started")
}

// Stop gracefully stops the scheduler.
func (f *AuditFlusher) Stop(ctx context.Context) {
	if f == nil || f.cron == nil {
		return
	}
	stopCtx := f.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	f.logger.Info("audit flusher stopped")
}

// Drain flushes journaled entries synchronously.
func (f *AuditFlusher) Drain(ctx context.Context) error {
	if f == nil || f.journal == nil {
		return nil
	}
	if f.monitor != nil && !f.monitor.IsOnline() {
		f.logger.Debug("skipping journal drain (offline)")
		return nil
	}

	entries, err := f.journal.GetBatch(f.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := f.events.Insert(ctx, &entry.Event); err != nil {
			f.logger.Error("failed to flush auth event",
				zap.String("event_id", entry.Event.ID),
				zap.String("action", entry.Event.Action),
				zap.Error(err))

			entry.Retries++
			if entry.Retries >= f.cfg.MaxRetries {
				f.logger.Warn("dropping auth event (max retries reached)", zap.String("event_id", entry.Event.ID))
				_ = f.journal.Remove(entry)
				continue
			}

			if err := f.journal.Remove(entry); err != nil {
				f.logger.Warn("failed to remove journal entry", zap.Error(err))
			}
			if err := f.journal.Requeue(entry); err != nil {
				f.logger.Error("failed to requeue journal entry", zap.Error(err))
			}
			continue
		}

		if err := f.journal.Remove(entry); err != nil {
			f.logger.Warn("failed to purge flushed journal entry", zap.Error(err))
		}
	}
	return nil
}

// Record attempts the insert immediately and falls back to the journal.
func (f *AuditFlusher) Record(ctx context.Context, event *domain.AuthEvent) error {
	if f == nil || f.journal == nil {
		return fmt.Errorf("audit flusher not configured")
	}
	if event == nil {
		return domain.ErrInvalidPayload
	}

	if f.monitor == nil || f.monitor.IsOnline() {
		if err := f.events.Insert(ctx, event); err == nil {
			return nil
		} else {
			f.logger.Warn("immediate event insert failed, journaling", zap.Error(err))
		}
	}
	return f.journal.Append(auditlog.Entry{Event: *event})
}

// Size returns the number of journaled entries.
func (f *AuditFlusher) Size() int {
	if f == nil || f.journal == nil {
		return 0
	}
	size, err := f.journal.Size()
	if err != nil {
		return 0
	}
	return size
}
