package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"opsdesk/internal/amqp"
	"opsdesk/internal/audit"
	applog "opsdesk/internal/log"
	"opsdesk/internal/storage"
)

// AuditStore is the slice of the SQLite repository the worker writes to.
type AuditStore interface {
	InsertAuditEvent(ctx context.Context, rec storage.AuditRecord) (bool, error)
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// Consumer delivers audit messages from the broker.
type Consumer interface {
	ConsumeAuditEvents(ctx context.Context, handler func(context.Context, *amqp.AuditMessage) error) error
}

// AuditWorker appends consumed audit events to SQLite.
type AuditWorker struct {
	store  AuditStore
	logger *applog.Logger

	stored     atomic.Int64
	duplicates atomic.Int64
}

func NewAuditWorker(store AuditStore, logger *applog.Logger) *AuditWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &AuditWorker{store: store, logger: logger.WithComponent(applog.ComponentWorker)}
}

// HandleAuditMessage stores one event. Redelivered events are acknowledged
// without a second row.
func (w *AuditWorker) HandleAuditMessage(ctx context.Context, msg *amqp.AuditMessage) error {
	e := audit.FromMessage(msg)
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	inserted, err := w.store.InsertAuditEvent(ctx, audit.ToRecord(e))
	if err != nil {
		return fmt.Errorf("store audit event %s: %w", e.ID, err)
	}
	if !inserted {
		w.duplicates.Add(1)
		w.logger.DebugContext(ctx, "Skipped duplicate audit event", applog.FieldEventID, e.ID)
		return nil
	}

	w.stored.Add(1)
	w.logger.InfoContext(ctx, "Stored audit event",
		applog.FieldEventID, e.ID,
		applog.FieldOperation, e.Action,
		applog.FieldResource, e.Resource,
		applog.FieldResourceID, e.ResourceID)
	return nil
}

// Run consumes until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context, consumer Consumer) error {
	return consumer.ConsumeAuditEvents(ctx, w.HandleAuditMessage)
}

// RunHousekeeping purges expired visitor sessions every interval.
func (w *AuditWorker) RunHousekeeping(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.purge(ctx)
		}
	}
}

func (w *AuditWorker) purge(ctx context.Context) {
	n, err := w.store.PurgeExpiredSessions(ctx)
	if err != nil {
		w.logger.WarnContextErr(ctx, "Session purge failed", err)
		return
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "Purged expired sessions", "count", n)
	}
}

// Stats returns the number of stored and duplicate events since start.
func (w *AuditWorker) Stats() (stored, duplicates int64) {
	return w.stored.Load(), w.duplicates.Load()
}
