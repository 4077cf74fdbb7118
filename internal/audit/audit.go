// Package audit records admin mutations as events. Events are published to
// the broker when one is configured and stored by the audit worker.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"opsdesk/internal/amqp"
	applog "opsdesk/internal/log"
	"opsdesk/internal/storage"
)

// Actions
const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
	ActionStatus     = "status"
	ActionGenerate   = "generate"
	ActionStart      = "start"
	ActionStop       = "stop"
	ActionExport     = "export"
)

// Resources
const (
	ResourceExpense     = "expense"
	ResourceCategory    = "expense_category"
	ResourceCoupon      = "coupon"
	ResourceDiscount    = "discount"
	ResourceSettings    = "settings"
	ResourceRawMaterial = "raw_material"
	ResourceTask        = "task"
	ResourceScheduler   = "scheduler"
	ResourceOrder       = "order"
)

type Event struct {
	ID         string
	Action     string
	Resource   string
	ResourceID string
	Actor      string
	Summary    string
	At         time.Time
}

// NewEvent stamps an event with a ULID and the current time. The actor is
// taken from ctx when the request carried one.
func NewEvent(ctx context.Context, action, resource, resourceID, summary string) Event {
	now := time.Now().UTC()
	return Event{
		ID:         ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Actor:      ActorFrom(ctx),
		Summary:    summary,
		At:         now,
	}
}

// Label renders the event for the dashboard feed.
func (e Event) Label() string {
	if e.Summary != "" {
		return e.Summary
	}
	if e.ResourceID != "" {
		return fmt.Sprintf("%s %s %s", e.Action, e.Resource, e.ResourceID)
	}
	return fmt.Sprintf("%s %s", e.Action, e.Resource)
}

type actorKey struct{}

func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok {
		return a
	}
	return ""
}

// Publisher accepts events. Publishing never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Reader lists stored events, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// Sender is the broker side of BrokerPublisher.
type Sender interface {
	PublishAuditEvent(ctx context.Context, msg *amqp.AuditMessage) error
}

// BrokerPublisher sends events to the broker and logs the ones it cannot.
type BrokerPublisher struct {
	sender Sender
	logger *applog.Logger
}

func NewBrokerPublisher(sender Sender, logger *applog.Logger) *BrokerPublisher {
	if logger == nil {
		logger = applog.Discard()
	}
	return &BrokerPublisher{sender: sender, logger: logger.WithComponent(applog.ComponentAudit)}
}

func (p *BrokerPublisher) Publish(ctx context.Context, e Event) {
	if err := p.sender.PublishAuditEvent(ctx, ToMessage(e)); err != nil {
		p.logger.WarnContextErr(ctx, "Dropped audit event", err,
			applog.FieldEventID, e.ID,
			applog.FieldOperation, e.Action,
			applog.FieldResource, e.Resource)
	}
}

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct {
	logger *applog.Logger
}

func NewLogPublisher(logger *applog.Logger) *LogPublisher {
	if logger == nil {
		logger = applog.Discard()
	}
	return &LogPublisher{logger: logger.WithComponent(applog.ComponentAudit)}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) {
	p.logger.InfoContext(ctx, "Audit event",
		applog.FieldEventID, e.ID,
		applog.FieldOperation, e.Action,
		applog.FieldResource, e.Resource,
		applog.FieldResourceID, e.ResourceID,
		"summary", e.Summary)
}

// StoreReader reads events the worker wrote to SQLite.
type StoreReader struct {
	repo *storage.SQLiteRepository
}

func NewStoreReader(repo *storage.SQLiteRepository) *StoreReader {
	return &StoreReader{repo: repo}
}

func (r *StoreReader) Recent(ctx context.Context, limit int) ([]Event, error) {
	recs, err := r.repo.RecentAuditEvents(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Event, len(recs))
	for i, rec := range recs {
		out[i] = FromRecord(rec)
	}
	return out, nil
}

func ToMessage(e Event) *amqp.AuditMessage {
	return &amqp.AuditMessage{
		ID:         e.ID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Actor:      e.Actor,
		Summary:    e.Summary,
		OccurredAt: e.At,
	}
}

func FromMessage(m *amqp.AuditMessage) Event {
	return Event{
		ID:         m.ID,
		Action:     m.Action,
		Resource:   m.Resource,
		ResourceID: m.ResourceID,
		Actor:      m.Actor,
		Summary:    m.Summary,
		At:         m.OccurredAt,
	}
}

func ToRecord(e Event) storage.AuditRecord {
	return storage.AuditRecord{
		ID:         e.ID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Actor:      e.Actor,
		Summary:    e.Summary,
		OccurredAt: e.At,
	}
}

func FromRecord(r storage.AuditRecord) Event {
	return Event{
		ID:         r.ID,
		Action:     r.Action,
		Resource:   r.Resource,
		ResourceID: r.ResourceID,
		Actor:      r.Actor,
		Summary:    r.Summary,
		At:         r.OccurredAt,
	}
}
