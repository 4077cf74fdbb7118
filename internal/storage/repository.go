package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a session row does not exist or has expired.
var ErrNotFound = errors.New("storage: not found")

// AuditRecord is one row of the audit_events table.
type AuditRecord struct {
	ID         string
	Action     string
	Resource   string
	ResourceID string
	Actor      string
	Summary    string
	OccurredAt time.Time
	ReceivedAt time.Time
}

type SQLiteRepository struct {
	db     *sql.DB
	schema uint
	now    func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, schema: version, now: time.Now}, nil
}

// SchemaVersion is the migration version the database was left at on open.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schema
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveSession inserts or replaces the serialized session state.
func (r *SQLiteRepository) SaveSession(ctx context.Context, id string, data []byte, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, data, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		id, data, expiresAt.UnixMilli(), r.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession returns the stored state, or ErrNotFound when the row is
// missing or past its expiry.
func (r *SQLiteRepository) LoadSession(ctx context.Context, id string) ([]byte, time.Time, error) {
	var (
		data      []byte
		expiresMs int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM sessions WHERE id = ?`, id).Scan(&data, &expiresMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load session: %w", err)
	}
	expiresAt := time.UnixMilli(expiresMs)
	if !r.now().Before(expiresAt) {
		return nil, time.Time{}, ErrNotFound
	}
	return data, expiresAt, nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes expired rows and returns how many were deleted.
func (r *SQLiteRepository) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, r.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// InsertAuditEvent stores an event. Redelivered events with a known id are
// ignored, so the consumer can be retried safely.
func (r *SQLiteRepository) InsertAuditEvent(ctx context.Context, rec AuditRecord) (bool, error) {
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = r.now()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO audit_events
			(id, action, resource, resource_id, actor, summary, occurred_at, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Action, rec.Resource, rec.ResourceID, rec.Actor, rec.Summary,
		rec.OccurredAt.UnixMilli(), rec.ReceivedAt.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("insert audit event: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RecentAuditEvents returns up to limit events, newest first.
func (r *SQLiteRepository) RecentAuditEvents(ctx context.Context, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, action, resource, resource_id, actor, summary, occurred_at, received_at
		FROM audit_events
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var (
			rec                    AuditRecord
			occurredMs, receivedMs int64
		)
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.Resource, &rec.ResourceID,
			&rec.Actor, &rec.Summary, &occurredMs, &receivedMs); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		rec.OccurredAt = time.UnixMilli(occurredMs)
		rec.ReceivedAt = time.UnixMilli(receivedMs)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
