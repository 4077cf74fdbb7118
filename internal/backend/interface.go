package backend

import (
	"context"
	"time"

	"opsdesk/internal/audit"
	"opsdesk/internal/session"
	"opsdesk/internal/sheets"
)

// Pinger is a local store the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CleanupFunc releases what a Result holds.
type CleanupFunc func() error

// Result holds the locally backed collaborators of the web server. AuditLog,
// Exporter and Storage are nil when the matching feature is not configured.
type Result struct {
	Sessions session.Store
	Audit    audit.Publisher
	AuditLog audit.Reader
	Exporter sheets.SummaryExporter
	Storage  Pinger
	Cleanup  CleanupFunc
}

// Factory creates the local backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Sessions   SessionType
	SessionTTL time.Duration

	// SQLite stores sessions when Sessions is sqlite and holds the audit log
	// the worker writes.
	SQLiteDBPath string

	// AMQP is optional; without it audit events only go to the log.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export is optional.
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// SessionType selects where visitor sessions live.
type SessionType string

const (
	MemorySessions SessionType = "memory"
	SQLiteSessions SessionType = "sqlite"
)

// String implements fmt.Stringer
func (t SessionType) String() string {
	return string(t)
}

// IsValid returns true if the session type is valid
func (t SessionType) IsValid() bool {
	switch t {
	case MemorySessions, SQLiteSessions:
		return true
	default:
		return false
	}
}

// NeedsSQLite reports whether a SQLite database must be opened: for
// sessions, or to read the audit log the worker fills from the broker.
func (c Config) NeedsSQLite() bool {
	return c.Sessions == SQLiteSessions || c.AMQPURL != ""
}
