package backend

import (
	"context"
	"errors"
	"fmt"

	"opsdesk/internal/amqp"
	"opsdesk/internal/audit"
	applog "opsdesk/internal/log"
	"opsdesk/internal/session"
	gsheet "opsdesk/internal/sheets/google"
	"opsdesk/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentStorage)}
}

// CreateBackend implements Factory.CreateBackend. On error everything opened
// so far is released.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res      = &Result{}
		closers  []func() error
		repo     *storage.SQLiteRepository
		cleanAll = func() error {
			var errs []error
			for i := len(closers) - 1; i >= 0; i-- {
				errs = append(errs, closers[i]())
			}
			return errors.Join(errs...)
		}
	)

	if config.NeedsSQLite() {
		var err error
		repo, err = storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		closers = append(closers, repo.Close)
		res.Storage = repo
		res.AuditLog = audit.NewStoreReader(repo)
		f.logger.Info("Initialized SQLite storage", "db_path", config.SQLiteDBPath, "schema_version", repo.SchemaVersion())
	}

	switch config.Sessions {
	case SQLiteSessions:
		res.Sessions = session.NewSQLiteStore(repo, config.SessionTTL)
	default:
		res.Sessions = session.NewMemoryStore(config.SessionTTL)
	}
	f.logger.Info("Initialized session store", "backend", config.Sessions.String())

	res.Audit = audit.NewLogPublisher(f.logger)
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContextErr(ctx, "Failed to initialize AMQP client, audit events go to the log only", err)
		} else {
			closers = append(closers, client.Close)
			res.Audit = audit.NewBrokerPublisher(client, f.logger)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	if config.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		}, f.logger)
		if err != nil {
			_ = cleanAll()
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		res.Exporter = client
		f.logger.Info("Initialized Google Sheets export", "sheet", config.GoogleSheetName)
	}

	res.Cleanup = cleanAll
	return res, nil
}
