package backend

import (
	"fmt"

	"opsdesk/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sessions := SessionType(appConfig.SessionBackend)
	if !sessions.IsValid() {
		return Config{}, fmt.Errorf("invalid session backend in config: %s", appConfig.SessionBackend)
	}

	return Config{
		Sessions:   sessions,
		SessionTTL: appConfig.SessionTTL,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Sessions.IsValid() {
		return fmt.Errorf("invalid session backend: %s", c.Sessions)
	}
	if c.NeedsSQLite() && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite sessions and the audit log")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when an AMQP URL is set")
	}
	if c.GoogleSpreadsheetID != "" && c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
		return fmt.Errorf("either a service account file or JSON must be provided for the sheets export")
	}
	return nil
}

// GetSessionTypes returns all valid session backends
func GetSessionTypes() []SessionType {
	return []SessionType{MemorySessions, SQLiteSessions}
}
