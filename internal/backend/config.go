package backend

import (
	"errors"
	"fmt"

	"aureum/internal/config"
)

// FromAppConfig converts the application config to a backend config.
func FromAppConfig(app *config.Config) (Config, error) {
	if app == nil {
		return Config{}, errors.New("app config is nil")
	}
	cfg := Config{
		Type:            BackendType(app.DataBackend),
		SQLiteDBPath:    app.SQLiteDBPath,
		DatabaseURL:     app.DatabaseURL,
		SpreadsheetID:   app.GoogleSpreadsheetID,
		SheetName:       app.GoogleSheetName,
		CredentialsJSON: app.GoogleServiceAccountJSON,
		CredentialsFile: app.GoogleServiceAccountFile,
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Type {
	case MemoryBackend:
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for postgres backend")
		}
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}
