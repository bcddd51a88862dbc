package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/classcal/internal/calendar"
	"github.com/roach88/classcal/internal/config"
	"github.com/roach88/classcal/internal/filestore"
	"github.com/roach88/classcal/internal/store"
)

// openStore opens the backend selected by cfg.Store.Backend. The returned
// name labels metrics and logs.
func openStore(cfg *config.Config, logger *slog.Logger) (calendar.EventStore, string, error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		logger.Debug("opening file store", "path", cfg.Store.File.Path)
		s, err := filestore.OpenPath(cfg.Store.File.Path, filestore.WithLogger(logger))
		if err != nil {
			return nil, "", err
		}
		return s, filestore.BackendName, nil

	case config.BackendSQLite:
		logger.Debug("opening sqlite store", "path", cfg.Store.SQLite.Path)
		if err := os.MkdirAll(filepath.Dir(cfg.Store.SQLite.Path), 0o755); err != nil {
			return nil, "", fmt.Errorf("create data directory: %w", err)
		}
		s, err := store.Open(cfg.Store.SQLite.Path, store.WithLogger(logger))
		if err != nil {
			return nil, "", err
		}
		return s, s.Backend(), nil

	case config.BackendPostgres:
		pg := cfg.Store.Postgres
		logger.Debug("opening postgres store", "host", pg.Host, "port", pg.Port, "dbname", pg.DBName)
		s, err := store.OpenPostgres(store.PostgresConfig{
			Host:     pg.Host,
			Port:     pg.Port,
			User:     pg.User,
			Password: pg.Password,
			DBName:   pg.DBName,
			SSLMode:  pg.SSLMode,
		}, store.WithLogger(logger))
		if err != nil {
			return nil, "", err
		}
		return s, s.Backend(), nil
	}
	return nil, "", fmt.Errorf("unknown backend %q", cfg.Store.Backend)
}
