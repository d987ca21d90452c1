// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/shipmanifest/extension/internal/config"
	"github.com/shipmanifest/extension/internal/database"
	gormstorage "github.com/shipmanifest/extension/internal/storage/gorm"
	"github.com/shipmanifest/extension/internal/storage/memory"
)

// NewBackend creates a roster store based on configuration. The returned
// backend is not yet initialized.
func NewBackend(cfg config.StorageConfig, dbLog zerolog.Logger, logger *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres", "sqlite":
		mgr := database.NewManager(dbLog, cfg.SQLite.Path)
		var err error
		if cfg.Type == "postgres" {
			err = mgr.Connect()
		} else {
			err = mgr.ConnectLocal()
		}
		if err != nil {
			return nil, fmt.Errorf("connect roster database: %w", err)
		}
		if err := mgr.Setup(); err != nil {
			_ = mgr.Close()
			return nil, fmt.Errorf("setup roster database: %w", err)
		}
		return gormstorage.New(gormstorage.Dependencies{
			DB:     mgr.DB,
			Logger: logger,
			Close:  mgr.Close,
		}), nil
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
