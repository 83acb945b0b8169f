package app

import (
	"github.com/deusflow/maralert/internal/config"
	"github.com/deusflow/maralert/internal/logger"
	"github.com/deusflow/maralert/internal/storage"
)

// NewSeenStore picks the backing store: Postgres when DATABASE_URL is set,
// the local JSON state file otherwise. An unreachable database degrades to
// the file store rather than blocking the run.
func NewSeenStore(cfg *config.Config) SeenStore {
	if cfg.DatabaseURL != "" {
		store, err := storage.NewPostgresStore(cfg.DatabaseURL)
		if err == nil {
			logger.Info("using database seen store")
			return store
		}
		logger.Warn("database store unavailable, using file state", "error", err)
	}
	return storage.NewFileStore(cfg.StateFile)
}
