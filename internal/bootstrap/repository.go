package bootstrap

import (
	"context"
	"fmt"

	"github.com/mallardworks/duckhunt/internal/config"
	"github.com/mallardworks/duckhunt/internal/database"
	"github.com/mallardworks/duckhunt/internal/database/postgres"
	"github.com/mallardworks/duckhunt/internal/repository"
	filestore "github.com/mallardworks/duckhunt/internal/store/file"
)

// NewPlayerRepository selects and initializes the persistence backend.
// The postgres backend runs its migrations before returning.
func NewPlayerRepository(ctx context.Context, cfg *config.Config, defaultChannel string) (repository.Player, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendFile:
		return filestore.New(cfg.DataFile, cfg.BackupDir, cfg.BackupKeep, defaultChannel), nil

	case config.StoreBackendPostgres:
		pool, err := database.NewPool(ctx, cfg.GetDBConnString(),
			DBMaxConnections, DBMaxConnIdleTime, DBMaxConnLifetime)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		repo := postgres.NewPlayerRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
