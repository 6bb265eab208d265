package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aleksaelezovic/vocabs/internal/config"
	"github.com/aleksaelezovic/vocabs/internal/storage/badger"
	"github.com/aleksaelezovic/vocabs/internal/storage/sqlite"
	"github.com/aleksaelezovic/vocabs/pkg/vocab"
)

// Open returns the repository selected by cfg.Storage.Driver. SQL backends
// are migrated to the latest schema before use.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (vocab.Repository, error) {
	switch cfg.Storage.Driver {
	case config.DriverBadger:
		repo, err := badger.Open(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("Opened badger storage", zap.String("path", cfg.Storage.Path))
		return repo, nil

	case config.DriverSQLite, config.DriverPostgres:
		dsn := cfg.Storage.Path
		if cfg.Storage.Driver == config.DriverPostgres {
			dsn = cfg.DatabaseURL
		}
		db, err := sqlite.Open(cfg.Storage.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s database: %w", cfg.Storage.Driver, err)
		}
		repo := sqlite.NewRepository(db)
		if err := sqlite.RunMigrations(ctx, db); err != nil {
			_ = repo.Close()
			return nil, err
		}
		logger.Info("Opened SQL storage", zap.String("driver", cfg.Storage.Driver))
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Migrate applies pending SQL migrations. Badger needs none.
func Migrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	repo, err := Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return repo.Close()
}
