package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/soaringjerry/medscore/internal/config"
	"github.com/soaringjerry/medscore/internal/db"
	"github.com/soaringjerry/medscore/internal/services"
)

// openStore opens the configured backend and brings its schema up to date.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (services.Store, error) {
	switch cfg.Store {
	case "memory":
		logger.Warn().Msg("using the in-memory store; data is lost on restart")
		return db.NewMemoryStore(), nil
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		n, err := db.RunPostgresMigrations(ctx, pool, cfg.MigrationsDir)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info().Int("applied", n).Msg("postgres migrations done")
		return db.NewPGStore(pool, logger), nil
	}

	sqlDB, err := openSQLiteFile(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	n, err := db.RunMigrations(sqlDB, cfg.MigrationsDir)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	logger.Info().Int("applied", n).Str("path", cfg.SQLitePath).Msg("sqlite migrations done")
	store, err := db.NewSQLiteStore(sqlDB, logger)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return store, nil
}

func openSQLiteFile(path string) (*sql.DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	return db.OpenSQLite(path)
}
