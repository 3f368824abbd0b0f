package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zonekit/deliveryzones/internal/api"
	"github.com/zonekit/deliveryzones/internal/config"
	"github.com/zonekit/deliveryzones/internal/database"
	gormstorage "github.com/zonekit/deliveryzones/internal/storage/gorm"
	"github.com/zonekit/deliveryzones/internal/storage/memory"
)

// Options carries the settings the individual backends need besides the
// storage section itself.
type Options struct {
	API         config.APIConfig
	DB          config.DBConfig
	SampleCount int
	Logger      zerolog.Logger
}

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, opts Options) (Backend, error) {
	switch cfg.Type {
	case "api", "":
		return api.New(opts.API.ServerURL, opts.API.Timeout), nil
	case "memory":
		return memory.New(memory.Config{
			Seed:        cfg.Memory.Seed,
			SampleCount: opts.SampleCount,
		}), nil
	case "postgres":
		mgr := database.NewManager(dbConfig(opts.DB, cfg.SQLite.Path), opts.Logger)
		if err := mgr.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return newGorm(mgr, cfg.SQLite, opts), nil
	case "sqlite":
		mgr := database.NewManager(dbConfig(opts.DB, cfg.SQLite.Path), opts.Logger)
		if err := mgr.ConnectSqlite(); err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return newGorm(mgr, cfg.SQLite, opts), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

func newGorm(mgr *database.Manager, sc config.SQLiteConfig, opts Options) *gormstorage.Backend {
	closeDB := mgr.Close
	// a local database (including the postgres fallback) is copied out on close
	if sc.DumpPath != "" {
		closeDB = func() error {
			if mgr.ShouldSaveLocal {
				if err := mgr.DumpToDisk(sc.DumpPath); err != nil {
					opts.Logger.Error().Err(err).Str("path", sc.DumpPath).Msg("Failed to dump database")
				}
			}
			return mgr.Close()
		}
	}
	return gormstorage.New(gormstorage.Dependencies{
		DB:            mgr.DB,
		Logger:        opts.Logger,
		DefaultCenter: memory.DemoCenter,
		SampleCount:   opts.SampleCount,
		Close:         closeDB,
	})
}

func dbConfig(c config.DBConfig, sqlitePath string) database.Config {
	return database.Config{
		Host:       c.Host,
		Port:       c.Port,
		Username:   c.Username,
		Password:   c.Password,
		Database:   c.Database,
		SqlitePath: sqlitePath,
	}
}
