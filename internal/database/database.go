package database

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds connection settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	// SqlitePath is the local fallback file. Empty means in memory.
	SqlitePath string
}

// DSN renders the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// Manager handles database connections and operations.
type Manager struct {
	DB              *gorm.DB
	SqlDB           *sql.DB
	IsValid         bool
	ShouldSaveLocal bool
	Config          Config
	Logger          zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(cfg Config, log zerolog.Logger) *Manager {
	return &Manager{
		IsValid:         false,
		ShouldSaveLocal: false,
		Config:          cfg,
		Logger:          log,
	}
}

// Connect establishes a database connection, falling back to SQLite if Postgres fails.
func (m *Manager) Connect() error {
	var err error

	m.DB, err = m.GetPostgresDB()
	if err == nil {
		m.SqlDB, err = m.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		err = m.SqlDB.Ping()
	}
	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		return m.ConnectSqlite()
	}

	m.Logger.Info().Msg("Connected to database")
	m.IsValid = true
	m.SqlDB.SetMaxOpenConns(10)
	return nil
}

// ConnectSqlite opens the local SQLite database without trying Postgres.
func (m *Manager) ConnectSqlite() error {
	var err error
	m.ShouldSaveLocal = true
	m.DB, err = m.GetSqliteDB(m.Config.SqlitePath)
	if err != nil || m.DB == nil {
		m.IsValid = false
		return fmt.Errorf("failed to get local SQLite DB: %w", err)
	}

	m.SqlDB, err = m.DB.DB()
	if err != nil {
		m.IsValid = false
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	m.IsValid = true
	return nil
}

// GetPostgresDB returns a connection to the Postgres database.
func (m *Manager) GetPostgresDB() (*gorm.DB, error) {
	m.Logger.Debug().Str("host", m.Config.Host).Str("database", m.Config.Database).Msg("Connecting to Postgres DB")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  m.Config.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// GetSqliteDB returns a connection to a SQLite database.
// If path is empty, uses an in-memory database.
func (m *Manager) GetSqliteDB(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		m.IsValid = false
		return nil, err
	}
	if dsn == ":memory:" {
		// every in-memory connection is its own database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		m.Logger.Info().Msg("Using local SQLite DB in memory")
	} else {
		m.Logger.Info().Str("path", path).Msg("Using local SQLite DB")
	}

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}

// Close closes the underlying connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	m.IsValid = false
	return m.SqlDB.Close()
}

// DumpToDisk vacuums the database into a file, replacing any existing one.
func (m *Manager) DumpToDisk(path string) error {
	if path == "" {
		return fmt.Errorf("sqlite file path not set")
	}

	// remove existing file if it exists
	if exists, err := os.Stat(path); err == nil && exists != nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("error removing existing DB file: %w", err)
		}
	}

	err := m.DB.Exec("VACUUM INTO 'file:" + path + "';").Error
	if err != nil {
		return fmt.Errorf("error dumping DB to disk: %w", err)
	}

	m.Logger.Debug().Str("path", path).Msg("Dumped DB to disk")
	return nil
}
