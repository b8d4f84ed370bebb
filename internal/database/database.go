package database

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Manager owns the in-memory SQLite connection used for caches.
type Manager struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// memoryDSN names a shared-cache in-memory database. Connections opened with
// the same name within a process see the same data.
func memoryDSN(name string) string {
	if name == "" {
		return "file::memory:?cache=shared"
	}
	return "file:" + strings.ReplaceAll(name, "/", "_") + "?mode=memory&cache=shared"
}

// Open connects to the named in-memory SQLite database.
func (m *Manager) Open(name string) error {
	db, err := GetSqliteDB(name)
	if err != nil {
		return fmt.Errorf("failed to open in-memory SQLite DB: %w", err)
	}
	m.DB = db
	m.Logger.Info().Str("name", name).Msg("Using local SQLite DB in memory")
	return nil
}

// Migrate creates or updates the tables for the given models.
func (m *Manager) Migrate(models ...any) error {
	if m.DB == nil {
		return fmt.Errorf("database not open")
	}
	m.Logger.Debug().Int("models", len(models)).Msg("Migrating schema")
	if err := m.DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (m *Manager) Close() error {
	if m.DB == nil {
		return nil
	}
	sqlDB, err := m.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

// GetSqliteDB returns a connection to a named in-memory SQLite database.
// An empty name uses the process-wide default.
func GetSqliteDB(name string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(memoryDSN(name)), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA temp_store = MEMORY;",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}
