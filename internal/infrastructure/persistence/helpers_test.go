package persistence

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteSchema mirrors migrations/000001_init_schema.up.sql in SQLite types
var sqliteSchema = []string{
	`CREATE TABLE vehicles (
		id TEXT PRIMARY KEY,
		battery INTEGER NOT NULL,
		in_use BOOLEAN NOT NULL DEFAULT 0,
		vehicle_type TEXT NOT NULL,
		vehicle_info TEXT,
		last_latitude REAL,
		last_longitude REAL,
		last_seen_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE location_history (
		id TEXT PRIMARY KEY,
		vehicle_id TEXT NOT NULL REFERENCES vehicles (id) ON DELETE CASCADE,
		ts DATETIME NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL
	)`,
	`CREATE INDEX idx_location_history_vehicle_ts ON location_history (vehicle_id, ts)`,
	`CREATE TABLE users (
		email TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone_numbers TEXT
	)`,
	`CREATE TABLE rides (
		id TEXT PRIMARY KEY,
		vehicle_id TEXT NOT NULL REFERENCES vehicles (id),
		user_email TEXT NOT NULL REFERENCES users (email),
		start_ts DATETIME NOT NULL,
		end_ts DATETIME
	)`,
	`CREATE UNIQUE INDEX uq_rides_open_vehicle ON rides (vehicle_id) WHERE end_ts IS NULL`,
}

// newSQLiteDB opens a file-backed SQLite database with the MovR schema.
// A single connection serializes transactions the way row locks do on
// PostgreSQL.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "movr.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range sqliteSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// newMockGormDB creates a GORM handle over a mocked PostgreSQL connection
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	return openMockGormDB(t, mockDB, mock, &gorm.Config{SkipDefaultTransaction: true})
}

// newPingMockGormDB is newMockGormDB with ping expectations enforced. gorm's
// automatic ping on open is disabled so it does not consume them.
func newPingMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	return openMockGormDB(t, mockDB, mock, &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
}

func openMockGormDB(t *testing.T, mockDB *sql.DB, mock sqlmock.Sqlmock, cfg *gorm.Config) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, cfg)
	require.NoError(t, err)

	return gormDB, mock, mockDB
}
