package telemetry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newFleetDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "fleet.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE vehicles (id TEXT PRIMARY KEY, battery INTEGER NOT NULL, in_use BOOLEAN NOT NULL)`,
		`CREATE TABLE rides (id TEXT PRIMARY KEY, vehicle_id TEXT NOT NULL, end_ts DATETIME)`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestGormFleetStatsProvider_Empty(t *testing.T) {
	db := newFleetDB(t)

	stats, err := NewGormFleetStatsProvider(db, true).FleetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FleetStats{}, stats)
}

func TestGormFleetStatsProvider_Counts(t *testing.T) {
	db := newFleetDB(t)
	require.NoError(t, db.Exec(`INSERT INTO vehicles (id, battery, in_use) VALUES
		('a', 80, false), ('b', 60, false), ('c', 10, true)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO rides (id, vehicle_id, end_ts) VALUES
		('r1', 'c', NULL), ('r2', 'a', '2024-03-01 12:00:00')`).Error)

	stats, err := NewGormFleetStatsProvider(db, true).FleetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.VehiclesTotal)
	assert.Equal(t, int64(1), stats.VehiclesInUse)
	assert.Equal(t, int64(1), stats.OpenRides)
	assert.InDelta(t, 70.0, stats.AvgIdleBattery, 1e-9)
}

func TestGormFleetStatsProvider_WithoutRides(t *testing.T) {
	db := newFleetDB(t)
	require.NoError(t, db.Exec(`DROP TABLE rides`).Error)
	require.NoError(t, db.Exec(`INSERT INTO vehicles (id, battery, in_use) VALUES ('a', 50, true)`).Error)

	stats, err := NewGormFleetStatsProvider(db, false).FleetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.VehiclesInUse)
	assert.Zero(t, stats.OpenRides)
	assert.Zero(t, stats.AvgIdleBattery)
}
