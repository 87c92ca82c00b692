package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// FleetStats is a point-in-time snapshot of fleet occupancy.
type FleetStats struct {
	VehiclesTotal  int64
	VehiclesInUse  int64
	OpenRides      int64
	AvgIdleBattery float64
}

// FleetStatsProvider supplies fleet snapshots for the periodic gauges.
type FleetStatsProvider interface {
	FleetStats(ctx context.Context) (FleetStats, error)
}

// GormFleetStatsProvider reads fleet stats straight from the vehicles and
// rides tables.
type GormFleetStatsProvider struct {
	db        *gorm.DB
	withRides bool
}

// NewGormFleetStatsProvider creates a provider. The rides table is only
// queried when withRides is set.
func NewGormFleetStatsProvider(db *gorm.DB, withRides bool) *GormFleetStatsProvider {
	return &GormFleetStatsProvider{db: db, withRides: withRides}
}

// FleetStats implements FleetStatsProvider.
func (p *GormFleetStatsProvider) FleetStats(ctx context.Context) (FleetStats, error) {
	var row struct {
		Total      int64   `gorm:"column:total"`
		InUse      int64   `gorm:"column:in_use"`
		AvgBattery float64 `gorm:"column:avg_battery"`
	}
	err := p.db.WithContext(ctx).
		Table("vehicles").
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN in_use THEN 1 ELSE 0 END), 0) AS in_use,
			COALESCE(AVG(CASE WHEN in_use THEN NULL ELSE battery END), 0) AS avg_battery`).
		Scan(&row).Error
	if err != nil {
		return FleetStats{}, err
	}

	stats := FleetStats{
		VehiclesTotal:  row.Total,
		VehiclesInUse:  row.InUse,
		AvgIdleBattery: row.AvgBattery,
	}
	if p.withRides {
		if err := p.db.WithContext(ctx).
			Table("rides").
			Where("end_ts IS NULL").
			Count(&stats.OpenRides).Error; err != nil {
			return FleetStats{}, err
		}
	}
	return stats, nil
}

var _ FleetStatsProvider = (*GormFleetStatsProvider)(nil)
