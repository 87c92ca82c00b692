package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/movr/backend/internal/domain/fleet"
	"github.com/movr/backend/internal/domain/geo"
)

// VehicleModel is the persistence model for the Vehicle entity
type VehicleModel struct {
	BaseModel
	Battery       int        `gorm:"not null"`
	InUse         bool       `gorm:"not null;index"`
	VehicleType   string     `gorm:"type:varchar(100);not null"`
	VehicleInfo   *string    `gorm:"column:vehicle_info;type:jsonb"`
	LastLatitude  *float64   `gorm:"column:last_latitude"`
	LastLongitude *float64   `gorm:"column:last_longitude"`
	LastSeenAt    *time.Time `gorm:"column:last_seen_at"`
}

// TableName returns the table name for GORM
func (VehicleModel) TableName() string {
	return "vehicles"
}

// ToDomain converts the persistence model to a domain Vehicle
func (m *VehicleModel) ToDomain() *fleet.Vehicle {
	v := &fleet.Vehicle{
		ID:          m.ID,
		Battery:     m.Battery,
		InUse:       m.InUse,
		VehicleType: m.VehicleType,
		LastSeenAt:  utcPtr(m.LastSeenAt),
		CreatedAt:   utc(m.CreatedAt),
		UpdatedAt:   utc(m.UpdatedAt),
	}
	if m.LastLatitude != nil && m.LastLongitude != nil {
		v.LastPosition = &geo.Point{Latitude: *m.LastLatitude, Longitude: *m.LastLongitude}
	}
	if m.VehicleInfo != nil && *m.VehicleInfo != "" {
		var info map[string]any
		if err := json.Unmarshal([]byte(*m.VehicleInfo), &info); err != nil {
			zap.L().Named("fleet.models").Warn("failed to parse vehicle_info JSON",
				zap.String("vehicle_id", m.ID.String()),
				zap.String("raw_json", *m.VehicleInfo),
				zap.Error(err))
		} else {
			v.Info = info
		}
	}
	return v
}

// FromDomain populates the persistence model from a domain Vehicle
func (m *VehicleModel) FromDomain(v *fleet.Vehicle) {
	m.ID = v.ID
	m.CreatedAt = v.CreatedAt
	m.UpdatedAt = v.UpdatedAt
	m.Battery = v.Battery
	m.InUse = v.InUse
	m.VehicleType = v.VehicleType
	m.LastSeenAt = v.LastSeenAt
	m.LastLatitude, m.LastLongitude = nil, nil
	if v.LastPosition != nil {
		lat, lon := v.LastPosition.Latitude, v.LastPosition.Longitude
		m.LastLatitude = &lat
		m.LastLongitude = &lon
	}
	m.VehicleInfo = nil
	if len(v.Info) > 0 {
		if raw, err := json.Marshal(v.Info); err == nil {
			s := string(raw)
			m.VehicleInfo = &s
		}
	}
}

// LocationModel is one row of the append-only location_history table
type LocationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;index:idx_location_history_vehicle_ts,priority:1"`
	Timestamp time.Time `gorm:"column:ts;not null;index:idx_location_history_vehicle_ts,priority:2"`
	Latitude  float64   `gorm:"not null"`
	Longitude float64   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LocationModel) TableName() string {
	return "location_history"
}

// ToDomain converts the persistence model to a domain LocationEntry
func (m *LocationModel) ToDomain() *fleet.LocationEntry {
	return &fleet.LocationEntry{
		ID:        m.ID,
		VehicleID: m.VehicleID,
		Timestamp: utc(m.Timestamp),
		Position:  geo.Point{Latitude: m.Latitude, Longitude: m.Longitude},
	}
}

// FromDomain populates the persistence model from a domain LocationEntry
func (m *LocationModel) FromDomain(e *fleet.LocationEntry) {
	m.ID = e.ID
	m.VehicleID = e.VehicleID
	m.Timestamp = e.Timestamp
	m.Latitude = e.Position.Latitude
	m.Longitude = e.Position.Longitude
}
