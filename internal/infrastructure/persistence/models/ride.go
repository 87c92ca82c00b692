package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/movr/backend/internal/domain/ride"
)

// RideModel is the persistence model for the Ride entity
type RideModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	VehicleID uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserEmail string     `gorm:"type:varchar(200);not null;index"`
	StartedAt time.Time  `gorm:"column:start_ts;not null"`
	EndedAt   *time.Time `gorm:"column:end_ts"`
}

// TableName returns the table name for GORM
func (RideModel) TableName() string {
	return "rides"
}

// ToDomain converts the persistence model to a domain Ride
func (m *RideModel) ToDomain() *ride.Ride {
	return &ride.Ride{
		ID:        m.ID,
		VehicleID: m.VehicleID,
		UserEmail: m.UserEmail,
		StartedAt: utc(m.StartedAt),
		EndedAt:   utcPtr(m.EndedAt),
	}
}

// FromDomain populates the persistence model from a domain Ride
func (m *RideModel) FromDomain(r *ride.Ride) {
	m.ID = r.ID
	m.VehicleID = r.VehicleID
	m.UserEmail = r.UserEmail
	m.StartedAt = r.StartedAt
	m.EndedAt = r.EndedAt
}

// RideHistoryRow is a ride joined with its vehicle's current state
type RideHistoryRow struct {
	RideModel
	VehicleInUse bool
	VehicleType  string
}

// ToDomain converts the joined row to a ride History entry
func (m *RideHistoryRow) ToDomain() ride.History {
	return ride.History{
		Ride:         *m.RideModel.ToDomain(),
		VehicleInUse: m.VehicleInUse,
		VehicleType:  m.VehicleType,
	}
}
