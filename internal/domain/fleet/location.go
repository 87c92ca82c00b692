package fleet

import (
	"time"

	"github.com/google/uuid"

	"github.com/movr/backend/internal/domain/geo"
)

// LocationEntry is one row of a vehicle's location history
type LocationEntry struct {
	ID        uuid.UUID
	VehicleID uuid.UUID
	Timestamp time.Time
	Position  geo.Point
}

// NewLocationEntry stamps a position for a vehicle
func NewLocationEntry(vehicleID uuid.UUID, p geo.Point, at time.Time) LocationEntry {
	return LocationEntry{
		ID:        uuid.New(),
		VehicleID: vehicleID,
		Timestamp: at,
		Position:  p,
	}
}
