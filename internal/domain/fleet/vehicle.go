// Package fleet models vehicles and the append-only ledger of where they
// have been.
package fleet

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/movr/backend/internal/domain/geo"
	"github.com/movr/backend/internal/domain/shared"
)

// MsgVehicleTypeRequired is reported when a vehicle is registered without a type
const MsgVehicleTypeRequired = "Vehicle type is required"

// Vehicle is a rentable scooter, bike or similar. Values are never mutated
// in place; state transitions return a new Vehicle.
type Vehicle struct {
	ID          uuid.UUID
	Battery     int
	InUse       bool
	VehicleType string
	// Info carries free-form metadata such as color, wear and purchase details
	Info map[string]any
	// LastPosition and LastSeenAt mirror the newest location entry
	LastPosition *geo.Point
	LastSeenAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewVehicle validates a registration and returns an available vehicle
// positioned at p.
func NewVehicle(vehicleType string, battery int, p geo.Point, info map[string]any, now time.Time) (Vehicle, error) {
	v := &shared.ValidationError{}
	p.Validate(v)
	v.Check(battery >= geo.MinBattery && battery <= geo.MaxBattery, geo.MsgBatteryRange)
	v.Check(strings.TrimSpace(vehicleType) != "", MsgVehicleTypeRequired)
	if err := v.Err(); err != nil {
		return Vehicle{}, err
	}

	pos := p
	seen := now
	return Vehicle{
		ID:           uuid.New(),
		Battery:      battery,
		VehicleType:  strings.TrimSpace(vehicleType),
		Info:         info,
		LastPosition: &pos,
		LastSeenAt:   &seen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CheckedOut returns the vehicle marked in use at its current position
func (v Vehicle) CheckedOut(at time.Time) (Vehicle, error) {
	if v.InUse {
		return Vehicle{}, ErrVehicleInUse(v.ID)
	}
	v.InUse = true
	v.LastSeenAt = &at
	v.UpdatedAt = at
	return v, nil
}

// CheckedIn returns the vehicle released at p with the reported battery
func (v Vehicle) CheckedIn(battery int, p geo.Point, at time.Time) (Vehicle, error) {
	if !v.InUse {
		return Vehicle{}, ErrVehicleNotInUse(v.ID)
	}
	v.InUse = false
	v.Battery = battery
	v.LastPosition = &p
	v.LastSeenAt = &at
	v.UpdatedAt = at
	return v, nil
}

// ErrVehicleNotFound is returned when no vehicle has the given id
func ErrVehicleNotFound(id uuid.UUID) error {
	return shared.NotFound(fmt.Sprintf("Vehicle %s not found", id))
}

// ErrVehicleInUse is returned when a vehicle is already checked out
func ErrVehicleInUse(id uuid.UUID) error {
	return shared.Conflict(fmt.Sprintf("Vehicle %s is currently in use", id))
}

// ErrVehicleNotInUse is returned when releasing a vehicle nobody holds
func ErrVehicleNotInUse(id uuid.UUID) error {
	return shared.Conflict(fmt.Sprintf("Vehicle %s is not in use", id))
}

// ErrNoLocation is returned when a vehicle has no recorded position
func ErrNoLocation(id uuid.UUID) error {
	return shared.NotFound(fmt.Sprintf("No location recorded for vehicle %s", id))
}
