// Package ride records who rode which vehicle and when.
package ride

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/movr/backend/internal/domain/shared"
)

// Ride is one user-attributed use of a vehicle. EndedAt is nil while the
// ride is active. Rides are never deleted.
type Ride struct {
	ID        uuid.UUID
	VehicleID uuid.UUID
	UserEmail string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Start opens a ride
func Start(vehicleID uuid.UUID, userEmail string, at time.Time) Ride {
	return Ride{
		ID:        uuid.New(),
		VehicleID: vehicleID,
		UserEmail: userEmail,
		StartedAt: at,
	}
}

// Active reports whether the ride has not ended
func (r Ride) Active() bool {
	return r.EndedAt == nil
}

// Ended returns the ride closed at the given time
func (r Ride) Ended(at time.Time) (Ride, error) {
	if !r.Active() {
		return Ride{}, shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Ride %s has already ended", r.ID))
	}
	r.EndedAt = &at
	return r, nil
}

// History is a ride joined with the current state of its vehicle
type History struct {
	Ride
	VehicleInUse bool
	VehicleType  string
}

// ErrNoActiveRide is returned when a vehicle has no open ride for a user
func ErrNoActiveRide(vehicleID uuid.UUID, email string) error {
	return shared.NotFound(fmt.Sprintf("No active ride found for vehicle %s and user %s", vehicleID, email))
}

// ErrNoRides is returned for a user without ride history
var ErrNoRides = shared.NotFound("No rides found")
