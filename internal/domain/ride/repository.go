package ride

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the ride ledger
type Repository interface {
	Create(ctx context.Context, r *Ride) error
	// FindActive returns the open ride of a vehicle for a user
	FindActive(ctx context.Context, vehicleID uuid.UUID, userEmail string) (*Ride, error)
	// SaveEnd stores the end timestamp of an active ride
	SaveEnd(ctx context.Context, r *Ride) error
	// ListByUser returns the user's rides, active first, then newest end first
	ListByUser(ctx context.Context, userEmail string) ([]History, error)
	CountByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error)
	CountByUser(ctx context.Context, userEmail string) (int64, error)
}
