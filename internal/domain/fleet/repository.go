package fleet

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VehicleRepository stores vehicles
type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	// List returns at most limit vehicles, newest first
	List(ctx context.Context, limit int) ([]Vehicle, error)
	Create(ctx context.Context, v *Vehicle) error
	// SaveTransition writes v only while the stored in_use flag still
	// equals wasInUse. A lost race yields a CONFLICT error.
	SaveTransition(ctx context.Context, v *Vehicle, wasInUse bool) error
	// DeleteIdle removes a vehicle that is not in use together with its
	// location history.
	DeleteIdle(ctx context.Context, id uuid.UUID) error
}

// LocationRepository is the append-only location ledger
type LocationRepository interface {
	Append(ctx context.Context, e *LocationEntry) error
	FindLatest(ctx context.Context, vehicleID uuid.UUID) (*LocationEntry, error)
	FindAt(ctx context.Context, vehicleID uuid.UUID, ts time.Time) (*LocationEntry, error)
	// ListByVehicle returns the history in ascending timestamp order
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]LocationEntry, error)
}
