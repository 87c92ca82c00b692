// Package unitofwork defines the transaction boundary shared by the MovR
// application services.
package unitofwork

import (
	"context"

	"github.com/movr/backend/internal/domain/fleet"
	"github.com/movr/backend/internal/domain/identity"
	"github.com/movr/backend/internal/domain/ride"
)

// TransactionScope runs a unit of work atomically. If fn returns an error
// every write made through repos is rolled back; otherwise all of them are
// committed together.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to every store within one transaction. All
// repositories returned share the same underlying transaction.
type Repositories interface {
	Vehicles() fleet.VehicleRepository
	Locations() fleet.LocationRepository
	Users() identity.UserRepository
	Rides() ride.Repository
}
