package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/movr/backend/internal/application/unitofwork"
	"github.com/movr/backend/internal/domain/fleet"
	"github.com/movr/backend/internal/domain/identity"
	"github.com/movr/backend/internal/domain/ride"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed. A serialization
// failure reported at commit surfaces as CONFLICT.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos unitofwork.Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return translate(err)
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Vehicles returns the vehicle repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Vehicles() fleet.VehicleRepository {
	return NewGormVehicleRepository(r.tx)
}

// Locations returns the location ledger scoped to the current transaction.
func (r *gormTransactionalRepositories) Locations() fleet.LocationRepository {
	return NewGormLocationRepository(r.tx)
}

// Users returns the user repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

// Rides returns the ride repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Rides() ride.Repository {
	return NewGormRideRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ unitofwork.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements Repositories
var _ unitofwork.Repositories = (*gormTransactionalRepositories)(nil)
