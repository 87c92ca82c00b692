// Package fleet registers, lists and retires vehicles.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/movr/backend/internal/application/unitofwork"
	"github.com/movr/backend/internal/domain/fleet"
	"github.com/movr/backend/internal/domain/geo"
	"github.com/movr/backend/internal/domain/shared"
)

// List limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 1000
)

// AddVehicleInput registers a vehicle at a starting position
type AddVehicleInput struct {
	VehicleType string
	Battery     int
	Latitude    float64
	Longitude   float64
	Info        map[string]any
}

// VehicleDetail is a vehicle with its location history, oldest first
type VehicleDetail struct {
	Vehicle fleet.Vehicle
	History []fleet.LocationEntry
}

// VehicleService manages the vehicle registry
type VehicleService struct {
	scope           unitofwork.TransactionScope
	locationHistory bool
	logger          *zap.Logger
	clock           func() time.Time
}

// NewVehicleService creates a VehicleService. locationHistory controls
// whether registrations seed the location ledger.
func NewVehicleService(scope unitofwork.TransactionScope, locationHistory bool, logger *zap.Logger) *VehicleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehicleService{
		scope:           scope,
		locationHistory: locationHistory,
		logger:          logger,
		clock:           time.Now,
	}
}

func (s *VehicleService) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// Add registers an available vehicle and records its initial position
func (s *VehicleService) Add(ctx context.Context, in AddVehicleInput) (uuid.UUID, error) {
	now := s.now()
	pos := geo.Point{Latitude: in.Latitude, Longitude: in.Longitude}
	v, err := fleet.NewVehicle(in.VehicleType, in.Battery, pos, in.Info, now)
	if err != nil {
		return uuid.Nil, err
	}

	err = s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		if err := repos.Vehicles().Create(ctx, &v); err != nil {
			return err
		}
		if !s.locationHistory {
			return nil
		}
		entry := fleet.NewLocationEntry(v.ID, pos, now)
		return repos.Locations().Append(ctx, &entry)
	})
	if err != nil {
		s.logger.Error("Failed to add vehicle", zap.Error(err))
		return uuid.Nil, err
	}

	s.logger.Info("Vehicle added",
		zap.String("vehicle_id", v.ID.String()),
		zap.String("vehicle_type", v.VehicleType))
	return v.ID, nil
}

// List returns up to limit vehicles; zero selects DefaultListLimit
func (s *VehicleService) List(ctx context.Context, limit int) ([]fleet.Vehicle, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 0 || limit > MaxListLimit {
		return nil, shared.InvalidInput(fmt.Sprintf("max_vehicles must be between 1 and %d", MaxListLimit))
	}

	var vehicles []fleet.Vehicle
	err := s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		var err error
		vehicles, err = repos.Vehicles().List(ctx, limit)
		return err
	})
	return vehicles, err
}

// Get returns a vehicle and its location history
func (s *VehicleService) Get(ctx context.Context, id uuid.UUID) (*VehicleDetail, error) {
	var detail VehicleDetail
	err := s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		v, err := repos.Vehicles().FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return fleet.ErrVehicleNotFound(id)
			}
			return err
		}
		detail.Vehicle = *v
		if !s.locationHistory {
			return nil
		}
		detail.History, err = repos.Locations().ListByVehicle(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if detail.History == nil {
		detail.History = []fleet.LocationEntry{}
	}
	return &detail, nil
}

// Delete retires a vehicle. Vehicles in use or with ride records are kept.
func (s *VehicleService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		rides, err := repos.Rides().CountByVehicle(ctx, id)
		if err != nil {
			return err
		}
		if rides > 0 {
			return shared.Conflict(fmt.Sprintf("Vehicle %s has ride history and cannot be deleted", id))
		}
		err = repos.Vehicles().DeleteIdle(ctx, id)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			return fleet.ErrVehicleNotFound(id)
		case errors.Is(err, shared.ErrConflict):
			return fleet.ErrVehicleInUse(id)
		}
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Info("Vehicle deleted", zap.String("vehicle_id", id.String()))
	return nil
}
