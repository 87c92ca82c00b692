package lifecycle

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
	"github.com/movr/backend/internal/domain/identity"
	"github.com/movr/backend/internal/domain/ride"
	"github.com/movr/backend/internal/domain/shared"
)

// Messages for missing request identifiers
const (
	MsgNoVehicleID    = "Unable to start ride. No vehicle id provided."
	MsgNoUserEmail    = "Unable to start ride. No user email provided."
	MsgEndNoVehicleID = "Unable to end ride. No vehicle id provided."
	MsgEndNoUserEmail = "Unable to end ride. No user email provided."
	MsgNoEmail        = "No user email provided."
)

// StartRideInput identifies the rider and the vehicle
type StartRideInput struct {
	VehicleID uuid.UUID
	UserEmail string
}

// StartRideResult is the newly opened ride
type StartRideResult struct {
	Ride     ride.Ride `json:"ride"`
	Messages []string  `json:"messages"`
}

// EndRideInput is the vehicle's report at the end of a ride
type EndRideInput struct {
	VehicleID uuid.UUID
	UserEmail string
	Battery   int
	Latitude  float64
	Longitude float64
}

// ActiveRideView describes a vehicle currently ridden by a user
type ActiveRideView struct {
	VehicleID     uuid.UUID `json:"id"`
	InUse         bool      `json:"in_use"`
	Battery       int       `json:"battery"`
	VehicleType   string    `json:"vehicle_type"`
	LastCheckin   time.Time `json:"last_checkin"`
	LastLatitude  float64   `json:"last_latitude"`
	LastLongitude float64   `json:"last_longitude"`
}

func requireRider(vehicleID uuid.UUID, email string) error {
	v := &shared.ValidationError{}
	v.Check(vehicleID != uuid.Nil, MsgNoVehicleID)
	v.Check(email != "", MsgNoUserEmail)
	return v.Err()
}

// StartRide opens a ride for a registered user on an available vehicle.
// The ride, the ledger entry and the vehicle update commit together; every
// lookup happens before the first write.
func (s *Service) StartRide(ctx context.Context, in StartRideInput) (result *StartRideResult, err error) {
	email := identity.NormalizeEmail(in.UserEmail)
	defer func() {
		s.finish(ctx, OpStartRide, err, zap.String("vehicle_id", in.VehicleID.String()), zap.String("email", email))
	}()

	if !s.features.UserRides {
		return nil, shared.ErrFeatureDisabled
	}
	if err := requireRider(in.VehicleID, email); err != nil {
		return nil, err
	}

	now := s.now()
	err = s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		if _, err := repos.Users().FindByEmail(ctx, email); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return identity.ErrUserNotFound(email)
			}
			return err
		}
		v, err := findVehicle(ctx, repos, in.VehicleID)
		if err != nil {
			return err
		}
		taken, err := v.CheckedOut(now)
		if err != nil {
			return err
		}
		pos, _, err := s.lastKnown(ctx, repos, v)
		if err != nil {
			return err
		}

		r := ride.Start(v.ID, email, now)
		if err := repos.Rides().Create(ctx, &r); err != nil {
			if errors.Is(err, shared.ErrConflict) {
				return fleet.ErrVehicleInUse(v.ID)
			}
			return err
		}
		if err := s.record(ctx, repos, v.ID, pos, now); err != nil {
			return err
		}
		if err := transition(ctx, repos, &taken, false); err != nil {
			return err
		}
		result = &StartRideResult{
			Ride:     r,
			Messages: []string{fmt.Sprintf("Ride started with vehicle %s", v.ID)},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EndRide closes the user's active ride on a vehicle, releases the vehicle
// at the reported position and summarizes the trip from the ride's start.
func (s *Service) EndRide(ctx context.Context, in EndRideInput) (result *TripResult, err error) {
	email := identity.NormalizeEmail(in.UserEmail)
	defer func() {
		s.finish(ctx, OpEndRide, err, zap.String("vehicle_id", in.VehicleID.String()), zap.String("email", email))
	}()

	if !s.features.UserRides {
		return nil, shared.ErrFeatureDisabled
	}
	end := geo.Point{Latitude: in.Latitude, Longitude: in.Longitude}
	v := &shared.ValidationError{}
	v.Check(in.VehicleID != uuid.Nil, MsgEndNoVehicleID)
	v.Check(email != "", MsgEndNoUserEmail)
	end.Validate(v)
	v.Check(in.Battery >= geo.MinBattery && in.Battery <= geo.MaxBattery, geo.MsgBatteryRange)
	if err := v.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	err = s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		vehicle, err := findVehicle(ctx, repos, in.VehicleID)
		if err != nil {
			return err
		}
		active, err := repos.Rides().FindActive(ctx, vehicle.ID, email)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return ride.ErrNoActiveRide(vehicle.ID, email)
			}
			return err
		}
		start, err := repos.Locations().FindAt(ctx, vehicle.ID, active.StartedAt)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return ride.ErrNoActiveRide(vehicle.ID, email)
			}
			return err
		}
		released, err := vehicle.CheckedIn(in.Battery, end, now)
		if err != nil {
			return err
		}
		ended, err := active.Ended(now)
		if err != nil {
			return err
		}

		if err := repos.Rides().SaveEnd(ctx, &ended); err != nil {
			return err
		}
		if err := s.record(ctx, repos, vehicle.ID, end, now); err != nil {
			return err
		}
		if err := transition(ctx, repos, &released, true); err != nil {
			return err
		}
		result = newTripResult(vehicle.ID, geo.Summarize(start.Position, start.Timestamp, end, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recorder.RecordTrip(ctx, result.Summary)
	return result, nil
}

// ActiveRide reports the user's open ride on a vehicle. A ride counts as
// active only while the vehicle is in use and the ledger holds the ride's
// start entry.
func (s *Service) ActiveRide(ctx context.Context, vehicleID uuid.UUID, userEmail string) (*ActiveRideView, error) {
	if !s.features.UserRides {
		return nil, shared.ErrFeatureDisabled
	}
	email := identity.NormalizeEmail(userEmail)
	if err := requireRider(vehicleID, email); err != nil {
		return nil, err
	}

	var view *ActiveRideView
	err := s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		v, err := findVehicle(ctx, repos, vehicleID)
		if err != nil {
			return err
		}
		if !v.InUse {
			return ride.ErrNoActiveRide(vehicleID, email)
		}
		active, err := repos.Rides().FindActive(ctx, vehicleID, email)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return ride.ErrNoActiveRide(vehicleID, email)
			}
			return err
		}
		start, err := repos.Locations().FindAt(ctx, vehicleID, active.StartedAt)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return ride.ErrNoActiveRide(vehicleID, email)
			}
			return err
		}
		view = &ActiveRideView{
			VehicleID:     v.ID,
			InUse:         v.InUse,
			Battery:       v.Battery,
			VehicleType:   v.VehicleType,
			LastCheckin:   start.Timestamp,
			LastLatitude:  start.Position.Latitude,
			LastLongitude: start.Position.Longitude,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// RidesForUser lists a user's rides, active rides first and then by end
// time, newest first. A user without rides yields NotFound.
func (s *Service) RidesForUser(ctx context.Context, userEmail string) ([]ride.History, error) {
	if !s.features.UserRides {
		return nil, shared.ErrFeatureDisabled
	}
	email := identity.NormalizeEmail(userEmail)
	if email == "" {
		return nil, shared.InvalidInput(MsgNoEmail)
	}

	var rides []ride.History
	err := s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		var err error
		rides, err = repos.Rides().ListByUser(ctx, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rides) == 0 {
		return nil, ride.ErrNoRides
	}
	return rides, nil
}
