package lifecycle

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/movr/backend/internal/application/unitofwork"
	"github.com/movr/backend/internal/domain/geo"
	"github.com/movr/backend/internal/domain/shared"
)

// CheckinInput is a vehicle's report when it is released
type CheckinInput struct {
	VehicleID uuid.UUID
	Battery   int
	Latitude  float64
	Longitude float64
}

// Checkout marks an available vehicle in use without attributing it to a
// user. The vehicle's last known position is copied into the ledger.
func (s *Service) Checkout(ctx context.Context, vehicleID uuid.UUID) (err error) {
	defer func() { s.finish(ctx, OpCheckout, err, zap.String("vehicle_id", vehicleID.String())) }()

	if s.features.UserRides {
		return shared.ErrFeatureDisabled
	}

	now := s.now()
	return s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		v, err := findVehicle(ctx, repos, vehicleID)
		if err != nil {
			return err
		}
		out, err := v.CheckedOut(now)
		if err != nil {
			return err
		}
		pos, _, err := s.lastKnown(ctx, repos, v)
		if err != nil {
			return err
		}
		if err := s.record(ctx, repos, v.ID, pos, now); err != nil {
			return err
		}
		return transition(ctx, repos, &out, false)
	})
}

// Checkin releases a checked-out vehicle at the reported position and
// summarizes the trip since checkout. Out-of-range input is rejected with
// every violation listed before storage is touched.
func (s *Service) Checkin(ctx context.Context, in CheckinInput) (result *TripResult, err error) {
	defer func() { s.finish(ctx, OpCheckin, err, zap.String("vehicle_id", in.VehicleID.String())) }()

	if s.features.UserRides {
		return nil, shared.ErrFeatureDisabled
	}
	end := geo.Point{Latitude: in.Latitude, Longitude: in.Longitude}
	if err := geo.ValidateReading(in.Battery, end); err != nil {
		return nil, err
	}

	now := s.now()
	err = s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		v, err := findVehicle(ctx, repos, in.VehicleID)
		if err != nil {
			return err
		}
		released, err := v.CheckedIn(in.Battery, end, now)
		if err != nil {
			return err
		}
		start, startedAt, err := s.lastKnown(ctx, repos, v)
		if err != nil {
			return err
		}
		if err := s.record(ctx, repos, v.ID, end, now); err != nil {
			return err
		}
		if err := transition(ctx, repos, &released, true); err != nil {
			return err
		}
		result = newTripResult(v.ID, geo.Summarize(start, startedAt, end, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recorder.RecordTrip(ctx, result.Summary)
	return result, nil
}
