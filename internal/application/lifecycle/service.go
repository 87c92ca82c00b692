// Package lifecycle drives vehicles through checkout and checkin, either
// anonymously or as user-attributed rides, and produces trip summaries.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/movr/backend/internal/application/unitofwork"
	"github.com/movr/backend/internal/domain/fleet"
	"github.com/movr/backend/internal/domain/geo"
	"github.com/movr/backend/internal/domain/shared"
)

// Features selects the lifecycle variant
type Features struct {
	// LocationHistory records a ledger entry on every transition and takes
	// trip start points from the ledger.
	LocationHistory bool
	// UserRides attributes vehicle use to registered users. It disables
	// anonymous checkout and checkin.
	UserRides bool
}

// Operation names a lifecycle transition for metrics
type Operation string

// Lifecycle operations
const (
	OpCheckout  Operation = "checkout"
	OpCheckin   Operation = "checkin"
	OpStartRide Operation = "start_ride"
	OpEndRide   Operation = "end_ride"
)

// Recorder observes the outcome of lifecycle transitions
type Recorder interface {
	RecordTransition(ctx context.Context, op Operation, err error)
	RecordTrip(ctx context.Context, summary geo.TripSummary)
}

type nopRecorder struct{}

func (nopRecorder) RecordTransition(context.Context, Operation, error) {}
func (nopRecorder) RecordTrip(context.Context, geo.TripSummary)        {}

// Service runs lifecycle transitions inside a transaction scope
type Service struct {
	scope    unitofwork.TransactionScope
	features Features
	logger   *zap.Logger
	recorder Recorder
	clock    func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithRecorder attaches a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService creates a lifecycle Service
func NewService(scope unitofwork.TransactionScope, features Features, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		scope:    scope,
		features: features,
		logger:   logger,
		recorder: nopRecorder{},
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Features reports the configured variant
func (s *Service) Features() Features {
	return s.features
}

// now is truncated to the storage precision so a ride's start time and the
// matching ledger entry compare equal after a round trip.
func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// TripResult is returned when a vehicle is released
type TripResult struct {
	VehicleID uuid.UUID       `json:"vehicle_id"`
	Summary   geo.TripSummary `json:"summary"`
	Messages  []string        `json:"messages"`
}

func newTripResult(vehicleID uuid.UUID, summary geo.TripSummary) *TripResult {
	return &TripResult{
		VehicleID: vehicleID,
		Summary:   summary,
		Messages:  summary.Messages(vehicleID.String()),
	}
}

// findVehicle loads a vehicle, naming it in the NotFound message
func findVehicle(ctx context.Context, repos unitofwork.Repositories, id uuid.UUID) (*fleet.Vehicle, error) {
	v, err := repos.Vehicles().FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, fleet.ErrVehicleNotFound(id)
	}
	return v, err
}

// lastKnown returns where and when the vehicle was last seen, from the
// ledger when history is enabled and from the vehicle row otherwise.
func (s *Service) lastKnown(ctx context.Context, repos unitofwork.Repositories, v *fleet.Vehicle) (geo.Point, time.Time, error) {
	if s.features.LocationHistory {
		entry, err := repos.Locations().FindLatest(ctx, v.ID)
		if errors.Is(err, shared.ErrNotFound) {
			return geo.Point{}, time.Time{}, fleet.ErrNoLocation(v.ID)
		}
		if err != nil {
			return geo.Point{}, time.Time{}, err
		}
		return entry.Position, entry.Timestamp, nil
	}
	if v.LastPosition == nil || v.LastSeenAt == nil {
		return geo.Point{}, time.Time{}, fleet.ErrNoLocation(v.ID)
	}
	return *v.LastPosition, *v.LastSeenAt, nil
}

// record appends a ledger entry when history is enabled
func (s *Service) record(ctx context.Context, repos unitofwork.Repositories, vehicleID uuid.UUID, p geo.Point, at time.Time) error {
	if !s.features.LocationHistory {
		return nil
	}
	entry := fleet.NewLocationEntry(vehicleID, p, at)
	return repos.Locations().Append(ctx, &entry)
}

// transition persists a state change, turning a lost race into a Conflict
// that names the vehicle.
func transition(ctx context.Context, repos unitofwork.Repositories, v *fleet.Vehicle, wasInUse bool) error {
	err := repos.Vehicles().SaveTransition(ctx, v, wasInUse)
	if errors.Is(err, shared.ErrConflict) {
		if wasInUse {
			return fleet.ErrVehicleNotInUse(v.ID)
		}
		return fleet.ErrVehicleInUse(v.ID)
	}
	return err
}

func (s *Service) finish(ctx context.Context, op Operation, err error, fields ...zap.Field) {
	s.recorder.RecordTransition(ctx, op, err)
	fields = append(fields, zap.String("operation", string(op)))
	if err == nil {
		s.logger.Info("Lifecycle transition completed", fields...)
		return
	}
	var de *shared.DomainError
	var ve *shared.ValidationError
	if errors.As(err, &de) || errors.As(err, &ve) {
		s.logger.Warn("Lifecycle transition rejected", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Error("Lifecycle transition failed", append(fields, zap.Error(err))...)
}
