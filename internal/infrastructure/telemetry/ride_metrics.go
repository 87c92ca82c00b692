package telemetry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/movr/backend/internal/application/lifecycle"
	"github.com/movr/backend/internal/domain/geo"
	"github.com/movr/backend/internal/domain/shared"
)

// OutcomeOK labels a transition that committed.
const OutcomeOK = "ok"

// RideMetricsConfig holds the dependencies of RideMetrics.
type RideMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
	// Fleet supplies the gauges refreshed by StartPeriodicCollection.
	// Collection is skipped when nil.
	Fleet FleetStatsProvider
}

// RideMetrics records lifecycle transitions and completed trips, and
// periodically samples fleet occupancy.
type RideMetrics struct {
	logger *zap.Logger
	fleet  FleetStatsProvider

	transitions  *Counter
	tripDistance *Histogram
	tripDuration *Histogram

	vehiclesTotal *Gauge
	vehiclesInUse *Gauge
	openRides     *Gauge
	avgBattery    *FloatGauge

	stopChan    chan struct{}
	collectOnce sync.Once
	stopOnce    sync.Once
}

var _ lifecycle.Recorder = (*RideMetrics)(nil)

// NewRideMetrics creates the ride instruments on cfg.Meter.
func NewRideMetrics(cfg RideMetricsConfig) (*RideMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &RideMetrics{
		logger:   logger,
		fleet:    cfg.Fleet,
		stopChan: make(chan struct{}),
	}

	var err error
	if m.transitions, err = NewCounter(cfg.Meter,
		"movr_lifecycle_transitions_total",
		"Lifecycle transitions by operation and outcome",
		"{transitions}",
	); err != nil {
		return nil, err
	}
	if m.tripDistance, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "movr_trip_distance_km",
		Description: "Distance between the start and end point of completed trips",
		Unit:        "km",
		Boundaries:  TripDistanceBuckets,
	}); err != nil {
		return nil, err
	}
	if m.tripDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "movr_trip_duration_minutes",
		Description: "Duration of completed trips",
		Unit:        "min",
		Boundaries:  TripDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.vehiclesTotal, err = NewGauge(cfg.Meter, "movr_vehicles_total", "Registered vehicles", "{vehicles}"); err != nil {
		return nil, err
	}
	if m.vehiclesInUse, err = NewGauge(cfg.Meter, "movr_vehicles_in_use", "Vehicles currently checked out", "{vehicles}"); err != nil {
		return nil, err
	}
	if m.openRides, err = NewGauge(cfg.Meter, "movr_rides_open", "Rides without an end time", "{rides}"); err != nil {
		return nil, err
	}
	if m.avgBattery, err = NewFloatGauge(cfg.Meter, "movr_vehicle_battery_avg", "Average battery level of idle vehicles", "%"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordTransition counts one transition attempt.
func (m *RideMetrics) RecordTransition(ctx context.Context, op lifecycle.Operation, err error) {
	m.transitions.Inc(ctx,
		AttrOperation.String(string(op)),
		AttrOutcome.String(Outcome(err)),
	)
}

// RecordTrip records a completed trip and annotates the active span.
func (m *RideMetrics) RecordTrip(ctx context.Context, summary geo.TripSummary) {
	m.tripDistance.Record(ctx, summary.DistanceKm)
	m.tripDuration.Record(ctx, summary.DurationMinutes)

	trace.SpanFromContext(ctx).AddEvent("trip.completed", trace.WithAttributes(
		attribute.Float64("trip.distance_km", summary.DistanceKm),
		attribute.Float64("trip.duration_minutes", summary.DurationMinutes),
		attribute.Float64("trip.velocity_kmh", summary.VelocityKmh),
	))
}

// Outcome maps an error to a low-cardinality label: "ok", the lower-cased
// domain error code, or "error".
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		return strings.ToLower(shared.CodeValidation)
	}
	var derr *shared.DomainError
	if errors.As(err, &derr) {
		return strings.ToLower(derr.Code)
	}
	return "error"
}

// StartPeriodicCollection samples the fleet gauges every interval until
// Stop is called or ctx is done. Subsequent calls are no-ops.
func (m *RideMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 30 * time.Second
		}
		go m.runPeriodicCollection(ctx, interval)
	})
}

func (m *RideMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.collectFleetStats(ctx)

	for {
		select {
		case <-m.stopChan:
			m.logger.Info("Stopping periodic fleet metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collectFleetStats(ctx)
		}
	}
}

func (m *RideMetrics) collectFleetStats(ctx context.Context) {
	if m.fleet == nil {
		return
	}
	stats, err := m.fleet.FleetStats(ctx)
	if err != nil {
		m.logger.Warn("Failed to collect fleet stats", zap.Error(err))
		return
	}
	m.vehiclesTotal.Record(ctx, stats.VehiclesTotal)
	m.vehiclesInUse.Record(ctx, stats.VehiclesInUse)
	m.openRides.Record(ctx, stats.OpenRides)
	m.avgBattery.Record(ctx, stats.AvgIdleBattery)
}

// Stop ends periodic collection.
func (m *RideMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = &MetricsError{Op: "NewRideMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics setup error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
