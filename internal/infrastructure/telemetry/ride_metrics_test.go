package telemetry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	"github.com/movr/backend/internal/application/lifecycle"
	"github.com/movr/backend/internal/domain/geo"
	"github.com/movr/backend/internal/domain/shared"
)

type fakeFleet struct {
	stats FleetStats
	err   error
	calls int
}

func (f *fakeFleet) FleetStats(context.Context) (FleetStats, error) {
	f.calls++
	return f.stats, f.err
}

func TestNewRideMetrics_NilMeter(t *testing.T) {
	m, err := NewRideMetrics(RideMetricsConfig{})
	require.Error(t, err)
	assert.Nil(t, m)
	assert.Equal(t, "NewRideMetrics: meter cannot be nil", err.Error())
}

func TestOutcome(t *testing.T) {
	verr := &shared.ValidationError{}
	verr.Add("battery must be between 0 and 100")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"conflict", shared.ErrConflict, "conflict"},
		{"wrapped not found", fmt.Errorf("lookup: %w", shared.NotFound("Vehicle not found")), "not_found"},
		{"validation", verr, "validation_error"},
		{"feature disabled", shared.ErrFeatureDisabled, "feature_disabled"},
		{"plain", errors.New("connection reset"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestRideMetrics_RecordTransition(t *testing.T) {
	provider, reader := newTestMeter(t)
	m, err := NewRideMetrics(RideMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordTransition(ctx, lifecycle.OpCheckout, nil)
	m.RecordTransition(ctx, lifecycle.OpCheckout, nil)
	m.RecordTransition(ctx, lifecycle.OpCheckout, shared.ErrConflict)
	m.RecordTransition(ctx, lifecycle.OpEndRide, nil)

	sum, ok := collect(t, reader, "movr_lifecycle_transitions_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)

	got := map[string]int64{}
	for _, dp := range sum.DataPoints {
		op, _ := dp.Attributes.Value(AttrOperation)
		outcome, _ := dp.Attributes.Value(AttrOutcome)
		got[op.AsString()+"/"+outcome.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{
		"checkout/ok":       2,
		"checkout/conflict": 1,
		"end_ride/ok":       1,
	}, got)
}

func TestRideMetrics_RecordTrip(t *testing.T) {
	provider, reader := newTestMeter(t)
	m, err := NewRideMetrics(RideMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := tp.Tracer("test").Start(context.Background(), "end_ride")

	m.RecordTrip(ctx, geo.TripSummary{DistanceKm: 111.19, DurationMinutes: 60, VelocityKmh: 111.19})
	span.End()

	dist, ok := collect(t, reader, "movr_trip_distance_km").Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Equal(t, uint64(1), dist.DataPoints[0].Count)
	assert.InDelta(t, 111.19, dist.DataPoints[0].Sum, 1e-9)

	dur, ok := collect(t, reader, "movr_trip_duration_minutes").Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.InDelta(t, 60, dur.DataPoints[0].Sum, 1e-9)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "trip.completed", events[0].Name)
	assert.Contains(t, events[0].Attributes, attribute.Float64("trip.distance_km", 111.19))
}

func TestRideMetrics_CollectFleetStats(t *testing.T) {
	provider, reader := newTestMeter(t)
	fleet := &fakeFleet{stats: FleetStats{VehiclesTotal: 10, VehiclesInUse: 3, OpenRides: 3, AvgIdleBattery: 72.5}}
	m, err := NewRideMetrics(RideMetricsConfig{Meter: provider.Meter("test"), Fleet: fleet, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	m.collectFleetStats(context.Background())
	assert.Equal(t, 1, fleet.calls)

	inUse, ok := collect(t, reader, "movr_vehicles_in_use").Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(3), inUse.DataPoints[0].Value)

	total, ok := collect(t, reader, "movr_vehicles_total").Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(10), total.DataPoints[0].Value)

	battery, ok := collect(t, reader, "movr_vehicle_battery_avg").Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	assert.Equal(t, 72.5, battery.DataPoints[0].Value)
}

func TestRideMetrics_CollectFleetStats_ProviderError(t *testing.T) {
	fleet := &fakeFleet{err: errors.New("db down")}
	m, err := NewRideMetrics(RideMetricsConfig{Meter: noop.NewMeterProvider().Meter("test"), Fleet: fleet})
	require.NoError(t, err)

	assert.NotPanics(t, func() { m.collectFleetStats(context.Background()) })
	assert.Equal(t, 1, fleet.calls)
}

func TestRideMetrics_PeriodicCollectionStops(t *testing.T) {
	m, err := NewRideMetrics(RideMetricsConfig{Meter: noop.NewMeterProvider().Meter("test")})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.StartPeriodicCollection(ctx, 0)
	m.StartPeriodicCollection(ctx, 0)
	m.Stop()
	assert.NotPanics(t, m.Stop)
}
