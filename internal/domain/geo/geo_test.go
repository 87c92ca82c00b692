package geo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movr/backend/internal/domain/shared"
)

func TestDistanceKm(t *testing.T) {
	t.Run("zero for coincident points", func(t *testing.T) {
		assert.Equal(t, 0.0, DistanceKm(40.7128, -74.0060, 40.7128, -74.0060))
	})

	t.Run("symmetric", func(t *testing.T) {
		points := [][4]float64{
			{0, 0, 0, 1},
			{40.7128, -74.0060, 51.5074, -0.1278},
			{-33.8688, 151.2093, 35.6762, 139.6503},
			{89.9, 179.9, -89.9, -179.9},
		}
		for _, p := range points {
			assert.InDelta(t, DistanceKm(p[0], p[1], p[2], p[3]), DistanceKm(p[2], p[3], p[0], p[1]), 1e-9)
		}
	})

	t.Run("one degree of longitude at the equator", func(t *testing.T) {
		assert.InDelta(t, 111.19, DistanceKm(0, 0, 0, 1), 0.01)
	})

	t.Run("new york to london", func(t *testing.T) {
		assert.InDelta(t, 5570, DistanceKm(40.7128, -74.0060, 51.5074, -0.1278), 10)
	})
}

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 60.0, DurationMinutes(start, start.Add(time.Hour)))
	assert.Equal(t, 1.5, DurationMinutes(start, start.Add(90*time.Second)))
	assert.Equal(t, 0.0, DurationMinutes(start, start))
	assert.Equal(t, 0.0, DurationMinutes(start, start.Add(-time.Minute)), "end before start clamps to zero")
}

func TestVelocityKmh(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.InDelta(t, 111.19, VelocityKmh(DistanceKm(0, 0, 0, 1), start, start.Add(time.Hour)), 0.01)
	assert.InDelta(t, 20.0, VelocityKmh(10, start, start.Add(30*time.Minute)), 1e-9)
	assert.Equal(t, 0.0, VelocityKmh(10, start, start), "empty interval")
	assert.Equal(t, 0.0, VelocityKmh(10, start, start.Add(-time.Hour)), "inverted interval")
}

func TestSummarize(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Summarize(Point{0, 0}, start, Point{0, 1}, start.Add(time.Hour))

	assert.InDelta(t, 111.19, s.DistanceKm, 0.01)
	assert.Equal(t, 60.0, s.DurationMinutes)
	assert.InDelta(t, 111.19, s.VelocityKmh, 0.01)

	assert.Equal(t, []string{
		"You have completed your ride on vehicle v-1.",
		"You traveled 111.19 km in 60 minutes, for an average velocity of 111.19 km/h",
	}, s.Messages("v-1"))
}

func TestValidateReading(t *testing.T) {
	tests := []struct {
		name     string
		battery  int
		point    Point
		messages []string
	}{
		{name: "valid", battery: 50, point: Point{45, 90}},
		{name: "bounds are inclusive", battery: 100, point: Point{-90, 180}},
		{name: "battery too high", battery: 150, point: Point{0, 0}, messages: []string{MsgBatteryRange}},
		{name: "negative battery", battery: -1, point: Point{0, 0}, messages: []string{MsgBatteryRange}},
		{
			name:     "every field reported",
			battery:  101,
			point:    Point{Latitude: 91, Longitude: -181},
			messages: []string{MsgLongitudeRange, MsgLatitudeRange, MsgBatteryRange},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReading(tt.battery, tt.point)
			if tt.messages == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrValidation))
			var ve *shared.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.messages, ve.Messages)
		})
	}
}
