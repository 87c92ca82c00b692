// Package geo holds the pure trip arithmetic used by the ride lifecycle:
// great-circle distance, elapsed time and average speed.
package geo

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/movr/backend/internal/domain/shared"
)

// EarthRadiusKm is the mean earth radius used for distances
const EarthRadiusKm = 6371.0

// Coordinate bounds
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
	MinBattery   = 0
	MaxBattery   = 100
)

// Validation messages returned to API clients
const (
	MsgLongitudeRange = "Longitude must be between -180 and 180"
	MsgLatitudeRange  = "Latitude must be between -90 and 90"
	MsgBatteryRange   = "Battery (percent) must be between 0 and 100."
)

// Point is a position on the earth in decimal degrees
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate records every out-of-range coordinate on v
func (p Point) Validate(v *shared.ValidationError) {
	v.Check(p.Longitude >= MinLongitude && p.Longitude <= MaxLongitude, MsgLongitudeRange)
	v.Check(p.Latitude >= MinLatitude && p.Latitude <= MaxLatitude, MsgLatitudeRange)
}

// ValidateReading checks a vehicle report of battery level and position.
// All violations are returned together.
func ValidateReading(battery int, p Point) error {
	v := &shared.ValidationError{}
	p.Validate(v)
	v.Check(battery >= MinBattery && battery <= MaxBattery, MsgBatteryRange)
	return v.Err()
}

// DistanceKm returns the haversine distance between two points
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DurationMinutes returns the minutes elapsed from start to end. An end
// before start yields 0.
func DurationMinutes(start, end time.Time) float64 {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return d.Minutes()
}

// VelocityKmh returns the average speed over the interval, or 0 when the
// interval is empty.
func VelocityKmh(distanceKm float64, start, end time.Time) float64 {
	hours := DurationMinutes(start, end) / 60
	if hours == 0 {
		return 0
	}
	return distanceKm / hours
}

// TripSummary describes a completed ride
type TripSummary struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
	VelocityKmh     float64 `json:"velocity_kmh"`
}

// Summarize computes the summary of a trip from its two endpoints
func Summarize(from Point, startedAt time.Time, to Point, endedAt time.Time) TripSummary {
	distance := DistanceKm(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	return TripSummary{
		DistanceKm:      distance,
		DurationMinutes: DurationMinutes(startedAt, endedAt),
		VelocityKmh:     VelocityKmh(distance, startedAt, endedAt),
	}
}

// Messages renders the summary for the rider, values rounded to two places
func (s TripSummary) Messages(vehicleID string) []string {
	return []string{
		fmt.Sprintf("You have completed your ride on vehicle %s.", vehicleID),
		fmt.Sprintf("You traveled %s km in %s minutes, for an average velocity of %s km/h",
			round2(s.DistanceKm), round2(s.DurationMinutes), round2(s.VelocityKmh)),
	}
}

func round2(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
