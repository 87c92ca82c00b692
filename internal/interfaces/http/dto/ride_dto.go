package dto

import (
	"github.com/google/uuid"

	"github.com/movr/backend/internal/application/lifecycle"
	"github.com/movr/backend/internal/domain/ride"
)

// StartRideRequest is the body of POST /rides/start
type StartRideRequest struct {
	VehicleID string `json:"vehicle_id" binding:"omitempty,uuid"`
	Email     string `json:"email"`
}

// EndRideRequest is the body of PUT /rides/end
type EndRideRequest struct {
	VehicleID string   `json:"vehicle_id" binding:"omitempty,uuid"`
	Email     string   `json:"email"`
	Battery   *int     `json:"battery" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// ActiveRideQuery binds GET /rides/active
type ActiveRideQuery struct {
	VehicleID string `form:"vehicle_id" binding:"omitempty,uuid"`
	Email     string `form:"email"`
}

// ParseOptionalUUID parses s, mapping the empty string to uuid.Nil
func ParseOptionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}

// RideResponse is the wire form of a ride
type RideResponse struct {
	ID        uuid.UUID `json:"id"`
	VehicleID uuid.UUID `json:"vehicle_id"`
	UserEmail string    `json:"user_email"`
	StartTime string    `json:"start_time"`
	EndTime   *string   `json:"end_time"`
}

// RideHistoryResponse is a ride joined with its vehicle
type RideHistoryResponse struct {
	RideResponse
	VehicleInUse bool   `json:"in_use"`
	VehicleType  string `json:"vehicle_type"`
}

// StartRideResponse is returned by POST /rides/start
type StartRideResponse struct {
	Ride     RideResponse `json:"ride"`
	Messages []string     `json:"messages"`
}

// TripResponse summarizes a finished checkout or ride
type TripResponse struct {
	VehicleID       uuid.UUID `json:"vehicle_id"`
	DistanceKm      float64   `json:"distance_km"`
	DurationMinutes float64   `json:"duration_minutes"`
	VelocityKmh     float64   `json:"velocity_kmh"`
	Messages        []string  `json:"messages"`
}

// ActiveRideResponse is returned by GET /rides/active
type ActiveRideResponse struct {
	VehicleID     uuid.UUID `json:"id"`
	InUse         bool      `json:"in_use"`
	Battery       int       `json:"battery"`
	VehicleType   string    `json:"vehicle_type"`
	LastCheckin   string    `json:"last_checkin"`
	LastLatitude  float64   `json:"last_latitude"`
	LastLongitude float64   `json:"last_longitude"`
}

// NewRideResponse converts a domain ride
func NewRideResponse(r ride.Ride) RideResponse {
	return RideResponse{
		ID:        r.ID,
		VehicleID: r.VehicleID,
		UserEmail: r.UserEmail,
		StartTime: FormatTime(r.StartedAt),
		EndTime:   FormatTimePtr(r.EndedAt),
	}
}

// NewRideHistoryResponses converts a user's ride history
func NewRideHistoryResponses(rows []ride.History) []RideHistoryResponse {
	out := make([]RideHistoryResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, RideHistoryResponse{
			RideResponse: NewRideResponse(row.Ride),
			VehicleInUse: row.VehicleInUse,
			VehicleType:  row.VehicleType,
		})
	}
	return out
}

// NewTripResponse converts a lifecycle trip result
func NewTripResponse(r *lifecycle.TripResult) TripResponse {
	return TripResponse{
		VehicleID:       r.VehicleID,
		DistanceKm:      r.Summary.DistanceKm,
		DurationMinutes: r.Summary.DurationMinutes,
		VelocityKmh:     r.Summary.VelocityKmh,
		Messages:        r.Messages,
	}
}

// NewActiveRideResponse converts an active ride view
func NewActiveRideResponse(v *lifecycle.ActiveRideView) ActiveRideResponse {
	return ActiveRideResponse{
		VehicleID:     v.VehicleID,
		InUse:         v.InUse,
		Battery:       v.Battery,
		VehicleType:   v.VehicleType,
		LastCheckin:   FormatTime(v.LastCheckin),
		LastLatitude:  v.LastLatitude,
		LastLongitude: v.LastLongitude,
	}
}
