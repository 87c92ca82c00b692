package dto

import (
	"github.com/google/uuid"

	fleetapp "github.com/movr/backend/internal/application/fleet"
	"github.com/movr/backend/internal/domain/fleet"
)

// AddVehicleRequest is the body of POST /vehicles. Ranges are checked by
// the service so that every violation is reported together.
type AddVehicleRequest struct {
	VehicleType string         `json:"vehicle_type" binding:"required,max=100"`
	Battery     *int           `json:"battery" binding:"required"`
	Latitude    *float64       `json:"latitude" binding:"required"`
	Longitude   *float64       `json:"longitude" binding:"required"`
	VehicleInfo map[string]any `json:"vehicle_info"`
}

// ToInput converts the request to service input
func (r AddVehicleRequest) ToInput() fleetapp.AddVehicleInput {
	return fleetapp.AddVehicleInput{
		VehicleType: r.VehicleType,
		Battery:     *r.Battery,
		Latitude:    *r.Latitude,
		Longitude:   *r.Longitude,
		Info:        r.VehicleInfo,
	}
}

// ListVehiclesQuery holds the query of GET /vehicles
type ListVehiclesQuery struct {
	MaxVehicles int `form:"max_vehicles" binding:"omitempty,min=1,max=1000"`
}

// CheckinRequest is the body of PUT /vehicles/:id/checkin
type CheckinRequest struct {
	Battery   *int     `json:"battery" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// VehicleIDRequest binds the :id path parameter
type VehicleIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// CreatedVehicleResponse is returned by POST /vehicles
type CreatedVehicleResponse struct {
	ID uuid.UUID `json:"id"`
}

// VehicleResponse is the wire form of a vehicle
type VehicleResponse struct {
	ID            uuid.UUID      `json:"id"`
	Battery       int            `json:"battery"`
	InUse         bool           `json:"in_use"`
	VehicleType   string         `json:"vehicle_type"`
	VehicleInfo   map[string]any `json:"vehicle_info,omitempty"`
	LastLatitude  *float64       `json:"last_latitude"`
	LastLongitude *float64       `json:"last_longitude"`
	LastCheckin   *string        `json:"last_checkin"`
	CreatedAt     string         `json:"created_at"`
}

// LocationResponse is one location history entry
type LocationResponse struct {
	Timestamp string  `json:"ts"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// VehicleDetailResponse is a vehicle with its location history
type VehicleDetailResponse struct {
	VehicleResponse
	LocationHistory []LocationResponse `json:"location_history"`
}

// NewVehicleResponse converts a domain vehicle
func NewVehicleResponse(v fleet.Vehicle) VehicleResponse {
	resp := VehicleResponse{
		ID:          v.ID,
		Battery:     v.Battery,
		InUse:       v.InUse,
		VehicleType: v.VehicleType,
		VehicleInfo: v.Info,
		LastCheckin: FormatTimePtr(v.LastSeenAt),
		CreatedAt:   FormatTime(v.CreatedAt),
	}
	if v.LastPosition != nil {
		lat, lon := v.LastPosition.Latitude, v.LastPosition.Longitude
		resp.LastLatitude = &lat
		resp.LastLongitude = &lon
	}
	return resp
}

// NewVehicleResponses converts a list of vehicles
func NewVehicleResponses(vs []fleet.Vehicle) []VehicleResponse {
	out := make([]VehicleResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, NewVehicleResponse(v))
	}
	return out
}

// NewVehicleDetailResponse converts a vehicle and its history
func NewVehicleDetailResponse(d *fleetapp.VehicleDetail) VehicleDetailResponse {
	history := make([]LocationResponse, 0, len(d.History))
	for _, e := range d.History {
		history = append(history, LocationResponse{
			Timestamp: FormatTime(e.Timestamp),
			Latitude:  e.Position.Latitude,
			Longitude: e.Position.Longitude,
		})
	}
	return VehicleDetailResponse{
		VehicleResponse: NewVehicleResponse(d.Vehicle),
		LocationHistory: history,
	}
}
