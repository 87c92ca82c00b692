package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/movr/backend/internal/application/lifecycle"
	"github.com/movr/backend/internal/domain/identity"
	"github.com/movr/backend/internal/interfaces/http/dto"
	"github.com/movr/backend/internal/interfaces/http/middleware"
)

// RideHandler serves user-attributed rides
type RideHandler struct {
	BaseHandler
	lifecycle *lifecycle.Service
}

// NewRideHandler creates a RideHandler
func NewRideHandler(lc *lifecycle.Service) *RideHandler {
	return &RideHandler{lifecycle: lc}
}

// riderEmail resolves the acting rider. With an authenticated request the
// token email fills an empty field, and any other email is refused.
func (h *RideHandler) riderEmail(c *gin.Context, requested string) (string, bool) {
	tokenEmail := middleware.GetJWTEmail(c)
	if tokenEmail == "" {
		return requested, true
	}
	if requested == "" {
		return tokenEmail, true
	}
	if identity.NormalizeEmail(requested) != identity.NormalizeEmail(tokenEmail) {
		h.Unauthorized(c, "Token does not belong to this user")
		return "", false
	}
	return requested, true
}

func (h *RideHandler) parseVehicleID(c *gin.Context, raw string) (uuid.UUID, bool) {
	id, err := dto.ParseOptionalUUID(raw)
	if err != nil {
		h.BadRequest(c, "Invalid vehicle id")
		return uuid.Nil, false
	}
	return id, true
}

// Start godoc
// @Summary      Start a ride
// @Description  Checks out a vehicle for the rider and opens a ride
// @Tags         rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.StartRideRequest true "Vehicle and rider"
// @Success      200 {object} dto.Response{data=dto.StartRideResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /rides/start [post]
func (h *RideHandler) Start(c *gin.Context) {
	var req dto.StartRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	vehicleID, ok := h.parseVehicleID(c, req.VehicleID)
	if !ok {
		return
	}
	email, ok := h.riderEmail(c, req.Email)
	if !ok {
		return
	}

	result, err := h.lifecycle.StartRide(c.Request.Context(), lifecycle.StartRideInput{
		VehicleID: vehicleID,
		UserEmail: email,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.StartRideResponse{
		Ride:     dto.NewRideResponse(result.Ride),
		Messages: result.Messages,
	})
}

// End godoc
// @Summary      End a ride
// @Description  Closes the rider's active ride and summarizes the trip
// @Tags         rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.EndRideRequest true "Vehicle, rider and return reading"
// @Success      200 {object} dto.Response{data=dto.TripResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /rides/end [put]
func (h *RideHandler) End(c *gin.Context) {
	var req dto.EndRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	vehicleID, ok := h.parseVehicleID(c, req.VehicleID)
	if !ok {
		return
	}
	email, ok := h.riderEmail(c, req.Email)
	if !ok {
		return
	}

	result, err := h.lifecycle.EndRide(c.Request.Context(), lifecycle.EndRideInput{
		VehicleID: vehicleID,
		UserEmail: email,
		Battery:   *req.Battery,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.NewTripResponse(result))
}

// Active godoc
// @Summary      Get the active ride
// @Description  Returns the vehicle state of the rider's ride in progress
// @Tags         rides
// @Produce      json
// @Security     BearerAuth
// @Param        vehicle_id query string true "Vehicle ID" format(uuid)
// @Param        email query string false "Rider email"
// @Success      200 {object} dto.Response{data=dto.ActiveRideResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /rides/active [get]
func (h *RideHandler) Active(c *gin.Context) {
	var q dto.ActiveRideQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}
	vehicleID, ok := h.parseVehicleID(c, q.VehicleID)
	if !ok {
		return
	}
	email, ok := h.riderEmail(c, q.Email)
	if !ok {
		return
	}

	view, err := h.lifecycle.ActiveRide(c.Request.Context(), vehicleID, email)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.NewActiveRideResponse(view))
}

// List godoc
// @Summary      List rides
// @Description  Returns the rider's ride history
// @Tags         rides
// @Produce      json
// @Security     BearerAuth
// @Param        email query string false "Rider email"
// @Success      200 {object} dto.Response{data=[]dto.RideHistoryResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /rides [get]
func (h *RideHandler) List(c *gin.Context) {
	var q dto.EmailQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}
	email, ok := h.riderEmail(c, q.Email)
	if !ok {
		return
	}

	rides, err := h.lifecycle.RidesForUser(c.Request.Context(), email)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	out := dto.NewRideHistoryResponses(rides)
	h.SuccessList(c, out, len(out), 0)
}
