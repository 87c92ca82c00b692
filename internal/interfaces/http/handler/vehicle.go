package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	fleetapp "github.com/movr/backend/internal/application/fleet"
	"github.com/movr/backend/internal/application/lifecycle"
	"github.com/movr/backend/internal/interfaces/http/dto"
)

// VehicleHandler serves the vehicle registry and the vehicle-only
// checkout/checkin transitions
type VehicleHandler struct {
	BaseHandler
	vehicles  *fleetapp.VehicleService
	lifecycle *lifecycle.Service
}

// NewVehicleHandler creates a VehicleHandler
func NewVehicleHandler(vehicles *fleetapp.VehicleService, lc *lifecycle.Service) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, lifecycle: lc}
}

func (h *VehicleHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.VehicleIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.HandleBindError(c, err)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid vehicle id")
		return uuid.Nil, false
	}
	return id, true
}

// List godoc
// @Summary      List vehicles
// @Description  Returns up to max_vehicles vehicles with their last known position
// @Tags         vehicles
// @Produce      json
// @Param        max_vehicles query int false "Maximum number of vehicles" minimum(1) maximum(1000)
// @Success      200 {object} dto.Response{data=[]dto.VehicleResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles [get]
func (h *VehicleHandler) List(c *gin.Context) {
	var q dto.ListVehiclesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}
	limit := q.MaxVehicles
	if limit == 0 {
		limit = fleetapp.DefaultListLimit
	}

	vehicles, err := h.vehicles.List(c.Request.Context(), limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessList(c, dto.NewVehicleResponses(vehicles), len(vehicles), limit)
}

// Create godoc
// @Summary      Add a vehicle
// @Description  Registers a vehicle at its starting position
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        request body dto.AddVehicleRequest true "Vehicle to add"
// @Success      201 {object} dto.Response{data=dto.CreatedVehicleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles [post]
func (h *VehicleHandler) Create(c *gin.Context) {
	var req dto.AddVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	id, err := h.vehicles.Add(c.Request.Context(), req.ToInput())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, dto.CreatedVehicleResponse{ID: id})
}

// Get godoc
// @Summary      Get a vehicle
// @Description  Returns a vehicle and its location history
// @Tags         vehicles
// @Produce      json
// @Param        id path string true "Vehicle ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.VehicleDetailResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles/{id} [get]
func (h *VehicleHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	detail, err := h.vehicles.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.NewVehicleDetailResponse(detail))
}

// Delete godoc
// @Summary      Remove a vehicle
// @Description  Deletes a vehicle that is not in use
// @Tags         vehicles
// @Produce      json
// @Param        id path string true "Vehicle ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.MessageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles/{id} [delete]
func (h *VehicleHandler) Delete(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	if err := h.vehicles.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Messages(c, fmt.Sprintf("Deleted vehicle with id %s from database.", id))
}

// Checkout godoc
// @Summary      Check out a vehicle
// @Description  Marks an idle vehicle as in use
// @Tags         vehicles
// @Produce      json
// @Param        id path string true "Vehicle ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.MessageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles/{id}/checkout [put]
func (h *VehicleHandler) Checkout(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	if err := h.lifecycle.Checkout(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Messages(c, fmt.Sprintf("Ride started with vehicle %s", id))
}

// Checkin godoc
// @Summary      Check in a vehicle
// @Description  Releases a vehicle at the reported position and battery level
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        id path string true "Vehicle ID" format(uuid)
// @Param        request body dto.CheckinRequest true "Return position and battery"
// @Success      200 {object} dto.Response{data=dto.TripResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vehicles/{id}/checkin [put]
func (h *VehicleHandler) Checkin(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req dto.CheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	result, err := h.lifecycle.Checkin(c.Request.Context(), lifecycle.CheckinInput{
		VehicleID: id,
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
