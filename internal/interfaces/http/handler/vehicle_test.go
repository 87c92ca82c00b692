package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movr/backend/internal/application/lifecycle"
	"github.com/movr/backend/internal/domain/geo"
	"github.com/movr/backend/internal/interfaces/http/dto"
)

var vehicleOnly = withFeatures(lifecycle.Features{LocationHistory: true, UserRides: false})

func TestVehicleHandler_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/vehicles", gin.H{
		"vehicle_type": "scooter",
		"battery":      80,
		"latitude":     40.7128,
		"longitude":    -74.006,
		"vehicle_info": gin.H{"color": "red"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[dto.CreatedVehicleResponse](t, w).Data.ID
	require.NotEqual(t, uuid.Nil, id)

	w = env.do(t, http.MethodGet, "/api/v1/vehicles/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	detail := decode[dto.VehicleDetailResponse](t, w).Data
	assert.Equal(t, id, detail.ID)
	assert.Equal(t, "scooter", detail.VehicleType)
	assert.Equal(t, 80, detail.Battery)
	assert.False(t, detail.InUse)
	assert.Equal(t, "red", detail.VehicleInfo["color"])
	require.NotNil(t, detail.LastLatitude)
	assert.InDelta(t, 40.7128, *detail.LastLatitude, 1e-9)
	require.Len(t, detail.LocationHistory, 1)
	assert.InDelta(t, -74.006, detail.LocationHistory[0].Longitude, 1e-9)
}

func TestVehicleHandler_CreateValidation(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing fields fail binding", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/vehicles", gin.H{"vehicle_type": "bike"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decode[any](t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Len(t, resp.Error.Fields, 3)
	})

	t.Run("out of range values are all reported", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/vehicles", gin.H{
			"vehicle_type": "bike",
			"battery":      150,
			"latitude":     10,
			"longitude":    200,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decode[any](t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.ElementsMatch(t, []string{geo.MsgLongitudeRange, geo.MsgBatteryRange}, resp.Error.Details)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/vehicles", `{"vehicle_type":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decode[any](t, w).Error.Code)
	})
}

func TestVehicleHandler_List(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		env.addVehicle(t, "bike", 50+i, 1, 1)
	}

	w := env.do(t, http.MethodGet, "/api/v1/vehicles?max_vehicles=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[[]dto.VehicleResponse](t, w)
	assert.Len(t, resp.Data, 2)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Limit)

	w = env.do(t, http.MethodGet, "/api/v1/vehicles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[[]dto.VehicleResponse](t, w)
	assert.Len(t, resp.Data, 3)
	assert.Equal(t, 20, resp.Meta.Limit)

	w = env.do(t, http.MethodGet, "/api/v1/vehicles?max_vehicles=0", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/vehicles?max_vehicles=5000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVehicleHandler_GetErrors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/vehicles/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/vehicles/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decode[any](t, w).Error.Code)
}

func TestVehicleHandler_MalformedIDIsBadRequest(t *testing.T) {
	env := newTestEnv(t, vehicleOnly)

	routes := []struct{ method, suffix string }{
		{http.MethodGet, ""},
		{http.MethodDelete, ""},
		{http.MethodPut, "/checkout"},
		{http.MethodPut, "/checkin"},
	}
	for _, id := range []string{"not-a-uuid", "123", "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz"} {
		for _, r := range routes {
			require.NotPanics(t, func() {
				w := env.do(t, r.method, "/api/v1/vehicles/"+id+r.suffix, nil)
				assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s%s", r.method, id, r.suffix)
			})
		}
	}
}

func TestVehicleHandler_Delete(t *testing.T) {
	env := newTestEnv(t, vehicleOnly)
	id := env.addVehicle(t, "scooter", 90, 1, 1)

	w := env.do(t, http.MethodDelete, "/api/v1/vehicles/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	msgs := decode[dto.MessageResponse](t, w).Data.Messages
	assert.Equal(t, []string{"Deleted vehicle with id " + id + " from database."}, msgs)

	w = env.do(t, http.MethodDelete, "/api/v1/vehicles/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	t.Run("vehicle in use is kept", func(t *testing.T) {
		busy := env.addVehicle(t, "scooter", 90, 1, 1)
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/v1/vehicles/"+busy+"/checkout", nil).Code)

		w := env.do(t, http.MethodDelete, "/api/v1/vehicles/"+busy, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Vehicle "+busy+" is currently in use", decode[any](t, w).Error.Message)
	})
}

func TestVehicleHandler_CheckoutCheckin(t *testing.T) {
	env := newTestEnv(t, vehicleOnly)
	id := env.addVehicle(t, "scooter", 90, 40.0, -74.0)

	w := env.do(t, http.MethodPut, "/api/v1/vehicles/"+id+"/checkout", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"Ride started with vehicle " + id}, decode[dto.MessageResponse](t, w).Data.Messages)

	w = env.do(t, http.MethodPut, "/api/v1/vehicles/"+id+"/checkout", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/vehicles/"+id+"/checkin", gin.H{
		"battery":   70,
		"latitude":  40.01,
		"longitude": -74.0,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	trip := decode[dto.TripResponse](t, w).Data
	assert.Equal(t, id, trip.VehicleID.String())
	assert.InDelta(t, 1.11, trip.DistanceKm, 0.01)
	require.Len(t, trip.Messages, 2)
	assert.Equal(t, "You have completed your ride on vehicle "+id+".", trip.Messages[0])

	w = env.do(t, http.MethodGet, "/api/v1/vehicles/"+id, nil)
	detail := decode[dto.VehicleDetailResponse](t, w).Data
	assert.False(t, detail.InUse)
	assert.Equal(t, 70, detail.Battery)
	assert.Len(t, detail.LocationHistory, 3)

	t.Run("checkin of an idle vehicle conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/api/v1/vehicles/"+id+"/checkin", gin.H{
			"battery": 70, "latitude": 40.01, "longitude": -74.0,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid reading", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/api/v1/vehicles/"+id+"/checkin", gin.H{
			"battery": -1, "latitude": 91, "longitude": 0,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Len(t, decode[any](t, w).Error.Details, 2)
	})
}

func TestVehicleHandler_CheckoutDisabledWithUserRides(t *testing.T) {
	env := newTestEnv(t)
	id := env.addVehicle(t, "scooter", 90, 1, 1)

	w := env.do(t, http.MethodPut, "/api/v1/vehicles/"+id+"/checkout", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeFeatureDisabled, decode[any](t, w).Error.Code)
}
