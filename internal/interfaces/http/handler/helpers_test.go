package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	fleetapp "github.com/movr/backend/internal/application/fleet"
	identityapp "github.com/movr/backend/internal/application/identity"
	"github.com/movr/backend/internal/application/lifecycle"
	"github.com/movr/backend/internal/application/unitofwork"
	"github.com/movr/backend/internal/infrastructure/auth"
	"github.com/movr/backend/internal/infrastructure/config"
	"github.com/movr/backend/internal/interfaces/http/dto"
	"github.com/movr/backend/internal/interfaces/http/middleware"
)

// envelope mirrors dto.Response with a typed payload
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

type testEnv struct {
	engine *gin.Engine
	jwt    *auth.JWTService
}

type envOption func(*envConfig)

type envConfig struct {
	features   lifecycle.Features
	requireJWT bool
}

func withFeatures(f lifecycle.Features) envOption {
	return func(c *envConfig) { c.features = f }
}

func withJWT() envOption {
	return func(c *envConfig) { c.requireJWT = true }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	middleware.SetupValidator()

	cfg := envConfig{features: lifecycle.Features{LocationHistory: true, UserRides: true}}
	for _, opt := range opts {
		opt(&cfg)
	}

	scope := unitofwork.NewMemoryScope()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:     "handler-test-secret-0123456789abcdef",
		Issuer:     "movr-test",
		Expiration: time.Hour,
	})

	vehicles := NewVehicleHandler(
		fleetapp.NewVehicleService(scope, cfg.features.LocationHistory, nil),
		lifecycle.NewService(scope, cfg.features, nil),
	)
	users := NewUserHandler(identityapp.NewUserService(scope, jwtService, nil))
	rides := NewRideHandler(lifecycle.NewService(scope, cfg.features, nil))

	engine := gin.New()
	api := engine.Group("/api/v1")

	v := api.Group("/vehicles")
	v.GET("", vehicles.List)
	v.POST("", vehicles.Create)
	v.GET("/:id", vehicles.Get)
	v.DELETE("/:id", vehicles.Delete)
	v.PUT("/:id/checkout", vehicles.Checkout)
	v.PUT("/:id/checkin", vehicles.Checkin)

	u := api.Group("/users")
	u.POST("", users.Register)
	u.GET("", users.Profile)
	u.POST("/login", users.Login)
	u.DELETE("", users.Delete)

	r := api.Group("/rides")
	if cfg.requireJWT {
		r.Use(middleware.JWTAuthMiddleware(jwtService))
	}
	r.POST("/start", rides.Start)
	r.PUT("/end", rides.End)
	r.GET("/active", rides.Active)
	r.GET("", rides.List)

	return &testEnv{engine: engine, jwt: jwtService}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func (e *testEnv) addVehicle(t *testing.T, vehicleType string, battery int, lat, lon float64) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/vehicles", gin.H{
		"vehicle_type": vehicleType,
		"battery":      battery,
		"latitude":     lat,
		"longitude":    lon,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.CreatedVehicleResponse](t, w).Data.ID.String()
}

func (e *testEnv) registerUser(t *testing.T, email string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/users", gin.H{
		"email":         email,
		"first_name":    "Ada",
		"last_name":     "Lovelace",
		"phone_numbers": []string{"555-0100"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
