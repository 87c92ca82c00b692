package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	_ "github.com/movr/backend/docs"
	fleetapp "github.com/movr/backend/internal/application/fleet"
	identityapp "github.com/movr/backend/internal/application/identity"
	"github.com/movr/backend/internal/application/lifecycle"
	"github.com/movr/backend/internal/infrastructure/config"
	"github.com/movr/backend/internal/infrastructure/logger"
	"github.com/movr/backend/internal/infrastructure/telemetry"
	"github.com/movr/backend/internal/interfaces/http/dto"
	"github.com/movr/backend/internal/interfaces/http/handler"
	"github.com/movr/backend/internal/interfaces/http/middleware"
)

// Dependencies are the services and settings the HTTP API is built from
type Dependencies struct {
	HTTP      config.HTTPConfig
	JWT       config.JWTConfig
	Swagger   config.SwaggerConfig
	Telemetry config.TelemetryConfig
	Version   string
	Logger    *zap.Logger
	// Profiling attaches pprof labels per route for the Pyroscope profiler
	Profiling bool

	DB        handler.DatabaseChecker
	Vehicles  *fleetapp.VehicleService
	Users     *identityapp.UserService
	Lifecycle *lifecycle.Service
	Tokens    middleware.TokenValidator

	// TracerProvider overrides the global provider when set
	TracerProvider trace.TracerProvider
	MeterProvider  *telemetry.MeterProvider
}

// API is the configured gin engine and the resources it owns
type API struct {
	Engine  *gin.Engine
	limiter *middleware.RateLimiter
}

// Close releases background resources held by the middleware stack
func (a *API) Close() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
}

// NewAPI builds the engine: the middleware stack, the root health routes,
// the API documentation and the versioned /api/v1 routes.
func NewAPI(deps Dependencies) *API {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(deps.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(deps.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName:    deps.Telemetry.ServiceName,
		Enabled:        deps.Telemetry.Enabled,
		TracerProvider: deps.TracerProvider,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: deps.MeterProvider,
		Enabled:       deps.Telemetry.Enabled,
		Logger:        log,
	}))
	if deps.Profiling {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     deps.HTTP.CORSAllowOrigins,
		AllowMethods:     deps.HTTP.CORSAllowMethods,
		AllowHeaders:     deps.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if deps.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(deps.HTTP.MaxBodySize))
	}

	api := &API{Engine: engine}
	if deps.HTTP.RateLimitEnabled {
		api.limiter = middleware.NewRateLimiter(deps.HTTP.RateLimitRequests, deps.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(api.limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", deps.HTTP.RateLimitRequests),
			zap.Duration("window", deps.HTTP.RateLimitWindow),
		)
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRouteNotFound, "Route not found", c.GetString(middleware.RequestIDKey)))
	})

	health := handler.NewHealthHandler(deps.DB, deps.Version, deps.Lifecycle.Features())
	engine.GET("/health", health.Health)
	engine.GET("/ready", health.Ready)

	auth := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		Validator: deps.Tokens,
		Logger:    log,
	})

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     deps.Swagger.Enabled,
			RequireAuth: deps.Swagger.RequireAuth,
			AllowedIPs:  deps.Swagger.AllowedIPs,
		}, auth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(vehicleRoutes(handler.NewVehicleHandler(deps.Vehicles, deps.Lifecycle)))
	r.Register(userRoutes(handler.NewUserHandler(deps.Users)))

	rides := rideRoutes(handler.NewRideHandler(deps.Lifecycle))
	if deps.JWT.Required {
		rides.Use(auth)
	}
	r.Register(rides)
	r.Setup()

	return api
}

func vehicleRoutes(h *handler.VehicleHandler) *DomainGroup {
	g := NewDomainGroup("vehicles", "/vehicles")
	g.GET("", h.List).
		POST("", h.Create).
		GET("/:id", h.Get).
		DELETE("/:id", h.Delete).
		PUT("/:id/checkout", h.Checkout).
		PUT("/:id/checkin", h.Checkin)
	return g
}

func userRoutes(h *handler.UserHandler) *DomainGroup {
	g := NewDomainGroup("users", "/users")
	g.POST("", h.Register).
		GET("", h.Profile).
		DELETE("", h.Delete).
		POST("/login", h.Login)
	return g
}

func rideRoutes(h *handler.RideHandler) *DomainGroup {
	g := NewDomainGroup("rides", "/rides")
	g.GET("", h.List).
		POST("/start", h.Start).
		PUT("/end", h.End).
		GET("/active", h.Active)
	return g
}
