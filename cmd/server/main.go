package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	fleetapp "github.com/movr/backend/internal/application/fleet"
	identityapp "github.com/movr/backend/internal/application/identity"
	"github.com/movr/backend/internal/application/lifecycle"
	"github.com/movr/backend/internal/infrastructure/auth"
	"github.com/movr/backend/internal/infrastructure/config"
	"github.com/movr/backend/internal/infrastructure/logger"
	"github.com/movr/backend/internal/infrastructure/migration"
	"github.com/movr/backend/internal/infrastructure/persistence"
	"github.com/movr/backend/internal/infrastructure/telemetry"
	"github.com/movr/backend/internal/interfaces/http/router"
	"github.com/movr/backend/migrations"
)

//	@title			MovR API
//	@version		1.0
//	@description	Vehicle sharing backend: fleet, riders and ride lifecycle

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//go:generate swag init -g cmd/server/main.go -d ../../ -o ../../docs --parseInternal

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const slowQueryThreshold = 200 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()
	zap.ReplaceGlobals(log)

	log.Info("Starting MovR backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.Bool("location_history", cfg.Features.LocationHistory),
		zap.Bool("user_rides", cfg.Features.UserRides),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdown(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdown(log, "meter provider", meterProvider.Shutdown)

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer shutdown(log, "logger provider", loggerProvider.Shutdown)
	log = telemetry.BridgeLogger(log, loggerProvider, cfg.Telemetry.ServiceName)
	zap.ReplaceGlobals(log)

	profilerCfg := telemetry.DefaultProfilerConfig()
	profilerCfg.Enabled = cfg.Profiling.Enabled
	profilerCfg.ServerAddress = cfg.Profiling.ServerAddress
	profilerCfg.ApplicationName = cfg.Profiling.ApplicationName
	profilerCfg.BasicAuthUser = cfg.Profiling.BasicAuthUser
	profilerCfg.BasicAuthPassword = cfg.Profiling.BasicAuthPassword
	profiler, err := telemetry.NewProfiler(profilerCfg, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), slowQueryThreshold)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.App.Env == "development",
		SlowQueryThresh: slowQueryThreshold,
		DBSystem:        "cockroachdb",
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := migrate(&cfg.Database, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	scope := persistence.NewGormTransactionScope(db.DB)
	features := lifecycle.Features{
		LocationHistory: cfg.Features.LocationHistory,
		UserRides:       cfg.Features.UserRides,
	}

	var lifecycleOpts []lifecycle.Option
	if meterProvider.IsEnabled() {
		rideMetrics, err := telemetry.NewRideMetrics(telemetry.RideMetricsConfig{
			Meter:  meterProvider.Meter("movr.rides"),
			Logger: log,
			Fleet:  telemetry.NewGormFleetStatsProvider(db.DB, features.UserRides),
		})
		if err != nil {
			log.Fatal("Failed to initialize ride metrics", zap.Error(err))
		}
		rideMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
		defer rideMetrics.Stop()
		lifecycleOpts = append(lifecycleOpts, lifecycle.WithRecorder(rideMetrics))
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	vehicleService := fleetapp.NewVehicleService(scope, features.LocationHistory, log)
	userService := identityapp.NewUserService(scope, jwtService, log)
	lifecycleService := lifecycle.NewService(scope, features, log, lifecycleOpts...)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	api := router.NewAPI(router.Dependencies{
		HTTP:          cfg.HTTP,
		JWT:           cfg.JWT,
		Swagger:       cfg.Swagger,
		Telemetry:     cfg.Telemetry,
		Version:       version,
		Logger:        log,
		Profiling:     profiler.IsEnabled(),
		DB:            db,
		Vehicles:      vehicleService,
		Users:         userService,
		Lifecycle:     lifecycleService,
		Tokens:        jwtService,
		MeterProvider: meterProvider,
	})
	defer api.Close()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        api.Engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// migrate applies the embedded schema over its own connection, since the
// migrator closes the handle it is given.
func migrate(cfg *config.DatabaseConfig, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
