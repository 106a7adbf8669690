package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/procexaiedu/practice-scheduler/internal/config"
	appointmentHandler "github.com/procexaiedu/practice-scheduler/internal/handler/appointment"
	availabilityHandler "github.com/procexaiedu/practice-scheduler/internal/handler/availability"
	bookingHandler "github.com/procexaiedu/practice-scheduler/internal/handler/booking"
	clinicHandler "github.com/procexaiedu/practice-scheduler/internal/handler/clinic"
	healthHandler "github.com/procexaiedu/practice-scheduler/internal/handler/health"
	hoursHandler "github.com/procexaiedu/practice-scheduler/internal/handler/hours"
	professionalHandler "github.com/procexaiedu/practice-scheduler/internal/handler/professional"
	"github.com/procexaiedu/practice-scheduler/internal/middleware"
	"github.com/procexaiedu/practice-scheduler/internal/repository/postgres"
	"github.com/procexaiedu/practice-scheduler/internal/router"
	appointmentService "github.com/procexaiedu/practice-scheduler/internal/service/appointment"
	availabilityService "github.com/procexaiedu/practice-scheduler/internal/service/availability"
	bookingService "github.com/procexaiedu/practice-scheduler/internal/service/booking"
	clinicService "github.com/procexaiedu/practice-scheduler/internal/service/clinic"
	hoursService "github.com/procexaiedu/practice-scheduler/internal/service/hours"
	professionalService "github.com/procexaiedu/practice-scheduler/internal/service/professional"
	"github.com/procexaiedu/practice-scheduler/pkg/auth"
	"github.com/procexaiedu/practice-scheduler/pkg/logger"
	"github.com/procexaiedu/practice-scheduler/pkg/messaging/redis"
	"github.com/procexaiedu/practice-scheduler/pkg/metrics"
	"github.com/procexaiedu/practice-scheduler/pkg/worker"
)

const adminRole = "admin"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	appLogger := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Logging.Console,
	})

	loc, err := time.LoadLocation(cfg.Scheduling.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Scheduling.Timezone).Msg("invalid practice timezone")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	var redisClient *goredis.Client
	if cfg.Redis.URL != "" {
		opts, err := goredis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis URL")
		}
		redisClient = goredis.NewClient(opts)
		defer redisClient.Close()
	}

	m := metrics.NewMetrics("scheduler", "api")

	clinicRepo := postgres.NewClinicRepository(db)
	professionalRepo := postgres.NewProfessionalRepository(db)
	hoursRepo := postgres.NewOperatingHoursRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)

	clinicSvc := clinicService.NewService(clinicRepo)
	professionalSvc := professionalService.NewService(professionalRepo)
	hoursSvc := hoursService.NewService(hoursRepo, clinicRepo, loc)
	availabilitySvc := availabilityService.NewService(
		clinicRepo,
		professionalRepo,
		hoursRepo,
		appointmentRepo,
		loc,
		cfg.Scheduling.SlotGranularity,
		appLogger.WithComponent("availability"),
		m,
	)
	appointmentSvc := appointmentService.NewService(appointmentRepo, appLogger.WithComponent("appointment"))
	bookingWorkflow := bookingService.NewWorkflow(
		availabilitySvc,
		appointmentRepo,
		cfg.Scheduling.CommitTimeout,
		appLogger.WithComponent("booking"),
		m,
	)

	// The API drains its own outbox when redis is configured, so a standalone
	// worker is optional for small deployments.
	outboxCtx, stopOutbox := context.WithCancel(context.Background())
	defer stopOutbox()
	if cfg.Redis.URL != "" {
		brokerLogger := log.With().Str("component", "redis-broker").Logger()
		broker, err := redis.NewRedisBroker(redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &brokerLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer broker.Close()

		processor := worker.NewOutboxProcessor(
			postgres.NewOutboxRepository(db),
			broker,
			worker.OutboxProcessorConfig{
				BatchSize:     cfg.Outbox.BatchSize,
				PollInterval:  cfg.Outbox.PollInterval,
				RetryAttempts: cfg.Outbox.RetryAttempts,
				RetryDelay:    cfg.Outbox.RetryDelay,
			},
			appLogger.WithComponent("outbox"),
			m,
		)
		go processor.Start(outboxCtx)
	}

	authMiddleware := middleware.NewAuthMiddleware(auth.NewVerifier(cfg.JWT.Secret))

	r := router.NewRouter(
		authMiddleware,
		clinicHandler.NewHandler(clinicSvc),
		professionalHandler.NewHandler(professionalSvc),
		hoursHandler.NewHandler(hoursSvc),
		availabilityHandler.NewHandler(availabilitySvc),
		bookingHandler.NewHandler(bookingWorkflow, cfg.Scheduling.CommitRetries),
		appointmentHandler.NewHandler(appointmentSvc, loc),
		healthHandler.NewHandler(db, redisClient),
		router.Config{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       middleware.DefaultCORSConfig(),
			AvailabilityTTL:  cfg.Scheduling.CacheTTL,
			AdminRole:        adminRole,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info("server exited")
}
