package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/coachbook/pkg/auth"
	"github.com/diagnosis/coachbook/pkg/authz"
	"github.com/diagnosis/coachbook/pkg/cache"
	"github.com/diagnosis/coachbook/pkg/config"
	"github.com/diagnosis/coachbook/pkg/database"
	"github.com/diagnosis/coachbook/pkg/events"
	"github.com/diagnosis/coachbook/pkg/logger"
	mw "github.com/diagnosis/coachbook/pkg/middleware"
	"github.com/diagnosis/coachbook/services/appointments/internal/handlers"
	"github.com/diagnosis/coachbook/services/appointments/internal/repository"
	"github.com/diagnosis/coachbook/services/appointments/internal/service"
	"github.com/go-chi/chi/v5"
)

const port = "8082"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "appointments")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Idempotent booking needs Redis; without it bookings are not deduplicated.
	idempotent := func(next http.Handler) http.Handler { return next }
	if rdb, err := cache.Connect(ctx, cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, Idempotency-Key will be ignored", "error", err)
	} else {
		defer rdb.Close()
		idempotent = mw.Idempotency(cache.NewIdempotencyStore(rdb), cfg.Redis.IdempotencyTTL)
	}

	// Initialize repositories
	appointmentRepo := repository.NewAppointmentRepository(pool)
	availabilityRepo := repository.NewAvailabilityRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// Initialize services
	appointmentService := service.NewAppointmentService(
		appointmentRepo, notificationRepo, userRepo,
		database.NewTxRunner(pool), eventBus, cfg.Booking,
	)
	availabilityService := service.NewAvailabilityService(availabilityRepo)
	notificationService := service.NewNotificationService(notificationRepo)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	gate := authz.NewGate(tokens, repository.IdentityLoader{Users: userRepo})

	h := handlers.New(appointmentService, availabilityService, notificationService)

	// Setup router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("appointments"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.Health)

	r.Mount("/", h.Routes(gate, idempotent))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down appointments service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Appointments service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting appointments service", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Appointments service error", "error", err)
		os.Exit(1)
	}
}
