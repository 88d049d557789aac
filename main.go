package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sobanshoaib/schedular-app-challenge/auth"
	"github.com/sobanshoaib/schedular-app-challenge/config"
	"github.com/sobanshoaib/schedular-app-challenge/db"
	"github.com/sobanshoaib/schedular-app-challenge/handlers"
	"github.com/sobanshoaib/schedular-app-challenge/models"
	"github.com/sobanshoaib/schedular-app-challenge/realtime"
	"github.com/sobanshoaib/schedular-app-challenge/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sessionbook: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("SESSIONBOOK_CONFIG_FILE"))
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Redis Client
	redisClient, err := db.InitializeRedisClient(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	redisService := db.NewRedisService(redisClient, logger, cfg.Redis.TxRetries)

	if cfg.Redis.SeedOnBoot {
		checkAndSeedData(ctx, redisService, logger)
	}

	authService, err := auth.NewService(cfg.Auth)
	if err != nil {
		return err
	}

	hub := realtime.NewHub(logger.Named("realtime"))
	go hub.Run(ctx)

	booking := services.NewBookingService(redisService, hub, logger.Named("booking"),
		services.WithCancelCutoff(cfg.Booking.CancelCutoff),
		services.WithLocation(cfg.Location()))
	assignment := services.NewAssignmentService(redisService, hub, logger.Named("assignment"), models.Instructors)

	// Create API Handler (injecting the services)
	apiHandler := handlers.NewAPIHandler(redisService, booking, assignment, authService, hub, logger.Named("http"))

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handlers.NewRouter(apiHandler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

func newLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}

// checkAndSeedData stores the initial schedule when Redis holds no sessions.
// Existing state is always kept.
func checkAndSeedData(ctx context.Context, service *db.RedisService, logger *zap.Logger) {
	seeded, err := service.SeedIfEmpty(ctx, models.SeedSessions())
	if err != nil {
		logger.Warn("could not seed initial sessions", zap.Error(err))
		return
	}
	if seeded {
		logger.Info("seeded initial sessions", zap.Int("count", len(models.SeedSessions())))
	}
}
