package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/report-service/internal/cache"
	"github.com/SAP-F-2025/report-service/internal/config"
	"github.com/SAP-F-2025/report-service/internal/events"
	"github.com/SAP-F-2025/report-service/internal/handlers"
	"github.com/SAP-F-2025/report-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/report-service/internal/services"
	"github.com/SAP-F-2025/report-service/internal/utils"
	"github.com/SAP-F-2025/report-service/internal/validator"
	"github.com/SAP-F-2025/report-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewDefaultLogger().LogError(err, "Failed to load configuration")
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)
	if err := run(cfg, logger); err != nil {
		logger.LogError(err, "Report service stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger utils.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slogger := logger.Slog()

	// Storage
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := pkg.MigrateDatabase(db, cfg); err != nil {
		return err
	}

	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Transport
	bus, err := cfg.Events.CreateEventBus(slogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logger.LogError(err, "Failed to close event bus")
		}
	}()

	// Services
	repo := postgres.NewRepository(db)
	serviceManager := services.NewServiceManager(
		repo,
		cache.NewRedisCache(redisClient, slogger),
		cache.NewRedisRunLocker(redisClient, slogger),
		bus.Publisher,
		validator.New(),
		services.ServiceManagerConfig{
			Reports: services.ReportServiceConfig{
				Features: services.GradingFeatures{
					GPAEnabled: cfg.GPAEnabled,
					CWAEnabled: cfg.CWAEnabled,
				},
				RankingCacheTTL: cfg.RankingCacheTTL,
			},
			Jobs: services.ReportJobServiceConfig{LockTTL: cfg.ReportLockTTL},
		},
		slogger,
	)

	// Job worker
	consumerErr := make(chan error, 1)
	if bus.Subscriber != nil {
		consumer, err := events.NewJobConsumer(bus.Subscriber, serviceManager.ReportJobs(), events.ConsumerConfig{
			Topic:      cfg.Events.ReportJobTopic,
			MaxRetries: cfg.Events.MaxRetries,
			Logger:     slogger,
		})
		if err != nil {
			return err
		}
		go func() { consumerErr <- consumer.Run(ctx) }()
		select {
		case <-consumer.Running():
		case err := <-consumerErr:
			return err
		}
	} else {
		logger.Warn("No job subscriber configured, queued jobs will not be processed")
	}

	scheduler := services.NewScheduler(repo, serviceManager.ReportJobs(), cfg.ReportCronSchedule, slogger)
	if err := scheduler.Start(); err != nil {
		return err
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestID(), utils.LoggerMiddleware(logger), utils.ContextLogger(logger))
	handlers.NewHandlerManager(serviceManager, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Report service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-serverErr:
	case runErr = <-consumerErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "HTTP server shutdown failed")
	}
	scheduler.Stop(shutdownCtx)
	stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	return runErr
}
