package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/courierhq/delivery-fee-service/internal/api/http"
	"github.com/courierhq/delivery-fee-service/internal/config"
	"github.com/courierhq/delivery-fee-service/internal/fee"
	"github.com/courierhq/delivery-fee-service/internal/ingest"
	"github.com/courierhq/delivery-fee-service/internal/logging"
	"github.com/courierhq/delivery-fee-service/internal/scheduler"
	"github.com/courierhq/delivery-fee-service/internal/store"
	"github.com/courierhq/delivery-fee-service/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slogger := logging.New(cfg.AppEnv, cfg.LogLevel)

	ctx := context.Background()

	// Postgres when configured, otherwise the seeded in-memory store.
	var st store.Store
	if cfg.DatabaseURL != "" {
		pgStore, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pgStore.Close()
		st = pgStore
	} else {
		memStore := store.NewMemoryStore()
		if err := store.Seed(ctx, memStore); err != nil {
			log.Fatalf("failed to seed store: %v", err)
		}
		slogger.Info("no DATABASE_URL set; using seeded in-memory store")
		st = memStore
	}

	// Shared HTTP client for the outbound feed fetch.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Ingestion: feed client -> pipeline -> cron schedule with an immediate
	// first run.
	feedClient := ingest.NewFeedClient(httpClient, cfg.FeedURL)
	pipeline := ingest.NewPipeline(feedClient, st, st, cfg.TargetStations, slogger)

	sched := scheduler.New(pipeline, cfg.FeedCron, cfg.FeedTimeout, slogger)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Fee evaluation engine over the same store.
	feeService := fee.NewService(st, st, st, slogger)

	app := fiber.New(fiber.Config{
		AppName:               "delivery-fee-service",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "delivery-fee-service",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, feeService, st)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slogger.Error("fiber server stopped", "err", err)
		}
	}()

	// Wait for termination signal
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slogger.Error("error during shutdown", "err", err)
	}
}
