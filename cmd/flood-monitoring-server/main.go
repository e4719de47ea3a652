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

	httpapi "github.com/i474232898/flood-monitoring/internal/api/http"
	"github.com/i474232898/flood-monitoring/internal/config"
	"github.com/i474232898/flood-monitoring/internal/floodapi"
	"github.com/i474232898/flood-monitoring/internal/readings"
	"github.com/i474232898/flood-monitoring/internal/registry"
	"github.com/i474232898/flood-monitoring/internal/scheduler"
	"github.com/i474232898/flood-monitoring/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	client := floodapi.NewClient(httpClient, cfg.APIRootURL, cfg.MaxRetries)
	reg := registry.New(cfg.StationIDsFile)
	service := readings.NewService(client, cfg.ItemLimit, cfg.LookbackDaysLimit())
	cache := store.NewMemoryStore(cfg.CacheMaxAge)

	// Seed the registry so validation works from the first request.
	if _, err := reg.Load(); err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		if n, err := reg.Refresh(ctx, client); err != nil {
			log.Printf("WARN: initial registry refresh failed: %v", err)
		} else {
			log.Printf("INFO: registry initialized with %d stations", n)
		}
		cancel()
	}

	// Scheduler that keeps the registry fresh.
	sched := scheduler.New(reg, client, cfg.RefreshInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "flood-monitoring",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
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
			"service": "flood-monitoring",
		})
	})

	// Pipeline routes.
	httpapi.RegisterRoutes(app, httpapi.NewHandler(service, reg, cache, cfg.PlotsDir, cfg.DataDir))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
