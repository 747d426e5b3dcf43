package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/viejopeter/myweather/internal/api/http"
	"github.com/viejopeter/myweather/internal/api/http/views"
	"github.com/viejopeter/myweather/internal/config"
	"github.com/viejopeter/myweather/internal/geo"
	"github.com/viejopeter/myweather/internal/logging"
	"github.com/viejopeter/myweather/internal/scheduler"
	"github.com/viejopeter/myweather/internal/search"
	"github.com/viejopeter/myweather/internal/store"
	"github.com/viejopeter/myweather/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg := logging.New(cfg.AppEnv, cfg.LogLevel)
	slog.SetDefault(logg)

	if cfg.OpenWeatherAPIKey == "" {
		logg.Warn("OPENWEATHER_API_KEY is not set; searches will return empty results")
	}

	if err := views.LoadTemplates(); err != nil {
		log.Fatalf("failed to load templates: %v", err)
	}

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Geocoders, primary first. Google is an optional fallback.
	geocoders := []geo.Geocoder{
		geo.NewOpenWeatherGeocoder(httpClient, cfg.OpenWeatherAPIKey, cfg.GeoBaseURL, logg),
	}
	if g := geo.NewGoogleGeocoder(cfg.GoogleAPIKey); g != nil {
		geocoders = append(geocoders, g)
	}

	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.WeatherBaseURL)
	cache := store.NewWeatherCache(cfg.CacheMaxEntries, cfg.CacheTTL)

	manager := search.NewManager(geocoders, provider, cache, cfg.GeoResultLimit, cfg.SessionTTL, logg)

	// Janitor that periodically evicts expired readings and idle sessions.
	janitor := scheduler.New(cache, manager, cfg.JanitorInterval, logg)
	if err := janitor.Start(); err != nil {
		log.Fatalf("failed to start janitor: %v", err)
	}
	defer janitor.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "myweather",
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
			"service": "myweather",
		})
	})

	// API and page routes.
	httpapi.RegisterRoutes(app, manager)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logg.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Error("error during shutdown", "error", err)
	}
}
