package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tempcast/tempcast/internal/climate"
	"github.com/tempcast/tempcast/internal/config"
	"github.com/tempcast/tempcast/internal/handlers"
	"github.com/tempcast/tempcast/internal/logging"
	"github.com/tempcast/tempcast/internal/metrics"
	"github.com/tempcast/tempcast/internal/middleware"
	"github.com/tempcast/tempcast/internal/services"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, h *handlers.Handler, auth config.AuthConfig, m *metrics.Metrics) {
	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))
	app.Use(middleware.RequestMetrics(m))

	// Health and metrics (no auth required)
	app.Get("/health", h.Health)
	app.Get("/metrics", h.Metrics())

	// API v1 routes (protected by API key)
	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, auth.APIKeys, auth.Enabled))

	v1.Get("/locations", h.ListLocations)
	v1.Get("/locations/:region/forecast", h.LocationForecast)
	v1.Post("/forecast", h.ForecastPost)

	// 404 handler
	app.Use(h.NotFound)
}

// New creates a new Fiber app serving the forecasting API
func New(logger *logging.Logger, forecastService *services.ForecastService,
	locations []climate.Location, m *metrics.Metrics, cfg config.Config, version string,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "tempcast",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	h := handlers.New(logger, forecastService, locations, m, version)
	Setup(app, logger, h, cfg.Auth, m)

	return app
}
