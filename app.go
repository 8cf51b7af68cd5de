package main

import (
	"productos/internal/config"
	"productos/internal/handlers"
	"productos/internal/middleware"
	"productos/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// newApp builds the Fiber app with its middleware chain and routes. db may be
// nil when no database backs the service.
func newApp(cfg config.Config, productService *services.ProductService, db handlers.Pinger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "productos",
		ErrorHandler: handlers.ErrorHandler,
	})

	// --- Middleware ---
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: middleware.RequestIDLocalsKey,
	}))
	app.Use(middleware.RequestLogger())
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Environment != config.Production,
	}))
	app.Use(middleware.APIKeyAuth(cfg.APIKeyHeader, cfg.APIKey))

	// --- Health Check Endpoint ---
	app.Get("/health", handlers.HealthHandler(db))

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	var productMiddleware []fiber.Handler
	if cfg.AuthRequired {
		productMiddleware = append(productMiddleware, middleware.RequireService())
	}
	handlers.NewProductHandler(productService, cfg.APIVersion).RegisterRoutes(apiV1, productMiddleware...)

	return app
}
