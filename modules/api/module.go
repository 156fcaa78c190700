// Package api exposes the room registry over HTTP with Fiber. All routes go
// through the token middleware; the edge gateway in front of this service is
// a transparent conduit, so the handlers see the client's original method,
// body, headers and cookies.
package api

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/MathKia/ttt-microservices-backend/modules/registry"
)

// Module runs the registry's Fiber HTTP server.
type Module struct {
	app      *fiber.App
	handlers *Handlers
	addr     string
	registry *registry.Module
	logger   types.Logger
}

// NewModule creates the API module. It resolves the registry service lazily
// in Start because the registry module migrates its database first.
func NewModule(registryModule *registry.Module, moduleLogger types.Logger) *Module {
	port := os.Getenv("ROOM_PORT")
	if port == "" {
		port = "4000"
	}
	return &Module{
		addr:     ":" + port,
		registry: registryModule,
		logger:   moduleLogger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "registry-api"
}

// Start initializes and starts the HTTP server.
func (m *Module) Start(ctx context.Context) error {
	m.app = fiber.New(fiber.Config{
		AppName:               "Room Registry",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization",
		AllowCredentials: true,
	}))

	m.handlers = NewHandlers(m.registry.Service())
	m.registerRoutes()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("registry API failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		// Server started successfully
	}

	m.logger.Info("Registry API started", "addr", m.addr)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	m.logger.Info("Registry API stopped")
	return nil
}

// registerRoutes sets up all HTTP routes.
func (m *Module) registerRoutes() {
	m.app.Get("/health", m.handlers.HealthCheck)

	roomAPI := m.app.Group("/api/room", TokenMiddleware(m.registry.Tokens()))
	roomAPI.Post("/join", m.handlers.Join)
	roomAPI.Post("/exit", m.handlers.Exit)
}

// errorHandler handles errors globally.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	m.logger.Error("HTTP error", "code", code, "message", message, "error", err)

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
