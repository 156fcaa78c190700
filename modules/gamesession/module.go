// Package gamesession is the ephemeral game session server. It holds live
// match state for paired players, referees nothing beyond win and draw
// detection, and reconciles unannounced disconnects back to the room
// registry. All state lives in memory and dies with the room.
package gamesession

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/MathKia/ttt-microservices-backend/events"
	"github.com/MathKia/ttt-microservices-backend/modules/notify"
	"github.com/MathKia/ttt-microservices-backend/modules/socketauth"
)

// identityKey is the Locals key carrying the verified username from the
// upgrade middleware into the connection handler.
const identityKey = "identity"

// Module implements the game session server using the Fiber framework.
type Module struct {
	app      *fiber.App
	handlers *Handlers
	store    *Store
	tokens   *socketauth.TokenManager
	addr     string
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the game session module. Port, JWT secret and the
// registry callback URL come from the environment.
func NewModule(moduleLogger types.Logger) *Module {
	port := os.Getenv("GAME_PORT")
	if port == "" {
		port = "4001"
	}
	return &Module{
		addr:   ":" + port,
		logger: moduleLogger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "game-session"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MatchFinishedV1.ToBase(),
		events.RoomVacatedV1.ToBase(),
	}
}

// Start initializes the state store and the websocket server.
func (m *Module) Start(ctx context.Context) error {
	m.tokens = socketauth.NewTokenManager(socketauth.SecretFromEnv(), socketauth.SocketTokenTTL)
	m.store = NewStore()

	registryURL := os.Getenv("ROOM_API_BASE_URL")
	if registryURL == "" {
		registryURL = "http://localhost:4000"
	}

	m.handlers = NewHandlers(m.store, notify.NewHTTPNotifier(registryURL))
	m.handlers.SetEventBus(m.eventBus)

	m.app = fiber.New(fiber.Config{
		AppName:               "Game Session Server",
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
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.registerRoutes()

	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("game session server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("Game session server started", "addr", m.addr, "registryURL", registryURL)
	return nil
}

// Stop gracefully shuts down the websocket server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	m.logger.Info("Game session server stopped")
	return nil
}

// Health reports active room and connection counts.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.store == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "store not initialized",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"rooms":       m.store.RoomCount(),
			"connections": m.store.ConnCount(),
		},
	}
}

// registerRoutes sets up the health and websocket routes.
func (m *Module) registerRoutes() {
	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "game-session",
		})
	})

	// The short-lived token from the registry rides the query string; the
	// browser websocket API cannot set headers on the upgrade request.
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		claims, err := m.tokens.Verify(c.Query("token"))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}
		c.Locals(identityKey, claims.Username)
		return c.Next()
	})

	m.app.Get("/ws", websocket.New(m.handlers.HandleConnection))
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
		"error": message,
	})
}
