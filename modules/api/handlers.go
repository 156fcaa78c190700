package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/MathKia/ttt-microservices-backend/modules/registry"
	"github.com/MathKia/ttt-microservices-backend/modules/socketauth"
)

// Handlers contains the registry's HTTP handlers.
type Handlers struct {
	service *registry.Service
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *registry.Service) *Handlers {
	return &Handlers{
		service: service,
		logger:  slog.Default(),
	}
}

// Join handles room join requests (POST /api/room/join).
func (h *Handlers) Join(c *fiber.Ctx) error {
	var req registry.JoinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	username := h.requestUsername(c, req.Username)
	if req.Room == "" || username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "room and username are required",
		})
	}

	resp, err := h.service.Join(c.UserContext(), req.Room, username)
	if err != nil {
		h.logger.Error("Join failed", "room", req.Room, "username", username, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal server error",
		})
	}

	// Capacity rejections are a regular 200 with success=false.
	return c.JSON(resp)
}

// Exit handles room exit requests (POST /api/room/exit). Always succeeds for
// an absent user; mode=socket callers arrive here without verified claims.
func (h *Handlers) Exit(c *fiber.Ctx) error {
	var req registry.ExitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	username := h.requestUsername(c, req.Username)
	if req.Room == "" || username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "room and username are required",
		})
	}

	resp, err := h.service.Exit(c.UserContext(), req.Room, username)
	if err != nil {
		h.logger.Error("Exit failed", "room", req.Room, "username", username, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal server error",
		})
	}

	return c.JSON(resp)
}

// HealthCheck handles health check requests (GET /health).
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "room-registry",
	})
}

// requestUsername prefers the identity verified by the token middleware over
// whatever the body claims.
func (h *Handlers) requestUsername(c *fiber.Ctx, bodyUsername string) string {
	if claims, ok := c.Locals(UserContextKey).(*socketauth.Claims); ok && claims.Username != "" {
		return claims.Username
	}
	return bodyUsername
}
