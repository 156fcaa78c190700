package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/MathKia/ttt-microservices-backend/modules/socketauth"
)

const (
	// UserContextKey is the key used to store verified claims in the Fiber
	// context.
	UserContextKey = "user"

	// AuthCookieName is the cookie browsers carry the login token in.
	AuthCookieName = "authToken"
)

// TokenMiddleware verifies the caller's credential according to the declared
// mode before any room operation runs:
//
//   - browser: token from the authToken cookie (relayed by the edge gateway)
//   - desktop, mobile: token from the Authorization bearer header
//   - socket: no verification; trusted machine-to-machine traffic from a
//     session server's disconnect handler, which has no user credential
//
// Any other mode is rejected outright.
func TokenMiddleware(tokens *socketauth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mode := requestMode(c)

		var token string
		switch mode {
		case "browser":
			token = c.Cookies(AuthCookieName)
		case "desktop", "mobile":
			authHeader := c.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		case "socket":
			return c.Next()
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid auth mode specified",
			})
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// requestMode reads the auth mode from the query string, falling back to the
// request body.
func requestMode(c *fiber.Ctx) string {
	if mode := c.Query("mode"); mode != "" {
		return mode
	}
	var body struct {
		Mode string `json:"mode"`
	}
	if err := c.BodyParser(&body); err == nil {
		return body.Mode
	}
	return ""
}
