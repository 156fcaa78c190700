package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/MathKia/ttt-microservices-backend/modules/socketauth"
)

func newMiddlewareTestApp(tokens *socketauth.TokenManager) *fiber.App {
	app := fiber.New()
	app.Post("/test", TokenMiddleware(tokens), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "authenticated"})
	})
	return app
}

func TestTokenMiddleware(t *testing.T) {
	tokens := socketauth.NewTokenManager("test-secret", time.Minute)
	validToken, err := tokens.Generate("susan")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	tests := []struct {
		name           string
		url            string
		authHeader     string
		cookie         string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing mode",
			url:            "/test",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Invalid auth mode specified",
		},
		{
			name:           "unknown mode",
			url:            "/test?mode=carrier-pigeon",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Invalid auth mode specified",
		},
		{
			name:           "socket mode bypasses verification",
			url:            "/test?mode=socket",
			expectedStatus: http.StatusOK,
			expectedBody:   "authenticated",
		},
		{
			name:           "desktop mode with valid bearer token",
			url:            "/test?mode=desktop",
			authHeader:     "Bearer " + validToken,
			expectedStatus: http.StatusOK,
			expectedBody:   "authenticated",
		},
		{
			name:           "desktop mode with missing bearer token",
			url:            "/test?mode=desktop",
			expectedStatus: http.StatusForbidden,
			expectedBody:   "Invalid or expired token",
		},
		{
			name:           "mobile mode with garbage token",
			url:            "/test?mode=mobile",
			authHeader:     "Bearer not-a-jwt",
			expectedStatus: http.StatusForbidden,
			expectedBody:   "Invalid or expired token",
		},
		{
			name:           "browser mode with valid cookie",
			url:            "/test?mode=browser",
			cookie:         validToken,
			expectedStatus: http.StatusOK,
			expectedBody:   "authenticated",
		},
		{
			name:           "browser mode without cookie",
			url:            "/test?mode=browser",
			expectedStatus: http.StatusForbidden,
			expectedBody:   "Invalid or expired token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newMiddlewareTestApp(tokens)

			req := httptest.NewRequest("POST", tt.url, strings.NewReader("{}"))
			req.Header.Set("Content-Type", "application/json")
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: tt.cookie})
			}

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("status = %v, want %v", resp.StatusCode, tt.expectedStatus)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("io.ReadAll() error = %v", err)
			}
			if !strings.Contains(string(body), tt.expectedBody) {
				t.Errorf("body = %v, want to contain %v", string(body), tt.expectedBody)
			}
		})
	}
}

func TestTokenMiddleware_ModeFromBody(t *testing.T) {
	tokens := socketauth.NewTokenManager("test-secret", time.Minute)
	app := newMiddlewareTestApp(tokens)

	// mode=socket declared in the JSON body instead of the query string.
	req := httptest.NewRequest("POST", "/test", strings.NewReader(`{"mode":"socket"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
}

func TestTokenMiddleware_ExpiredToken(t *testing.T) {
	issuer := socketauth.NewTokenManager("test-secret", -time.Minute)
	expiredToken, err := issuer.Generate("susan")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	tokens := socketauth.NewTokenManager("test-secret", time.Minute)
	app := newMiddlewareTestApp(tokens)

	req := httptest.NewRequest("POST", "/test?mode=desktop", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+expiredToken)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %v, want %v", resp.StatusCode, http.StatusForbidden)
	}
}
