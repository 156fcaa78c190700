// Package socketauth issues and verifies the short-lived session tokens that
// gate realtime connections. A token is handed out by the room registry on a
// successful join and is only good for establishing a websocket; it is never
// accepted as HTTP bearer auth by the session servers.
package socketauth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when no token was supplied at all.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken is returned when the token is malformed or its
	// signature does not verify.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// SocketTokenTTL is the default lifetime of a session token. It only needs to
// cover the gap between the registry join response and the websocket
// handshake.
const SocketTokenTTL = 120 * time.Second

// Claims carry the verified identity bound to a realtime connection. Only the
// username travels in the token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens with a shared HMAC secret.
// The registry holds the signing side; both session servers hold the
// verifying side.
type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
}

// NewTokenManager creates a TokenManager. A zero ttl falls back to
// SocketTokenTTL.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl == 0 {
		ttl = SocketTokenTTL
	}
	return &TokenManager{
		secretKey: []byte(secret),
		ttl:       ttl,
	}
}

// Generate signs a token for the given username using the manager's TTL.
func (m *TokenManager) Generate(username string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify checks the token's signature and expiry and returns its claims.
// Expired tokens are distinguished from malformed ones so callers can log
// them apart; both refuse the connection.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// SecretFromEnv loads the shared signing secret from the environment. Every
// service must see the same JWT_SECRET or token handoff between them breaks.
func SecretFromEnv() string {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return secret
	}
	return "change-me-in-production"
}
