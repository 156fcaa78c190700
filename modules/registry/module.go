package registry

import (
	"context"
	"fmt"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MathKia/ttt-microservices-backend/domain/room"
	"github.com/MathKia/ttt-microservices-backend/modules/socketauth"
)

// Module owns the persistent membership store and exposes the registry
// service to the API module.
type Module struct {
	db      *gorm.DB
	service *Service
	tokens  *socketauth.TokenManager
	dbPath  string
	logger  types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the registry module. Database path, JWT secret and the
// advertised session-server addresses come from the environment.
func NewModule(moduleLogger types.Logger) *Module {
	dbPath := os.Getenv("ROOM_DB_PATH")
	if dbPath == "" {
		dbPath = "room_registry.db"
	}
	return &Module{
		dbPath: dbPath,
		logger: moduleLogger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "registry"
}

// Start opens the database, migrates the membership schema and wires the
// service.
func (m *Module) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&room.Membership{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.tokens = socketauth.NewTokenManager(socketauth.SecretFromEnv(), socketauth.SocketTokenTTL)

	addresses := ServiceAddresses{
		Chat: envOr("CHAT_ADD", "ws://localhost:4002"),
		Game: envOr("GAME_ADD", "ws://localhost:4001"),
	}

	repo := NewMembershipRepository(db)
	m.service = NewService(repo, m.tokens, addresses, m.logger)

	m.logger.Info("Registry module started", "database", m.dbPath,
		"gameAddr", addresses.Game, "chatAddr", addresses.Chat)
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	m.logger.Info("Registry module stopped")
	return nil
}

// Health reports database reachability.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}
	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// Service returns the registry service for the API module.
func (m *Module) Service() *Service {
	return m.service
}

// Tokens returns the token manager so the API module can verify bearer
// tokens with the shared secret.
func (m *Module) Tokens() *socketauth.TokenManager {
	return m.tokens
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
