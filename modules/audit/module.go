// Package audit consumes session lifecycle events and records them in the
// registry's logs. It gives the persistent side visibility into match
// outcomes and room teardowns without any session server ever querying it.
package audit

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/MathKia/ttt-microservices-backend/events"
)

// Module is an EventConsumerModule that logs match and room lifecycle events.
type Module struct {
	logger types.Logger

	matchesFinished atomic.Int64
	roomsVacated    atomic.Int64
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new audit module.
func NewModule(moduleLogger types.Logger) *Module {
	return &Module{
		logger: moduleLogger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "audit"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Audit module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Audit module stopped",
		"matchesFinished", m.matchesFinished.Load(),
		"roomsVacated", m.roomsVacated.Load())
	return nil
}

// Health returns the health status with running event counts.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"matches_finished": m.matchesFinished.Load(),
			"rooms_vacated":    m.roomsVacated.Load(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MatchFinishedV1, m.handleMatchFinished, m,
	); err != nil {
		return fmt.Errorf("failed to register MatchFinished consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomVacatedV1, m.handleRoomVacated, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomVacated consumer: %w", err)
	}

	m.logger.Info("Registered audit event consumers", "events", "MatchFinished, RoomVacated")
	return nil
}

func (m *Module) handleMatchFinished(_ context.Context, event events.MatchFinishedEvent, _ *mono.Msg) error {
	m.matchesFinished.Add(1)

	if event.Draw {
		m.logger.Info("Match finished in a draw", "room", event.Room, "round", event.Round)
		return nil
	}
	m.logger.Info("Match finished", "room", event.Room, "winner", event.Winner, "round", event.Round)
	return nil
}

func (m *Module) handleRoomVacated(_ context.Context, event events.RoomVacatedEvent, _ *mono.Msg) error {
	m.roomsVacated.Add(1)
	m.logger.Info("Room vacated", "service", event.Service, "room", event.Room, "lastUser", event.LastUser)
	return nil
}
