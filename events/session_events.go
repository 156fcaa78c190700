// Package events defines the typed events the session servers publish on the
// internal event bus. They are observability signals only; no room or game
// semantics depend on their delivery.
package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MatchFinishedEvent is emitted when a game reaches a terminal state.
type MatchFinishedEvent struct {
	Room     string    `json:"room"`
	Winner   string    `json:"winner,omitempty"` // winning symbol, empty on a draw
	Draw     bool      `json:"draw"`
	Round    int       `json:"round"`
	Finished time.Time `json:"finished"`
}

// RoomVacatedEvent is emitted when a session server tears down the ephemeral
// state for a room because its last participant left or disconnected.
type RoomVacatedEvent struct {
	Service   string    `json:"service"` // "game" or "chat"
	Room      string    `json:"room"`
	LastUser  string    `json:"last_user,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the session domain.
var (
	MatchFinishedV1 = helper.EventDefinition[MatchFinishedEvent](
		"game",
		"MatchFinished",
		"v1",
	)

	RoomVacatedV1 = helper.EventDefinition[RoomVacatedEvent](
		"session",
		"RoomVacated",
		"v1",
	)
)
