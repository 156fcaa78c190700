package gamesession

import (
	"encoding/json"

	"github.com/MathKia/ttt-microservices-backend/domain/game"
)

// Envelope is the websocket wire format shared by both sides.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client events.
const (
	EventJoinRoom      = "join_room"
	EventSetupComplete = "initial_setUp_complete"
	EventClientMove    = "client_move"
	EventRematch       = "rematch_requested"
	EventExit          = "exit"
)

// Server events.
const (
	EventRoomData      = "room_data"
	EventPlayersInRoom = "players_in_room"
	EventInitialSetup  = "initial_setUp"
	EventStartGame     = "start_game"
	EventUpdateRound   = "update_round"
	EventUpdateGrid    = "update_grid"
	EventWinStreak     = "win_streak"
	EventDraw          = "draw"
	EventTurnUpdate    = "turn_update"
	EventRematchInvite = "rematch_invite"
	EventRematchOn     = "rematch_on"
)

type JoinRoomPayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

type MovePayload struct {
	Move   int    `json:"move"`
	Player string `json:"player"`
}

type ExitPayload struct {
	Room string `json:"room"`
}

type RoomDataPayload struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Usernames map[string]string `json:"usernames"`
}

type PlayersInRoomPayload struct {
	Usernames []string `json:"usernames"`
}

type InitialSetupPayload struct {
	Player    string     `json:"player"`
	Opp       string     `json:"opp"`
	Turn      bool       `json:"turn"`
	GameState game.Board `json:"gameState"`
	Round     int        `json:"round"`
}

type RoundPayload struct {
	Round int `json:"round"`
}

type GridPayload struct {
	GameState game.Board `json:"gameState"`
}

type WinStreakPayload struct {
	WinStreak [3]int `json:"winStreak"`
}

type TurnPayload struct {
	Turn bool `json:"turn"`
}

type RematchPayload struct {
	RematchOn bool `json:"rematchOn"`
}
