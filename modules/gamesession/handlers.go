package gamesession

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/MathKia/ttt-microservices-backend/domain/game"
	"github.com/MathKia/ttt-microservices-backend/events"
	"github.com/MathKia/ttt-microservices-backend/modules/notify"
)

const notifyTimeout = 5 * time.Second

// wsWriter is the outbound half of a websocket connection.
type wsWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// Handlers wires websocket connections to the game state machine.
type Handlers struct {
	store       *Store
	notifier    notify.RegistryNotifier
	eventBus    mono.EventBus
	connections sync.Map // connection ID -> wsWriter
	logger      *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(store *Store, notifier notify.RegistryNotifier) *Handlers {
	return &Handlers{
		store:    store,
		notifier: notifier,
		logger:   slog.Default(),
	}
}

// SetEventBus provides the bus used for match lifecycle events. A nil bus
// disables publishing.
func (h *Handlers) SetEventBus(bus mono.EventBus) {
	h.eventBus = bus
}

// HandleConnection runs the read loop for one player connection. The
// connection identity was already verified during the upgrade; the username
// travels via Locals.
func (h *Handlers) HandleConnection(c *websocket.Conn) {
	username, _ := c.Locals(identityKey).(string)
	connID := uuid.New().String()
	h.connections.Store(connID, c)

	defer func() {
		h.connections.Delete(connID)
		h.handleDisconnect(connID, username)
		c.Close()
	}()

	h.logger.Info("Game connection established", "connID", connID, "username", username)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("Game connection error", "connID", connID, "error", err)
			}
			break
		}

		var msg Envelope
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			h.sendError(c, "Invalid message format")
			continue
		}

		h.handleEvent(c, connID, msg)
	}

	h.logger.Info("Game connection closed", "connID", connID, "username", username)
}

// handleEvent dispatches incoming client events.
func (h *Handlers) handleEvent(c wsWriter, connID string, msg Envelope) {
	switch msg.Type {
	case EventJoinRoom:
		h.handleJoin(c, connID, msg.Payload)
	case EventSetupComplete:
		h.handleSetupComplete(connID)
	case EventClientMove:
		h.handleMove(c, connID, msg.Payload)
	case EventRematch:
		h.handleRematch(connID)
	case EventExit:
		h.handleExit(connID)
	default:
		h.sendError(c, "Unknown event type: "+msg.Type)
	}
}

// handleJoin registers the connection in a room and, once the pair is
// complete, deals out the starting roles.
func (h *Handlers) handleJoin(c wsWriter, connID string, payload json.RawMessage) {
	var req JoinRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(c, "Invalid join payload")
		return
	}
	if req.Room == "" || req.Username == "" {
		h.sendError(c, "room and username are required")
		return
	}

	result := h.store.Join(req.Room, connID, req.Username)

	h.broadcast(result.Conns, EventRoomData, RoomDataPayload{
		Success:   true,
		Message:   fmt.Sprintf("%s Successfully joined room %s in game service", req.Username, req.Room),
		Usernames: result.Roster,
	})

	if result.Paired {
		h.broadcast(result.Conns, EventPlayersInRoom, PlayersInRoomPayload{Usernames: result.PlayerNames})
		h.sendAssignments(result.Assignments, result.Board, result.Round)
	}
}

// handleSetupComplete counts a setup confirmation and starts the game when
// both players are ready.
func (h *Handlers) handleSetupComplete(connID string) {
	result, ok := h.store.SetupComplete(connID)
	if !ok || !result.Ready {
		return
	}
	h.broadcast(result.Conns, EventStartGame, nil)
}

// handleMove applies a move and broadcasts the resulting round, grid and
// outcome. Moves from connections whose room is gone are dropped.
func (h *Handlers) handleMove(c wsWriter, connID string, payload json.RawMessage) {
	var req MovePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(c, "Invalid move payload")
		return
	}

	result, ok := h.store.Move(connID, req.Move, req.Player)
	if !ok {
		return
	}

	h.broadcast(result.Conns, EventUpdateRound, RoundPayload{Round: result.Round})
	h.broadcast(result.Conns, EventUpdateGrid, GridPayload{GameState: result.Board})

	switch {
	case result.Won:
		h.broadcast(result.Conns, EventWinStreak, WinStreakPayload{WinStreak: result.Triple})
		h.publishMatchFinished(result.Room, req.Player, false, result.Round)
	case result.Draw:
		h.broadcast(result.Conns, EventDraw, nil)
		h.publishMatchFinished(result.Room, "", true, result.Round)
	default:
		h.send(c, EventTurnUpdate, TurnPayload{Turn: false})
		h.broadcast(result.Others, EventTurnUpdate, TurnPayload{Turn: true})
	}
}

// handleRematch counts a rematch confirmation. Every request invites the
// peer; the second one additionally resets the room with swapped starting
// seats.
func (h *Handlers) handleRematch(connID string) {
	result, ok := h.store.RematchRequested(connID)
	if !ok {
		return
	}

	h.broadcast(result.Others, EventRematchInvite, nil)

	if !result.Completed {
		return
	}

	h.broadcast(result.Conns, EventRematchOn, RematchPayload{RematchOn: true})
	h.sendAssignments(result.Assignments, result.Board, result.Round)
}

// handleExit removes the player on an explicit leave. The registry already
// knows: the client calls the exit endpoint itself before sending this, so
// no reconciliation call is made here.
func (h *Handlers) handleExit(connID string) {
	result, ok := h.store.Leave(connID)
	if !ok {
		return
	}
	h.afterLeave(result)
}

// handleDisconnect reconciles an unannounced departure. Leave reports false
// when the exit event already cleaned up, which keeps the registry
// notification to at most one per departure.
func (h *Handlers) handleDisconnect(connID, username string) {
	result, ok := h.store.Leave(connID)
	if !ok {
		return
	}
	h.afterLeave(result)

	name := result.Username
	if name == "" {
		name = username
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := h.notifier.NotifyExit(ctx, result.Room, name); err != nil {
		h.logger.Warn("Registry exit notification failed", "room", result.Room, "username", name, "error", err)
		return
	}
	h.logger.Info("Registry notified of disconnect", "room", result.Room, "username", name)
}

// afterLeave tells any surviving opponent that the rematch agreement is off
// and publishes room teardown.
func (h *Handlers) afterLeave(result LeaveResult) {
	if len(result.Remaining) > 0 {
		h.broadcast(result.Remaining, EventRematchOn, RematchPayload{RematchOn: false})
	}
	if result.Dissolved {
		h.publishRoomVacated(result.Room, result.Username)
	}
}

// sendAssignments delivers each player's private role message.
func (h *Handlers) sendAssignments(assignments []Assignment, board game.Board, round int) {
	for _, a := range assignments {
		h.sendTo(a.ConnID, EventInitialSetup, InitialSetupPayload{
			Player:    a.Symbol,
			Opp:       a.Opponent,
			Turn:      a.Turn,
			GameState: board,
			Round:     round,
		})
	}
}

// broadcast sends a typed message to a set of connections.
func (h *Handlers) broadcast(connIDs []string, msgType string, data any) {
	for _, connID := range connIDs {
		h.sendTo(connID, msgType, data)
	}
}

// sendTo sends a typed message to one connection by ID.
func (h *Handlers) sendTo(connID string, msgType string, data any) {
	conn, ok := h.connections.Load(connID)
	if !ok {
		return
	}
	if ws, ok := conn.(wsWriter); ok {
		h.send(ws, msgType, data)
	}
}

// send sends a typed message to a websocket connection.
func (h *Handlers) send(c wsWriter, msgType string, data any) {
	msg := Envelope{Type: msgType}

	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			h.logger.Error("Failed to marshal payload", "type", msgType, "error", err)
			return
		}
		msg.Payload = payload
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal message", "type", msgType, "error", err)
		return
	}

	if err := c.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
		h.logger.Error("Failed to send message", "type", msgType, "error", err)
	}
}

// sendError sends an error message to a websocket connection.
func (h *Handlers) sendError(c wsWriter, errMsg string) {
	msg := Envelope{
		Type:  "error",
		Error: errMsg,
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal error message", "error", err)
		return
	}

	if err := c.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
		h.logger.Error("Failed to send error message", "error", err)
	}
}

func (h *Handlers) publishMatchFinished(room, winner string, draw bool, round int) {
	if h.eventBus == nil {
		return
	}
	event := events.MatchFinishedEvent{
		Room:     room,
		Winner:   winner,
		Draw:     draw,
		Round:    round,
		Finished: time.Now(),
	}
	if err := events.MatchFinishedV1.Publish(h.eventBus, event, nil); err != nil {
		h.logger.Warn("Failed to publish match finished event", "room", room, "error", err)
	}
}

func (h *Handlers) publishRoomVacated(room, lastUser string) {
	if h.eventBus == nil {
		return
	}
	event := events.RoomVacatedEvent{
		Service:   "game",
		Room:      room,
		LastUser:  lastUser,
		Timestamp: time.Now(),
	}
	if err := events.RoomVacatedV1.Publish(h.eventBus, event, nil); err != nil {
		h.logger.Warn("Failed to publish room vacated event", "room", room, "error", err)
	}
}
