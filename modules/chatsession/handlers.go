package chatsession

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

	"github.com/MathKia/ttt-microservices-backend/events"
	"github.com/MathKia/ttt-microservices-backend/modules/notify"
)

const notifyTimeout = 5 * time.Second

// wsWriter is the outbound half of a websocket connection.
type wsWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// Handlers wires websocket connections to the chat room store.
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

// SetEventBus provides the bus used for room lifecycle events. A nil bus
// disables publishing.
func (h *Handlers) SetEventBus(bus mono.EventBus) {
	h.eventBus = bus
}

// HandleConnection runs the read loop for one chat connection.
func (h *Handlers) HandleConnection(c *websocket.Conn) {
	username, _ := c.Locals(identityKey).(string)
	connID := uuid.New().String()
	h.connections.Store(connID, c)

	defer func() {
		h.connections.Delete(connID)
		h.handleDisconnect(connID, username)
		c.Close()
	}()

	h.logger.Info("Chat connection established", "connID", connID, "username", username)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("Chat connection error", "connID", connID, "error", err)
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

	h.logger.Info("Chat connection closed", "connID", connID, "username", username)
}

// handleEvent dispatches incoming client events.
func (h *Handlers) handleEvent(c wsWriter, connID string, msg Envelope) {
	switch msg.Type {
	case EventJoinRoom:
		h.handleJoin(c, connID, msg.Payload)
	case EventSendMessage:
		h.handleSendMessage(c, connID, msg.Payload)
	case EventExit:
		h.handleExit(connID)
	default:
		h.sendError(c, "Unknown event type: "+msg.Type)
	}
}

// handleJoin registers the connection in a room and replays the message log
// to the newcomer.
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
		Message:   fmt.Sprintf("%s Successfully joined room %s in chat service", req.Username, req.Room),
		Usernames: result.Roster,
	})

	if len(result.History) > 0 {
		h.send(c, EventUpdatedMessages, UpdatedMessagesPayload{Messages: result.History})
	}
}

// handleSendMessage logs a chat message and broadcasts only the new entry.
func (h *Handlers) handleSendMessage(c wsWriter, connID string, payload json.RawMessage) {
	var req SendMessagePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(c, "Invalid message payload")
		return
	}
	if req.Message == "" {
		h.sendError(c, "message is required")
		return
	}

	result, ok := h.store.Append(connID, req.Message, time.Now())
	if !ok {
		return
	}

	h.broadcast(result.Conns, EventUpdatedMessages, UpdatedMessagesPayload{
		Messages: []Message{result.Message},
	})
}

// handleExit removes the connection on an explicit leave. The client informs
// the registry itself on this path, so no reconciliation call is made.
func (h *Handlers) handleExit(connID string) {
	result, ok := h.store.Leave(connID)
	if !ok {
		return
	}
	if result.Dissolved {
		h.publishRoomVacated(result.Room, result.Username)
	}
}

// handleDisconnect reconciles an unannounced departure with the registry.
// Leave reports false when the exit event already cleaned up, which keeps
// the notification to at most one per departure.
func (h *Handlers) handleDisconnect(connID, username string) {
	result, ok := h.store.Leave(connID)
	if !ok {
		return
	}
	if result.Dissolved {
		h.publishRoomVacated(result.Room, result.Username)
	}

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

// broadcast sends a typed message to a set of connections.
func (h *Handlers) broadcast(connIDs []string, msgType string, data any) {
	for _, connID := range connIDs {
		conn, ok := h.connections.Load(connID)
		if !ok {
			continue
		}
		if ws, ok := conn.(wsWriter); ok {
			h.send(ws, msgType, data)
		}
	}
}

// send sends a typed message to a websocket connection.
func (h *Handlers) send(c wsWriter, msgType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal payload", "type", msgType, "error", err)
		return
	}

	msgBytes, err := json.Marshal(Envelope{Type: msgType, Payload: payload})
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
	msgBytes, err := json.Marshal(Envelope{Type: "error", Error: errMsg})
	if err != nil {
		h.logger.Error("Failed to marshal error message", "error", err)
		return
	}

	if err := c.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
		h.logger.Error("Failed to send error message", "error", err)
	}
}

func (h *Handlers) publishRoomVacated(room, lastUser string) {
	if h.eventBus == nil {
		return
	}
	event := events.RoomVacatedEvent{
		Service:   "chat",
		Room:      room,
		LastUser:  lastUser,
		Timestamp: time.Now(),
	}
	if err := events.RoomVacatedV1.Publish(h.eventBus, event, nil); err != nil {
		h.logger.Warn("Failed to publish room vacated event", "room", room, "error", err)
	}
}
