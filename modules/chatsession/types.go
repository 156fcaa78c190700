package chatsession

import "encoding/json"

// Envelope is the websocket wire format shared by both sides.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client events.
const (
	EventJoinRoom    = "join_room"
	EventSendMessage = "send_message"
	EventExit        = "exit"
)

// Server events.
const (
	EventRoomData        = "room_data"
	EventUpdatedMessages = "updated_messages"
)

type JoinRoomPayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

type SendMessagePayload struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

type ExitPayload struct {
	Room string `json:"room"`
}

type RoomDataPayload struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Usernames map[string]string `json:"usernames"`
}

// UpdatedMessagesPayload carries chat entries as [sender, text, time]
// triples, matching what the client renders directly.
type UpdatedMessagesPayload struct {
	Messages []Message `json:"messages"`
}
