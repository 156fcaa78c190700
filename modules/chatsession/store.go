package chatsession

import (
	"sync"
	"time"
)

// maxHistory caps the per-room message log so a long-lived room cannot grow
// without bound.
const maxHistory = 100

// Message is one chat entry on the wire: sender, text and a wall-clock
// timestamp formatted as HH:MM.
type Message [3]string

// NewMessage builds a chat entry stamped with the given time.
func NewMessage(sender, text string, at time.Time) Message {
	return Message{sender, text, at.Format("15:04")}
}

// Room is the ephemeral chat state for one room.
type Room struct {
	Players   []string          // connection IDs in arrival order
	Usernames map[string]string // connection ID -> username
	Messages  []Message
}

// Store holds every active chat room plus a direct connection-to-room index.
// Same shape as the game store, without any turn or board machinery.
type Store struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	connRoom map[string]string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		rooms:    make(map[string]*Room),
		connRoom: make(map[string]string),
	}
}

// JoinResult describes what the transport layer must broadcast after a join.
type JoinResult struct {
	Room    string
	Roster  map[string]string
	Conns   []string
	History []Message // log so far, delivered to the newcomer only
}

// Join registers a connection in a room, creating the room lazily.
func (s *Store) Join(roomName, connID, username string) JoinResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.rooms[roomName]
	if !exists {
		r = &Room{Usernames: make(map[string]string)}
		s.rooms[roomName] = r
	}

	r.Players = append(r.Players, connID)
	r.Usernames[connID] = username
	s.connRoom[connID] = roomName

	roster := make(map[string]string, len(r.Usernames))
	for id, name := range r.Usernames {
		roster[id] = name
	}

	return JoinResult{
		Room:    roomName,
		Roster:  roster,
		Conns:   append([]string(nil), r.Players...),
		History: append([]Message(nil), r.Messages...),
	}
}

// AppendResult describes a newly logged message.
type AppendResult struct {
	Room    string
	Conns   []string
	Message Message
}

// Append logs a message in the sender's room. The oldest entry is dropped
// once the log is full. A message from a connection whose room is gone is
// silently dropped.
func (s *Store) Append(connID, text string, at time.Time) (AppendResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomName, ok := s.connRoom[connID]
	if !ok {
		return AppendResult{}, false
	}
	r, ok := s.rooms[roomName]
	if !ok {
		return AppendResult{}, false
	}

	msg := NewMessage(r.Usernames[connID], text, at)
	r.Messages = append(r.Messages, msg)
	if len(r.Messages) > maxHistory {
		r.Messages = r.Messages[len(r.Messages)-maxHistory:]
	}

	return AppendResult{
		Room:    roomName,
		Conns:   append([]string(nil), r.Players...),
		Message: msg,
	}, true
}

// LeaveResult describes a departure's consequences.
type LeaveResult struct {
	Room      string
	Username  string
	Remaining []string
	Dissolved bool
}

// Leave removes a connection from its room, destroying the room and its
// message log when it empties. Returns false when the connection is not in
// any room.
func (s *Store) Leave(connID string) (LeaveResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomName, ok := s.connRoom[connID]
	if !ok {
		return LeaveResult{}, false
	}
	r, ok := s.rooms[roomName]
	if !ok {
		return LeaveResult{}, false
	}

	result := LeaveResult{
		Room:     roomName,
		Username: r.Usernames[connID],
	}

	remaining := make([]string, 0, len(r.Players))
	for _, id := range r.Players {
		if id != connID {
			remaining = append(remaining, id)
		}
	}
	r.Players = remaining
	delete(r.Usernames, connID)
	delete(s.connRoom, connID)

	if len(r.Players) > 0 {
		result.Remaining = append([]string(nil), r.Players...)
	} else {
		delete(s.rooms, roomName)
		result.Dissolved = true
	}
	return result, true
}

// RoomCount returns the number of active rooms.
func (s *Store) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// ConnCount returns the number of tracked connections.
func (s *Store) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connRoom)
}
