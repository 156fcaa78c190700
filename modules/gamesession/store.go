package gamesession

import (
	"sync"

	"github.com/MathKia/ttt-microservices-backend/domain/game"
)

// Room is the ephemeral match state for one pair of players. It exists only
// as long as at least one connection is registered for it; nothing about a
// match survives the room.
type Room struct {
	Players              []string          // connection IDs in arrival order
	Usernames            map[string]string // connection ID -> username
	Board                game.Board
	Round                int
	SetupConfirmations   int
	RematchConfirmations int
	RematchCount         int

	// Seats fixed at the moment the second player arrived. Rematches swap
	// which seat opens, so these stay stable across resets.
	player1 string
	player2 string
}

// Store holds every active game room plus a direct connection-to-room index,
// so per-event lookups never scan all rooms. All mutation goes through the
// store mutex; within one store, room transitions are serialized exactly like
// the single-threaded event loop they model.
type Store struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	connRoom map[string]string
}

// NewStore creates an empty Store. Separate stores are fully independent,
// which is what makes the state machine testable without a server.
func NewStore() *Store {
	return &Store{
		rooms:    make(map[string]*Room),
		connRoom: make(map[string]string),
	}
}

// Assignment is one player's side of an initial role broadcast.
type Assignment struct {
	ConnID   string
	Symbol   string
	Opponent string
	Turn     bool
}

// JoinResult describes what the transport layer must broadcast after a join.
type JoinResult struct {
	Room        string
	Roster      map[string]string // connection ID -> username snapshot
	Conns       []string
	Paired      bool     // the second player just arrived
	PlayerNames []string // usernames in seat order, set when Paired
	Assignments []Assignment
	Board       game.Board
	Round       int
}

// Join registers a connection in a room, creating the room lazily. When the
// second distinct connection arrives the seats are assigned by arrival order:
// first gets X with the opening turn, second gets O.
func (s *Store) Join(roomName, connID, username string) JoinResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.rooms[roomName]
	if !exists {
		r = &Room{
			Board:     game.NewBoard(),
			Usernames: make(map[string]string),
		}
		s.rooms[roomName] = r
	}

	r.Players = append(r.Players, connID)
	r.Usernames[connID] = username
	s.connRoom[connID] = roomName

	result := JoinResult{
		Room:   roomName,
		Roster: cloneRoster(r.Usernames),
		Conns:  append([]string(nil), r.Players...),
	}

	if len(r.Players) == 2 {
		r.player1 = r.Players[0]
		r.player2 = r.Players[1]
		r.Board.Reset()
		result.Paired = true
		result.PlayerNames = []string{r.Usernames[r.player1], r.Usernames[r.player2]}
		result.Assignments = seatAssignments(r.player1, r.player2)
		result.Board = cloneBoard(r.Board)
	}
	return result
}

// SetupResult reports a setup confirmation.
type SetupResult struct {
	Room  string
	Conns []string
	Ready bool // both players confirmed, the game can start
}

// SetupComplete counts one player's setup confirmation. The second
// confirmation makes the room ready.
func (s *Store) SetupComplete(connID string) (SetupResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomName, r, ok := s.roomOf(connID)
	if !ok {
		return SetupResult{}, false
	}

	r.SetupConfirmations++
	return SetupResult{
		Room:  roomName,
		Conns: append([]string(nil), r.Players...),
		Ready: r.SetupConfirmations == 2,
	}, true
}

// MoveResult describes a move's consequences. Exactly one of Won, Draw or a
// turn flip (neither set) applies.
type MoveResult struct {
	Room   string
	Conns  []string
	Round  int
	Board  game.Board
	Won    bool
	Triple [3]int
	Draw   bool
	Others []string // every connection except the mover, for the turn flip
}

// Move applies a player's move. The server does not referee: the cell is
// overwritten whether or not it was empty and regardless of whose turn it
// was. A move for a connection whose room is gone, or with an out-of-range
// cell, is silently dropped.
func (s *Store) Move(connID string, cell int, symbol string) (MoveResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomName, r, ok := s.roomOf(connID)
	if !ok {
		return MoveResult{}, false
	}
	if cell < 0 || cell >= game.BoardSize {
		return MoveResult{}, false
	}

	r.Round++
	r.Board[cell] = symbol

	result := MoveResult{
		Room:  roomName,
		Conns: append([]string(nil), r.Players...),
		Round: r.Round,
		Board: cloneBoard(r.Board),
	}

	if triple, won := r.Board.CheckWin(); won {
		result.Won = true
		result.Triple = triple
	} else if r.Round == game.MaxRounds {
		result.Draw = true
	} else {
		result.Others = otherConns(r.Players, connID)
	}
	return result, true
}

// RematchResult describes the outcome of one rematch request.
type RematchResult struct {
	Room        string
	Conns       []string
	Others      []string // peers to receive the rematch invite
	Completed   bool     // both players confirmed since the last reset
	Assignments []Assignment
	Board       game.Board
	Round       int
}

// RematchRequested counts one player's rematch confirmation. When both have
// confirmed the room resets for a new game and the starting seat alternates:
// on every even rematch count the original first arrival opens again.
func (s *Store) RematchRequested(connID string) (RematchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomName, r, ok := s.roomOf(connID)
	if !ok {
		return RematchResult{}, false
	}

	r.RematchConfirmations++

	result := RematchResult{
		Room:   roomName,
		Conns:  append([]string(nil), r.Players...),
		Others: otherConns(r.Players, connID),
	}

	if r.RematchConfirmations != 2 {
		return result, true
	}

	r.SetupConfirmations = 0
	r.RematchConfirmations = 0
	r.Board.Reset()
	r.Round = 0
	r.RematchCount++

	first, second := r.player1, r.player2
	if r.RematchCount%2 != 0 {
		first, second = r.player2, r.player1
	}

	result.Completed = true
	result.Assignments = seatAssignments(first, second)
	result.Board = cloneBoard(r.Board)
	return result, true
}

// LeaveResult describes a departure's consequences.
type LeaveResult struct {
	Room      string
	Username  string
	Remaining []string // connections still in the room
	Dissolved bool     // the room emptied and was destroyed
}

// Leave removes a connection from its room. A surviving opponent loses any
// pending rematch agreement; an emptied room is destroyed. Returns false when
// the connection is not in any room, which makes Leave safe to call from both
// the exit event and the disconnect path.
func (s *Store) Leave(connID string) (LeaveResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomName, r, ok := s.roomOf(connID)
	if !ok {
		return LeaveResult{}, false
	}

	result := LeaveResult{
		Room:     roomName,
		Username: r.Usernames[connID],
	}

	r.Players = otherConns(r.Players, connID)
	delete(r.Usernames, connID)
	delete(s.connRoom, connID)

	if len(r.Players) > 0 {
		r.RematchConfirmations = 0
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

// roomOf resolves a connection to its room. Callers must hold the mutex.
func (s *Store) roomOf(connID string) (string, *Room, bool) {
	roomName, ok := s.connRoom[connID]
	if !ok {
		return "", nil, false
	}
	r, ok := s.rooms[roomName]
	if !ok {
		return "", nil, false
	}
	return roomName, r, true
}

func seatAssignments(first, second string) []Assignment {
	return []Assignment{
		{ConnID: first, Symbol: game.SymbolX, Opponent: game.SymbolO, Turn: true},
		{ConnID: second, Symbol: game.SymbolO, Opponent: game.SymbolX, Turn: false},
	}
}

func otherConns(conns []string, connID string) []string {
	result := make([]string, 0, len(conns))
	for _, id := range conns {
		if id != connID {
			result = append(result, id)
		}
	}
	return result
}

func cloneRoster(usernames map[string]string) map[string]string {
	roster := make(map[string]string, len(usernames))
	for id, name := range usernames {
		roster[id] = name
	}
	return roster
}

func cloneBoard(b game.Board) game.Board {
	return append(game.Board(nil), b...)
}
