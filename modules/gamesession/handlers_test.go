package gamesession

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedExit struct {
	room     string
	username string
}

// recordingNotifier captures registry exit notifications for assertions.
type recordingNotifier struct {
	calls []recordedExit
	err   error
}

func (n *recordingNotifier) NotifyExit(_ context.Context, room, username string) error {
	n.calls = append(n.calls, recordedExit{room: room, username: username})
	return n.err
}

// fakeConn records every envelope written to it.
type fakeConn struct {
	messages []Envelope
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	var msg Envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *fakeConn) messageTypes() []string {
	types := make([]string, 0, len(c.messages))
	for _, msg := range c.messages {
		types = append(types, msg.Type)
	}
	return types
}

func (c *fakeConn) countType(msgType string) int {
	n := 0
	for _, msg := range c.messages {
		if msg.Type == msgType {
			n++
		}
	}
	return n
}

func joinRoom(t *testing.T, h *Handlers, connID, roomName, username string) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	h.connections.Store(connID, conn)

	payload, err := json.Marshal(JoinRoomPayload{Room: roomName, Username: username})
	require.NoError(t, err)
	h.handleJoin(conn, connID, payload)
	return conn
}

func TestDisconnectNotifiesRegistryExactlyOnce(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewHandlers(NewStore(), notifier)
	joinRoom(t, h, "conn-a", "lobby", "alice")

	h.handleDisconnect("conn-a", "alice")

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, recordedExit{room: "lobby", username: "alice"}, notifier.calls[0])

	// A second close for the same connection finds nothing to clean up.
	h.handleDisconnect("conn-a", "alice")
	assert.Len(t, notifier.calls, 1)
}

func TestExplicitExitSkipsRegistryNotification(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewHandlers(NewStore(), notifier)
	joinRoom(t, h, "conn-a", "lobby", "alice")
	connB := joinRoom(t, h, "conn-b", "lobby", "bob")

	// The client already told the registry on this path; the close that
	// follows must not tell it again.
	h.handleExit("conn-a")
	h.handleDisconnect("conn-a", "alice")

	assert.Empty(t, notifier.calls)
	assert.Equal(t, 1, h.store.ConnCount())

	// The survivor still loses the rematch agreement.
	require.NotEmpty(t, connB.messages)
	last := connB.messages[len(connB.messages)-1]
	assert.Equal(t, EventRematchOn, last.Type)
	var rematch RematchPayload
	require.NoError(t, json.Unmarshal(last.Payload, &rematch))
	assert.False(t, rematch.RematchOn)
}

func TestFailingNotifierStillCleansUp(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("registry unreachable")}
	h := NewHandlers(NewStore(), notifier)
	joinRoom(t, h, "conn-a", "lobby", "alice")

	h.handleDisconnect("conn-a", "alice")

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, 0, h.store.RoomCount())
	assert.Equal(t, 0, h.store.ConnCount())
}

func TestRematchInviteOnEveryRequest(t *testing.T) {
	h := NewHandlers(NewStore(), &recordingNotifier{})
	connA := joinRoom(t, h, "conn-a", "lobby", "alice")
	connB := joinRoom(t, h, "conn-b", "lobby", "bob")

	h.handleRematch("conn-a")
	assert.Equal(t, 1, connB.countType(EventRematchInvite))
	assert.Equal(t, 0, connA.countType(EventRematchInvite))

	// The completing request still invites the peer before the reset.
	h.handleRematch("conn-b")
	assert.Equal(t, 1, connA.countType(EventRematchInvite))
	assert.Equal(t, 1, connA.countType(EventRematchOn))
	assert.Equal(t, 1, connB.countType(EventRematchOn))
	assert.Contains(t, connA.messageTypes(), EventInitialSetup)
	assert.Contains(t, connB.messageTypes(), EventInitialSetup)
}
