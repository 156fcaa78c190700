package chatsession

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinDeliversExistingHistory(t *testing.T) {
	s := NewStore()
	at := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

	s.Join("lobby", "conn-a", "alice")
	_, ok := s.Append("conn-a", "hello?", at)
	require.True(t, ok)

	result := s.Join("lobby", "conn-b", "bob")

	assert.Equal(t, map[string]string{"conn-a": "alice", "conn-b": "bob"}, result.Roster)
	assert.Equal(t, []string{"conn-a", "conn-b"}, result.Conns)
	require.Len(t, result.History, 1)
	assert.Equal(t, Message{"alice", "hello?", "14:30"}, result.History[0])
}

func TestAppendStampsSenderAndTime(t *testing.T) {
	s := NewStore()
	s.Join("lobby", "conn-a", "alice")
	s.Join("lobby", "conn-b", "bob")

	at := time.Date(2025, 6, 1, 9, 5, 42, 0, time.UTC)
	result, ok := s.Append("conn-b", "gg", at)

	require.True(t, ok)
	assert.Equal(t, "lobby", result.Room)
	assert.Equal(t, Message{"bob", "gg", "09:05"}, result.Message)
	assert.ElementsMatch(t, []string{"conn-a", "conn-b"}, result.Conns)
}

func TestAppendFromUnknownConnection(t *testing.T) {
	s := NewStore()
	_, ok := s.Append("conn-ghost", "anyone here?", time.Now())
	assert.False(t, ok)
}

func TestHistoryIsCapped(t *testing.T) {
	s := NewStore()
	s.Join("lobby", "conn-a", "alice")
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < maxHistory+5; i++ {
		_, ok := s.Append("conn-a", fmt.Sprintf("msg %d", i), at)
		require.True(t, ok)
	}

	result := s.Join("lobby", "conn-b", "bob")
	require.Len(t, result.History, maxHistory)
	assert.Equal(t, "msg 5", result.History[0][1])
	assert.Equal(t, fmt.Sprintf("msg %d", maxHistory+4), result.History[maxHistory-1][1])
}

func TestLeaveKeepsLogForSurvivor(t *testing.T) {
	s := NewStore()
	s.Join("lobby", "conn-a", "alice")
	s.Join("lobby", "conn-b", "bob")
	s.Append("conn-a", "brb", time.Now())

	result, ok := s.Leave("conn-a")
	require.True(t, ok)
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, []string{"conn-b"}, result.Remaining)
	assert.False(t, result.Dissolved)

	// A rejoining player still sees the log.
	rejoin := s.Join("lobby", "conn-c", "alice")
	assert.Len(t, rejoin.History, 1)
}

func TestLeaveLastPlayerDropsLog(t *testing.T) {
	s := NewStore()
	s.Join("lobby", "conn-a", "alice")
	s.Append("conn-a", "anyone?", time.Now())

	result, ok := s.Leave("conn-a")
	require.True(t, ok)
	assert.True(t, result.Dissolved)
	assert.Equal(t, 0, s.RoomCount())

	rejoin := s.Join("lobby", "conn-b", "bob")
	assert.Empty(t, rejoin.History)
}

func TestLeaveUnknownConnection(t *testing.T) {
	s := NewStore()
	_, ok := s.Leave("conn-ghost")
	assert.False(t, ok)
}
