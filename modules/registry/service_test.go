package registry

import (
	"context"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MathKia/ttt-microservices-backend/modules/socketauth"
)

// mockLogger implements types.Logger for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)         {}
func (m *mockLogger) Info(msg string, args ...any)          {}
func (m *mockLogger) Warn(msg string, args ...any)          {}
func (m *mockLogger) Error(msg string, args ...any)         {}
func (m *mockLogger) With(args ...any) types.Logger         { return m }
func (m *mockLogger) WithError(err error) types.Logger      { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

func setupTestService(t *testing.T) (*Service, *socketauth.TokenManager) {
	t.Helper()

	repo := NewMembershipRepository(setupTestDB(t))
	tokens := socketauth.NewTokenManager("test-secret", 120*time.Second)
	addresses := ServiceAddresses{
		Chat: "ws://chat.test:4002",
		Game: "ws://game.test:4001",
	}
	return NewService(repo, tokens, addresses, &mockLogger{}), tokens
}

func TestService_JoinIssuesTokenAndAddresses(t *testing.T) {
	ctx := context.Background()
	service, tokens := setupTestService(t)

	resp, err := service.Join(ctx, "r1", "UserA")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "Joined room, waiting for opponent ...", resp.Message)
	require.NotNil(t, resp.ServiceAdds)
	assert.Equal(t, "ws://chat.test:4002", resp.ServiceAdds.Chat)
	assert.Equal(t, "ws://game.test:4001", resp.ServiceAdds.Game)

	// The socket token must verify and carry the lowercased username.
	claims, err := tokens.Verify(resp.SocketToken)
	require.NoError(t, err)
	assert.Equal(t, "usera", claims.Username)

	ttl := time.Until(claims.ExpiresAt.Time)
	assert.LessOrEqual(t, ttl, 120*time.Second)
	assert.Greater(t, ttl, 60*time.Second)
}

func TestService_JoinFullRoom(t *testing.T) {
	ctx := context.Background()
	service, _ := setupTestService(t)

	_, err := service.Join(ctx, "r1", "usera")
	require.NoError(t, err)
	_, err = service.Join(ctx, "r1", "userb")
	require.NoError(t, err)

	resp, err := service.Join(ctx, "r1", "userc")
	require.NoError(t, err, "a capacity rejection is not a transport error")

	assert.False(t, resp.Success)
	assert.Equal(t, "Room 'r1' is full. Please pick another room ...", resp.Message)
	assert.Empty(t, resp.SocketToken)
	assert.Nil(t, resp.ServiceAdds)
}

func TestService_ExitMessages(t *testing.T) {
	ctx := context.Background()
	service, _ := setupTestService(t)

	_, err := service.Join(ctx, "r1", "usera")
	require.NoError(t, err)

	resp, err := service.Exit(ctx, "r1", "UserA")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "User removed from room", resp.Message)

	// Second exit of the same user: still success, different message.
	resp, err = service.Exit(ctx, "r1", "usera")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "User already removed or not found", resp.Message)
}
