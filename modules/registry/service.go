package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-monolith/mono/pkg/types"

	"github.com/MathKia/ttt-microservices-backend/modules/socketauth"
)

// Service implements the registry's two operations on top of the membership
// repository: admit a user (issuing a socket token and the realtime
// endpoints) and remove a user.
type Service struct {
	repo      *MembershipRepository
	tokens    *socketauth.TokenManager
	addresses ServiceAddresses
	logger    types.Logger
}

// NewService creates a registry Service. The addresses are what clients are
// told to open their realtime connections against.
func NewService(repo *MembershipRepository, tokens *socketauth.TokenManager, addresses ServiceAddresses, logger types.Logger) *Service {
	return &Service{
		repo:      repo,
		tokens:    tokens,
		addresses: addresses,
		logger:    logger,
	}
}

// Join admits username into roomName. A full room yields Success=false with
// an explanatory message and no state change; any storage or signing failure
// is returned as an error for the transport layer to surface.
func (s *Service) Join(ctx context.Context, roomName, username string) (JoinResponse, error) {
	username = strings.ToLower(username)

	slot, err := s.repo.Join(ctx, roomName, username)
	if errors.Is(err, ErrRoomFull) {
		s.logger.Info("Join rejected, room full", "room", roomName, "username", username)
		return JoinResponse{
			Success: false,
			Message: fmt.Sprintf("Room '%s' is full. Please pick another room ...", roomName),
		}, nil
	}
	if err != nil {
		return JoinResponse{}, fmt.Errorf("join room %q: %w", roomName, err)
	}

	token, err := s.tokens.Generate(username)
	if err != nil {
		return JoinResponse{}, fmt.Errorf("issue socket token: %w", err)
	}

	s.logger.Info("User joined room", "room", roomName, "username", username, "slot", slot)

	addrs := s.addresses
	return JoinResponse{
		Success:     true,
		Message:     "Joined room, waiting for opponent ...",
		SocketToken: token,
		ServiceAdds: &addrs,
	}, nil
}

// Exit removes username from roomName. It always succeeds: a user that is
// already gone is reported as removed.
func (s *Service) Exit(ctx context.Context, roomName, username string) (ExitResponse, error) {
	username = strings.ToLower(username)

	removed, err := s.repo.Exit(ctx, roomName, username)
	if err != nil {
		return ExitResponse{}, fmt.Errorf("exit room %q: %w", roomName, err)
	}

	if !removed {
		s.logger.Info("Exit for absent user", "room", roomName, "username", username)
		return ExitResponse{Success: true, Message: "User already removed or not found"}, nil
	}

	s.logger.Info("User removed from room", "room", roomName, "username", username)
	return ExitResponse{Success: true, Message: "User removed from room"}, nil
}
