// Package notify carries the disconnect-reconciliation signal from a session
// server back to the room registry. Delivery is deliberately best effort: one
// attempt, a short timeout, no retry. Local room cleanup never waits on it
// and never rolls back when it fails; callers log the error and move on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// notifyTimeout bounds a single exit notification attempt.
const notifyTimeout = 5 * time.Second

// RegistryNotifier reports that a user has vacated a room so the persistent
// registry can drop their membership rows.
type RegistryNotifier interface {
	NotifyExit(ctx context.Context, room, username string) error
}

// HTTPNotifier posts exit notifications to the registry's HTTP API. It uses
// mode=socket, the trusted machine-to-machine path that bypasses bearer
// verification, because a dropped websocket has no user credential to offer.
type HTTPNotifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPNotifier creates a notifier targeting the registry at baseURL
// (for example "http://localhost:4000").
func NewHTTPNotifier(baseURL string) *HTTPNotifier {
	return &HTTPNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: notifyTimeout},
	}
}

type exitRequest struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// NotifyExit performs a single POST to the registry's exit endpoint.
func (n *HTTPNotifier) NotifyExit(ctx context.Context, room, username string) error {
	body, err := json.Marshal(exitRequest{Room: room, Username: username})
	if err != nil {
		return fmt.Errorf("encode exit notification: %w", err)
	}

	url := n.baseURL + "/api/room/exit?mode=socket"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build exit notification: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify registry exit: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify registry exit: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// NopNotifier discards every notification. Used in tests and when a session
// server runs without a registry.
type NopNotifier struct{}

// NotifyExit implements RegistryNotifier.
func (NopNotifier) NotifyExit(context.Context, string, string) error {
	return nil
}
