// Package neurovibe provides the client-side half of the NeuroVibe tactile
// communication protocol: the room-document API client, the per-room signal
// transport with automatic reconnect, presence reconciliation and the
// vibration renderer.
package neurovibe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
)

// Client is the room-document API client. The persisted room document is the
// durable source of truth for membership; live socket state is layered on
// top by Transport and Registry.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &errResp)

		return &APIError{Status: resp.StatusCode, Message: errResp.Error}
	}

	if out != nil && len(respBody) > 0 {
		return json.Unmarshal(respBody, out)
	}

	return nil
}

// APIError is a non-2xx response from the room-document API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("neurovibe: API error %d: %s", e.Status, e.Message)
}

// GuestToken requests an ephemeral participant identity for clients without
// an external identity provider.
func (c *Client) GuestToken(ctx context.Context, name string) (models.Participant, error) {
	var resp struct {
		Token       string             `json:"token"`
		Participant models.Participant `json:"participant"`
	}

	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/guest",
		map[string]string{"name": name}, &resp)
	if err != nil {
		return models.Participant{}, err
	}

	c.Token = resp.Token

	return resp.Participant, nil
}

// CreateRoom writes the initial room document under the given code. An empty
// code asks the server to generate one.
func (c *Client) CreateRoom(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room

	err := c.doRequest(ctx, http.MethodPost, "/api/v1/rooms",
		map[string]string{"code": code}, &room)
	if err != nil {
		return nil, err
	}

	return &room, nil
}

// ListRooms returns active and closed room documents.
func (c *Client) ListRooms(ctx context.Context) (active, closed []models.Room, err error) {
	var resp struct {
		ActiveRooms []models.Room `json:"active_rooms"`
		ClosedRooms []models.Room `json:"closed_rooms"`
	}

	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/rooms", nil, &resp); err != nil {
		return nil, nil, err
	}

	return resp.ActiveRooms, resp.ClosedRooms, nil
}

func (c *Client) GetRoom(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room

	err := c.doRequest(ctx, http.MethodGet, "/api/v1/rooms/"+url.PathEscape(code), nil, &room)
	if err != nil {
		return nil, err
	}

	return &room, nil
}

func (c *Client) JoinRoom(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room

	err := c.doRequest(ctx, http.MethodPost, "/api/v1/rooms/"+url.PathEscape(code)+"/join", nil, &room)
	if err != nil {
		return nil, err
	}

	return &room, nil
}

func (c *Client) LeaveRoom(ctx context.Context, code string) error {
	return c.doRequest(ctx, http.MethodPost, "/api/v1/rooms/"+url.PathEscape(code)+"/leave", nil, nil)
}

func (c *Client) TerminateRoom(ctx context.Context, code string) error {
	return c.doRequest(ctx, http.MethodDelete, "/api/v1/rooms/"+url.PathEscape(code), nil, nil)
}

func (c *Client) InviteByEmail(ctx context.Context, code, email string) error {
	return c.doRequest(ctx, http.MethodPost, "/api/v1/rooms/"+url.PathEscape(code)+"/invitations",
		map[string]string{"email": email}, nil)
}

func (c *Client) PendingInvites(ctx context.Context, email string) ([]models.Notification, error) {
	var resp struct {
		Requests []models.Notification `json:"requests"`
	}

	err := c.doRequest(ctx, http.MethodGet, "/api/v1/notifications/"+url.PathEscape(email), nil, &resp)
	if err != nil {
		return nil, err
	}

	return resp.Requests, nil
}

func (c *Client) RespondToInvite(ctx context.Context, email, roomCode string, accept bool) error {
	return c.doRequest(ctx, http.MethodPost, "/api/v1/notifications/"+url.PathEscape(email)+"/respond",
		map[string]any{"room_code": roomCode, "accept": accept}, nil)
}

// WebSocketURL builds the signal-stream endpoint for a room and role.
func (c *Client) WebSocketURL(code, role string) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	u.Path = "/api/v1/ws"
	q := u.Query()
	q.Set("room", code)
	q.Set("role", role)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
