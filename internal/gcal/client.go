package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/studyhub-app/studyhub-server/internal/models"
	"github.com/studyhub-app/studyhub-server/internal/oauth"
	"github.com/studyhub-app/studyhub-server/internal/store"
)

const eventsEndpoint = "https://www.googleapis.com/calendar/v3/calendars/primary/events"

// Event is the subset of a Google Calendar event this service writes.
type Event struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

// EventTime is an RFC3339 event boundary.
type EventTime struct {
	DateTime string `json:"dateTime"`
}

// Client creates calendar events from tasks using the user's stored
// Google token. Like every token consumer, it reads the token store
// directly and never trusts the connection flag.
type Client struct {
	registry   *oauth.Registry
	tokens     *store.TokenSource
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a calendar client.
func NewClient(registry *oauth.Registry, tokens *store.TokenSource) *Client {
	return &Client{
		registry: registry,
		tokens:   tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint: eventsEndpoint,
	}
}

// NewClientWithEndpoint creates a client against a non-default events
// endpoint; used by tests.
func NewClientWithEndpoint(registry *oauth.Registry, tokens *store.TokenSource, endpoint string) *Client {
	c := NewClient(registry, tokens)
	c.endpoint = endpoint
	return c
}

// CreateTaskEvent inserts a one-hour event ending at the task's due
// time into the user's primary calendar and returns the event id.
func (c *Client) CreateTaskEvent(ctx context.Context, userID string, task *models.Task) (string, error) {
	if task.DueAt == nil {
		return "", fmt.Errorf("task has no due date")
	}

	provider, err := c.registry.Provider(oauth.KeyGoogle, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to resolve Google provider: %w", err)
	}

	accessToken, err := c.tokens.AccessToken(ctx, userID, provider)
	if err != nil {
		return "", err
	}

	event := Event{
		Summary: task.Title,
		Start:   EventTime{DateTime: task.DueAt.Add(-time.Hour).Format(time.RFC3339)},
		End:     EventTime{DateTime: task.DueAt.Format(time.RFC3339)},
	}
	if task.Description != nil {
		event.Description = *task.Description
	}

	body, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create calendar request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", store.ErrNotConnected
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("calendar API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var created Event
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode calendar response: %w", err)
	}

	return created.ID, nil
}
