// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package calendar is the HTTP client for the external calendar
// service. Failures propagate to the caller as errors — there are no
// placeholder responses. A circuit breaker sheds load while the
// service is down.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/aidekit/assistant/internal/models"
)

// TokenSource mints a bearer token for calls made on behalf of a user.
// Implemented by auth.Manager.
type TokenSource interface {
	ServiceToken(userID string) (string, error)
}

// Client talks to the calendar service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a calendar service client. Every call is bounded by
// the given timeout.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		tokens:     tokens,
		timeout:    timeout,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "calendar-service",
		}),
	}
}

// wire structures — the calendar service serialises times as ISO strings.
type wireEvent struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

type eventsResponse struct {
	Events []wireEvent `json:"events"`
}

type createEventRequest struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

type createEventResponse struct {
	ID string `json:"id"`
}

// Events returns the user's events between from and to.
func (c *Client) Events(ctx context.Context, userID string, from, to time.Time) ([]models.Event, error) {
	q := url.Values{}
	q.Set("start_date", from.Format(time.RFC3339))
	q.Set("end_date", to.Format(time.RFC3339))

	var resp eventsResponse
	if err := c.do(ctx, userID, http.MethodGet, "/events?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]models.Event, 0, len(resp.Events))
	for _, we := range resp.Events {
		ev, err := parseEvent(we)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", we.ID, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// CreateEvent creates a calendar event and returns its ID.
func (c *Client) CreateEvent(ctx context.Context, userID, summary, description string, start, end time.Time) (string, error) {
	req := createEventRequest{
		Summary:     summary,
		Description: description,
		Start:       start.Format(time.RFC3339),
		End:         end.Format(time.RFC3339),
	}

	var resp createEventResponse
	if err := c.do(ctx, userID, http.MethodPost, "/events", req, &resp); err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("calendar service returned no event id")
	}
	return resp.ID, nil
}

// do performs one authenticated JSON request through the circuit breaker.
func (c *Client) do(ctx context.Context, userID, method, path string, body, out any) error {
	token, err := c.tokens.ServiceToken(userID)
	if err != nil {
		return fmt.Errorf("mint service token: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	raw, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return nil, fmt.Errorf("calendar service returned HTTP %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(raw.([]byte), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func parseEvent(we wireEvent) (models.Event, error) {
	start, err := parseTime(we.Start)
	if err != nil {
		return models.Event{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseTime(we.End)
	if err != nil {
		return models.Event{}, fmt.Errorf("end: %w", err)
	}
	return models.Event{
		ID:          we.ID,
		Summary:     we.Summary,
		Description: we.Description,
		Start:       start,
		End:         end,
	}, nil
}

// parseTime accepts RFC3339 and the zone-less ISO form the calendar
// service emits for local times.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
