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

// Package mail is the HTTP client for the external email service.
// Like the calendar client, failures propagate as errors and a circuit
// breaker guards the service.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// TokenSource mints a bearer token for calls made on behalf of a user.
// Implemented by auth.Manager.
type TokenSource interface {
	ServiceToken(userID string) (string, error)
}

// MessageSummary is one entry of the mailbox listing.
type MessageSummary struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
}

// Message is a full email message.
type Message struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Date    string `json:"date"`
}

// Client talks to the email service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates an email service client.
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
			Name: "email-service",
		}),
	}
}

// Send delivers an email on behalf of the user.
func (c *Client) Send(ctx context.Context, userID, to, subject, body string) error {
	req := map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
	}
	if err := c.do(ctx, userID, http.MethodPost, "/send", req, nil); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// Messages lists the most recent messages in the user's mailbox.
func (c *Client) Messages(ctx context.Context, userID string, limit int) ([]MessageSummary, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Messages []MessageSummary `json:"messages"`
	}
	if err := c.do(ctx, userID, http.MethodGet, "/messages?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return resp.Messages, nil
}

// Message fetches one full message by ID.
func (c *Client) Message(ctx context.Context, userID, messageID string) (*Message, error) {
	var msg Message
	if err := c.do(ctx, userID, http.MethodGet, "/messages/"+url.PathEscape(messageID), nil, &msg); err != nil {
		return nil, fmt.Errorf("fetch message %s: %w", messageID, err)
	}
	return &msg, nil
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
			return nil, fmt.Errorf("email service returned HTTP %d", resp.StatusCode)
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

// mailingMarkers flag automated senders: anything matching is dropped
// by the inbox poller before it reaches the agent.
var mailingMarkers = []string{
	"noreply", "no-reply", "donotreply", "mailer", "newsletter",
	"notifications", "alerts", "system", "automated",
}

// IsHumanSender reports whether the address looks like a person rather
// than a mailing system.
func IsHumanSender(address string) bool {
	lower := strings.ToLower(address)
	for _, marker := range mailingMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}
