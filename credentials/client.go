/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Seednode/debatebox/arena"
)

// Request is the body of a POST /join.
type Request struct {
	Room          string   `json:"room"`
	User          string   `json:"user,omitempty"`
	Topic         string   `json:"topic"`
	Personas      []string `json:"personas"`
	TurnDuration  int      `json:"turnDuration,omitempty"`
	NumberOfTurns int      `json:"numberOfTurns,omitempty"`
}

// Client fetches credentials from a remote /join endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the credential endpoint rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch posts req to /join and decodes the returned credentials.
func (c *Client) Fetch(ctx context.Context, req Request) (arena.Credentials, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return arena.Credentials{}, fmt.Errorf("credentials: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/join", bytes.NewReader(body))
	if err != nil {
		return arena.Credentials{}, fmt.Errorf("credentials: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return arena.Credentials{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return arena.Credentials{}, fmt.Errorf("%w: %s: %s", ErrUnavailable, resp.Status, strings.TrimSpace(string(msg)))
	}

	var creds arena.Credentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return arena.Credentials{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if creds.Token == "" {
		return arena.Credentials{}, fmt.Errorf("%w: empty token", ErrUnavailable)
	}

	return creds, nil
}

// Credentials adapts Fetch to arena.CredentialSource.
func (c *Client) Credentials(ctx context.Context, req arena.JoinRequest) (arena.Credentials, error) {
	return c.Fetch(ctx, Request{
		Room:          req.Room,
		User:          req.User,
		Topic:         req.Topic,
		Personas:      req.Personas,
		TurnDuration:  req.TurnDuration,
		NumberOfTurns: req.NumberOfTurns,
	})
}
