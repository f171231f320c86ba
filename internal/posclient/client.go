// Package posclient is a small HTTP client for terminals and back-office
// tools that poll table state. Reads are retried a bounded number of times
// with a fixed delay; 4xx answers are not retried.
package posclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/tbourn/go-pos-backend/internal/services"
)

// Defaults for the retry policy.
const (
	DefaultMaxTries = 3
	DefaultDelay    = time.Second
)

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("pos api: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("pos api: %d", e.StatusCode)
}

// SessionStatusResponse is the body of GET .../session-status.
type SessionStatusResponse struct {
	Success bool `json:"success"`
	services.SessionStatus
}

// LockStatusResponse is the body of GET .../lock-status.
type LockStatusResponse struct {
	Success bool `json:"success"`
	services.LockStatus
}

// Client talks to the POS API.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	MaxTries uint
	Delay    time.Duration
}

// New returns a Client with the default retry policy.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		MaxTries: DefaultMaxTries,
		Delay:    DefaultDelay,
	}
}

// SessionStatus fetches the session status of a table.
func (c *Client) SessionStatus(ctx context.Context, storeID int64, tableNumber int) (*SessionStatusResponse, error) {
	path := fmt.Sprintf("/api/pos/stores/%d/table/%d/session-status", storeID, tableNumber)
	return getJSON[SessionStatusResponse](ctx, c, path)
}

// LockStatus fetches the advisory lock of a table.
func (c *Client) LockStatus(ctx context.Context, storeID int64, tableNumber int) (*LockStatusResponse, error) {
	path := fmt.Sprintf("/api/pos/stores/%d/table/%d/lock-status", storeID, tableNumber)
	return getJSON[LockStatusResponse](ctx, c, path)
}

func getJSON[T any](ctx context.Context, c *Client, path string) (*T, error) {
	tries, delay := c.MaxTries, c.Delay
	if tries == 0 {
		tries = DefaultMaxTries
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}

	op := func() (*T, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		resp, err := hc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 300 {
			se := &StatusError{StatusCode: resp.StatusCode}
			var env struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			}
			if json.Unmarshal(body, &env) == nil {
				se.Code, se.Message = env.Code, env.Message
			}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return nil, backoff.Permanent(se)
			}
			return nil, se
		}
		var out T
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("decode %s: %w", path, err))
		}
		return &out, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithMaxTries(tries),
	)
}
