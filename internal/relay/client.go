// Package relay forwards chat prompts to the hosted assistant function and
// keeps the local conversation transcript.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout = 60 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	userAgent      = "pibudget/1.0"

	maxErrorSnippet = 200
)

var (
	// ErrRateLimited indicates the endpoint answered 429.
	ErrRateLimited = errors.New("relay: rate limited (429)")
	// ErrQuotaExhausted indicates the endpoint answered 402.
	ErrQuotaExhausted = errors.New("relay: credits exhausted (402)")
	// ErrNoEndpoint indicates no function URL is configured.
	ErrNoEndpoint = errors.New("relay: no endpoint configured")
)

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("relay: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("relay: unexpected status %d: %s", e.Code, e.Body)
}

// Invoker sends one prompt to the external assistant and returns its reply.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

type invokeRequest struct {
	Prompt string `json:"prompt"`
}

type invokeResponse struct {
	Response string `json:"response"`
}

// Client calls a hosted function endpoint over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
}

// NewClient creates a client for the function at endpoint. apiKey may be empty.
// A non-positive timeout selects the default.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		apiKey:   strings.TrimSpace(apiKey),
		timeout:  timeout,
		http:     &http.Client{},
	}
}

// Invoke posts {"prompt": ...} and returns the "response" field of the reply.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	if c.endpoint == "" {
		return "", ErrNoEndpoint
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(invokeRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("relay: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("relay: creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("apikey", c.apiKey)
	}

	//nolint:gosec // endpoint comes from local config
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("relay: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("relay: reading response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	case http.StatusPaymentRequired:
		return "", ErrQuotaExhausted
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, Body: snippet(body)}
	}

	var out invokeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("relay: parsing response: %w", err)
	}
	return out.Response, nil
}

// snippet trims an error body to something fit for a log line.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet] + "..."
	}
	return s
}
