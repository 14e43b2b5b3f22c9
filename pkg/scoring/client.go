package scoring

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

// maxErrorBody caps how much of an error response body is kept as the
// ServiceError reason.
const maxErrorBody = 512

// Client is the gateway to the external scoring service.
//
// It owns serialization and HTTP-failure classification. It never
// retries: a failure is surfaced once to the caller. The default
// underlying http.Client carries no timeout — a hung request hangs the
// calling flow — use WithTimeout to bound calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds the total duration of each call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a scoring client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Evaluate scores a single transaction.
func (c *Client) Evaluate(ctx context.Context, tx Transaction) (*Result, error) {
	var result Result
	if err := c.post(ctx, "/evaluate", tx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EvaluateBatch scores an ordered list of transactions in one call.
// The response is positionally aligned with the request list. The call
// is all-or-nothing at the transport level: no partial results.
func (c *Client) EvaluateBatch(ctx context.Context, txs []Transaction) ([]Result, error) {
	results := make([]Result, 0, len(txs))
	if err := c.post(ctx, "/batch-evaluate", txs, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// post sends body as JSON and decodes a 2xx response into out.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServiceError{
			Status: resp.StatusCode,
			Reason: errorReason(resp),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorReason extracts a human-readable reason from a failed response.
// Prefers the body text, falls back to the standard status text.
func errorReason(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		if text := strings.TrimSpace(string(body)); text != "" {
			return text
		}
	}
	return http.StatusText(resp.StatusCode)
}
