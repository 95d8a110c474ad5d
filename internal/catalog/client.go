package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrBadRequest      = errors.New("upstream rejected request")
	ErrUpstream        = errors.New("upstream request failed")
	ErrEmptyCategory   = errors.New("category cannot be empty")
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidDiscount = errors.New("discount percentage must be between 1 and 100")
)

type tokenKey struct{}

// WithToken carries the caller's bearer token so protected upstream calls
// are made on the user's behalf. The gateway never mints tokens itself.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// Client consumes the backend REST API that owns the actual business logic:
// products, brands, ratings, reviews, carts, orders, users, clicks.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a Client rooted at the upstream API base URL
// (e.g. http://host:port/api).
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// do issues one upstream request. A non-nil in is sent as JSON; a non-nil
// out receives the decoded response body. HTTP errors map onto the package
// sentinel errors so call sites can branch without string matching.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := tokenFrom(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUpstream, method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s %s", ErrBadRequest, method, path)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s returned status %d", ErrUpstream, method, path, resp.StatusCode)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
