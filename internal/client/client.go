// Package client implements the typed resource client for the Reading Notes
// service: books and notes CRUD, semantic note search, and cluster
// recomputation over JSON-per-HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/apperr"
)

// HeaderSource supplies auth headers for outgoing requests. It is consulted
// immediately before every request, never cached across calls, because the
// token may change between calls.
type HeaderSource interface {
	Headers() map[string]string
}

// Client issues typed requests against the remote service.
type Client struct {
	baseURL string
	auth    HeaderSource
	http    *http.Client
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New creates a client for the service at baseURL. auth may be nil for a
// client that never authenticates.
func New(baseURL string, auth HeaderSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do executes one request and returns the raw success body. Non-2xx
// responses and transport failures come back as *apperr.RequestError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.auth != nil {
		for k, v := range c.auth.Headers() {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.NewTransport(method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.NewTransport(method, path, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, apperr.NewHTTP(method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

// decode unmarshals a success body into out and checks the declared shape.
// Unknown extra fields are ignored; a missing required field is a decode
// failure, reported distinctly from HTTP-status failures.
func (c *Client) decode(method, path string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.NewDecode(method, path, err)
	}
	if err := validation.Validate(out); err != nil {
		return apperr.NewDecode(method, path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	data, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.decode(http.MethodGet, path, data, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	return c.decode(http.MethodPost, path, data, out)
}
