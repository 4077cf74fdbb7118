// Package api is the client for the platform's backend REST API. Every call
// carries the caller's context and the visitor's backend session cookie.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

type ctxKey struct{}

// WithSessionCookie stores the visitor's backend session cookie value so the
// client forwards it on every call made with the returned context.
func WithSessionCookie(ctx context.Context, value string) context.Context {
	return context.WithValue(ctx, ctxKey{}, value)
}

// SessionCookie returns the cookie value stored by WithSessionCookie.
func SessionCookie(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

// Client talks JSON to the backend API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cookieName string
}

// Options configure a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	CookieName string
	// Transport overrides the base round tripper; it is still wrapped with
	// OpenTelemetry instrumentation.
	Transport http.RoundTripper
}

// NewClient builds a client whose transport is instrumented with otelhttp.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		cookieName: opts.CookieName,
	}
}

// CookieName is the name of the backend session cookie forwarded by the client.
func (c *Client) CookieName() string { return c.cookieName }

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid := SessionCookie(ctx); sid != "" && c.cookieName != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: sid})
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		slog.WarnContext(ctx, "Backend request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "Backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, pathOnly(path), data)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", ErrUnavailable, method, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func pathOnly(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		return p[:i]
	}
	return p
}

// Ping checks the backend answers a cheap authenticated-or-not endpoint.
// Any HTTP response counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	err := c.Get(ctx, "/settings", nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < 500 {
		return nil
	}
	return err
}
