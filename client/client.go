// Package client is the transport layer. Every failure it hands back —
// request building, connectivity, TLS, non-2xx status, JSON parsing — is a
// *reqerror.Error, so callers get one shape to display and inspect.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SocratisM/siesta/entity"
	"github.com/SocratisM/siesta/reqerror"
	"github.com/SocratisM/siesta/utils"
)

const (
	defaultUserAgent   = "siesta/0.1"
	defaultHTTPTimeout = 30 * time.Second
	defaultMaxRetries  = 2
	defaultBaseBackoff = 300 * time.Millisecond

	// cap on how much of a response body is kept
	maxBodyBytes = 1 << 20
)

type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	MaxRetries int

	baseBackoff time.Duration
	headers     http.Header // sent on every request
}

// NewClient validates baseURL (absolute, trailing slash enforced) and applies
// the options in order.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	c := &Client{
		BaseURL:     baseURL,
		UserAgent:   defaultUserAgent,
		HTTPClient:  &http.Client{Timeout: defaultHTTPTimeout},
		MaxRetries:  defaultMaxRetries,
		baseBackoff: defaultBaseBackoff,
		headers:     make(http.Header),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Get fetches path, retrying retryable failures.
func (c *Client) Get(ctx context.Context, path string) (*entity.Entity, error) {
	return c.doWithRetry(ctx, http.MethodGet, path, nil)
}

// GetJSON fetches path and decodes the JSON payload into v.
func (c *Client) GetJSON(ctx context.Context, path string, v any) error {
	ent, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if ent == nil {
		return reqerror.NewWithDebug("Empty response", "expected a JSON body, server sent none", nil)
	}
	if err := ent.JSON(v); err != nil {
		return reqerror.New("Cannot parse server response", err, ent)
	}
	return nil
}

// Post sends payload as JSON to path.
func (c *Client) Post(ctx context.Context, path string, payload any) (*entity.Entity, error) {
	return c.send(ctx, http.MethodPost, path, payload)
}

// Put sends payload as JSON to path.
func (c *Client) Put(ctx context.Context, path string, payload any) (*entity.Entity, error) {
	return c.send(ctx, http.MethodPut, path, payload)
}

// Delete issues a DELETE to path.
func (c *Client) Delete(ctx context.Context, path string) (*entity.Entity, error) {
	return c.doWithRetry(ctx, http.MethodDelete, path, nil)
}

func (c *Client) send(ctx context.Context, method, path string, payload any) (*entity.Entity, error) {
	var raw []byte
	if payload != nil {
		buf, err := utils.EncodeJSONBody(payload)
		if err != nil {
			return nil, reqerror.New("Cannot encode request body", err, nil)
		}
		raw = buf.Bytes()
	}
	return c.doWithRetry(ctx, method, path, raw)
}

// doWithRetry repeats do for retryable failures, rebuilding the body reader
// from raw on each attempt.
func (c *Client) doWithRetry(ctx context.Context, method, path string, raw []byte) (*entity.Entity, error) {
	for attempt := 0; ; attempt++ {
		var body io.Reader
		if raw != nil {
			body = bytes.NewReader(raw)
		}
		ent, err := c.do(ctx, method, path, body)
		if err == nil || attempt >= c.MaxRetries || !reqerror.IsRetryable(err) {
			return ent, err
		}
		select {
		case <-ctx.Done():
			return nil, reqerror.FromResponse(nil, nil, ctx.Err(), "")
		case <-time.After(reqerror.JitteredBackoff(c.baseBackoff << attempt)):
		}
	}
}

// do sends one request. The body read is capped at maxBodyBytes so a
// misbehaving server cannot balloon memory.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*entity.Entity, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+strings.TrimPrefix(path, "/"), body)
	if err != nil {
		return nil, reqerror.New("Cannot build request", fmt.Errorf("create request: %w", err), nil)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// connectivity, TLS, timeout: no response to report, the cause
		// supplies the message
		return nil, reqerror.FromResponse(nil, nil, err, "")
	}
	defer resp.Body.Close()

	slurp, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, reqerror.FromResponse(resp, nil, err, "")
	}

	// Non-2xx: status plus whatever body came with it; the message derives
	// from the status line.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, reqerror.FromResponse(resp, slurp, nil, "")
	}

	return entity.FromResponse(resp, slurp), nil
}
