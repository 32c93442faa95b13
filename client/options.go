package client

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Option tweaks a Client during NewClient. Options may reject bad values.
type Option func(*Client) error

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.HTTPClient = hc
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		if strings.TrimSpace(ua) == "" {
			return fmt.Errorf("user agent must not be empty")
		}
		c.UserAgent = ua
		return nil
	}
}

// WithHTTPTimeout sets the per-request timeout on the underlying client.
// Apply after WithHTTPClient if both are used.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		c.HTTPClient.Timeout = d
		return nil
	}
}

// WithHeader adds a header to every request (e.g. auth tokens).
func WithHeader(key, value string) Option {
	return func(c *Client) error {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("header key must not be empty")
		}
		c.headers.Add(key, value)
		return nil
	}
}

// WithMaxRetries bounds retry attempts; 0 disables retrying.
func WithMaxRetries(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return fmt.Errorf("max retries must not be negative, got %d", n)
		}
		c.MaxRetries = n
		return nil
	}
}

// WithBackoff sets the base backoff between retries (jitter is added on
// top).
func WithBackoff(base time.Duration) Option {
	return func(c *Client) error {
		if base <= 0 {
			return fmt.Errorf("backoff must be positive, got %v", base)
		}
		c.baseBackoff = base
		return nil
	}
}
