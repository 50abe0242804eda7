// Package gateway is a client for the two Telegram Bot API operations the
// bot needs: long-polling for updates and sending text messages.
//
// The bot token is passed on every call and never retained, logged, or
// included in an error message.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	// DefaultPollTimeout is the long-poll wait, in seconds, used when the
	// caller does not pass WithPollTimeout.
	DefaultPollTimeout = 20

	defaultSendTimeout = 10 * time.Second
	defaultPollMargin  = 10 * time.Second

	redacted = "<token>"
)

// Client issues Bot API requests. It holds no per-bot state and is safe for
// concurrent use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	sendTimeout time.Duration
	pollMargin  time.Duration
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another Bot API server (tests, local
// Bot API deployments).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the underlying HTTP client. Its own Timeout should
// be zero or larger than any per-call deadline.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSendTimeout sets the deadline for a single sendMessage call.
func WithSendTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.sendTimeout = d
		}
	}
}

// WithPollMargin sets the network allowance added on top of the long-poll
// wait when computing the getUpdates deadline.
func WithPollMargin(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.pollMargin = d
		}
	}
}

// WithLogger sets the logger used for per-call debug records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client with the given options applied over the defaults.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{},
		sendTimeout: defaultSendTimeout,
		pollMargin:  defaultPollMargin,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call performs exactly one POST of body to method and returns the raw JSON
// response with its HTTP status. Every failure is a *Error.
func (c *Client) call(ctx context.Context, method Method, token string, body any, timeout time.Duration) (json.RawMessage, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, &Error{Method: method, Message: fmt.Sprintf("%s failed to encode request: %v", method, err)}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.baseURL + "/bot" + token + "/" + string(method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, connectError(method, redact(err.Error(), token))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("gateway: request failed", "method", method, "elapsed", time.Since(start), "err", redact(err.Error(), token))
		return nil, 0, transportError(ctx, method, token, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, transportError(ctx, method, token, err)
	}

	c.logger.Debug("gateway: response", "method", method, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, statusError(method, resp.StatusCode, string(data))
	}
	if !json.Valid(data) {
		return nil, resp.StatusCode, &Error{
			Method:     method,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s returned malformed JSON: %s", method, truncate(string(data), 200)),
		}
	}
	return data, resp.StatusCode, nil
}

// transportError classifies a failure that happened before a complete
// response was read.
func transportError(ctx context.Context, method Method, token string, err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return timeoutError(method)
	case errors.Is(err, context.Canceled):
		return canceledError(method)
	}

	// url.Error repeats the endpoint, which embeds the token.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return connectError(method, redact(err.Error(), token))
}

func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, redacted)
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
