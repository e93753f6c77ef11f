// Package relay queries relay-station billing and call-log endpoints and
// normalizes their inconsistent responses into stable result records.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/j-veylop/relaywatch-tui/internal/logger"
)

const (
	// DefaultTimeout bounds every upstream call.
	DefaultTimeout = 10 * time.Second

	// DefaultSubscriptionPath is the OpenAI-compatible subscription endpoint.
	DefaultSubscriptionPath = "/v1/dashboard/billing/subscription"
	// DefaultUsagePath is the OpenAI-compatible usage endpoint.
	DefaultUsagePath = "/v1/dashboard/billing/usage"
	// TokenUsagePath is the vendor token-balance endpoint. It is not configurable.
	TokenUsagePath = "/api/usage/token/"
	// DefaultLogsPath is the call-log listing endpoint.
	DefaultLogsPath = "/api/log/token"
)

// maxBodyBytes caps how much of a response body is read.
var maxBodyBytes int64 = 32 << 20

// ErrResponseTooLarge is returned when a body exceeds maxBodyBytes.
var ErrResponseTooLarge = errors.New("response too large")

// Credentials identifies an account on a relay station.
type Credentials struct {
	APIKey  string
	BaseURL string
}

func (c Credentials) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

// Client issues upstream requests. It holds no state between calls.
type Client struct {
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. A zero Timeout is
// replaced by DefaultTimeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		clone := *hc
		if clone.Timeout == 0 {
			clone.Timeout = DefaultTimeout
		}
		c.httpClient = &clone
	}
}

// WithClock sets the time source used for the usage window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a new relay client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultClient = NewClient()

// DefaultClient returns a shared client with the default timeout.
func DefaultClient() *Client {
	return defaultClient
}

func (c *Client) http() *http.Client {
	if c.httpClient == nil {
		return defaultClient.httpClient
	}
	return c.httpClient
}

func (c *Client) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL        string
	Reason     string
	StatusCode int
}

func (e *StatusError) Error() string {
	kind := "Client Error"
	if e.StatusCode >= 500 {
		kind = "Server Error"
	}
	return fmt.Sprintf("%d %s: %s for url: %s", e.StatusCode, kind, e.Reason, e.URL)
}

// DecodeError reports an upstream body that is not the expected JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid JSON response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// response is a fully read upstream reply.
type response struct {
	URL        string
	Status     string
	Body       []byte
	StatusCode int
}

func (r *response) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *response) statusError() *StatusError {
	reason := http.StatusText(r.StatusCode)
	if _, text, found := strings.Cut(r.Status, " "); found && text != "" {
		reason = text
	}
	return &StatusError{URL: r.URL, Reason: reason, StatusCode: r.StatusCode}
}

// newGet builds a GET request, appending query to any query already in rawURL.
func newGet(rawURL string, header http.Header, query string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if query != "" {
		if req.URL.RawQuery != "" {
			req.URL.RawQuery += "&" + query
		} else {
			req.URL.RawQuery = query
		}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// do sends req and reads the whole body.
func (c *Client) do(req *http.Request) (*response, error) {
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > maxBodyBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, maxBodyBytes)
	}

	return &response{
		URL:        req.URL.String(),
		Status:     resp.Status,
		Body:       body,
		StatusCode: resp.StatusCode,
	}, nil
}

func bearerHeader(apiKey string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+apiKey)
	h.Set("Content-Type", "application/json")
	return h
}

// Redact hides every occurrence of secret in s, including its query-escaped
// form, so URLs can be logged.
func Redact(s, secret string) string {
	if secret == "" {
		return s
	}
	s = strings.ReplaceAll(s, secret, "***")
	if escaped := url.QueryEscape(secret); escaped != secret {
		s = strings.ReplaceAll(s, escaped, "***")
	}
	return s
}
