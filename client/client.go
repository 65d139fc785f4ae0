// Package client provides the shared HTTP client every ecosystem registry
// uses to talk to its upstream API: retries with exponential backoff,
// rate limiting, and a uniform error taxonomy over non-2xx responses.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenk/backoff"
)

// ErrNotFound is returned when a request resolves to a 404.
var ErrNotFound = errors.New("not found")

// HTTPError represents a non-2xx HTTP response that isn't otherwise
// classified as ErrNotFound or a rate limit.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// IsNotFound reports whether the response was a 404.
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err (as returned by any Client method)
// represents a 404 response, regardless of which concrete error type
// carried it.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// NotFoundError wraps ErrNotFound with the request that produced it.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.URL)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// RateLimitError is returned when the upstream rate limits a request after
// all retries are exhausted.
type RateLimitError struct {
	URL        string
	RetryAfter int // seconds, 0 if not provided by the response
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %s (retry after %ds)", e.URL, e.RetryAfter)
}

// RateLimiter paces outgoing requests. Wait blocks until a request may
// proceed, or returns ctx's error if ctx is cancelled first.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Client is an HTTP client with retry logic for registry APIs.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	maxRetries  int
	rateLimiter RateLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client's request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxRetries sets the maximum number of retries on 429/5xx responses.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRateLimiter attaches a RateLimiter consulted before every request.
func WithRateLimiter(rl RateLimiter) Option {
	return func(c *Client) { c.rateLimiter = rl }
}

// NewClient creates a client with sensible defaults, overridden by opts.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "registries",
		maxRetries: 5,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultClient returns a client with sensible defaults:
//   - 30s timeout
//   - 5 retries with exponential backoff
//   - retry on 429 and 5xx responses
func DefaultClient() *Client {
	return NewClient()
}

// WithUserAgent returns a copy of c with the given User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	clone := *c
	clone.userAgent = ua
	return &clone
}

// GetJSON fetches url and decodes the JSON response body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v interface{}) error {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

// GetText fetches url and returns the response body as a string.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetBody fetches url and returns the raw response body, retrying on rate
// limit and server errors with exponential backoff.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	op := func() error {
		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		b, err := c.doGet(ctx, url)
		if err != nil {
			var rle *RateLimitError
			var he *HTTPError
			switch {
			case errors.As(err, &rle):
				return err // retryable: upstream asked us to back off
			case errors.As(err, &he) && he.StatusCode >= 500:
				return err // retryable: transient server error
			default:
				return backoff.Permanent(err)
			}
		}
		body = b
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 30 * time.Second
	retrying := backoff.WithMaxRetries(bo, uint64(c.maxRetries))

	if err := backoff.Retry(op, retrying); err != nil {
		return nil, err
	}
	return body, nil
}

// Head issues a HEAD request and returns the declared content length (-1
// if unknown) and content type.
func (c *Client) Head(ctx context.Context, url string) (size int64, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("head request: %w", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, "", &NotFoundError{URL: url}
	}
	if resp.StatusCode != http.StatusOK {
		return 0, "", &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	size = -1
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			size = n
		}
	}
	return size, resp.Header.Get("Content-Type"), nil
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return io.ReadAll(resp.Body)

	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{URL: url}

	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := 0
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if n, err := strconv.Atoi(ra); err == nil {
				retryAfter = n
			}
		}
		return nil, &RateLimitError{URL: url, RetryAfter: retryAfter}

	case resp.StatusCode >= 500:
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url, Body: string(body)}
	}
}
