package httpretry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"realitease/internal/logging"
	"realitease/internal/services"
)

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Code    int
	URL     string
	Body    string
	Latency time.Duration
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s returned %d (latency=%v)", e.URL, e.Code, e.Latency.Round(time.Millisecond))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Policy controls pacing and retries.
type Policy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// MinInterval is the minimum spacing between requests issued by one Client.
	MinInterval time.Duration
}

func (p Policy) normalized() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = DefaultInitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = DefaultMaxBackoff
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	return p
}

// Client issues paced, retried HTTP requests.
type Client struct {
	http   *http.Client
	policy Policy
	logger *slog.Logger
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error

	mu   sync.Mutex
	next time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSleep replaces the wait function, mainly for tests.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New builds a Client.
func New(policy Policy, opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{Timeout: 30 * time.Second},
		policy: policy.normalized(),
		logger: logging.NewNop(),
		now:    time.Now,
		sleep:  SleepWithContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestFunc builds a fresh request for each attempt.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Do sends the request built by build, retrying transient failures. The
// returned response has a 2xx status and must be closed by the caller. A 404
// yields an error wrapping services.ErrNotFound.
func (c *Client) Do(ctx context.Context, build RequestFunc) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if err := c.pace(ctx); err != nil {
			return nil, err
		}
		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		latency := c.now().Sub(start)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("execute %s (latency=%v): %w", redact(req), latency, err)
			if !IsRetriable(err) {
				return nil, services.Wrap(services.ErrExternalTool, "", "http", "request failed", lastErr)
			}
			if err := c.wait(ctx, attempt, 0, lastErr); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		statusErr := &StatusError{Code: resp.StatusCode, URL: redact(req), Body: strings.TrimSpace(string(body)), Latency: latency}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %w", services.ErrNotFound, statusErr)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, fmt.Errorf("%w: %w", services.ErrConfiguration, statusErr)
		case !RetriableStatus(resp.StatusCode):
			return nil, fmt.Errorf("%w: %w", services.ErrExternalTool, statusErr)
		}

		lastErr = statusErr
		hint, _ := RetryAfter(resp.Header.Get("Retry-After"), c.now())
		if err := c.wait(ctx, attempt, hint, lastErr); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: retries exhausted: %w", services.ErrTransient, lastErr)
}

// GetJSON issues build and decodes a successful response into dst.
func (c *Client) GetJSON(ctx context.Context, build RequestFunc, dst any) error {
	resp, err := c.Do(ctx, build)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode %s: %w", services.ErrExternalTool, resp.Request.URL.Path, err)
	}
	return nil
}

// GetBody issues build and returns the response body.
func (c *Client) GetBody(ctx context.Context, build RequestFunc) ([]byte, error) {
	resp, err := c.Do(ctx, build)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", services.ErrTransient, err)
	}
	return body, nil
}

func (c *Client) wait(ctx context.Context, attempt int, hint time.Duration, cause error) error {
	if attempt >= c.policy.MaxRetries {
		return nil
	}
	delay := Backoff(c.policy.InitialBackoff, c.policy.MaxBackoff, attempt)
	if hint > delay {
		delay = hint
	}
	c.logger.Debug("retrying request",
		logging.Int("attempt", attempt+1),
		logging.Duration("delay", delay),
		logging.Error(cause),
	)
	return c.sleep(ctx, delay)
}

func (c *Client) pace(ctx context.Context) error {
	if c.policy.MinInterval <= 0 {
		return nil
	}
	c.mu.Lock()
	now := c.now()
	at := c.next
	if at.Before(now) {
		at = now
	}
	c.next = at.Add(c.policy.MinInterval)
	c.mu.Unlock()
	return c.sleep(ctx, at.Sub(now))
}

func redact(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	u := *req.URL
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
