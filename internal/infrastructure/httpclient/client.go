package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Package errors
var (
	// ErrRetriesExhausted wraps the last observed failure after all attempts
	ErrRetriesExhausted = errors.New("httpclient: retries exhausted")
	// ErrBodyNotReplayable indicates a request body without GetBody cannot be retried
	ErrBodyNotReplayable = errors.New("httpclient: request body is not replayable")
)

const (
	// DefaultRetries is the number of retries after the first attempt
	DefaultRetries = 3
	// DefaultBackoff is the base delay before exponential growth
	DefaultBackoff = 300 * time.Millisecond
	// DefaultAttemptTimeout bounds a single attempt when the caller's
	// context carries no earlier deadline
	DefaultAttemptTimeout = 30 * time.Second
	// maxResponseBytes caps response bodies read into memory
	maxResponseBytes = 10 << 20
)

// StatusError is a terminal HTTP failure carrying the final status and a
// snippet of the response body.
type StatusError struct {
	Status int
	Body   string
	// RetryAfter is the raw Retry-After header value when present
	RetryAfter string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// Retriable reports whether the status warrants another attempt.
func (e *StatusError) Retriable() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// Clock abstracts time for tests. Sleep must return early with the
// context error when ctx is cancelled.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options configures retry behavior.
type Options struct {
	// Retries is the number of retries after the first attempt
	Retries int
	// Backoff is the base delay, doubled each attempt
	Backoff time.Duration
	// AttemptTimeout bounds each individual attempt
	AttemptTimeout time.Duration
}

// DefaultOptions returns the standard retry policy.
func DefaultOptions() Options {
	return Options{
		Retries:        DefaultRetries,
		Backoff:        DefaultBackoff,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// Response is a fully drained HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client wraps outbound HTTP calls with bounded retry, exponential backoff
// with jitter, and Retry-After honoring. It is the single place retry
// logic lives; adapters delegate here instead of implementing their own.
type Client struct {
	httpClient *http.Client
	opts       Options
	clock      Clock
	jitter     func() float64
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock injects a clock, used by tests to observe waits.
func WithClock(clock Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithJitter injects the jitter source, used by tests for determinism.
func WithJitter(jitter func() float64) Option {
	return func(c *Client) { c.jitter = jitter }
}

// New creates a Client with the given retry options.
func New(opts Options, options ...Option) *Client {
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	c := &Client{
		httpClient: &http.Client{},
		opts:       opts,
		clock:      realClock{},
		jitter: func() float64 {
			// uniform in [0.75, 1.25)
			return 0.75 + rand.Float64()*0.5
		},
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Do executes the request, retrying on 5xx, 429 and transport failures.
// A 429 (or 503) carrying Retry-After sleeps exactly that long for the
// next attempt instead of the exponential schedule. Non-retriable 4xx
// fails immediately. Request bodies must be replayable via GetBody.
func (c *Client) Do(ctx context.Context, req *http.Request) (*Response, error) {
	if req.Body != nil && req.GetBody == nil {
		return nil, ErrBodyNotReplayable
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		if attempt > 0 {
			if err := c.waitBeforeRetry(ctx, attempt, lastErr); err != nil {
				return nil, err
			}
		}

		resp, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retriable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.logger.Debug("request attempt failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return nil, fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

// attempt runs one request/response cycle with the per-attempt deadline.
func (c *Client) attempt(ctx context.Context, req *http.Request) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.AttemptTimeout)
	defer cancel()

	attemptReq := req.Clone(attemptCtx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewinding request body: %w", err)
		}
		attemptReq.Body = body
	}

	httpResp, err := c.httpClient.Do(attemptReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return nil, &StatusError{
			Status:     httpResp.StatusCode,
			Body:       truncate(string(body), 512),
			RetryAfter: httpResp.Header.Get("Retry-After"),
		}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

// waitBeforeRetry sleeps per the retry schedule. attempt is 1-based here:
// the wait before attempt N uses exponent N-1.
func (c *Client) waitBeforeRetry(ctx context.Context, attempt int, lastErr error) error {
	if retryAfter, ok := retryAfterDelay(lastErr, c.clock.Now()); ok {
		return c.clock.Sleep(ctx, retryAfter)
	}
	delay := time.Duration(float64(c.opts.Backoff) * float64(int64(1)<<uint(attempt-1)) * c.jitter())
	return c.clock.Sleep(ctx, delay)
}

// retryAfterDelay extracts a Retry-After wait from the last failure.
// Supports delta-seconds and HTTP-date forms.
func retryAfterDelay(err error, now time.Time) (time.Duration, bool) {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	if statusErr.RetryAfter == "" {
		return 0, false
	}
	if secs, parseErr := strconv.Atoi(statusErr.RetryAfter); parseErr == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if at, parseErr := http.ParseTime(statusErr.RetryAfter); parseErr == nil {
		if d := at.Sub(now); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
