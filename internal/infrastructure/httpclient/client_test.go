package httpclient

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock records sleeps instead of waiting.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestClient(opts Options, clock *fakeClock) *Client {
	return New(opts,
		WithClock(clock),
		WithJitter(func() float64 { return 1.0 }),
	)
}

func newGetRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func TestClient_Do_SucceedsFirstAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Probe", "ok")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	clock := newFakeClock()
	client := newTestClient(Options{Retries: 3, Backoff: 300 * time.Millisecond}, clock)

	resp, err := client.Do(context.Background(), newGetRequest(t, server.URL))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, "ok", resp.Header.Get("X-Probe"))
	assert.Empty(t, clock.sleeps)
}

func TestClient_Do_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer server.Close()

	clock := newFakeClock()
	client := newTestClient(Options{Retries: 3, Backoff: 300 * time.Millisecond}, clock)

	resp, err := client.Do(context.Background(), newGetRequest(t, server.URL))
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(resp.Body))
	assert.EqualValues(t, 3, calls.Load())

	// Exponential schedule with unit jitter: base, then doubled.
	require.Len(t, clock.sleeps, 2)
	assert.Equal(t, 300*time.Millisecond, clock.sleeps[0])
	assert.Equal(t, 600*time.Millisecond, clock.sleeps[1])
}

func TestClient_Do_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	clock := newFakeClock()
	client := newTestClient(Options{Retries: 2, Backoff: 100 * time.Millisecond}, clock)

	_, err := client.Do(context.Background(), newGetRequest(t, server.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Status)

	// Retries=2 means three attempts total.
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_Do_FailsFastOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad token"))
	}))
	defer server.Close()

	clock := newFakeClock()
	client := newTestClient(Options{Retries: 3, Backoff: 300 * time.Millisecond}, clock)

	_, err := client.Do(context.Background(), newGetRequest(t, server.URL))
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
	assert.Contains(t, statusErr.Body, "bad token")

	assert.EqualValues(t, 1, calls.Load())
	assert.Empty(t, clock.sleeps)
}

func TestClient_Do_HonorsRetryAfterSeconds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	clock := newFakeClock()
	client := newTestClient(Options{Retries: 3, Backoff: 300 * time.Millisecond}, clock)

	_, err := client.Do(context.Background(), newGetRequest(t, server.URL))
	require.NoError(t, err)

	// Retry-After replaces the exponential delay exactly, no jitter.
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 7*time.Second, clock.sleeps[0])
}

func TestClient_Do_HonorsRetryAfterHTTPDate(t *testing.T) {
	clock := newFakeClock()
	retryAt := clock.Now().Add(30 * time.Second)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", retryAt.Format(http.TimeFormat))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(Options{Retries: 3, Backoff: 300 * time.Millisecond}, clock)

	_, err := client.Do(context.Background(), newGetRequest(t, server.URL))
	require.NoError(t, err)

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 30*time.Second, clock.sleeps[0])
}

func TestClient_Do_AppliesJitterToBackoff(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	clock := newFakeClock()
	client := New(Options{Retries: 1, Backoff: 1 * time.Second},
		WithClock(clock),
		WithJitter(func() float64 { return 0.75 }),
	)

	_, err := client.Do(context.Background(), newGetRequest(t, server.URL))
	require.NoError(t, err)
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 750*time.Millisecond, clock.sleeps[0])
}

func TestClient_Do_ReplaysRequestBody(t *testing.T) {
	var bodies []string
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		bodies = append(bodies, buf.String())
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	clock := newFakeClock()
	client := newTestClient(Options{Retries: 1, Backoff: time.Millisecond}, clock)

	req, err := http.NewRequest(http.MethodPost, server.URL, strings.NewReader("payload"))
	require.NoError(t, err)

	_, err = client.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"payload", "payload"}, bodies)
}

func TestClient_Do_RejectsNonReplayableBody(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(Options{Retries: 1, Backoff: time.Millisecond}, clock)

	req, err := http.NewRequest(http.MethodPost, "http://example.invalid", strings.NewReader("x"))
	require.NoError(t, err)
	req.GetBody = nil

	_, err = client.Do(context.Background(), req)
	assert.ErrorIs(t, err, ErrBodyNotReplayable)
}

func TestClient_Do_StopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clock := newFakeClock()
	client := newTestClient(Options{Retries: 3, Backoff: 300 * time.Millisecond}, clock)

	_, err := client.Do(ctx, newGetRequest(t, server.URL))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
