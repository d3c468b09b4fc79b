package signing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channelsync/backend/internal/infrastructure/httpclient"
)

// mapTokenCache is a minimal in-process TokenCache for tests.
type mapTokenCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapTokenCache() *mapTokenCache {
	return &mapTokenCache{data: make(map[string]string)}
}

func (c *mapTokenCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.data[key]
	return value, ok, nil
}

func (c *mapTokenCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func lwaTestConfig(tokenURL string) LWAConfig {
	return LWAConfig{
		RefreshToken: "Atzr|refresh-token",
		ClientID:     "amzn1.application-oa2-client.test",
		ClientSecret: "client-secret",
		TokenURL:     tokenURL,
	}
}

func TestNewLWATokenSource_ValidatesConfig(t *testing.T) {
	client := httpclient.New(httpclient.Options{})

	_, err := NewLWATokenSource(LWAConfig{}, client, nil)
	assert.ErrorIs(t, err, ErrLWAConfigIncomplete)

	_, err = NewLWATokenSource(LWAConfig{RefreshToken: "r", ClientID: "c"}, client, nil)
	assert.ErrorIs(t, err, ErrLWAConfigIncomplete)
}

func TestLWATokenSource_ExchangesRefreshToken(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "Atzr|refresh-token", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "amzn1.application-oa2-client.test", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"Atza|access-token","token_type":"bearer","expires_in":3600}`))
	}))
	defer server.Close()

	source, err := NewLWATokenSource(lwaTestConfig(server.URL), httpclient.New(httpclient.Options{}), nil)
	require.NoError(t, err)

	token, err := source.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Atza|access-token", token)
	assert.EqualValues(t, 1, calls.Load())
}

func TestLWATokenSource_ReusesCachedToken(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"access_token":"Atza|access-token","expires_in":3600}`))
	}))
	defer server.Close()

	source, err := NewLWATokenSource(lwaTestConfig(server.URL), httpclient.New(httpclient.Options{}), newMapTokenCache())
	require.NoError(t, err)

	ctx := context.Background()
	first, err := source.AccessToken(ctx)
	require.NoError(t, err)
	second, err := source.AccessToken(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, calls.Load(), "second call should hit the cache")
}

func TestLWATokenSource_SkipsCachingShortLivedTokens(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"access_token":"Atza|short","expires_in":30}`))
	}))
	defer server.Close()

	source, err := NewLWATokenSource(lwaTestConfig(server.URL), httpclient.New(httpclient.Options{}), newMapTokenCache())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = source.AccessToken(ctx)
	require.NoError(t, err)
	_, err = source.AccessToken(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 2, calls.Load(), "tokens expiring within the slack window are not cached")
}

func TestLWATokenSource_ExchangeFailures(t *testing.T) {
	t.Run("endpoint rejects the grant", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		}))
		defer server.Close()

		source, err := NewLWATokenSource(lwaTestConfig(server.URL), httpclient.New(httpclient.Options{}), nil)
		require.NoError(t, err)

		_, err = source.AccessToken(context.Background())
		assert.ErrorIs(t, err, ErrLWAExchangeFailed)
	})

	t.Run("empty access token in response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"expires_in":3600}`))
		}))
		defer server.Close()

		source, err := NewLWATokenSource(lwaTestConfig(server.URL), httpclient.New(httpclient.Options{}), nil)
		require.NoError(t, err)

		_, err = source.AccessToken(context.Background())
		assert.ErrorIs(t, err, ErrLWAExchangeFailed)
	})
}
