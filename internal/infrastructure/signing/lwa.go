package signing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/channelsync/backend/internal/infrastructure/httpclient"
)

// LWA (Login with Amazon) token exchange errors
var (
	// ErrLWAConfigIncomplete indicates missing refresh token or client credentials
	ErrLWAConfigIncomplete = errors.New("signing: lwa refresh token, client id and client secret are required")
	// ErrLWAExchangeFailed indicates the token endpoint rejected the exchange
	ErrLWAExchangeFailed = errors.New("signing: lwa token exchange failed")
)

// DefaultLWATokenURL is Amazon's OAuth token endpoint.
const DefaultLWATokenURL = "https://api.amazon.com/auth/o2/token"

// expirySlack renews tokens slightly before their reported expiry.
const expirySlack = 60 * time.Second

// TokenCache shares exchanged access tokens across invocations so each
// worker run does not repeat the refresh-token exchange.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// LWAConfig holds the refresh-token grant inputs.
type LWAConfig struct {
	RefreshToken string
	ClientID     string
	ClientSecret string
	// TokenURL defaults to DefaultLWATokenURL
	TokenURL string
}

// Validate checks required fields and fills the token URL default.
func (c *LWAConfig) Validate() error {
	if c.RefreshToken == "" || c.ClientID == "" || c.ClientSecret == "" {
		return ErrLWAConfigIncomplete
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultLWATokenURL
	}
	return nil
}

// LWATokenSource exchanges a refresh token for access tokens and renews
// them transparently when expired.
type LWATokenSource struct {
	config LWAConfig
	client *httpclient.Client
	cache  TokenCache
}

// NewLWATokenSource creates a token source. cache may be nil, in which
// case every call performs the exchange.
func NewLWATokenSource(config LWAConfig, client *httpclient.Client, cache TokenCache) (*LWATokenSource, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &LWATokenSource{config: config, client: client, cache: cache}, nil
}

// AccessToken returns a valid access token, exchanging the refresh token
// when no cached token remains.
func (s *LWATokenSource) AccessToken(ctx context.Context) (string, error) {
	cacheKey := s.cacheKey()
	if s.cache != nil {
		if token, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
			return token, nil
		}
	}

	token, expiresIn, err := s.exchange(ctx)
	if err != nil {
		return "", err
	}

	if s.cache != nil && expiresIn > expirySlack {
		// Cache failures degrade to a fresh exchange next call
		_ = s.cache.Set(ctx, cacheKey, token, expiresIn-expirySlack)
	}
	return token, nil
}

func (s *LWATokenSource) exchange(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", s.config.RefreshToken)
	form.Set("client_id", s.config.ClientID)
	form.Set("client_secret", s.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrLWAExchangeFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrLWAExchangeFailed, err)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrLWAExchangeFailed, err)
	}
	if payload.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: empty access token in response", ErrLWAExchangeFailed)
	}
	return payload.AccessToken, time.Duration(payload.ExpiresIn) * time.Second, nil
}

// cacheKey namespaces tokens per client and refresh token identity.
func (s *LWATokenSource) cacheKey() string {
	suffix := s.config.RefreshToken
	if len(suffix) > 12 {
		suffix = suffix[len(suffix)-12:]
	}
	return "lwa:token:" + s.config.ClientID + ":" + suffix
}
