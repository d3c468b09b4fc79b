package signing

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sigV4TestInput() SigV4Input {
	return SigV4Input{
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		Region:    "us-east-1",
		Service:   "execute-api",
	}
}

func TestSignSigV4_SetsRequiredHeaders(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://sellingpartnerapi-na.amazon.com/orders/v0/orders?MarketplaceIds=ATVPDKIKX0DER", nil)
	require.NoError(t, err)

	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	require.NoError(t, SignSigV4(req, sigV4TestInput(), now))

	assert.Equal(t, "20260310T143000Z", req.Header.Get("x-amz-date"))

	auth := req.Header.Get("Authorization")
	assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 "))
	assert.Contains(t, auth, "Credential=AKIDEXAMPLE/20260310/us-east-1/execute-api/aws4_request")
	assert.Contains(t, auth, "SignedHeaders=host;x-amz-date")
	assert.Contains(t, auth, "Signature=")
}

func TestSignSigV4_IsDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	sign := func() string {
		req, err := http.NewRequest(http.MethodGet, "https://example.amazonaws.com/path?b=2&a=1", nil)
		require.NoError(t, err)
		require.NoError(t, SignSigV4(req, sigV4TestInput(), now))
		return req.Header.Get("Authorization")
	}

	assert.Equal(t, sign(), sign())
}

func TestSignSigV4_SignatureChangesWithInput(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	sign := func(url string, in SigV4Input) string {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		require.NoError(t, err)
		require.NoError(t, SignSigV4(req, in, now))
		return req.Header.Get("Authorization")
	}

	base := sign("https://example.amazonaws.com/path", sigV4TestInput())

	otherPath := sign("https://example.amazonaws.com/other", sigV4TestInput())
	assert.NotEqual(t, base, otherPath)

	otherKey := sigV4TestInput()
	otherKey.SecretKey = "differentsecret"
	assert.NotEqual(t, base, sign("https://example.amazonaws.com/path", otherKey))
}

func TestSignSigV4_IncludesSessionToken(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://example.amazonaws.com/", nil)
	require.NoError(t, err)

	in := sigV4TestInput()
	in.SessionToken = "session-token-value"
	require.NoError(t, SignSigV4(req, in, time.Now()))

	assert.Equal(t, "session-token-value", req.Header.Get("x-amz-security-token"))
	assert.Contains(t, req.Header.Get("Authorization"), "x-amz-security-token")
}

func TestSignSigV4_UsesProvidedPayloadHash(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	sign := func(payloadHash string) string {
		req, err := http.NewRequest(http.MethodPost, "https://example.amazonaws.com/", nil)
		require.NoError(t, err)
		in := sigV4TestInput()
		in.PayloadHash = payloadHash
		require.NoError(t, SignSigV4(req, in, now))
		return req.Header.Get("Authorization")
	}

	withBody := sign(HashPayload([]byte(`{"feed":"data"}`)))
	emptyBody := sign("")
	assert.NotEqual(t, withBody, emptyBody)
}

func TestSignSigV4_ValidatesInput(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://example.amazonaws.com/", nil)
	require.NoError(t, err)

	t.Run("missing keys", func(t *testing.T) {
		err := SignSigV4(req, SigV4Input{Region: "us-east-1", Service: "execute-api"}, time.Now())
		assert.ErrorIs(t, err, ErrMissingSigningKeys)
	})

	t.Run("missing scope", func(t *testing.T) {
		err := SignSigV4(req, SigV4Input{AccessKey: "a", SecretKey: "b"}, time.Now())
		assert.ErrorIs(t, err, ErrMissingSigningScope)
	})
}

func TestHashPayload(t *testing.T) {
	// SHA-256 of the empty string is a fixed constant.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		HashPayload(nil))
	assert.NotEqual(t, HashPayload([]byte("a")), HashPayload([]byte("b")))
}
