package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// VerifyShopifyWebhook checks the X-Shopify-Hmac-SHA256 header against the
// HMAC-SHA256 of the raw request body with the shared secret. Comparison
// is constant-time. Any mismatch or decode failure returns false; this
// function never panics into the caller.
func VerifyShopifyWebhook(body []byte, signatureHeader, secret string) bool {
	if secret == "" || signatureHeader == "" {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(signatureHeader)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// VerifyBodyHMAC checks a hex-encoded HMAC-SHA256 signature of the raw
// body, used by the scheduler callback verification. Constant-time, never
// panics.
func VerifyBodyHMAC(body []byte, signatureHex, secret string) bool {
	if secret == "" || signatureHex == "" {
		return false
	}
	expected, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}
