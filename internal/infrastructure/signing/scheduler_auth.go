package signing

import (
	"crypto/subtle"
	"strings"
)

// SchedulerAuthorizer guards the worker trigger endpoint called by the
// external cron/scheduler. Three independent checks, each enforced only
// when its configuration is set:
//   - shared token header, compared constant-time
//   - caller IP allowlist with exact and trailing-wildcard entries
//   - HMAC-SHA256 signature over the raw request body
//
// All configured checks must pass.
type SchedulerAuthorizer struct {
	// Token is the shared secret expected in the auth header
	Token string
	// AllowedIPs holds exact IPs or prefix entries ending in '*'
	AllowedIPs []string
	// HMACSecret signs the request body when set
	HMACSecret string
}

// Enabled reports whether any check is configured. An authorizer with no
// configuration rejects nothing.
func (a *SchedulerAuthorizer) Enabled() bool {
	return a.Token != "" || len(a.AllowedIPs) > 0 || a.HMACSecret != ""
}

// Authorize runs every configured check against the caller's IP, presented
// token, raw body and body signature. Returns true only when all
// configured checks pass.
func (a *SchedulerAuthorizer) Authorize(clientIP, token string, body []byte, bodySignature string) bool {
	if a.Token != "" {
		if subtle.ConstantTimeCompare([]byte(a.Token), []byte(token)) != 1 {
			return false
		}
	}
	if len(a.AllowedIPs) > 0 {
		if !a.ipAllowed(clientIP) {
			return false
		}
	}
	if a.HMACSecret != "" {
		if !VerifyBodyHMAC(body, bodySignature, a.HMACSecret) {
			return false
		}
	}
	return true
}

func (a *SchedulerAuthorizer) ipAllowed(clientIP string) bool {
	if clientIP == "" {
		return false
	}
	for _, entry := range a.AllowedIPs {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.HasSuffix(entry, "*") {
			if strings.HasPrefix(clientIP, strings.TrimSuffix(entry, "*")) {
				return true
			}
			continue
		}
		if entry == clientIP {
			return true
		}
	}
	return false
}
