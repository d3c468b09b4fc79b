package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Package errors
var (
	// ErrMissingSigningKeys indicates access or secret key was not provided
	ErrMissingSigningKeys = errors.New("signing: access key and secret key are required")
	// ErrMissingSigningScope indicates region or service was not provided
	ErrMissingSigningScope = errors.New("signing: region and service are required")
)

const (
	sigV4Algorithm   = "AWS4-HMAC-SHA256"
	amzDateFormat    = "20060102T150405Z"
	shortDateFormat  = "20060102"
	emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// SigV4Input carries everything needed to sign one request.
type SigV4Input struct {
	AccessKey string
	SecretKey string
	// SessionToken adds x-amz-security-token when non-empty
	SessionToken string
	Region       string
	Service      string
	// PayloadHash is the hex SHA-256 of the request body; the hash of the
	// empty string is used when omitted
	PayloadHash string
}

// SignSigV4 computes the AWS Signature Version 4 for the request and sets
// the Authorization, x-amz-date and optional x-amz-security-token headers
// in place. Headers already on the request with an x-amz- prefix are
// included in the signature.
func SignSigV4(req *http.Request, in SigV4Input, now time.Time) error {
	if in.AccessKey == "" || in.SecretKey == "" {
		return ErrMissingSigningKeys
	}
	if in.Region == "" || in.Service == "" {
		return ErrMissingSigningScope
	}

	payloadHash := in.PayloadHash
	if payloadHash == "" {
		payloadHash = emptyPayloadHash
	}

	amzDate := now.UTC().Format(amzDateFormat)
	shortDate := now.UTC().Format(shortDateFormat)

	req.Header.Set("x-amz-date", amzDate)
	if in.SessionToken != "" {
		req.Header.Set("x-amz-security-token", in.SessionToken)
	}

	canonicalHeaders, signedHeaders := canonicalizeHeaders(req)
	canonicalRequest := strings.Join([]string{
		req.Method,
		canonicalURI(req.URL),
		canonicalQuery(req.URL),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := strings.Join([]string{shortDate, in.Region, in.Service, "aws4_request"}, "/")
	stringToSign := strings.Join([]string{
		sigV4Algorithm,
		amzDate,
		scope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	// Signing key derivation: secret -> date -> region -> service -> aws4_request
	kDate := hmacSHA256([]byte("AWS4"+in.SecretKey), shortDate)
	kRegion := hmacSHA256(kDate, in.Region)
	kService := hmacSHA256(kRegion, in.Service)
	kSigning := hmacSHA256(kService, "aws4_request")
	signature := hex.EncodeToString(hmacSHA256(kSigning, stringToSign))

	req.Header.Set("Authorization", sigV4Algorithm+
		" Credential="+in.AccessKey+"/"+scope+
		", SignedHeaders="+signedHeaders+
		", Signature="+signature)
	return nil
}

// HashPayload returns the hex SHA-256 of a request body for SigV4Input.
func HashPayload(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// canonicalizeHeaders builds the canonical header block from host and all
// x-amz-* headers, lowercased and sorted.
func canonicalizeHeaders(req *http.Request) (canonical, signed string) {
	headers := map[string]string{
		"host": req.Host,
	}
	if headers["host"] == "" {
		headers["host"] = req.URL.Host
	}
	for name, values := range req.Header {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, "x-amz-") {
			headers[lower] = strings.TrimSpace(strings.Join(values, ","))
		}
	}

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString(":")
		sb.WriteString(headers[name])
		sb.WriteString("\n")
	}
	return sb.String(), strings.Join(names, ";")
}

func canonicalURI(u *url.URL) string {
	if u.Path == "" {
		return "/"
	}
	return u.EscapedPath()
}

// canonicalQuery sorts query parameters and encodes them per RFC 3986.
func canonicalQuery(u *url.URL) string {
	query := u.Query()
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		values := query[key]
		sort.Strings(values)
		for _, value := range values {
			parts = append(parts, escapeRFC3986(key)+"="+escapeRFC3986(value))
		}
	}
	return strings.Join(parts, "&")
}

func escapeRFC3986(s string) string {
	escaped := url.QueryEscape(s)
	return strings.ReplaceAll(escaped, "+", "%20")
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
