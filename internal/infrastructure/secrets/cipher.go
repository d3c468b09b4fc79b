package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// Package errors
var (
	// ErrEmptySecret indicates no encryption secret was configured
	ErrEmptySecret = errors.New("secrets: encryption secret must not be empty")
	// ErrInvalidCiphertext indicates tampered, truncated or corrupt ciphertext
	ErrInvalidCiphertext = errors.New("secrets: invalid ciphertext")
)

const (
	ivSize  = 12 // 96-bit IV per GCM recommendation
	tagSize = 16 // 128-bit authentication tag
)

// Cipher encrypts and decrypts credential material with AES-256-GCM. The
// key is the SHA-256 of an operator-supplied secret. Output layout is
// base64(iv || tag || ciphertext); decryption fails closed on any tag
// mismatch so tampered ciphertext never decrypts to garbage.
type Cipher struct {
	key [32]byte
}

// NewCipher derives the AES key from the operator secret.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Cipher{key: sha256.Sum256([]byte(secret))}, nil
}

// EncryptText seals plaintext with a fresh random IV.
func (c *Cipher) EncryptText(plaintext string) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}

	// Seal appends ciphertext||tag; reorder to iv||tag||ciphertext
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, ivSize+tagSize+len(ciphertext))
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ciphertext...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptText opens a sealed value produced by EncryptText.
func (c *Cipher) DecryptText(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	if len(raw) < ivSize+tagSize {
		return "", ErrInvalidCiphertext
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	iv := raw[:ivSize]
	tag := raw[ivSize : ivSize+tagSize]
	ciphertext := raw[ivSize+tagSize:]

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}

func (c *Cipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return gcm, nil
}
