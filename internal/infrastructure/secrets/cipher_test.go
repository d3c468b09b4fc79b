package secrets

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCipher_RejectsEmptySecret(t *testing.T) {
	_, err := NewCipher("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher("operator-secret")
	require.NoError(t, err)

	plaintext := `{"shop_domain":"acme.myshopify.com","access_token":"shpat_abc123"}`

	encrypted, err := c.EncryptText(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, encrypted)

	decrypted, err := c.DecryptText(encrypted)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestCipher_FreshIVPerEncryption(t *testing.T) {
	c, err := NewCipher("operator-secret")
	require.NoError(t, err)

	first, err := c.EncryptText("same input")
	require.NoError(t, err)
	second, err := c.EncryptText("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCipher_OutputLayout(t *testing.T) {
	c, err := NewCipher("operator-secret")
	require.NoError(t, err)

	encrypted, err := c.EncryptText("payload")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)

	// 12-byte IV, 16-byte tag, then ciphertext of the same length as the plaintext.
	assert.Equal(t, ivSize+tagSize+len("payload"), len(raw))
}

func TestCipher_FailsClosedOnTampering(t *testing.T) {
	c, err := NewCipher("operator-secret")
	require.NoError(t, err)

	encrypted, err := c.EncryptText("credentials")
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)

	flipByte := func(index int) string {
		tampered := append([]byte(nil), raw...)
		tampered[index] ^= 0x01
		return base64.StdEncoding.EncodeToString(tampered)
	}

	t.Run("flipped iv byte", func(t *testing.T) {
		_, err := c.DecryptText(flipByte(0))
		assert.ErrorIs(t, err, ErrInvalidCiphertext)
	})

	t.Run("flipped tag byte", func(t *testing.T) {
		_, err := c.DecryptText(flipByte(ivSize))
		assert.ErrorIs(t, err, ErrInvalidCiphertext)
	})

	t.Run("flipped ciphertext byte", func(t *testing.T) {
		_, err := c.DecryptText(flipByte(ivSize + tagSize))
		assert.ErrorIs(t, err, ErrInvalidCiphertext)
	})
}

func TestCipher_RejectsMalformedInput(t *testing.T) {
	c, err := NewCipher("operator-secret")
	require.NoError(t, err)

	t.Run("not base64", func(t *testing.T) {
		_, err := c.DecryptText("%%%not-base64%%%")
		assert.ErrorIs(t, err, ErrInvalidCiphertext)
	})

	t.Run("too short for iv and tag", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString(make([]byte, ivSize+tagSize-1))
		_, err := c.DecryptText(short)
		assert.ErrorIs(t, err, ErrInvalidCiphertext)
	})

	t.Run("empty string", func(t *testing.T) {
		_, err := c.DecryptText("")
		assert.ErrorIs(t, err, ErrInvalidCiphertext)
	})
}

func TestCipher_WrongKeyCannotDecrypt(t *testing.T) {
	right, err := NewCipher("right-secret")
	require.NoError(t, err)
	wrong, err := NewCipher("wrong-secret")
	require.NoError(t, err)

	encrypted, err := right.EncryptText("credentials")
	require.NoError(t, err)

	_, err = wrong.DecryptText(encrypted)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}
