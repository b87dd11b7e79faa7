package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "01234567890123456789012345678901" // 32 bytes for AES-256

func TestNewEncryptor_ValidKey(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)
	require.NotNil(t, enc)
}

func TestNewEncryptor_InvalidKeyLength(t *testing.T) {
	_, err := NewEncryptor("too-short")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewEncryptor("")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestEncryptDecrypt_Roundtrip(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)

	plaintext := "https://bridge.example.com/access/ABC123"
	ciphertext, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncrypt_Nondeterministic(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)

	a, err := enc.Encrypt("same input")
	require.NoError(t, err)
	b, err := enc.Encrypt("same input")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "each encryption should use a fresh nonce")
}

func TestEncryptDecrypt_EmptyString(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", ciphertext)

	plaintext, err := enc.Decrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", plaintext)
}

func TestDecrypt_GarbageInput(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	require.NoError(t, err)

	_, err = enc.Decrypt("not-base64!!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = enc.Decrypt("c2hvcnQ=") // valid base64, too short for a nonce
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestDecrypt_WrongKey(t *testing.T) {
	enc1, err := NewEncryptor(testKey)
	require.NoError(t, err)
	enc2, err := NewEncryptor("abcdefghijklmnopqrstuvwxyz012345")
	require.NoError(t, err)

	ciphertext, err := enc1.Encrypt("secret")
	require.NoError(t, err)

	_, err = enc2.Decrypt(ciphertext)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}
