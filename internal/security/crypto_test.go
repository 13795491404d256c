package security_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/parley/internal/security"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestEncryptor_SealOpen(t *testing.T) {
	encryptor, err := security.NewEncryptor(testKey())
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"api key", "sk-proj-abc123"},
		{"empty", ""},
		{"unicode", "ключ-🔑"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := encryptor.SealString(tt.plaintext, "user-1", "openai")
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, sealed)

			opened, err := encryptor.OpenString(sealed, "user-1", "openai")
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, opened)
		})
	}
}

func TestEncryptor_ScopeIsBound(t *testing.T) {
	encryptor, err := security.NewEncryptor(testKey())
	require.NoError(t, err)

	sealed, err := encryptor.SealString("sk-secret", "user-1", "openai")
	require.NoError(t, err)

	_, err = encryptor.OpenString(sealed, "user-2", "openai")
	assert.ErrorIs(t, err, security.ErrDecrypt)
	_, err = encryptor.OpenString(sealed, "user-1", "anthropic")
	assert.ErrorIs(t, err, security.ErrDecrypt)
	_, err = encryptor.OpenString(sealed)
	assert.ErrorIs(t, err, security.ErrDecrypt)
}

func TestEncryptor_InvalidKey(t *testing.T) {
	_, err := security.NewEncryptor([]byte("short"))
	assert.Error(t, err)
}

func TestEncryptor_TamperedCiphertext(t *testing.T) {
	encryptor, err := security.NewEncryptor(testKey())
	require.NoError(t, err)

	sealed, err := encryptor.Seal([]byte("sk-secret"), nil)
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = encryptor.Open(sealed, nil)
	assert.ErrorIs(t, err, security.ErrDecrypt)

	_, err = encryptor.Open([]byte{1, 2}, nil)
	assert.ErrorIs(t, err, security.ErrDecrypt)

	_, err = encryptor.OpenString("not base64!")
	assert.ErrorIs(t, err, security.ErrDecrypt)
}

func TestNewEncryptorFromSecret(t *testing.T) {
	fromBase64, err := security.NewEncryptorFromSecret(base64.StdEncoding.EncodeToString(testKey()))
	require.NoError(t, err)
	direct, err := security.NewEncryptor(testKey())
	require.NoError(t, err)

	sealed, err := fromBase64.SealString("sk-user")
	require.NoError(t, err)
	opened, err := direct.OpenString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk-user", opened)

	a, err := security.NewEncryptorFromSecret("correct horse battery staple")
	require.NoError(t, err)
	b, err := security.NewEncryptorFromSecret("correct horse battery staple")
	require.NoError(t, err)
	sealed, err = a.SealString("sk-user")
	require.NoError(t, err)
	opened, err = b.OpenString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk-user", opened)

	_, err = security.NewEncryptorFromSecret("")
	assert.Error(t, err)
}
