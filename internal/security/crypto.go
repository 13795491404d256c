package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const kdfInfo = "parley provider credentials"

// ErrDecrypt is returned for ciphertext that is malformed, tampered with or
// sealed under a different scope
var ErrDecrypt = errors.New("failed to decrypt")

// Encryptor seals user-supplied provider credentials with AES-GCM. Each
// value is bound to a scope, such as the owning user and provider, so a
// ciphertext copied into another record does not open.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor creates an encryptor for a 16, 24 or 32 byte AES key
func NewEncryptor(key []byte) (*Encryptor, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("invalid key length: %d (must be 16, 24, or 32)", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Encryptor{aead: aead}, nil
}

// NewEncryptorFromSecret accepts either a base64-encoded AES key or a
// passphrase, from which a 256-bit key is derived with HKDF-SHA256
func NewEncryptorFromSecret(secret string) (*Encryptor, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is empty")
	}
	if key, err := base64.StdEncoding.DecodeString(secret); err == nil {
		if enc, err := NewEncryptor(key); err == nil {
			return enc, nil
		}
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(kdfInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return NewEncryptor(key)
}

// GenerateKey returns a random AES-256 key
func GenerateKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext bound to scope. The nonce is prefixed.
func (e *Encryptor) Seal(plaintext, scope []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(plaintext)+e.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, scope), nil
}

// Open reverses Seal for the same scope
func (e *Encryptor) Open(sealed, scope []byte) ([]byte, error) {
	n := e.aead.NonceSize()
	if len(sealed) < n+e.aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}
	plaintext, err := e.aead.Open(nil, sealed[:n], sealed[n:], scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plaintext, nil
}

// SealString seals plaintext and returns it base64 encoded. The scope parts
// are joined into the associated data.
func (e *Encryptor) SealString(plaintext string, scope ...string) (string, error) {
	sealed, err := e.Seal([]byte(plaintext), scopeBytes(scope))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// OpenString opens a value produced by SealString with the same scope
func (e *Encryptor) OpenString(encoded string, scope ...string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	plaintext, err := e.Open(sealed, scopeBytes(scope))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func scopeBytes(parts []string) []byte {
	if len(parts) == 0 {
		return nil
	}
	return []byte(strings.Join(parts, "\x00"))
}
