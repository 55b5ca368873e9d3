// Package crypto protects secrets at rest (the stored GitHub token) with
// AES-256-GCM.
//
// An encrypted secret is three standard base64 parts joined by ".":
// nonce, authentication tag and ciphertext.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

const (
	KeySize   = 32
	nonceSize = 12
	tagSize   = 16
	separator = "."
)

var (
	ErrKeyNotConfigured = errors.New("APP_ENCRYPTION_KEY is not configured")
	ErrInvalidKeyLength = errors.New("APP_ENCRYPTION_KEY must be a base64-encoded 32-byte key")
	ErrInvalidPayload   = errors.New("invalid encrypted payload")
)

// strict rejects non-canonical encodings so that every altered character
// changes the decoded bytes.
var b64 = base64.StdEncoding.Strict()

// ParseKey decodes a base64 key and checks it is exactly 32 bytes.
func ParseKey(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, ErrKeyNotConfigured
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil || len(key) != KeySize {
		return nil, ErrInvalidKeyLength
	}
	return key, nil
}

// GenerateKey returns a fresh random key encoded the way ParseKey expects.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with a fresh random nonce.
func Encrypt(plaintext string, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		b64.EncodeToString(nonce),
		b64.EncodeToString(tag),
		b64.EncodeToString(ciphertext),
	}, separator), nil
}

// Decrypt opens a payload produced by Encrypt. Any malformed part or a tag
// mismatch is an error; no partial plaintext is ever returned.
func Decrypt(payload string, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	parts := strings.Split(payload, separator)
	if len(parts) != 3 {
		return "", ErrInvalidPayload
	}

	nonce, err := b64.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return "", ErrInvalidPayload
	}
	tag, err := b64.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", ErrInvalidPayload
	}
	ciphertext, err := b64.DecodeString(parts[2])
	if err != nil {
		return "", ErrInvalidPayload
	}

	plaintext, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return string(plaintext), nil
}

// SecretBox holds the process-wide key. The key is parsed on first use and a
// configuration error is returned by every call after that.
type SecretBox struct {
	encodedKey string

	once sync.Once
	key  []byte
	err  error
}

func NewSecretBox(encodedKey string) *SecretBox {
	return &SecretBox{encodedKey: encodedKey}
}

func (b *SecretBox) loadKey() ([]byte, error) {
	b.once.Do(func() {
		b.key, b.err = ParseKey(b.encodedKey)
	})
	return b.key, b.err
}

func (b *SecretBox) EncryptSecret(plaintext string) (string, error) {
	key, err := b.loadKey()
	if err != nil {
		return "", err
	}
	return Encrypt(plaintext, key)
}

func (b *SecretBox) DecryptSecret(payload string) (string, error) {
	key, err := b.loadKey()
	if err != nil {
		return "", err
	}
	return Decrypt(payload, key)
}
