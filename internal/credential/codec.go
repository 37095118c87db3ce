// Package credential encrypts third-party account credentials before they are
// persisted and decrypts them on read.
//
// Envelopes are three colon separated hex fields: iv:tag:ciphertext, produced
// by AES-256-GCM with a 12 byte nonce and a 16 byte tag.
package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16

	separator = ":"
)

var (
	ErrMissingKey   = errors.New("encryption key is not set")
	ErrMalformedKey = errors.New("encryption key must be 64 hex characters")
)

// Codec seals and opens credential envelopes. A nil *Codec is usable: it
// refuses to encrypt and passes every value through Decrypt unchanged.
type Codec struct {
	aead   cipher.AEAD
	logger *zap.SugaredLogger
}

// New builds a Codec from a hex encoded 32 byte key.
func New(keyHex string, logger *zap.SugaredLogger) (*Codec, error) {
	if keyHex == "" {
		return nil, ErrMissingKey
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != KeySize {
		return nil, ErrMalformedKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Codec{aead: aead, logger: logger}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if c == nil || c.aead == nil {
		return "", ErrMissingKey
	}

	iv := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	// Seal appends the tag to the ciphertext; the envelope stores it separately.
	sealed := c.aead.Seal(nil, iv, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	return strings.Join([]string{
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ct),
	}, separator), nil
}

// Decrypt opens an envelope. Values that are not envelopes (legacy rows) and
// envelopes that fail to decode or authenticate are returned unchanged.
func (c *Codec) Decrypt(envelope string) string {
	if c == nil || c.aead == nil {
		return envelope
	}
	parts := strings.Split(envelope, separator)
	if len(parts) != 3 {
		return envelope
	}

	plaintext, err := c.open(parts[0], parts[1], parts[2])
	if err != nil {
		c.logger.Warnw("credential decryption failed", "err", err)
		return envelope
	}
	return plaintext
}

func (c *Codec) open(ivHex, tagHex, ctHex string) (string, error) {
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("decode iv: %w", err)
	}
	if len(iv) != NonceSize {
		return "", fmt.Errorf("iv is %d bytes, want %d", len(iv), NonceSize)
	}
	tag, err := hex.DecodeString(tagHex)
	if err != nil {
		return "", fmt.Errorf("decode tag: %w", err)
	}
	if len(tag) != TagSize {
		return "", fmt.Errorf("tag is %d bytes, want %d", len(tag), TagSize)
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	plaintext, err := c.aead.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	return string(plaintext), nil
}
