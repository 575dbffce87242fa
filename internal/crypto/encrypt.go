package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	sealVersion  = "v1"
	scryptKeyLen = 32
	nonceLen     = 12
)

// Params are the scrypt cost parameters for deriving the key-encryption key.
type Params struct {
	N int
	R int
	P int
}

// DefaultParams: N=2^18 (~256MB RAM, 0.5-2s). Derivation runs once per process, not per signature.
var DefaultParams = Params{N: 1 << 18, R: 8, P: 1}

// Sealer encrypts private keys at rest with AES-256-GCM under a key derived from a passphrase.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the key-encryption key from passphrase and salt.
// passphrase must be []byte for security (caller should zero it after use)
func NewSealer(passphrase, salt []byte, p Params) (*Sealer, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}
	if len(salt) < 8 {
		return nil, errors.New("salt must be at least 8 bytes")
	}

	key, err := scrypt.Key(passphrase, salt, p.N, p.R, p.P, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext bound to id (the wallet owner), so a sealed key
// copied onto another record will not open.
func (s *Sealer) Seal(id string, plaintext []byte) (string, error) {
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := s.aead.Seal(nil, nonce, plaintext, []byte(id))

	return sealVersion + "." +
		base64.StdEncoding.EncodeToString(nonce) + "." +
		base64.StdEncoding.EncodeToString(ciphertext), nil
}
