package crypto

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/AlexZinkM/chewy-custody/internal/common"

	"github.com/gagliardetto/solana-go"
)

// ErrSealMismatch is returned when a sealed key does not open under this sealer and id.
var ErrSealMismatch = errors.New("sealed key does not open: wrong passphrase or owner")

// Open decrypts a value produced by Seal for the same id.
// Caller should zero the returned slice after use.
func (s *Sealer) Open(id, sealed string) ([]byte, error) {
	parts := strings.Split(sealed, ".")
	if len(parts) != 3 || parts[0] != sealVersion {
		return nil, errors.New("unrecognized sealed key format")
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	if len(nonce) != nonceLen {
		return nil, errors.New("invalid nonce length")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(id))
	if err != nil {
		return nil, ErrSealMismatch
	}
	return plaintext, nil
}

// ParsePrivateKeyHex reads legacy plain-hex key material: a 32-byte seed or a
// full 64-byte key, with an optional "0x" or "ed25519-priv-0x" prefix.
func ParsePrivateKeyHex(s string) (solana.PrivateKey, error) {
	raw, err := hex.DecodeString(common.StripHexPrefix(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key hex: %w", err)
	}
	defer clear(raw)

	switch len(raw) {
	case ed25519.SeedSize:
		return solana.PrivateKey(ed25519.NewKeyFromSeed(raw)), nil
	case ed25519.PrivateKeySize:
		out := make([]byte, len(raw))
		copy(out, raw)
		return solana.PrivateKey(out), nil
	default:
		return nil, fmt.Errorf("invalid private key length %d", len(raw))
	}
}
