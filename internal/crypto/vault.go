package crypto

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/AlexZinkM/chewy-custody/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// KeySource looks up the wallet record holding a sealed key.
type KeySource interface {
	GetWallet(ctx context.Context, email string) (*model.WalletRecord, error)
}

// Vault is the only place raw private keys exist in memory, and only for the
// duration of one signature. Callers address keys by wallet id (the owner's
// email, or model.TreasuryID).
type Vault struct {
	sealer         *Sealer
	keys           KeySource
	log            logrus.FieldLogger
	treasurySealed string
	treasuryPub    solana.PublicKey
}

// NewVault seals the treasury key immediately and clears the caller's copy.
func NewVault(sealer *Sealer, keys KeySource, treasury solana.PrivateKey, log logrus.FieldLogger) (*Vault, error) {
	if len(treasury) != 64 {
		return nil, errors.New("invalid treasury private key length")
	}
	defer clear(treasury)

	sealed, err := sealer.Seal(model.TreasuryID, treasury)
	if err != nil {
		return nil, fmt.Errorf("failed to seal treasury key: %w", err)
	}

	return &Vault{
		sealer:         sealer,
		keys:           keys,
		log:            log,
		treasurySealed: sealed,
		treasuryPub:    treasury.PublicKey(),
	}, nil
}

// NewKey generates a fresh keypair for id and returns it sealed.
func (v *Vault) NewKey(id string) (*model.WalletKey, error) {
	priv, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	defer clear(priv)

	pub := priv.PublicKey()
	sealed, err := v.sealer.Seal(id, priv)
	if err != nil {
		return nil, fmt.Errorf("failed to seal private key: %w", err)
	}

	return &model.WalletKey{
		Address:          pub.String(),
		PublicKeyHex:     hex.EncodeToString(pub[:]),
		SealedPrivateKey: sealed,
	}, nil
}

// Address returns the public address for id.
func (v *Vault) Address(ctx context.Context, id string) (solana.PublicKey, error) {
	if id == model.TreasuryID {
		return v.treasuryPub, nil
	}
	rec, err := v.keys.GetWallet(ctx, id)
	if err != nil {
		return solana.PublicKey{}, err
	}
	pub, err := solana.PublicKeyFromBase58(rec.WalletAddress)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid stored address for %s: %w", id, err)
	}
	return pub, nil
}

// SealedSign signs payload with the key of wallet id. The key never leaves this method.
func (v *Vault) SealedSign(ctx context.Context, id string, payload []byte) (solana.Signature, error) {
	priv, expected, err := v.open(ctx, id)
	if err != nil {
		return solana.Signature{}, err
	}
	defer clear(priv)

	if !priv.PublicKey().Equals(expected) {
		return solana.Signature{}, fmt.Errorf("private key does not match address of %s", id)
	}

	sig, err := priv.Sign(payload)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign: %w", err)
	}
	return sig, nil
}

// Reseal converts a legacy plain-hex key of rec into its sealed form.
func (v *Vault) Reseal(rec *model.WalletRecord) (string, error) {
	priv, err := ParsePrivateKeyHex(rec.PrivateKey)
	if err != nil {
		return "", err
	}
	defer clear(priv)

	if priv.PublicKey().String() != rec.WalletAddress {
		return "", fmt.Errorf("private key does not match address of %s", rec.Email)
	}
	return v.sealer.Seal(rec.Email, priv)
}

func (v *Vault) open(ctx context.Context, id string) (solana.PrivateKey, solana.PublicKey, error) {
	if id == model.TreasuryID {
		raw, err := v.sealer.Open(model.TreasuryID, v.treasurySealed)
		if err != nil {
			return nil, solana.PublicKey{}, err
		}
		return solana.PrivateKey(raw), v.treasuryPub, nil
	}

	rec, err := v.keys.GetWallet(ctx, id)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	expected, err := solana.PublicKeyFromBase58(rec.WalletAddress)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("invalid stored address for %s: %w", id, err)
	}

	if rec.SealedPrivateKey != "" {
		raw, err := v.sealer.Open(id, rec.SealedPrivateKey)
		if err != nil {
			return nil, solana.PublicKey{}, err
		}
		return solana.PrivateKey(raw), expected, nil
	}

	if rec.PrivateKey != "" {
		v.log.WithField("email", id).Warn("signing with unsealed legacy key; run seal-keys")
		priv, err := ParsePrivateKeyHex(rec.PrivateKey)
		if err != nil {
			return nil, solana.PublicKey{}, err
		}
		return priv, expected, nil
	}

	return nil, solana.PublicKey{}, fmt.Errorf("no key material stored for %s", id)
}
