package main

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/AlexZinkM/chewy-custody/internal/crypto"
	"github.com/AlexZinkM/chewy-custody/internal/logging"
	"github.com/AlexZinkM/chewy-custody/internal/model"
	"github.com/AlexZinkM/chewy-custody/internal/store/memory"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacyWallet(t *testing.T, st *memory.Store, email string, mismatch bool) solana.PrivateKey {
	t.Helper()
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	addr := priv.PublicKey().String()
	if mismatch {
		addr = solana.NewWallet().PublicKey().String()
	}
	require.NoError(t, st.CreateWallet(context.Background(), &model.WalletRecord{
		Email:         email,
		WalletAddress: addr,
		PrivateKey:    "0x" + hex.EncodeToString(priv),
		State:         model.StateTokenFunded,
	}))
	return priv
}

func newVault(t *testing.T, st *memory.Store) *crypto.Vault {
	t.Helper()
	sealer, err := crypto.NewSealer([]byte("passphrase"), []byte("saltsaltsalt"), crypto.Params{N: 1 << 10, R: 8, P: 1})
	require.NoError(t, err)
	treasury, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	v, err := crypto.NewVault(sealer, st, treasury, logging.Discard())
	require.NoError(t, err)
	return v
}

func TestSealLegacyKeys(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	priv := legacyWallet(t, st, "a@x.com", false)
	legacyWallet(t, st, "bad@x.com", true)
	vault := newVault(t, st)

	sealed, failed, err := sealLegacyKeys(ctx, st, vault, true, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 1, sealed)
	assert.Equal(t, 1, failed)
	rec, err := st.GetWallet(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.PrivateKey, "dry run writes nothing")

	sealed, failed, err = sealLegacyKeys(ctx, st, vault, false, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 1, sealed)
	assert.Equal(t, 1, failed, "a key that does not match its address is left alone")

	rec, err = st.GetWallet(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, rec.PrivateKey)
	assert.NotEmpty(t, rec.SealedPrivateKey)

	// the sealed key signs for the same address
	msg := []byte("payload")
	sig, err := vault.SealedSign(ctx, "a@x.com", msg)
	require.NoError(t, err)
	assert.True(t, sig.Verify(priv.PublicKey(), msg))

	sealed, _, err = sealLegacyKeys(ctx, st, vault, false, logging.Discard())
	require.NoError(t, err)
	assert.Zero(t, sealed, "already sealed wallets are skipped")
}
