package solana

import (
	"context"
	"testing"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBalance_NoTokenAccountIsZero(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	key, err := h.vault.NewKey("a@x.com")
	require.NoError(t, err)
	require.NoError(t, h.store.CreateWallet(ctx, &model.WalletRecord{
		Email:         "a@x.com",
		WalletAddress: key.Address,
		State:         model.StateGasFunded,
	}))

	resp, err := h.balance.GetBalance(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, key.Address, resp.WalletAddress)
	assert.Zero(t, resp.Balance)
	assert.Equal(t, "0.00000000", resp.Display)
}

func TestGetBalance_MissingWallet(t *testing.T) {
	h := newHarness(t)
	_, err := h.balance.GetBalance(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGetBalance_ReconcilesOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.store.CreateUser(ctx, &model.Identity{
		Email:       "a@x.com",
		UserName:    "alice",
		CreatedDate: time.Now(),
		Status:      model.IdentityConfirmed,
	}))
	resp, err := h.provisioner.ProvisionWallet(ctx, "a@x.com")
	require.NoError(t, err)
	h.ledger.set(func(f *fakeLedger) {
		f.balances[solana.MustPublicKeyFromBase58(resp.WalletAddress)] = 123_456_789
	})
	writes := h.store.WriteCount("users")

	bal, err := h.balance.GetBalance(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(123_456_789), bal.Balance)
	assert.Equal(t, "1.23456789", bal.Display)

	user, err := h.store.GetUser(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(123_456_789), user.RewardPoints)
	assert.Equal(t, writes+1, h.store.WriteCount("users"))

	_, err = h.balance.GetBalance(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, writes+1, h.store.WriteCount("users"), "unchanged balance writes nothing")
}

func TestGetBalance_WithoutProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp, err := h.provisioner.ProvisionWallet(ctx, "a@x.com")
	require.NoError(t, err)
	h.ledger.set(func(f *fakeLedger) {
		f.balances[solana.MustPublicKeyFromBase58(resp.WalletAddress)] = 10
	})

	bal, err := h.balance.GetBalance(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), bal.Balance)
	assert.Zero(t, h.store.WriteCount("users"))
}
