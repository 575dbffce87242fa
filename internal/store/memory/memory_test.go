package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWallet_OnlyOneWinner(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.CreateWallet(ctx, &model.WalletRecord{
				Email:         "a@x.com",
				WalletAddress: string(rune('A' + i)),
				State:         model.StateCreated,
			})
			if err == nil {
				wins.Add(1)
				return
			}
			assert.ErrorIs(t, err, model.ErrConflict)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	wallets, err := s.ListWallets(ctx, model.WalletFilter{})
	require.NoError(t, err)
	assert.Len(t, wallets, 1)
}

func TestAdvanceWalletState_CompareAndSwap(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateWallet(ctx, &model.WalletRecord{Email: "a@x.com", State: model.StateCreated}))

	require.NoError(t, s.AdvanceWalletState(ctx, "a@x.com", model.StateCreated, model.StateGasFunded))
	err := s.AdvanceWalletState(ctx, "a@x.com", model.StateCreated, model.StateGasFunded)
	assert.ErrorIs(t, err, model.ErrConflict)

	err = s.AdvanceWalletState(ctx, "nobody@x.com", model.StateCreated, model.StateGasFunded)
	assert.ErrorIs(t, err, model.ErrNotFound)

	w, err := s.GetWallet(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.StateGasFunded, w.State)
}

func TestSetPendingTx_ClearedOnAdvance(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateWallet(ctx, &model.WalletRecord{Email: "a@x.com", State: model.StateCreated}))

	require.NoError(t, s.SetPendingTx(ctx, "a@x.com", model.StateCreated, "sig1"))
	assert.ErrorIs(t, s.SetPendingTx(ctx, "a@x.com", model.StateGasFunded, "sig2"), model.ErrConflict)
	assert.ErrorIs(t, s.SetPendingTx(ctx, "nobody@x.com", model.StateCreated, "sig3"), model.ErrNotFound)

	w, err := s.GetWallet(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "sig1", w.PendingTx)

	require.NoError(t, s.AdvanceWalletState(ctx, "a@x.com", model.StateCreated, model.StateGasFunded))
	w, err = s.GetWallet(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, w.PendingTx)
}

func TestListWallets_Filter(t *testing.T) {
	s := New()
	ctx := context.Background()
	old := time.Now().Add(-time.Hour)
	require.NoError(t, s.CreateWallet(ctx, &model.WalletRecord{Email: "done@x.com", State: model.StateTokenFunded, UpdatedAt: old}))
	require.NoError(t, s.CreateWallet(ctx, &model.WalletRecord{Email: "stuck@x.com", State: model.StateGasFunded, UpdatedAt: old}))
	require.NoError(t, s.CreateWallet(ctx, &model.WalletRecord{Email: "fresh@x.com", State: model.StateCreated, UpdatedAt: time.Now()}))
	require.NoError(t, s.CreateWallet(ctx, &model.WalletRecord{Email: "legacy@x.com", State: model.StateTokenFunded, PrivateKey: "00"}))

	got, err := s.ListWallets(ctx, model.WalletFilter{
		ExcludeState:  model.StateTokenFunded,
		UpdatedBefore: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "stuck@x.com", got[0].Email)

	got, err = s.ListWallets(ctx, model.WalletFilter{LegacyKeyOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "legacy@x.com", got[0].Email)
}

func TestUsersAndReceipts(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &model.Identity{Email: "a@x.com", Status: model.IdentityProvisional}))
	assert.ErrorIs(t, s.CreateUser(ctx, &model.Identity{Email: "a@x.com"}), model.ErrConflict)
	require.NoError(t, s.UpdateUserStatus(ctx, "a@x.com", model.IdentityRegistered))
	require.NoError(t, s.UpdateRewardPoints(ctx, "a@x.com", 42))

	u, err := s.GetUser(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.IdentityRegistered, u.Status)
	assert.Equal(t, uint64(42), u.RewardPoints)

	_, err = s.GetUser(ctx, "b@y.com")
	assert.ErrorIs(t, err, model.ErrNotFound)

	r := &model.TransferReceipt{TransactionID: "sig1", FromEmail: "a@x.com", ToEmail: "b@y.com", Amount: 5}
	require.NoError(t, s.PutReceipt(ctx, r))
	assert.ErrorIs(t, s.PutReceipt(ctx, r), model.ErrConflict)

	list, err := s.ListReceipts(ctx, "b@y.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, s.WriteCount("wallet_transactions"))
}
