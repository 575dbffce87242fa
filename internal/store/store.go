// Package store is typed access to the users, wallet_details and
// wallet_transactions tables. Every backend implements create operations as
// insert-if-absent and reports an existing row as model.ErrConflict.
package store

import (
	"context"

	"github.com/AlexZinkM/chewy-custody/internal/model"
)

// Store is the record store used by the engines.
type Store interface {
	GetUser(ctx context.Context, email string) (*model.Identity, error)
	CreateUser(ctx context.Context, user *model.Identity) error
	UpdateUserStatus(ctx context.Context, email string, status model.IdentityStatus) error
	UpdateRewardPoints(ctx context.Context, email string, points uint64) error

	GetWallet(ctx context.Context, email string) (*model.WalletRecord, error)
	CreateWallet(ctx context.Context, wallet *model.WalletRecord) error
	// AdvanceWalletState moves state from -> to only if the stored state is still from.
	// A stale from yields model.ErrConflict. The pending transaction is cleared.
	AdvanceWalletState(ctx context.Context, email string, from, to model.ProvisionState) error
	// SetPendingTx records sig as in flight for the stage after state, only if the
	// stored state is still state.
	SetPendingTx(ctx context.Context, email string, state model.ProvisionState, sig string) error
	// UpdateWalletKey replaces the legacy key with its sealed form.
	UpdateWalletKey(ctx context.Context, email, sealed string) error
	ListWallets(ctx context.Context, filter model.WalletFilter) ([]model.WalletRecord, error)

	PutReceipt(ctx context.Context, receipt *model.TransferReceipt) error
	GetReceipt(ctx context.Context, txID string) (*model.TransferReceipt, error)
	// ListReceipts returns receipts where email is sender or recipient.
	ListReceipts(ctx context.Context, email string) ([]model.TransferReceipt, error)
}

// MatchWallet applies filter to w. Backends that scan in memory share it.
func MatchWallet(w *model.WalletRecord, filter model.WalletFilter) bool {
	if filter.ExcludeState != "" && w.State == filter.ExcludeState {
		return false
	}
	if !filter.UpdatedBefore.IsZero() && !w.UpdatedAt.Before(filter.UpdatedBefore) {
		return false
	}
	if filter.LegacyKeyOnly && w.PrivateKey == "" {
		return false
	}
	return true
}
