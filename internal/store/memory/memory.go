// Package memory is an in-process Store for tests and STORE_BACKEND=memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/model"
	"github.com/AlexZinkM/chewy-custody/internal/store"
)

// Store keeps copies of records; callers never share memory with it.
type Store struct {
	mu       sync.Mutex
	users    map[string]model.Identity
	wallets  map[string]model.WalletRecord
	receipts map[string]model.TransferReceipt

	// writes counts successful mutations per table, for tests asserting on side effects.
	writes map[string]int
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[string]model.Identity),
		wallets:  make(map[string]model.WalletRecord),
		receipts: make(map[string]model.TransferReceipt),
		writes:   make(map[string]int),
	}
}

func (s *Store) GetUser(_ context.Context, email string) (*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, email)
	}
	return &u, nil
}

func (s *Store) CreateUser(_ context.Context, user *model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return fmt.Errorf("%w: user %s exists", model.ErrConflict, user.Email)
	}
	s.users[user.Email] = *user
	s.writes["users"]++
	return nil
}

func (s *Store) UpdateUserStatus(_ context.Context, email string, status model.IdentityStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return fmt.Errorf("%w: user %s", model.ErrNotFound, email)
	}
	u.Status = status
	s.users[email] = u
	s.writes["users"]++
	return nil
}

func (s *Store) UpdateRewardPoints(_ context.Context, email string, points uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return fmt.Errorf("%w: user %s", model.ErrNotFound, email)
	}
	u.RewardPoints = points
	s.users[email] = u
	s.writes["users"]++
	return nil
}

func (s *Store) GetWallet(_ context.Context, email string) (*model.WalletRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[email]
	if !ok {
		return nil, fmt.Errorf("%w: wallet for %s", model.ErrNotFound, email)
	}
	return &w, nil
}

func (s *Store) CreateWallet(_ context.Context, wallet *model.WalletRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[wallet.Email]; ok {
		return fmt.Errorf("%w: wallet for %s exists", model.ErrConflict, wallet.Email)
	}
	s.wallets[wallet.Email] = *wallet
	s.writes["wallet_details"]++
	return nil
}

func (s *Store) AdvanceWalletState(_ context.Context, email string, from, to model.ProvisionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[email]
	if !ok {
		return fmt.Errorf("%w: wallet for %s", model.ErrNotFound, email)
	}
	if w.State != from {
		return fmt.Errorf("%w: wallet for %s is %s, not %s", model.ErrConflict, email, w.State, from)
	}
	w.State = to
	w.PendingTx = ""
	w.UpdatedAt = time.Now().UTC()
	s.wallets[email] = w
	s.writes["wallet_details"]++
	return nil
}

func (s *Store) SetPendingTx(_ context.Context, email string, state model.ProvisionState, sig string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[email]
	if !ok {
		return fmt.Errorf("%w: wallet for %s", model.ErrNotFound, email)
	}
	if w.State != state {
		return fmt.Errorf("%w: wallet for %s is %s, not %s", model.ErrConflict, email, w.State, state)
	}
	w.PendingTx = sig
	w.UpdatedAt = time.Now().UTC()
	s.wallets[email] = w
	s.writes["wallet_details"]++
	return nil
}

func (s *Store) UpdateWalletKey(_ context.Context, email, sealed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[email]
	if !ok {
		return fmt.Errorf("%w: wallet for %s", model.ErrNotFound, email)
	}
	w.SealedPrivateKey = sealed
	w.PrivateKey = ""
	w.UpdatedAt = time.Now().UTC()
	s.wallets[email] = w
	s.writes["wallet_details"]++
	return nil
}

func (s *Store) ListWallets(_ context.Context, filter model.WalletFilter) ([]model.WalletRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.WalletRecord, 0, len(s.wallets))
	for _, w := range s.wallets {
		if store.MatchWallet(&w, filter) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Store) PutReceipt(_ context.Context, receipt *model.TransferReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.receipts[receipt.TransactionID]; ok {
		return fmt.Errorf("%w: receipt %s exists", model.ErrConflict, receipt.TransactionID)
	}
	s.receipts[receipt.TransactionID] = *receipt
	s.writes["wallet_transactions"]++
	return nil
}

func (s *Store) GetReceipt(_ context.Context, txID string) (*model.TransferReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receipts[txID]
	if !ok {
		return nil, fmt.Errorf("%w: receipt %s", model.ErrNotFound, txID)
	}
	return &r, nil
}

func (s *Store) ListReceipts(_ context.Context, email string) ([]model.TransferReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TransferReceipt
	for _, r := range s.receipts {
		if r.FromEmail == email || r.ToEmail == email {
			out = append(out, r)
		}
	}
	return out, nil
}

// Receipts returns every stored receipt. Test helper.
func (s *Store) Receipts() []model.TransferReceipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TransferReceipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		out = append(out, r)
	}
	return out
}

// WriteCount returns the number of writes to table. Test helper.
func (s *Store) WriteCount(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[table]
}
