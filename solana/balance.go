package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlexZinkM/chewy-custody/internal/client"
	"github.com/AlexZinkM/chewy-custody/internal/common"
	"github.com/AlexZinkM/chewy-custody/internal/model"
	"github.com/AlexZinkM/chewy-custody/internal/store"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// BalanceService reads token balances from the ledger and reconciles them
// into the owner's reward points.
type BalanceService struct {
	store    store.Store
	ledger   client.Ledger
	mint     solana.PublicKey
	decimals uint8
	log      logrus.FieldLogger
}

func NewBalanceService(st store.Store, ledger client.Ledger, mint solana.PublicKey, decimals uint8, log logrus.FieldLogger) *BalanceService {
	return &BalanceService{store: st, ledger: ledger, mint: mint, decimals: decimals, log: log}
}

// GetBalance gets the token balance of email's wallet. A wallet without a
// token account has balance 0. When the balance differs from the user's
// reward points the user record is updated.
func (b *BalanceService) GetBalance(ctx context.Context, email string) (*model.BalanceResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", model.ErrValidation)
	}

	rec, err := b.store.GetWallet(ctx, email)
	if err != nil {
		return nil, err
	}
	owner, err := solana.PublicKeyFromBase58(rec.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: stored wallet address is invalid: %w", model.ErrStore, err)
	}

	amount, found, err := b.ledger.TokenBalance(ctx, owner, b.mint)
	if err != nil {
		return nil, fmt.Errorf("failed to get token balance: %w", err)
	}
	if !found {
		b.log.WithField("email", email).Debug("no token account, balance is 0")
	}

	b.reconcile(ctx, email, amount)

	return &model.BalanceResponse{
		WalletAddress: rec.WalletAddress,
		Balance:       amount,
		Display:       common.FormatUnits(amount, int(b.decimals)),
	}, nil
}

// reconcile writes amount into the user's reward points only when they differ.
// Failures are logged; the balance read still succeeds.
func (b *BalanceService) reconcile(ctx context.Context, email string, amount uint64) {
	log := b.log.WithField("email", email)

	user, err := b.store.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			log.Debug("no user profile to reconcile")
			return
		}
		log.WithError(err).Error("failed to read user for reconciliation")
		return
	}
	if user.RewardPoints == amount {
		return
	}

	if err := b.store.UpdateRewardPoints(ctx, email, amount); err != nil {
		log.WithError(err).Error("failed to reconcile reward points")
		return
	}
	log.WithFields(logrus.Fields{"from": user.RewardPoints, "to": amount}).Info("reward points reconciled")
}
