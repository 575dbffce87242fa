package solana

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlexZinkM/chewy-custody/internal/model"

	"github.com/gagliardetto/solana-go"
)

// TransferByEmail sends tokens from one custodial wallet to another, both resolved by email.
func (s *Settler) TransferByEmail(ctx context.Context, req model.PayRequest) (*model.PayResponse, error) {
	if strings.TrimSpace(req.SenderEmail) == "" || strings.TrimSpace(req.RecipientEmail) == "" {
		return nil, fmt.Errorf("%w: senderEmail and recipientEmail are required", model.ErrValidation)
	}

	recipient, err := s.store.GetWallet(ctx, req.RecipientEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to find recipient wallet: %w", err)
	}
	to, err := solana.PublicKeyFromBase58(recipient.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: stored recipient address is invalid: %w", model.ErrStore, err)
	}

	return s.pay(ctx, Transfer{
		FromID:  req.SenderEmail,
		ToEmail: req.RecipientEmail,
		To:      to,
		Amount:  req.Amount,
		Kind:    model.AssetToken,
	})
}

// TransferToAddress sends tokens from a custodial wallet to any address.
func (s *Settler) TransferToAddress(ctx context.Context, req model.PayToAddressRequest) (*model.PayResponse, error) {
	if strings.TrimSpace(req.SenderEmail) == "" || strings.TrimSpace(req.RecipientAddress) == "" {
		return nil, fmt.Errorf("%w: senderEmail and recipientAddress are required", model.ErrValidation)
	}
	if !isValidSolanaAddress(req.RecipientAddress) {
		return nil, fmt.Errorf("%w: invalid Solana address", model.ErrValidation)
	}

	return s.pay(ctx, Transfer{
		FromID: req.SenderEmail,
		To:     solana.MustPublicKeyFromBase58(req.RecipientAddress),
		Amount: req.Amount,
		Kind:   model.AssetToken,
	})
}

func (s *Settler) pay(ctx context.Context, t Transfer) (*model.PayResponse, error) {
	if t.Amount == 0 {
		s.log.WithField("from", t.FromID).Warn("submitting zero-amount transfer")
	}

	receipt, err := s.SubmitTransfer(ctx, t)
	if err != nil {
		return nil, err
	}

	resp := &model.PayResponse{
		Message: "Transfer successful",
		Status:  receipt.Status,
		TxID:    receipt.TransactionID,
	}
	if !receipt.Status {
		resp.Message = "Transfer failed on ledger: " + receipt.Error
	}
	return resp, nil
}

// isValidSolanaAddress validates a Solana address
func isValidSolanaAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}
