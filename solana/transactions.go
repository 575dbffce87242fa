package solana

import (
	"context"
	"fmt"
	"sort"

	"github.com/AlexZinkM/chewy-custody/internal/model"
	"github.com/AlexZinkM/chewy-custody/internal/store"
)

// History lists recorded receipts as seen by one wallet.
type History struct {
	store store.Store
}

func NewHistory(st store.Store) *History {
	return &History{store: st}
}

// GetTransactions gets wallet transactions with filtering
func (h *History) GetTransactions(ctx context.Context, email string, req *model.LogRequest) (*model.LogResponse, error) {
	if req == nil {
		req = &model.LogRequest{}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	wallet, err := h.store.GetWallet(ctx, email)
	if err != nil {
		return nil, err
	}

	receipts, err := h.store.ListReceipts(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	result := make([]model.Transaction, 0, len(receipts))
	for _, r := range receipts {
		tx := asSeenBy(email, r)

		if req.Type != nil && *req.Type != tx.Type {
			continue
		}
		if req.TxID != nil && *req.TxID != tx.TxID {
			continue
		}
		if req.CoinType != nil && *req.CoinType != tx.CoinType {
			continue
		}
		if req.From != nil && tx.Timestamp.Before(*req.From) {
			continue
		}
		if req.To != nil && tx.Timestamp.After(*req.To) {
			continue
		}
		if req.MinAmount != nil && tx.Amount < *req.MinAmount {
			continue
		}
		if req.MaxAmount != nil && tx.Amount > *req.MaxAmount {
			continue
		}

		result = append(result, tx)
	}

	// newest first
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	resp := &model.LogResponse{
		Email:        email,
		Address:      wallet.WalletAddress,
		Transactions: result,
	}
	for _, tx := range result {
		if tx.CoinType != model.AssetToken || !tx.Status {
			continue
		}
		switch tx.Type {
		case model.TransactionTypeDebit:
			resp.TotalReceived += tx.Amount
		case model.TransactionTypeCredit:
			resp.TotalSent += tx.Amount
		}
	}
	return resp, nil
}

// asSeenBy converts a receipt into a transaction from email's side.
// A receipt where email is both parties (token store registration) counts as sent.
func asSeenBy(email string, r model.TransferReceipt) model.Transaction {
	tx := model.Transaction{
		Type:      model.TransactionTypeCredit,
		TxID:      r.TransactionID,
		From:      r.FromAddress,
		To:        r.ToAddress,
		Amount:    r.Amount,
		CoinType:  r.CoinType,
		Timestamp: r.TransactionDate,
		Status:    r.Status,
	}
	if r.FromEmail == email {
		tx.Counterpart = r.ToEmail
	} else {
		tx.Type = model.TransactionTypeDebit
		tx.Counterpart = r.FromEmail
	}
	return tx
}
