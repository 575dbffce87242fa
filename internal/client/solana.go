package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlexZinkM/chewy-custody/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SolanaClient is a Ledger over Solana JSON-RPC
type SolanaClient struct {
	rpcClient  *rpc.Client
	rpcURL     string
	commitment rpc.CommitmentType
}

var _ Ledger = (*SolanaClient)(nil)

// NewSolanaClient creates a client for rpcURL reading at the given commitment.
func NewSolanaClient(rpcURL string, commitment rpc.CommitmentType) *SolanaClient {
	return &SolanaClient{
		rpcClient:  rpc.New(rpcURL),
		rpcURL:     rpcURL,
		commitment: commitment,
	}
}

func ledgerErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrUpstreamLedger, op, err)
}

// LatestBlockhash gets the blockhash new transactions are built on
func (c *SolanaClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, ledgerErr("get latest blockhash", err)
	}
	return recent.Value.Blockhash, nil
}

// SimulateTransaction dry-runs tx. The transaction may carry placeholder signatures.
func (c *SolanaClient) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*Simulation, error) {
	res, err := c.rpcClient.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:  false,
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, ledgerErr("simulate transaction", err)
	}
	sim := &Simulation{}
	if res.Value == nil {
		return sim, nil
	}
	if res.Value.Err != nil {
		sim.Err = fmt.Sprint(res.Value.Err)
	}
	if res.Value.UnitsConsumed != nil {
		sim.UnitsConsumed = *res.Value.UnitsConsumed
	}
	sim.Logs = res.Value.Logs
	return sim, nil
}

// SendTransaction submits a signed transaction with preflight enabled
func (c *SolanaClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, ledgerErr("send transaction", err)
	}
	return sig, nil
}

// SignatureStatus gets the status of sig, searching transaction history
func (c *SolanaClient) SignatureStatus(ctx context.Context, sig solana.Signature) (*TxStatus, error) {
	out, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, ledgerErr("get signature status", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return nil, nil
	}
	v := out.Value[0]
	st := &TxStatus{Slot: v.Slot, Commitment: v.ConfirmationStatus}
	if v.Err != nil {
		st.Err = fmt.Sprint(v.Err)
	}
	return st, nil
}

// TokenBalance gets the owner's token balance from its associated token account
func (c *SolanaClient) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, bool, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, false, ledgerErr("find associated token account", err)
	}

	balance, err := c.rpcClient.GetTokenAccountBalance(ctx, ata, c.commitment)
	if err != nil {
		if isATANotFoundError(err) {
			return 0, false, nil
		}
		return 0, false, ledgerErr("get token account balance", err)
	}
	if balance.Value == nil {
		return 0, true, nil
	}

	amount, err := strconv.ParseUint(balance.Value.Amount, 10, 64)
	if err != nil {
		return 0, false, ledgerErr("parse token balance", err)
	}
	return amount, true, nil
}

// AccountExists reports whether account is allocated on chain
func (c *SolanaClient) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	info, err := c.rpcClient.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{Commitment: c.commitment})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) || isATANotFoundError(err) {
			return false, nil
		}
		return false, ledgerErr("get account info", err)
	}
	return info != nil && info.Value != nil, nil
}

// isATANotFoundError checks if error indicates that token account doesn't exist
func isATANotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "could not find account") ||
		strings.Contains(errStr, "not found")
}
