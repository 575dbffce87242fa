package client

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Ledger is the set of node calls the engines make.
type Ledger interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	// SimulateTransaction dry-runs tx without verifying signatures.
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*Simulation, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	// SignatureStatus returns nil while the node has not seen sig yet.
	SignatureStatus(ctx context.Context, sig solana.Signature) (*TxStatus, error)
	// TokenBalance returns the owner's balance of mint in base units.
	// found is false when the owner has no associated token account.
	TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (amount uint64, found bool, err error)
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
}

// Simulation is the outcome of a dry run.
type Simulation struct {
	Err           string // empty on success
	UnitsConsumed uint64
	Logs          []string
}

// TxStatus is what the node reports for a submitted signature.
type TxStatus struct {
	Slot       uint64
	Commitment rpc.ConfirmationStatusType
	Err        string // execution error, empty when the transaction succeeded
}

// Reached reports whether the status is at least as final as want.
func (s *TxStatus) Reached(want rpc.CommitmentType) bool {
	switch want {
	case rpc.CommitmentProcessed:
		return s.Commitment != ""
	case rpc.CommitmentConfirmed:
		return s.Commitment == rpc.ConfirmationStatusConfirmed || s.Commitment == rpc.ConfirmationStatusFinalized
	default:
		return s.Commitment == rpc.ConfirmationStatusFinalized
	}
}
