package solana

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/client"
	"github.com/AlexZinkM/chewy-custody/internal/crypto"
	"github.com/AlexZinkM/chewy-custody/internal/logging"
	"github.com/AlexZinkM/chewy-custody/internal/store/memory"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
)

// fakeLedger executes nothing. It classifies each transaction by the programs it
// calls, tracks created token accounts and answers statuses from configuration.
// Every blockhash is new, so resending a message yields a new signature, and
// calls fail on a done context the way the RPC client does.
type fakeLedger struct {
	mu       sync.Mutex
	calls    []string
	accounts map[solana.PublicKey]bool
	balances map[solana.PublicKey]uint64 // by owner
	sent     map[solana.Signature]string
	last     *solana.Transaction
	slot     uint64

	revert    map[string]string // kind -> execution error
	simErr    map[string]string // kind -> simulation error
	sendErr   error
	pending   bool   // never reach a commitment
	afterSend func() // runs after a transaction is accepted, with mu held
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accounts: map[solana.PublicKey]bool{},
		balances: map[solana.PublicKey]uint64{},
		sent:     map[solana.Signature]string{},
		revert:   map[string]string{},
		simErr:   map[string]string{},
	}
}

var _ client.Ledger = (*fakeLedger)(nil)

func classify(tx *solana.Transaction) string {
	kind := "unknown"
	for _, ix := range tx.Message.Instructions {
		switch tx.Message.AccountKeys[ix.ProgramIDIndex] {
		case solana.TokenProgramID:
			return "token"
		case solana.SPLAssociatedTokenAccountProgramID:
			kind = "register"
		case solana.SystemProgramID:
			if kind == "unknown" {
				kind = "gas"
			}
		}
	}
	return kind
}

func (f *fakeLedger) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if err := ctx.Err(); err != nil {
		return solana.Hash{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slot++
	var h solana.Hash
	binary.LittleEndian.PutUint64(h[:], f.slot)
	return h, nil
}

func (f *fakeLedger) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*client.Simulation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kind := classify(tx)
	f.calls = append(f.calls, "simulate:"+kind)
	if len(tx.Signatures) != int(tx.Message.Header.NumRequiredSignatures) {
		return nil, errors.New("simulation needs placeholder signatures")
	}
	return &client.Simulation{Err: f.simErr[kind], UnitsConsumed: 4200}, nil
}

func (f *fakeLedger) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kind := classify(tx)
	f.calls = append(f.calls, "send:"+kind)
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	if err := tx.VerifySignatures(); err != nil {
		return solana.Signature{}, fmt.Errorf("bad signature: %w", err)
	}

	f.last = tx
	sig := tx.Signatures[0]
	f.sent[sig] = kind
	if f.revert[kind] == "" {
		for _, ix := range tx.Message.Instructions {
			if tx.Message.AccountKeys[ix.ProgramIDIndex] == solana.SPLAssociatedTokenAccountProgramID {
				f.accounts[tx.Message.AccountKeys[ix.Accounts[1]]] = true
			}
		}
	}
	if f.afterSend != nil {
		f.afterSend()
	}
	return sig, nil
}

func (f *fakeLedger) SignatureStatus(ctx context.Context, sig solana.Signature) (*client.TxStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kind, ok := f.sent[sig]
	if !ok || f.pending {
		return nil, nil
	}
	return &client.TxStatus{Slot: 1, Commitment: rpc.ConfirmationStatusFinalized, Err: f.revert[kind]}, nil
}

func (f *fakeLedger) TokenBalance(ctx context.Context, owner, _ solana.PublicKey) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.balances[owner]
	return v, ok, nil
}

func (f *fakeLedger) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[account], nil
}

func (f *fakeLedger) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Executed counts accepted transactions of kind that did not revert.
func (f *fakeLedger) Executed(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.sent {
		if k == kind && f.revert[k] == "" {
			n++
		}
	}
	return n
}

func (f *fakeLedger) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeLedger) set(fn func(f *fakeLedger)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type harness struct {
	store       *memory.Store
	ledger      *fakeLedger
	vault       *crypto.Vault
	settler     *Settler
	provisioner *Provisioner
	balance     *BalanceService
	history     *History
	mint        solana.PublicKey
	treasury    solana.PublicKey
}

const (
	testGasFunding = 30_000_000
	testTokenGrant = 1_000
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logging.Discard()

	sealer, err := crypto.NewSealer([]byte("passphrase"), []byte("saltsaltsalt"), crypto.Params{N: 1 << 10, R: 8, P: 1})
	require.NoError(t, err)

	treasuryKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	treasury := treasuryKey.PublicKey()

	st := memory.New()
	vault, err := crypto.NewVault(sealer, st, treasuryKey, log)
	require.NoError(t, err)

	mint := solana.NewWallet().PublicKey()
	ledger := newFakeLedger()

	settler := NewSettler(ledger, st, vault, SettlerConfig{
		Mint:           mint,
		Decimals:       8,
		Commitment:     rpc.CommitmentFinalized,
		ConfirmTimeout: 2 * time.Second,
		PollInterval:   time.Millisecond,
	}, log)

	return &harness{
		store:   st,
		ledger:  ledger,
		vault:   vault,
		settler: settler,
		provisioner: NewProvisioner(st, vault, settler, ledger, ProvisionerConfig{
			GasFunding: testGasFunding,
			TokenGrant: testTokenGrant,
			Mint:       mint,
		}, log),
		balance:  NewBalanceService(st, ledger, mint, 8, log),
		history:  NewHistory(st),
		mint:     mint,
		treasury: treasury,
	}
}
