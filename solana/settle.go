package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/client"
	"github.com/AlexZinkM/chewy-custody/internal/metrics"
	"github.com/AlexZinkM/chewy-custody/internal/model"
	"github.com/AlexZinkM/chewy-custody/internal/store"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
)

// Signer signs for a wallet id (an email or model.TreasuryID) without handing out the key.
type Signer interface {
	Address(ctx context.Context, id string) (solana.PublicKey, error)
	SealedSign(ctx context.Context, id string, payload []byte) (solana.Signature, error)
}

// SettlerConfig holds the token and confirmation settings.
type SettlerConfig struct {
	Mint           solana.PublicKey
	Decimals       uint8
	Commitment     rpc.CommitmentType
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

// Settler builds, signs, submits and confirms transactions and records a receipt for each.
type Settler struct {
	ledger client.Ledger
	store  store.Store
	signer Signer
	cfg    SettlerConfig
	log    logrus.FieldLogger
}

func NewSettler(ledger client.Ledger, st store.Store, signer Signer, cfg SettlerConfig, log logrus.FieldLogger) *Settler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentFinalized
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 90 * time.Second
	}
	return &Settler{ledger: ledger, store: st, signer: signer, cfg: cfg, log: log}
}

// Transfer is one value movement.
type Transfer struct {
	FromID  string // sender email or model.TreasuryID
	ToEmail string // empty for address-only recipients
	To      solana.PublicKey
	Amount  uint64
	Kind    model.AssetKind
}

// settlement is a built but unsigned transaction plus what its receipt needs.
type settlement struct {
	fromID       string
	from         solana.PublicKey
	instructions []solana.Instruction
	simulate     bool
	receipt      model.TransferReceipt
	beforeSend   func(ctx context.Context, sig solana.Signature) error
}

// SubmitOption adjusts a single submission.
type SubmitOption func(*settlement)

// BeforeSend runs fn with the signature of the signed transaction before it is
// sent. An error from fn aborts the submission and nothing is sent.
func BeforeSend(fn func(ctx context.Context, sig solana.Signature) error) SubmitOption {
	return func(st *settlement) { st.beforeSend = fn }
}

// SubmitTransfer moves t.Amount of t.Kind and returns the receipt of the confirmed
// transaction. A reverted transaction returns a receipt with Status false and no error.
func (s *Settler) SubmitTransfer(ctx context.Context, t Transfer, opts ...SubmitOption) (*model.TransferReceipt, error) {
	st, err := s.describeTransfer(ctx, t)
	if err != nil {
		return nil, err
	}

	switch t.Kind {
	case model.AssetGas:
		st.instructions = []solana.Instruction{
			system.NewTransferInstruction(t.Amount, st.from, t.To).Build(),
		}
	case model.AssetToken:
		st.instructions, err = s.tokenTransferInstructions(ctx, st.from, t.To, t.Amount)
		if err != nil {
			return nil, err
		}
		st.simulate = true
	default:
		return nil, fmt.Errorf("%w: unsupported asset kind %q", model.ErrValidation, t.Kind)
	}

	for _, opt := range opts {
		opt(&st)
	}
	return s.settle(ctx, st)
}

// SubmitRegistration creates the token store (associated token account) of the
// wallet owned by email. The wallet pays for and signs its own registration.
func (s *Settler) SubmitRegistration(ctx context.Context, email string, opts ...SubmitOption) (*model.TransferReceipt, error) {
	st, err := s.describeRegistration(ctx, email)
	if err != nil {
		return nil, err
	}
	st.instructions = []solana.Instruction{
		associatedtokenaccount.NewCreateInstruction(st.from, st.from, s.cfg.Mint).Build(),
	}
	st.simulate = true

	for _, opt := range opts {
		opt(&st)
	}
	return s.settle(ctx, st)
}

// describeTransfer resolves the sender of t and fills in the receipt fields known
// before anything is built.
func (s *Settler) describeTransfer(ctx context.Context, t Transfer) (settlement, error) {
	from, err := s.signer.Address(ctx, t.FromID)
	if err != nil {
		return settlement{}, fmt.Errorf("failed to resolve sender %s: %w", t.FromID, err)
	}
	return settlement{
		fromID: t.FromID,
		from:   from,
		receipt: model.TransferReceipt{
			FromEmail:   t.FromID,
			ToEmail:     t.ToEmail,
			FromAddress: from.String(),
			ToAddress:   t.To.String(),
			Amount:      t.Amount,
			CoinType:    t.Kind,
		},
	}, nil
}

func (s *Settler) describeRegistration(ctx context.Context, email string) (settlement, error) {
	owner, err := s.signer.Address(ctx, email)
	if err != nil {
		return settlement{}, fmt.Errorf("failed to resolve wallet %s: %w", email, err)
	}
	ata, _, err := solana.FindAssociatedTokenAddress(owner, s.cfg.Mint)
	if err != nil {
		return settlement{}, fmt.Errorf("%w: failed to find token account address: %w", model.ErrUpstreamLedger, err)
	}
	return settlement{
		fromID: email,
		from:   owner,
		receipt: model.TransferReceipt{
			FromEmail:   email,
			ToEmail:     email,
			FromAddress: owner.String(),
			ToAddress:   ata.String(),
			CoinType:    model.AssetRegister,
		},
	}, nil
}

// Reconcile looks up the outcome of sig, a transaction sent earlier whose
// confirmation was never observed. It returns the stored receipt, recording
// receipt first if the ledger has confirmed sig since. A nil receipt and nil
// error mean the ledger does not know sig. A known but unconfirmed sig yields
// model.ErrConfirmTimeout.
func (s *Settler) Reconcile(ctx context.Context, sig solana.Signature, receipt model.TransferReceipt) (*model.TransferReceipt, error) {
	stored, err := s.store.GetReceipt(ctx, sig.String())
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	status, err := s.ledger.SignatureStatus(ctx, sig)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, nil
	}
	if !status.Reached(s.cfg.Commitment) {
		return nil, fmt.Errorf("%w: transaction %s not %s yet", model.ErrConfirmTimeout, sig, s.cfg.Commitment)
	}

	log := s.log.WithFields(logrus.Fields{
		"signature": sig.String(),
		"kind":      receipt.CoinType,
	})
	log.Info("recording transaction confirmed after its submission timed out")
	return s.record(context.WithoutCancel(ctx), receipt, sig, status, log)
}

// tokenTransferInstructions builds a checked token transfer between the parties'
// token accounts, creating the recipient's account first if it doesn't exist.
func (s *Settler) tokenTransferInstructions(ctx context.Context, from, to solana.PublicKey, amount uint64) ([]solana.Instruction, error) {
	source, _, err := solana.FindAssociatedTokenAddress(from, s.cfg.Mint)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find source token account address: %w", model.ErrUpstreamLedger, err)
	}
	dest, _, err := solana.FindAssociatedTokenAddress(to, s.cfg.Mint)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find destination token account address: %w", model.ErrUpstreamLedger, err)
	}

	exists, err := s.ledger.AccountExists(ctx, dest)
	if err != nil {
		return nil, err
	}

	var ixs []solana.Instruction
	if !exists {
		ixs = append(ixs, associatedtokenaccount.NewCreateInstruction(from, to, s.cfg.Mint).Build())
	}
	ixs = append(ixs, token.NewTransferCheckedInstruction(
		amount,
		s.cfg.Decimals,
		source,
		s.cfg.Mint,
		dest,
		from,
		[]solana.PublicKey{},
	).Build())
	return ixs, nil
}

func (s *Settler) settle(ctx context.Context, st settlement) (*model.TransferReceipt, error) {
	started := time.Now()
	kind := string(st.receipt.CoinType)
	log := s.log.WithFields(logrus.Fields{
		"from":   st.receipt.FromAddress,
		"to":     st.receipt.ToAddress,
		"amount": st.receipt.Amount,
		"kind":   kind,
	})

	fail := func(outcome string, err error) (*model.TransferReceipt, error) {
		metrics.RecordSettlement(kind, outcome, time.Since(started))
		log.WithError(err).Error("settlement failed")
		return nil, err
	}

	blockhash, err := s.ledger.LatestBlockhash(ctx)
	if err != nil {
		return fail(metrics.OutcomeFailed, err)
	}

	tx, err := solana.NewTransaction(st.instructions, blockhash, solana.TransactionPayer(st.from))
	if err != nil {
		return fail(metrics.OutcomeFailed, fmt.Errorf("%w: failed to build transaction: %w", model.ErrUpstreamLedger, err))
	}
	if n := tx.Message.Header.NumRequiredSignatures; n != 1 {
		return fail(metrics.OutcomeFailed, fmt.Errorf("%w: transaction needs %d signers, only single-signer transactions are supported", model.ErrUpstreamLedger, n))
	}

	if st.simulate {
		if err := s.simulate(ctx, tx, log); err != nil {
			return fail(metrics.OutcomeFailed, err)
		}
	}

	payload, err := tx.Message.MarshalBinary()
	if err != nil {
		return fail(metrics.OutcomeFailed, fmt.Errorf("%w: failed to serialize message: %w", model.ErrUpstreamLedger, err))
	}
	sig, err := s.signer.SealedSign(ctx, st.fromID, payload)
	if err != nil {
		return fail(metrics.OutcomeFailed, fmt.Errorf("failed to sign transaction: %w", err))
	}
	tx.Signatures = []solana.Signature{sig}

	if st.beforeSend != nil {
		if err := st.beforeSend(ctx, sig); err != nil {
			return fail(metrics.OutcomeFailed, err)
		}
	}

	// once sent the transaction may execute, so confirmation and the receipt
	// no longer follow the caller's cancellation; ConfirmTimeout bounds them
	ctx = context.WithoutCancel(ctx)
	if _, err := s.ledger.SendTransaction(ctx, tx); err != nil {
		return fail(metrics.OutcomeFailed, err)
	}
	log = log.WithField("signature", sig.String())
	log.Info("transaction submitted")

	status, err := s.waitForConfirmation(ctx, sig)
	if err != nil {
		outcome := metrics.OutcomeFailed
		if errors.Is(err, model.ErrConfirmTimeout) {
			outcome = metrics.OutcomeTimeout
		}
		return fail(outcome, err)
	}

	outcome := metrics.OutcomeSuccess
	if status.Err != "" {
		outcome = metrics.OutcomeReverted
		log.WithField("ledger_error", status.Err).Warn("transaction reverted")
	}
	metrics.RecordSettlement(kind, outcome, time.Since(started))

	return s.record(ctx, st.receipt, sig, status, log)
}

// record completes receipt with the confirmed outcome of sig and stores it.
func (s *Settler) record(ctx context.Context, receipt model.TransferReceipt, sig solana.Signature, status *client.TxStatus, log logrus.FieldLogger) (*model.TransferReceipt, error) {
	receipt.TransactionID = sig.String()
	receipt.Status = status.Err == ""
	receipt.Error = status.Err
	receipt.TransactionDate = time.Now().UTC()

	if err := s.store.PutReceipt(ctx, &receipt); err != nil {
		if errors.Is(err, model.ErrConflict) {
			log.Warn("receipt already recorded")
			return &receipt, nil
		}
		log.WithError(err).Error("failed to record receipt for confirmed transaction")
		return &receipt, fmt.Errorf("transaction %s confirmed but not recorded: %w", receipt.TransactionID, err)
	}

	log.WithField("status", receipt.Status).Info("transaction confirmed")
	return &receipt, nil
}

// simulate dry-runs tx with zero placeholder signatures and aborts on a failed run.
func (s *Settler) simulate(ctx context.Context, tx *solana.Transaction, log logrus.FieldLogger) error {
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	defer func() { tx.Signatures = nil }()

	sim, err := s.ledger.SimulateTransaction(ctx, tx)
	if err != nil {
		return err
	}
	if sim.Err != "" {
		for _, l := range sim.Logs {
			log.Debug(l)
		}
		return fmt.Errorf("%w: simulation failed: %s", model.ErrUpstreamLedger, sim.Err)
	}
	log.WithField("units_consumed", sim.UnitsConsumed).Debug("simulation ok")
	return nil
}

// waitForConfirmation polls the signature status until it reaches the configured
// commitment or the confirmation deadline passes.
func (s *Settler) waitForConfirmation(ctx context.Context, sig solana.Signature) (*client.TxStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		status, err := s.ledger.SignatureStatus(ctx, sig)
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		if status != nil && status.Reached(s.cfg.Commitment) {
			return status, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: transaction %s not %s after %s", model.ErrConfirmTimeout, sig, s.cfg.Commitment, s.cfg.ConfirmTimeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
