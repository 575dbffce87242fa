package solana

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/client"
	"github.com/AlexZinkM/chewy-custody/internal/common"
	"github.com/AlexZinkM/chewy-custody/internal/metrics"
	"github.com/AlexZinkM/chewy-custody/internal/model"
	"github.com/AlexZinkM/chewy-custody/internal/store"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

// Custodian creates and signs with custodial keys.
type Custodian interface {
	Signer
	NewKey(id string) (*model.WalletKey, error)
}

// ProvisionerConfig holds the funding amounts in base units.
type ProvisionerConfig struct {
	GasFunding uint64 // lamports sent by the treasury
	TokenGrant uint64 // token base units sent by the treasury
	Mint       solana.PublicKey
	// PendingExpiry is how long a sent transaction the ledger has never seen
	// blocks a resend. It must outlive the blockhash the transaction was built on.
	PendingExpiry time.Duration
}

const defaultPendingExpiry = 2 * time.Minute

// Provisioner creates one custodial wallet per email and drives it through
// created -> gas_funded -> store_registered -> token_funded.
type Provisioner struct {
	store     store.Store
	custodian Custodian
	settler   *Settler
	ledger    client.Ledger
	cfg       ProvisionerConfig
	log       logrus.FieldLogger
	locks     keyedLocks
}

func NewProvisioner(st store.Store, custodian Custodian, settler *Settler, ledger client.Ledger, cfg ProvisionerConfig, log logrus.FieldLogger) *Provisioner {
	if cfg.PendingExpiry <= 0 {
		cfg.PendingExpiry = defaultPendingExpiry
	}
	return &Provisioner{
		store:     st,
		custodian: custodian,
		settler:   settler,
		ledger:    ledger,
		cfg:       cfg,
		log:       log,
		locks:     keyedLocks{m: make(map[string]*keyedLock)},
	}
}

// ProvisionWallet returns the wallet for email, creating and funding it if none exists.
// An existing wallet is returned as is with Created false, even when its
// provisioning is incomplete; Resume continues those.
func (p *Provisioner) ProvisionWallet(ctx context.Context, email string) (*model.WalletResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", model.ErrValidation)
	}

	unlock := p.locks.lock(email)
	defer unlock()

	log := p.log.WithField("email", email)

	existing, err := p.store.GetWallet(ctx, email)
	if err == nil {
		log.Info("wallet already exists")
		return p.response(existing, false, "Wallet already exists"), nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("failed to check wallet: %w", err)
	}

	key, err := p.custodian.NewKey(email)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &model.WalletRecord{
		Email:            email,
		WalletAddress:    key.Address,
		PublicKey:        key.PublicKeyHex,
		SealedPrivateKey: key.SealedPrivateKey,
		Balance:          p.cfg.TokenGrant,
		State:            model.StateCreated,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// the record must exist before any funds move to its address
	if err := p.store.CreateWallet(ctx, rec); err != nil {
		if errors.Is(err, model.ErrConflict) {
			winner, getErr := p.store.GetWallet(ctx, email)
			if getErr != nil {
				return nil, fmt.Errorf("failed to read concurrently created wallet: %w", getErr)
			}
			log.Info("wallet created concurrently, returning existing")
			return p.response(winner, false, "Wallet already exists"), nil
		}
		return nil, fmt.Errorf("failed to store wallet: %w", err)
	}
	log.WithField("address", rec.WalletAddress).Info("wallet created")

	if err := p.advance(ctx, rec); err != nil {
		return nil, err
	}
	metrics.RecordWalletProvisioned()
	return p.response(rec, true, "Wallet created successfully"), nil
}

// Resume continues provisioning of email's wallet from its persisted state.
func (p *Provisioner) Resume(ctx context.Context, email string) (*model.WalletResponse, error) {
	unlock := p.locks.lock(email)
	defer unlock()

	rec, err := p.store.GetWallet(ctx, email)
	if err != nil {
		return nil, err
	}
	if rec.State.Complete() {
		return p.response(rec, false, "Wallet already provisioned"), nil
	}

	p.log.WithFields(logrus.Fields{"email": email, "state": rec.State}).Info("resuming wallet provisioning")
	if err := p.advance(ctx, rec); err != nil {
		return nil, err
	}
	metrics.RecordWalletProvisioned()
	return p.response(rec, false, "Wallet provisioning resumed"), nil
}

// advance runs the remaining stages in order, persisting each reached state.
func (p *Provisioner) advance(ctx context.Context, rec *model.WalletRecord) error {
	addr, err := solana.PublicKeyFromBase58(rec.WalletAddress)
	if err != nil {
		return &model.StageError{Email: rec.Email, Stage: rec.State.Next(), Err: fmt.Errorf("%w: invalid wallet address: %w", model.ErrStore, err)}
	}

	for !rec.State.Complete() {
		next := rec.State.Next()
		if err := p.runStage(ctx, rec, addr, next); err != nil {
			metrics.RecordProvisioningFailure(string(next))
			p.log.WithError(err).WithFields(logrus.Fields{"email": rec.Email, "stage": next}).Error("provisioning stage failed")
			return &model.StageError{Email: rec.Email, Stage: next, Err: err}
		}
		// the stage has landed; saving it must not be abandoned with the caller
		if err := p.store.AdvanceWalletState(context.WithoutCancel(ctx), rec.Email, rec.State, next); err != nil {
			return &model.StageError{Email: rec.Email, Stage: next, Err: err}
		}
		rec.State = next
		rec.PendingTx = ""
		rec.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (p *Provisioner) runStage(ctx context.Context, rec *model.WalletRecord, addr solana.PublicKey, stage model.ProvisionState) error {
	if rec.PendingTx != "" {
		done, err := p.reconcile(ctx, rec, addr, stage)
		if err != nil || done {
			return err
		}
	}

	var (
		receipt *model.TransferReceipt
		err     error
		email   = rec.Email
		pending = p.savePending(rec)
	)

	switch stage {
	case model.StateGasFunded:
		p.log.WithField("email", email).WithField("sol", common.LamportsToSOL(p.cfg.GasFunding)).Info("funding gas")
		receipt, err = p.settler.SubmitTransfer(ctx, p.treasuryTransfer(email, addr, stage), pending)
	case model.StateStoreRegistered:
		ata, _, findErr := solana.FindAssociatedTokenAddress(addr, p.cfg.Mint)
		if findErr != nil {
			return fmt.Errorf("%w: %w", model.ErrUpstreamLedger, findErr)
		}
		exists, existsErr := p.ledger.AccountExists(ctx, ata)
		if existsErr != nil {
			return existsErr
		}
		if exists {
			// registered by an earlier run that stopped before saving the state
			p.log.WithField("email", email).Info("token account already exists, skipping registration")
			return nil
		}
		receipt, err = p.settler.SubmitRegistration(ctx, email, pending)
	case model.StateTokenFunded:
		receipt, err = p.settler.SubmitTransfer(ctx, p.treasuryTransfer(email, addr, stage), pending)
	default:
		return fmt.Errorf("unknown provisioning stage %q", stage)
	}

	if err != nil {
		return err
	}
	if !receipt.Status {
		return fmt.Errorf("%w: transaction %s reverted: %s", model.ErrUpstreamLedger, receipt.TransactionID, receipt.Error)
	}
	return nil
}

// treasuryTransfer is the funding transfer of the gas or token stage.
func (p *Provisioner) treasuryTransfer(email string, addr solana.PublicKey, stage model.ProvisionState) Transfer {
	t := Transfer{FromID: model.TreasuryID, ToEmail: email, To: addr}
	if stage == model.StateGasFunded {
		t.Amount, t.Kind = p.cfg.GasFunding, model.AssetGas
	} else {
		t.Amount, t.Kind = p.cfg.TokenGrant, model.AssetToken
	}
	return t
}

// savePending stores the signature of a stage transaction on the wallet before
// it is sent, so a later run can look it up instead of sending again.
func (p *Provisioner) savePending(rec *model.WalletRecord) SubmitOption {
	return BeforeSend(func(ctx context.Context, sig solana.Signature) error {
		if err := p.store.SetPendingTx(ctx, rec.Email, rec.State, sig.String()); err != nil {
			return fmt.Errorf("failed to save pending transaction: %w", err)
		}
		rec.PendingTx = sig.String()
		rec.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// reconcile settles the transaction an earlier run sent for stage. done is true
// when it succeeded. false with a nil error means the stage must be sent again:
// the transaction reverted, or it expired without the ledger ever seeing it.
func (p *Provisioner) reconcile(ctx context.Context, rec *model.WalletRecord, addr solana.PublicKey, stage model.ProvisionState) (done bool, err error) {
	sig, err := solana.SignatureFromBase58(rec.PendingTx)
	if err != nil {
		return false, fmt.Errorf("%w: invalid pending transaction %q: %w", model.ErrStore, rec.PendingTx, err)
	}

	var st settlement
	switch stage {
	case model.StateGasFunded, model.StateTokenFunded:
		st, err = p.settler.describeTransfer(ctx, p.treasuryTransfer(rec.Email, addr, stage))
	case model.StateStoreRegistered:
		st, err = p.settler.describeRegistration(ctx, rec.Email)
	default:
		return false, fmt.Errorf("unknown provisioning stage %q", stage)
	}
	if err != nil {
		return false, err
	}

	receipt, err := p.settler.Reconcile(ctx, sig, st.receipt)
	if err != nil {
		return false, err
	}

	log := p.log.WithFields(logrus.Fields{"email": rec.Email, "stage": stage, "signature": rec.PendingTx})
	switch {
	case receipt == nil:
		age := time.Since(rec.UpdatedAt)
		if age < p.cfg.PendingExpiry {
			return false, fmt.Errorf("%w: transaction %s not seen by the ledger %s after sending", model.ErrConfirmTimeout, sig, age.Round(time.Second))
		}
		log.Warn("pending transaction expired unseen, sending again")
		return false, nil
	case !receipt.Status:
		log.WithField("ledger_error", receipt.Error).Warn("pending transaction reverted, sending again")
		return false, nil
	default:
		log.Info("pending transaction already landed")
		return true, nil
	}
}

func (p *Provisioner) response(rec *model.WalletRecord, created bool, message string) *model.WalletResponse {
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	qr, err := generateQRCode(rec.WalletAddress)
	if err != nil {
		p.log.WithError(err).Warn("failed to generate QR code")
	}

	return &model.WalletResponse{
		Message:       message,
		Created:       created,
		WalletAddress: rec.WalletAddress,
		PublicKey:     rec.PublicKey,
		Balance:       rec.Balance,
		State:         rec.State,
		QR:            qr,
		Status:        status,
	}
}

// generateQRCode generates QR code of address in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}

// keyedLocks serializes work per key inside this process. Cross-process
// exclusion comes from the store's conditional writes.
type keyedLocks struct {
	mu sync.Mutex
	m  map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedLocks) lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.m[key]
	if !ok {
		l = &keyedLock{}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}
