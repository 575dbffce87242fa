package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/AlexZinkM/chewy-custody/docs"
	"github.com/AlexZinkM/chewy-custody/internal/api"
	"github.com/AlexZinkM/chewy-custody/internal/app"
	"github.com/AlexZinkM/chewy-custody/internal/client"
	"github.com/AlexZinkM/chewy-custody/internal/config"
	"github.com/AlexZinkM/chewy-custody/internal/handler"
	"github.com/AlexZinkM/chewy-custody/internal/identity"
	"github.com/AlexZinkM/chewy-custody/internal/logging"
	"github.com/AlexZinkM/chewy-custody/internal/worker"
	"github.com/AlexZinkM/chewy-custody/solana"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// @title        Chewy custody API
// @version      1.0
// @description  Custodial wallets, token transfers and balances for registered users.
// @BasePath     /
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, logCloser, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := app.LoadAWS(ctx, cfg)
	if err != nil {
		return err
	}

	st, storeCloser, err := app.OpenStore(awsCfg, cfg, log)
	if err != nil {
		return err
	}
	defer storeCloser.Close()

	vault, err := app.NewVault(cfg, st, log)
	if err != nil {
		return err
	}

	mint, err := solanago.PublicKeyFromBase58(cfg.TokenMint)
	if err != nil {
		return fmt.Errorf("invalid TOKEN_MINT: %w", err)
	}
	commitment := rpc.CommitmentType(cfg.SolanaCommitment)
	ledger := client.NewSolanaClient(cfg.SolanaRPCURL, commitment)

	settler := solana.NewSettler(ledger, st, vault, solana.SettlerConfig{
		Mint:           mint,
		Decimals:       cfg.TokenDecimals,
		Commitment:     commitment,
		ConfirmTimeout: cfg.ConfirmTimeout,
		PollInterval:   cfg.ConfirmPollInterval,
	}, log)
	provisioner := solana.NewProvisioner(st, vault, settler, ledger, solana.ProvisionerConfig{
		GasFunding:    cfg.GasFundingAmount,
		TokenGrant:    cfg.TokenGrantAmount,
		Mint:          mint,
		PendingExpiry: cfg.PendingTxExpiry,
	}, log)

	cognito := identity.NewCognitoFromConfig(awsCfg, cfg.CognitoClientID, cfg.CognitoClientSecret, cfg.IdentityTimeout)
	gateway := identity.NewGateway(cognito, st, provisioner, cfg.ReferralPrefix, log)

	resumer := worker.NewResumeWorker(st, provisioner, cfg.ResumeInterval, cfg.ResumeStaleAfter, log)
	if err := resumer.Start(); err != nil {
		return err
	}
	defer resumer.Stop()

	h := handler.New(handler.Services{
		Identity: gateway,
		Wallets:  provisioner,
		Payments: settler,
		Balances: solana.NewBalanceService(st, ledger, mint, cfg.TokenDecimals, log),
		History:  solana.NewHistory(st),
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.SetupRouter(h, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	// transfers in flight may be waiting on confirmation
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ConfirmTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
