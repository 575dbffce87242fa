// One-off: seal legacy plain-hex wallet keys in place. Each key is checked
// against its stored address before the record is rewritten.
// Usage: go run ./cmd/seal-keys [-dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/AlexZinkM/chewy-custody/internal/app"
	"github.com/AlexZinkM/chewy-custody/internal/config"
	"github.com/AlexZinkM/chewy-custody/internal/crypto"
	"github.com/AlexZinkM/chewy-custody/internal/logging"
	"github.com/AlexZinkM/chewy-custody/internal/model"
	"github.com/AlexZinkM/chewy-custody/internal/store"

	"github.com/sirupsen/logrus"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would be sealed without writing")
	flag.Parse()

	if err := run(*dryRun); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(dryRun bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, closer, err := logging.New(cfg.LogLevel, "text", "")
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := context.Background()
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

	sealed, failed, err := sealLegacyKeys(ctx, st, vault, dryRun, log)
	if err != nil {
		return err
	}
	fmt.Printf("sealed: %d, failed: %d, dry run: %t\n", sealed, failed, dryRun)
	if failed > 0 {
		return fmt.Errorf("%d wallets could not be sealed", failed)
	}
	return nil
}

func sealLegacyKeys(ctx context.Context, st store.Store, vault *crypto.Vault, dryRun bool, log logrus.FieldLogger) (sealed, failed int, err error) {
	legacy, err := st.ListWallets(ctx, model.WalletFilter{LegacyKeyOnly: true})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list wallets: %w", err)
	}

	for i := range legacy {
		rec := &legacy[i]
		entry := log.WithField("email", rec.Email)

		blob, err := vault.Reseal(rec)
		if err != nil {
			entry.WithError(err).Error("cannot seal key")
			failed++
			continue
		}
		if dryRun {
			sealed++
			continue
		}
		if err := st.UpdateWalletKey(ctx, rec.Email, blob); err != nil {
			entry.WithError(err).Error("failed to store sealed key")
			failed++
			continue
		}
		entry.Info("key sealed")
		sealed++
	}
	return sealed, failed, nil
}
