// Package app builds the components shared by the commands from a loaded config.
package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/AlexZinkM/chewy-custody/internal/config"
	"github.com/AlexZinkM/chewy-custody/internal/crypto"
	"github.com/AlexZinkM/chewy-custody/internal/store"
	"github.com/AlexZinkM/chewy-custody/internal/store/dynamo"
	"github.com/AlexZinkM/chewy-custody/internal/store/memory"
	"github.com/AlexZinkM/chewy-custody/internal/store/postgres"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// LoadAWS loads the default AWS credential chain for the configured region.
func LoadAWS(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// OpenStore opens the configured record store backend.
func OpenStore(awsCfg aws.Config, cfg *config.Config, log logrus.FieldLogger) (store.Store, io.Closer, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamo:
		dynCfg := awsCfg.Copy()
		if cfg.DynamoDBEndpoint != "" {
			// DynamoDB Local accepts any credentials but still wants them signed
			dynCfg.Credentials = credentials.NewStaticCredentialsProvider("local", "local", "")
		}
		log.WithField("endpoint", cfg.DynamoDBEndpoint).Info("using DynamoDB record store")
		st := dynamo.NewFromConfig(dynCfg, cfg.DynamoDBEndpoint, dynamo.Tables{
			Users:        cfg.UsersTable,
			Wallets:      cfg.WalletsTable,
			Transactions: cfg.TransactionsTable,
		})
		return st, io.NopCloser(nil), nil

	case config.BackendPostgres:
		st, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using Postgres record store")
		return st, closerFunc(st.Close), nil

	case config.BackendMemory:
		log.Warn("using in-memory record store, nothing survives a restart")
		return memory.New(), io.NopCloser(nil), nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// NewVault derives the sealing key and seals the treasury key.
func NewVault(cfg *config.Config, keys crypto.KeySource, log logrus.FieldLogger) (*crypto.Vault, error) {
	salt, err := base64.StdEncoding.DecodeString(cfg.KeySealSalt)
	if err != nil {
		return nil, fmt.Errorf("KEY_SEAL_SALT must be base64: %w", err)
	}

	passphrase, err := cfg.Passphrase()
	if err != nil {
		return nil, err
	}
	defer clear(passphrase)

	sealer, err := crypto.NewSealer(passphrase, salt, crypto.DefaultParams)
	if err != nil {
		return nil, err
	}

	treasury, err := solana.PrivateKeyFromBase58(cfg.TreasuryPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid TREASURY_PRIVATE_KEY: %w", err)
	}
	return crypto.NewVault(sealer, keys, treasury, log)
}
