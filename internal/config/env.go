package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// It is loaded once and passed by pointer into constructors; nothing mutates it after Load.
type Config struct {
	Port      string `envconfig:"PORT" default:"5000"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogFile   string `envconfig:"LOG_FILE" default:"logs/application.log"`

	SolanaRPCURL     string `envconfig:"SOLANA_RPC_URL" default:"https://api.mainnet-beta.solana.com"`
	SolanaCommitment string `envconfig:"SOLANA_COMMITMENT" default:"finalized"`
	TokenMint        string `envconfig:"TOKEN_MINT" required:"true"`
	TokenDecimals    uint8  `envconfig:"TOKEN_DECIMALS" default:"8"`

	TreasuryPrivateKey  string        `envconfig:"TREASURY_PRIVATE_KEY" required:"true"`
	GasFundingAmount    uint64        `envconfig:"GAS_FUNDING_AMOUNT" default:"30000000"`
	TokenGrantAmount    uint64        `envconfig:"TOKEN_GRANT_AMOUNT" default:"1000"`
	ConfirmTimeout      time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"90s"`
	ConfirmPollInterval time.Duration `envconfig:"CONFIRM_POLL_INTERVAL" default:"2s"`
	PendingTxExpiry     time.Duration `envconfig:"PENDING_TX_EXPIRY" default:"2m"`

	KeySealPassphrase string `envconfig:"KEY_SEAL_PASSPHRASE"`
	KeySealSalt       string `envconfig:"KEY_SEAL_SALT" required:"true"`

	StoreBackend      string `envconfig:"STORE_BACKEND" default:"dynamodb"`
	AWSRegion         string `envconfig:"AWS_REGION" default:"ap-south-1"`
	DynamoDBEndpoint  string `envconfig:"DYNAMODB_ENDPOINT"`
	UsersTable        string `envconfig:"USERS_TABLE" default:"users"`
	WalletsTable      string `envconfig:"WALLETS_TABLE" default:"wallet_details"`
	TransactionsTable string `envconfig:"TRANSACTIONS_TABLE" default:"wallet_transactions"`
	DatabaseURL       string `envconfig:"DATABASE_URL"`

	CognitoClientID     string        `envconfig:"COGNITO_CLIENT_ID" required:"true"`
	CognitoClientSecret string        `envconfig:"COGNITO_CLIENT_SECRET"`
	IdentityTimeout     time.Duration `envconfig:"IDENTITY_TIMEOUT" default:"10s"`
	ReferralPrefix      string        `envconfig:"REFERRAL_PREFIX" default:"Chewy"`

	ResumeInterval   time.Duration `envconfig:"RESUME_INTERVAL" default:"1m"`
	ResumeStaleAfter time.Duration `envconfig:"RESUME_STALE_AFTER" default:"5m"`
}

const (
	BackendDynamo   = "dynamodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendDynamo, BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.SolanaCommitment {
	case "confirmed", "finalized":
	default:
		return fmt.Errorf("SOLANA_COMMITMENT must be confirmed or finalized, got %q", c.SolanaCommitment)
	}
	if c.ConfirmTimeout <= 0 {
		return errors.New("CONFIRM_TIMEOUT must be positive")
	}
	if c.ConfirmPollInterval <= 0 || c.ConfirmPollInterval > c.ConfirmTimeout {
		return errors.New("CONFIRM_POLL_INTERVAL must be positive and not exceed CONFIRM_TIMEOUT")
	}
	if c.PendingTxExpiry < c.ConfirmTimeout {
		return errors.New("PENDING_TX_EXPIRY must not be shorter than CONFIRM_TIMEOUT")
	}
	return nil
}

// PromptForPassphrase asks for the key sealing passphrase in the terminal
// when it was not provided through the environment. Input is not echoed.
// Call this at startup before the server begins handling requests.
func PromptForPassphrase() ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("KEY_SEAL_PASSPHRASE not set and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Enter key sealing passphrase: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}
	return raw, nil
}

// Passphrase returns the sealing passphrase from the environment, or prompts for it.
// Caller must zero the returned slice after use.
func (c *Config) Passphrase() ([]byte, error) {
	if c.KeySealPassphrase != "" {
		return []byte(c.KeySealPassphrase), nil
	}
	return PromptForPassphrase()
}
