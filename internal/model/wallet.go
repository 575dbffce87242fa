package model

import "time"

// ProvisionState is the last completed step of wallet provisioning.
type ProvisionState string

const (
	StateCreated         ProvisionState = "created"
	StateGasFunded       ProvisionState = "gas_funded"
	StateStoreRegistered ProvisionState = "store_registered"
	StateTokenFunded     ProvisionState = "token_funded"
)

// Next returns the state reached after the step following s.
// The final state returns itself.
func (s ProvisionState) Next() ProvisionState {
	switch s {
	case StateCreated:
		return StateGasFunded
	case StateGasFunded:
		return StateStoreRegistered
	case StateStoreRegistered:
		return StateTokenFunded
	default:
		return StateTokenFunded
	}
}

// Complete reports whether provisioning has nothing left to do.
func (s ProvisionState) Complete() bool {
	return s == StateTokenFunded
}

// WalletRecord is the custodial wallet bound to one identity (table wallet_details).
type WalletRecord struct {
	Email            string         `json:"email" dynamodbav:"email" gorm:"column:email;primaryKey;type:varchar(320)"`
	WalletAddress    string         `json:"wallet_address" dynamodbav:"wallet_address" gorm:"column:wallet_address;type:varchar(64);uniqueIndex;not null"`
	PublicKey        string         `json:"public_key" dynamodbav:"public_key" gorm:"column:public_key;type:varchar(128);not null"`
	SealedPrivateKey string         `json:"-" dynamodbav:"sealed_private_key,omitempty" gorm:"column:sealed_private_key;type:text"`
	PrivateKey       string         `json:"-" dynamodbav:"encrypted_private_key,omitempty" gorm:"column:private_key;type:text"` // legacy plain hex, emptied by cmd/seal-keys
	Balance          uint64         `json:"balance" dynamodbav:"balance" gorm:"column:balance;not null"`
	State            ProvisionState `json:"state" dynamodbav:"state" gorm:"column:state;type:varchar(32);index;not null"`
	// PendingTx is the signature of the transaction sent for the stage after State,
	// kept until that stage is reached.
	PendingTx        string         `json:"-" dynamodbav:"pending_tx,omitempty" gorm:"column:pending_tx;type:varchar(128)"`
	CreatedAt        time.Time      `json:"created_at" dynamodbav:"created_at" gorm:"column:created_at;not null"`
	UpdatedAt        time.Time      `json:"updated_at" dynamodbav:"updated_at" gorm:"column:updated_at;not null"`
}

// TableName implements gorm's tabler.
func (WalletRecord) TableName() string { return "wallet_details" }

// WalletKey is freshly generated key material, already sealed.
type WalletKey struct {
	Address          string
	PublicKeyHex     string
	SealedPrivateKey string
}

// WalletFilter narrows a wallet scan.
type WalletFilter struct {
	// ExcludeState skips wallets in this state when non-empty.
	ExcludeState ProvisionState
	// UpdatedBefore skips wallets touched at or after this time when non-zero.
	UpdatedBefore time.Time
	// LegacyKeyOnly keeps only wallets still holding a plain-hex key.
	LegacyKeyOnly bool
}
