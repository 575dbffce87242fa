package model

import (
	"fmt"
	"time"
)

// AssetKind is what a receipt moved.
type AssetKind string

const (
	AssetGas      AssetKind = "gas"
	AssetToken    AssetKind = "token"
	AssetRegister AssetKind = "register" // token store registration, amount 0
)

// Valid reports whether k is a known asset kind.
func (k AssetKind) Valid() bool {
	return k == AssetGas || k == AssetToken || k == AssetRegister
}

// TreasuryID names the funding sender in receipts and signing requests.
const TreasuryID = "treasury"

// TransferReceipt is one confirmed on-chain transaction (table wallet_transactions).
type TransferReceipt struct {
	TransactionID   string    `json:"transaction_id" dynamodbav:"transaction_id" gorm:"column:transaction_id;primaryKey;type:varchar(128)"`
	FromEmail       string    `json:"from_email" dynamodbav:"from_email" gorm:"column:from_email;type:varchar(320);index"`
	ToEmail         string    `json:"to_email" dynamodbav:"to_email" gorm:"column:to_email;type:varchar(320);index"`
	FromAddress     string    `json:"from_address" dynamodbav:"from_address" gorm:"column:from_address;type:varchar(64)"`
	ToAddress       string    `json:"to_address" dynamodbav:"to_address" gorm:"column:to_address;type:varchar(64)"`
	Amount          uint64    `json:"amount" dynamodbav:"amount" gorm:"column:amount;not null"`
	CoinType        AssetKind `json:"coin_type" dynamodbav:"coin_type" gorm:"column:coin_type;type:varchar(16);not null"`
	Status          bool      `json:"status" dynamodbav:"status" gorm:"column:status;not null"`
	Error           string    `json:"error,omitempty" dynamodbav:"error,omitempty" gorm:"column:error;type:text"`
	TransactionDate time.Time `json:"transaction_date" dynamodbav:"transaction_date" gorm:"column:transaction_date;not null"`
}

// TableName implements gorm's tabler.
func (TransferReceipt) TableName() string { return "wallet_transactions" }

// TransactionType transaction type, from the point of view of the queried wallet
type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"  // received
	TransactionTypeCredit TransactionType = "CREDIT" // sent
)

// Transaction represents a receipt as seen by one wallet
type Transaction struct {
	Type        TransactionType `json:"type"`
	TxID        string          `json:"txId"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Counterpart string          `json:"counterpart,omitempty"`
	Amount      uint64          `json:"amount"`
	CoinType    AssetKind       `json:"coinType"`
	Timestamp   time.Time       `json:"timestamp"`
	Status      bool            `json:"status"`
}

// LogResponse represents response for GET /wallet-transactions/{email}
type LogResponse struct {
	Email         string        `json:"email"`
	Address       string        `json:"address"`
	TotalReceived uint64        `json:"total_received_token"` // successful token receipts only
	TotalSent     uint64        `json:"total_sent_token"`     // successful token receipts only
	Transactions  []Transaction `json:"transactions"`
}

// LogRequest represents filter parameters for GET /wallet-transactions/{email}
type LogRequest struct {
	Type      *TransactionType
	TxID      *string
	From      *time.Time
	To        *time.Time
	MinAmount *uint64
	MaxAmount *uint64
	CoinType  *AssetKind
}

// Validate validates LogRequest filter parameters.
func (r *LogRequest) Validate() error {
	if r.Type != nil && *r.Type != TransactionTypeDebit && *r.Type != TransactionTypeCredit {
		return fmt.Errorf("%w: type must be DEBIT or CREDIT", ErrValidation)
	}
	if r.CoinType != nil && !r.CoinType.Valid() {
		return fmt.Errorf("%w: coinType must be gas, token or register", ErrValidation)
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return fmt.Errorf("%w: to date must be after or equal to from date", ErrValidation)
	}
	if r.MinAmount != nil && r.MaxAmount != nil && *r.MinAmount > *r.MaxAmount {
		return fmt.Errorf("%w: minAmount must be less than or equal to maxAmount", ErrValidation)
	}
	return nil
}
