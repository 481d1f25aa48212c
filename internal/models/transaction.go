package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind is the operation recorded in the ledger.
type TransactionKind string

const (
	TransactionKindDeposit         TransactionKind = "DEPOSIT"
	TransactionKindWithdraw        TransactionKind = "WITHDRAW"
	TransactionKindTransfer        TransactionKind = "TRANSFER"
	TransactionKindTransferNFT721  TransactionKind = "TRANSFER_NFT721"
	TransactionKindTransferNFT1155 TransactionKind = "TRANSFER_NFT1155"
)

// TransactionStatus is the lifecycle state of a ledger record.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
)

// IsFinal reports whether the status can no longer change.
func (s TransactionStatus) IsFinal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// TransactionRecord represents a ledger row in the database
type TransactionRecord struct {
	TransactionID   uuid.UUID         `json:"transaction_id" db:"transaction_id"`     // Unique record identifier
	Kind            TransactionKind   `json:"kind" db:"kind"`                         // Operation type
	Status          TransactionStatus `json:"status" db:"status"`                     // Lifecycle state
	TokenAddress    string            `json:"token_address" db:"token_address"`       // Token or NFT contract, zero address for native
	TokenID         *string           `json:"token_id,omitempty" db:"token_id"`       // NFT token id
	Amount          decimal.Decimal   `json:"amount" db:"amount"`                     // Amount in token units
	FromUser        string            `json:"from_user" db:"from_user"`               // Sender username
	ToUser          *string           `json:"to_user,omitempty" db:"to_user"`         // Recipient username when known
	FromAddress     string            `json:"from_address" db:"from_address"`         // Sender address
	ToAddress       string            `json:"to_address" db:"to_address"`             // Recipient or contract address
	TransactionHash string            `json:"transaction_hash" db:"transaction_hash"` // Set only once COMPLETED
	Error           string            `json:"error,omitempty" db:"error"`             // Failure reason once FAILED
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`             // Creation timestamp
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`             // Last update timestamp
}

// TransferDescriptor describes a transfer about to be submitted.
type TransferDescriptor struct {
	Kind         TransactionKind
	TokenAddress string
	TokenID      *string
	Amount       decimal.Decimal
	FromUser     string
	ToUser       *string
	FromAddress  string
	ToAddress    string
}

// NewPendingRecord converts a descriptor into a fresh PENDING record.
func NewPendingRecord(d TransferDescriptor, now time.Time) *TransactionRecord {
	return &TransactionRecord{
		TransactionID: uuid.New(),
		Kind:          d.Kind,
		Status:        TransactionStatusPending,
		TokenAddress:  d.TokenAddress,
		TokenID:       d.TokenID,
		Amount:        d.Amount,
		FromUser:      d.FromUser,
		ToUser:        d.ToUser,
		FromAddress:   d.FromAddress,
		ToAddress:     d.ToAddress,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Outcome is the result of submitting a transaction on chain.
type Outcome struct {
	Success bool   `json:"success"`
	TxHash  string `json:"transactionHash,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TransactionEvent is published once a ledger record is finalized.
type TransactionEvent struct {
	TransactionID   string `json:"transaction_id"`
	Kind            string `json:"kind"`
	Status          string `json:"status"`
	TokenAddress    string `json:"token_address"`
	TokenID         string `json:"token_id,omitempty"`
	Amount          string `json:"amount"`
	FromUser        string `json:"from_user"`
	ToUser          string `json:"to_user,omitempty"`
	FromAddress     string `json:"from_address"`
	ToAddress       string `json:"to_address"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	Timestamp       int64  `json:"timestamp"`
}

// NewTransactionEvent converts a finalized record into its published form.
func NewTransactionEvent(r *TransactionRecord) TransactionEvent {
	e := TransactionEvent{
		TransactionID:   r.TransactionID.String(),
		Kind:            string(r.Kind),
		Status:          string(r.Status),
		TokenAddress:    r.TokenAddress,
		Amount:          r.Amount.String(),
		FromUser:        r.FromUser,
		FromAddress:     r.FromAddress,
		ToAddress:       r.ToAddress,
		TransactionHash: r.TransactionHash,
		Timestamp:       r.UpdatedAt.Unix(),
	}
	if r.TokenID != nil {
		e.TokenID = *r.TokenID
	}
	if r.ToUser != nil {
		e.ToUser = *r.ToUser
	}
	return e
}
