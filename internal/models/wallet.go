package models

import (
	"time"

	"github.com/google/uuid"
)

// WalletKind distinguishes the single main wallet of an owner from auxiliary ones.
type WalletKind string

const (
	WalletKindMain WalletKind = "MAIN"
	WalletKindSub  WalletKind = "SUB"
)

// Wallet represents a custodial wallet row in the database
type Wallet struct {
	WalletID            uuid.UUID  `json:"wallet_id" db:"wallet_id"`     // Unique wallet identifier
	OwnerID             uuid.UUID  `json:"owner_id" db:"owner_id"`       // Identifier of the wallet's owner
	Address             string     `json:"address" db:"address"`         // Lowercase hex address
	EncryptedPrivateKey string     `json:"-" db:"encrypted_private_key"` // iv:tag:ciphertext
	PrivateKeySalt      string     `json:"-" db:"private_key_salt"`      // Salt for the private key cipher key
	EncryptedMnemonic   string     `json:"-" db:"encrypted_mnemonic"`    // iv:tag:ciphertext
	MnemonicSalt        string     `json:"-" db:"mnemonic_salt"`         // Salt for the mnemonic cipher key
	Kind                WalletKind `json:"kind" db:"kind"`               // MAIN or SUB
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`   // Timestamp when the wallet was created
}

// WalletInfo carries plaintext secrets. It is returned only on creation and export.
type WalletInfo struct {
	Address    string     `json:"address"`
	PrivateKey string     `json:"privateKey"`
	Mnemonic   string     `json:"mnemonic"`
	Kind       WalletKind `json:"kind"`
}

// NewWalletInfo converts a stored wallet and its decrypted secrets.
func NewWalletInfo(w *Wallet, privateKey, mnemonic string) *WalletInfo {
	return &WalletInfo{
		Address:    w.Address,
		PrivateKey: privateKey,
		Mnemonic:   mnemonic,
		Kind:       w.Kind,
	}
}

// WalletView is the public projection of a wallet.
type WalletView struct {
	Address   string     `json:"address"`
	Kind      WalletKind `json:"kind"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NewWalletView converts a stored wallet to its public projection.
func NewWalletView(w *Wallet) WalletView {
	return WalletView{
		Address:   w.Address,
		Kind:      w.Kind,
		CreatedAt: w.CreatedAt,
	}
}

// SubWalletsRequest asks for n auxiliary wallets
// swagger:model SubWalletsRequest
type SubWalletsRequest struct {
	// Number of wallets, 1 to 20
	// example: 3
	Count int `json:"count"`
}
