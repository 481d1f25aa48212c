package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// Recipient identifies a transfer target by username or by address. Exactly one is set.
type Recipient struct {
	Username string `json:"username,omitempty"`
	Address  string `json:"address,omitempty"`
}

// TransferRequest moves native coin or an ERC20 token to one recipient.
type TransferRequest struct {
	Recipient    Recipient       `json:"recipient"`
	TokenAddress string          `json:"tokenAddress"` // empty, zero or the ETH placeholder for native
	Amount       decimal.Decimal `json:"amount"`
}

// MultiSendRequest distributes the same amount to every wallet in one transaction.
type MultiSendRequest struct {
	ChainID      int64           `json:"chainId"` // 0 means the connected chain
	TokenAddress string          `json:"tokenAddress"`
	Amount       decimal.Decimal `json:"amount"` // per recipient
	Wallets      []string        `json:"wallets"`
}

// NFT721TransferRequest moves one ERC721 token.
type NFT721TransferRequest struct {
	Recipient  Recipient `json:"recipient"`
	NFTAddress string    `json:"nftAddress"`
	TokenID    *big.Int  `json:"tokenId"`
}

// NFT1155TransferRequest moves an amount of one ERC1155 token id.
type NFT1155TransferRequest struct {
	Recipient  Recipient     `json:"recipient"`
	NFTAddress string        `json:"nftAddress"`
	TokenID    *big.Int      `json:"tokenId"`
	Amount     *big.Int      `json:"amount"`
	Data       hexutil.Bytes `json:"data,omitempty"`
}

// TransferResult is returned for every submitted transfer.
type TransferResult struct {
	TransactionHash string            `json:"transactionHash,omitempty"`
	TokenAddress    string            `json:"tokenAddress"`
	TokenID         string            `json:"tokenId,omitempty"`
	Amount          string            `json:"amount"`
	Recipients      []string          `json:"recipients"`
	Status          TransactionStatus `json:"status"`
	Error           string            `json:"error,omitempty"`
}

// NewTransferResult converts a finalized ledger record and its recipients.
func NewTransferResult(r *TransactionRecord, recipients []string) *TransferResult {
	res := &TransferResult{
		TransactionHash: r.TransactionHash,
		TokenAddress:    r.TokenAddress,
		Amount:          r.Amount.String(),
		Recipients:      recipients,
		Status:          r.Status,
		Error:           r.Error,
	}
	if r.TokenID != nil {
		res.TokenID = *r.TokenID
	}
	return res
}

// AddressBalance is one entry of a batch balance read.
type AddressBalance struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Success bool   `json:"success"`
}
