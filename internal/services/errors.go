package services

import "errors"

// Validation errors
var (
	ErrInvalidRecipient   = errors.New("invalid recipient")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidToken       = errors.New("invalid token address")
	ErrInvalidWalletCount = errors.New("wallet count must be between 1 and 20")
	ErrUnsupportedChain   = errors.New("unsupported chain")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Not found errors
var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Conflict errors
var (
	ErrWalletAlreadyExists  = errors.New("main wallet already exists")
	ErrUserAlreadyExists    = errors.New("username or email already exists")
	ErrTransactionFinalized = errors.New("transaction already finalized")
	ErrSelfTransfer         = errors.New("cannot transfer to yourself")
)

// ErrNotTokenOwner is wrapped with the token id when the sender does not own an NFT.
var ErrNotTokenOwner = errors.New("sender does not own the token")
