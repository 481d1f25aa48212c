package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/chain"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/executor"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/verifier"
)

//go:generate mockgen -source=transfer.go -destination=transfer_mock_test.go -package=services

// Resolver turns a recipient into an on-chain destination.
type Resolver interface {
	Resolve(ctx context.Context, caller models.Identity, target models.Recipient, policy ResolvePolicy) (*Resolution, error)
}

// BalanceVerifier performs the read-only checks that precede a submission.
type BalanceVerifier interface {
	CheckNativeBalance(ctx context.Context, owner common.Address, amount decimal.Decimal, buffer *big.Int) (*big.Int, error)
	CheckERC20Balance(ctx context.Context, token, owner common.Address, amount decimal.Decimal) (*big.Int, uint8, error)
	CheckNFT721Ownership(ctx context.Context, nft common.Address, tokenID *big.Int, expectedOwner common.Address) (bool, error)
	CheckNFT1155Balance(ctx context.Context, nft, owner common.Address, tokenID, amount *big.Int) error
}

// TransferExecutor submits signed transactions.
type TransferExecutor interface {
	TransferNative(ctx context.Context, signer *executor.Signer, to common.Address, amountWei *big.Int) models.Outcome
	TransferERC20(ctx context.Context, signer *executor.Signer, token, to common.Address, amount *big.Int) models.Outcome
	MultiSend(
		ctx context.Context,
		signer *executor.Signer,
		multisend, token common.Address,
		isNative bool,
		recipients []common.Address,
		perRecipient, total *big.Int,
		resetAllowance bool,
	) models.Outcome
	TransferNFT721(ctx context.Context, signer *executor.Signer, nft, to common.Address, tokenID *big.Int) models.Outcome
	TransferNFT1155(ctx context.Context, signer *executor.Signer, nft, to common.Address, tokenID, amount *big.Int, data []byte) models.Outcome
}

// SenderWallets gives access to the caller's wallet and its key.
type SenderWallets interface {
	FindWallet(ctx context.Context, ownerID uuid.UUID, kind models.WalletKind) (*models.Wallet, error)
	GetPrivateKey(ctx context.Context, address string, ownerID uuid.UUID) (string, error)
}

// TransactionLedger records transfer attempts.
type TransactionLedger interface {
	RecordPending(ctx context.Context, d models.TransferDescriptor) (*models.TransactionRecord, error)
	Finalize(ctx context.Context, rec *models.TransactionRecord, out models.Outcome) (*models.TransactionRecord, error)
}

// ChainIdentifier reports the chain the service is connected to.
type ChainIdentifier interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// ContractRegistry resolves per-chain contract addresses.
type ContractRegistry interface {
	MultisendAddress(chainID int64) (common.Address, error)
	NeedsAllowanceReset(chainID int64, token common.Address) bool
}

// TransferService runs the transfer pipeline: resolve, verify, lock, record, submit, finalize.
type TransferService struct {
	resolver Resolver
	verifier BalanceVerifier
	executor TransferExecutor
	wallets  SenderWallets
	ledger   TransactionLedger
	locker   WalletLocker
	chain    ChainIdentifier
	registry ContractRegistry
	policy   ResolvePolicy
}

func NewTransferService(
	resolver Resolver,
	checker BalanceVerifier,
	exec TransferExecutor,
	wallets SenderWallets,
	ledger TransactionLedger,
	locker WalletLocker,
	network ChainIdentifier,
	registry ContractRegistry,
	policy ResolvePolicy,
) *TransferService {
	return &TransferService{
		resolver: resolver,
		verifier: checker,
		executor: exec,
		wallets:  wallets,
		ledger:   ledger,
		locker:   locker,
		chain:    network,
		registry: registry,
		policy:   policy,
	}
}

// Transfer sends native coin or an ERC20 token to one recipient.
func (s *TransferService) Transfer(ctx context.Context, caller models.Identity, req models.TransferRequest) (*models.TransferResult, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	native := chain.IsNative(req.TokenAddress)
	if !native && !common.IsHexAddress(req.TokenAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidToken, req.TokenAddress)
	}

	from, err := s.senderWallet(ctx, caller)
	if err != nil {
		return nil, err
	}
	fromAddr := common.HexToAddress(from.Address)

	to, err := s.resolver.Resolve(ctx, caller, req.Recipient, s.policy)
	if err != nil {
		return nil, err
	}

	var (
		value *big.Int
		token = common.HexToAddress(req.TokenAddress)
	)
	if native {
		token = chain.ZeroAddress
		value, err = s.verifier.CheckNativeBalance(ctx, fromAddr, req.Amount, verifier.NativeTransferBuffer)
	} else {
		value, _, err = s.verifier.CheckERC20Balance(ctx, token, fromAddr, req.Amount)
	}
	if err != nil {
		return nil, err
	}

	d := models.TransferDescriptor{
		Kind:         models.TransactionKindTransfer,
		TokenAddress: lower(token),
		Amount:       req.Amount,
		FromUser:     caller.Username,
		ToUser:       to.Username(),
		FromAddress:  from.Address,
		ToAddress:    lower(to.Address),
	}

	rec, err := s.execute(ctx, caller, from, d, func(ctx context.Context, signer *executor.Signer) models.Outcome {
		if native {
			return s.executor.TransferNative(ctx, signer, to.Address, value)
		}
		return s.executor.TransferERC20(ctx, signer, token, to.Address, value)
	})
	if err != nil {
		return nil, err
	}
	return models.NewTransferResult(rec, []string{d.ToAddress}), nil
}

// TransferNFT721 moves one ERC721 token the caller owns.
func (s *TransferService) TransferNFT721(ctx context.Context, caller models.Identity, req models.NFT721TransferRequest) (*models.TransferResult, error) {
	if !common.IsHexAddress(req.NFTAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidToken, req.NFTAddress)
	}
	if req.TokenID == nil || req.TokenID.Sign() < 0 {
		return nil, fmt.Errorf("%w: token id", ErrInvalidAmount)
	}
	nft := common.HexToAddress(req.NFTAddress)

	from, err := s.senderWallet(ctx, caller)
	if err != nil {
		return nil, err
	}
	fromAddr := common.HexToAddress(from.Address)

	to, err := s.resolver.Resolve(ctx, caller, req.Recipient, s.nftPolicy())
	if err != nil {
		return nil, err
	}

	owned, err := s.verifier.CheckNFT721Ownership(ctx, nft, req.TokenID, fromAddr)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, fmt.Errorf("%w: token %s", ErrNotTokenOwner, req.TokenID)
	}

	tokenID := req.TokenID.String()
	d := models.TransferDescriptor{
		Kind:         models.TransactionKindTransferNFT721,
		TokenAddress: lower(nft),
		TokenID:      &tokenID,
		Amount:       decimal.NewFromInt(1),
		FromUser:     caller.Username,
		ToUser:       to.Username(),
		FromAddress:  from.Address,
		ToAddress:    lower(to.Address),
	}

	rec, err := s.execute(ctx, caller, from, d, func(ctx context.Context, signer *executor.Signer) models.Outcome {
		return s.executor.TransferNFT721(ctx, signer, nft, to.Address, req.TokenID)
	})
	if err != nil {
		return nil, err
	}
	return models.NewTransferResult(rec, []string{d.ToAddress}), nil
}

// TransferNFT1155 moves an amount of one ERC1155 token id.
func (s *TransferService) TransferNFT1155(ctx context.Context, caller models.Identity, req models.NFT1155TransferRequest) (*models.TransferResult, error) {
	if !common.IsHexAddress(req.NFTAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidToken, req.NFTAddress)
	}
	if req.TokenID == nil || req.TokenID.Sign() < 0 {
		return nil, fmt.Errorf("%w: token id", ErrInvalidAmount)
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	nft := common.HexToAddress(req.NFTAddress)

	from, err := s.senderWallet(ctx, caller)
	if err != nil {
		return nil, err
	}
	fromAddr := common.HexToAddress(from.Address)

	to, err := s.resolver.Resolve(ctx, caller, req.Recipient, s.nftPolicy())
	if err != nil {
		return nil, err
	}

	if err := s.verifier.CheckNFT1155Balance(ctx, nft, fromAddr, req.TokenID, req.Amount); err != nil {
		return nil, err
	}

	tokenID := req.TokenID.String()
	d := models.TransferDescriptor{
		Kind:         models.TransactionKindTransferNFT1155,
		TokenAddress: lower(nft),
		TokenID:      &tokenID,
		Amount:       decimal.NewFromBigInt(req.Amount, 0),
		FromUser:     caller.Username,
		ToUser:       to.Username(),
		FromAddress:  from.Address,
		ToAddress:    lower(to.Address),
	}

	rec, err := s.execute(ctx, caller, from, d, func(ctx context.Context, signer *executor.Signer) models.Outcome {
		return s.executor.TransferNFT1155(ctx, signer, nft, to.Address, req.TokenID, req.Amount, req.Data)
	})
	if err != nil {
		return nil, err
	}
	return models.NewTransferResult(rec, []string{d.ToAddress}), nil
}

// MultiSend sends req.Amount to every wallet in req.Wallets in a single multisend transaction.
func (s *TransferService) MultiSend(ctx context.Context, caller models.Identity, req models.MultiSendRequest) (*models.TransferResult, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if len(req.Wallets) == 0 {
		return nil, fmt.Errorf("%w: at least one wallet is required", ErrInvalidRecipient)
	}
	recipients := make([]common.Address, len(req.Wallets))
	for i, w := range req.Wallets {
		if !common.IsHexAddress(w) {
			return nil, fmt.Errorf("%w: %q is not an address", ErrInvalidRecipient, w)
		}
		recipients[i] = common.HexToAddress(w)
	}
	native := chain.IsNative(req.TokenAddress)
	if !native && !common.IsHexAddress(req.TokenAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidToken, req.TokenAddress)
	}

	chainID, err := s.chainID(ctx, req.ChainID)
	if err != nil {
		return nil, err
	}
	multisend, err := s.registry.MultisendAddress(chainID)
	if err != nil {
		return nil, err
	}

	from, err := s.senderWallet(ctx, caller)
	if err != nil {
		return nil, err
	}
	fromAddr := common.HexToAddress(from.Address)

	total := req.Amount.Mul(decimal.NewFromInt(int64(len(recipients))))
	token := common.HexToAddress(req.TokenAddress)

	var perRecipient, totalUnits *big.Int
	if native {
		token = chain.ZeroAddress
		if perRecipient, err = chain.ToBaseUnits(req.Amount, chain.NativeDecimal); err != nil {
			return nil, err
		}
		totalUnits, err = s.verifier.CheckNativeBalance(ctx, fromAddr, total, nil)
	} else {
		var decimals uint8
		totalUnits, decimals, err = s.verifier.CheckERC20Balance(ctx, token, fromAddr, total)
		if err == nil {
			perRecipient, err = chain.ToBaseUnits(req.Amount, decimals)
		}
	}
	if err != nil {
		return nil, err
	}

	d := models.TransferDescriptor{
		Kind:         models.TransactionKindTransfer,
		TokenAddress: lower(token),
		Amount:       total,
		FromUser:     caller.Username,
		FromAddress:  from.Address,
		ToAddress:    lower(multisend),
	}
	reset := !native && s.registry.NeedsAllowanceReset(chainID, token)

	rec, err := s.execute(ctx, caller, from, d, func(ctx context.Context, signer *executor.Signer) models.Outcome {
		return s.executor.MultiSend(ctx, signer, multisend, token, native, recipients, perRecipient, totalUnits, reset)
	})
	if err != nil {
		return nil, err
	}

	addrs := make([]string, len(recipients))
	for i, r := range recipients {
		addrs[i] = lower(r)
	}
	return models.NewTransferResult(rec, addrs), nil
}

// execute holds the sender lock while the transfer is recorded, submitted and finalized.
func (s *TransferService) execute(
	ctx context.Context,
	caller models.Identity,
	from *models.Wallet,
	d models.TransferDescriptor,
	submit func(ctx context.Context, signer *executor.Signer) models.Outcome,
) (*models.TransactionRecord, error) {
	key, err := s.wallets.GetPrivateKey(ctx, from.Address, caller.ID)
	if err != nil {
		return nil, err
	}
	signer, err := executor.NewSigner(key)
	if err != nil {
		return nil, err
	}
	defer signer.Zero()

	unlock, err := s.locker.Lock(ctx, from.Address)
	if err != nil {
		return nil, fmt.Errorf("lock wallet %s: %w", from.Address, err)
	}
	defer unlock()

	rec, err := s.ledger.RecordPending(ctx, d)
	if err != nil {
		return nil, err
	}

	out := submit(ctx, signer)
	if !out.Success {
		logger.Log.Warnw("transfer failed",
			"transaction_id", rec.TransactionID,
			"from", from.Address,
			"kind", d.Kind,
			"error", out.Error,
		)
	}

	// the outcome is recorded even if the caller went away
	return s.ledger.Finalize(context.WithoutCancel(ctx), rec, out)
}

func (s *TransferService) senderWallet(ctx context.Context, caller models.Identity) (*models.Wallet, error) {
	w, err := s.wallets.FindWallet(ctx, caller.ID, models.WalletKindMain)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWalletNotFound
	}
	return w, nil
}

// chainID returns requested, or the connected chain when requested is zero.
func (s *TransferService) chainID(ctx context.Context, requested int64) (int64, error) {
	current, err := s.chain.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	if requested == 0 {
		return current.Int64(), nil
	}
	if requested != current.Int64() {
		return 0, fmt.Errorf("%w: %d, connected to %d", ErrUnsupportedChain, requested, current.Int64())
	}
	return requested, nil
}

func (s *TransferService) nftPolicy() ResolvePolicy {
	p := s.policy
	p.AllowImplicitCreation = false
	return p
}

func lower(a common.Address) string {
	return strings.ToLower(a.Hex())
}
