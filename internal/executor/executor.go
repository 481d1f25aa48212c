// Package executor builds, signs and submits transfer transactions and waits for their receipts.
package executor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/chain"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
)

const (
	DefaultConfirmationTimeout = 120 * time.Second
	DefaultPollInterval        = 2 * time.Second

	nativeTransferGas     uint64 = 21_000
	gasLimitMarginPercent uint64 = 20
)

var (
	errSignerZeroed = errors.New("signer has been zeroed")
	// ErrTransactionReverted is reported when a receipt carries status 0.
	ErrTransactionReverted = errors.New("transaction reverted")
)

// ChainClient is the part of chain.Client used to submit transactions.
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	FeeData(ctx context.Context) (*chain.FeeData, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Executor submits transfers. Every operation reports its result as a models.Outcome.
type Executor struct {
	client         ChainClient
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

type Option func(*Executor)

// WithConfirmationTimeout bounds the wait for a receipt.
func WithConfirmationTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.confirmTimeout = d
		}
	}
}

// WithPollInterval sets the delay between receipt polls.
func WithPollInterval(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

func New(client ChainClient, opts ...Option) *Executor {
	e := &Executor{
		client:         client,
		confirmTimeout: DefaultConfirmationTimeout,
		pollInterval:   DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TransferNative sends amountWei of the native coin to to.
func (e *Executor) TransferNative(ctx context.Context, signer *Signer, to common.Address, amountWei *big.Int) models.Outcome {
	return e.submit(ctx, signer, to, amountWei, nil)
}

// TransferERC20 calls token.transfer(to, amount).
func (e *Executor) TransferERC20(ctx context.Context, signer *Signer, token, to common.Address, amount *big.Int) models.Outcome {
	data, err := chain.ERC20ABI.Pack("transfer", to, amount)
	if err != nil {
		return failed("", fmt.Errorf("pack transfer: %w", err))
	}
	return e.submit(ctx, signer, token, nil, data)
}

// MultiSend sends perRecipient to every recipient in one transaction through the multisend contract.
// For tokens the contract is first approved for total.
func (e *Executor) MultiSend(
	ctx context.Context,
	signer *Signer,
	multisend, token common.Address,
	isNative bool,
	recipients []common.Address,
	perRecipient, total *big.Int,
	resetAllowance bool,
) models.Outcome {
	amounts := make([]*big.Int, len(recipients))
	for i := range amounts {
		amounts[i] = new(big.Int).Set(perRecipient)
	}

	if isNative {
		data, err := chain.MultisendABI.Pack("multiSend", recipients, amounts)
		if err != nil {
			return failed("", fmt.Errorf("pack multiSend: %w", err))
		}
		return e.submit(ctx, signer, multisend, total, data)
	}

	if out := e.EnsureAllowance(ctx, signer, token, multisend, total, resetAllowance); !out.Success {
		return out
	}

	data, err := chain.MultisendABI.Pack("multiSendERC20", recipients, amounts, token)
	if err != nil {
		return failed("", fmt.Errorf("pack multiSendERC20: %w", err))
	}
	return e.submit(ctx, signer, multisend, nil, data)
}

// TransferNFT721 calls nft.safeTransferFrom(signer, to, tokenID).
func (e *Executor) TransferNFT721(ctx context.Context, signer *Signer, nft, to common.Address, tokenID *big.Int) models.Outcome {
	data, err := chain.ERC721ABI.Pack("safeTransferFrom", signer.Address(), to, tokenID)
	if err != nil {
		return failed("", fmt.Errorf("pack safeTransferFrom: %w", err))
	}
	return e.submit(ctx, signer, nft, nil, data)
}

// TransferNFT1155 calls nft.safeTransferFrom(signer, to, tokenID, amount, data).
func (e *Executor) TransferNFT1155(
	ctx context.Context,
	signer *Signer,
	nft, to common.Address,
	tokenID, amount *big.Int,
	payload []byte,
) models.Outcome {
	if payload == nil {
		payload = []byte{}
	}
	data, err := chain.ERC1155ABI.Pack("safeTransferFrom", signer.Address(), to, tokenID, amount, payload)
	if err != nil {
		return failed("", fmt.Errorf("pack safeTransferFrom: %w", err))
	}
	return e.submit(ctx, signer, nft, nil, data)
}

// EnsureAllowance makes sure spender may move at least amount of token on behalf of the signer.
// With resetFirst a non-zero allowance is set to zero and confirmed before the new approval.
func (e *Executor) EnsureAllowance(
	ctx context.Context,
	signer *Signer,
	token, spender common.Address,
	amount *big.Int,
	resetFirst bool,
) models.Outcome {
	current, err := e.allowance(ctx, token, signer.Address(), spender)
	if err != nil {
		return failed("", fmt.Errorf("get allowance: %w", err))
	}
	if current.Cmp(amount) >= 0 {
		return models.Outcome{Success: true}
	}

	if resetFirst && current.Sign() > 0 {
		logger.Log.Infow("resetting allowance",
			"token", token.Hex(),
			"spender", spender.Hex(),
			"current", current.String(),
		)
		if out := e.approve(ctx, signer, token, spender, new(big.Int)); !out.Success {
			return out
		}
	}

	return e.approve(ctx, signer, token, spender, amount)
}

func (e *Executor) approve(ctx context.Context, signer *Signer, token, spender common.Address, amount *big.Int) models.Outcome {
	data, err := chain.ERC20ABI.Pack("approve", spender, amount)
	if err != nil {
		return failed("", fmt.Errorf("pack approve: %w", err))
	}
	return e.submit(ctx, signer, token, nil, data)
}

func (e *Executor) allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data, err := chain.ERC20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	raw, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	values, err := chain.ERC20ABI.Unpack("allowance", raw)
	if err != nil {
		return nil, err
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected allowance type %T", values[0])
	}
	return v, nil
}

// submit signs and broadcasts one transaction and waits for its receipt.
func (e *Executor) submit(ctx context.Context, signer *Signer, to common.Address, value *big.Int, data []byte) models.Outcome {
	if signer == nil || signer.key == nil {
		return failed("", errSignerZeroed)
	}
	if value == nil {
		value = new(big.Int)
	}
	from := signer.Address()

	chainID, err := e.client.ChainID(ctx)
	if err != nil {
		return failed("", fmt.Errorf("get chain id: %w", err))
	}

	nonce, err := e.client.PendingNonceAt(ctx, from)
	if err != nil {
		return failed("", fmt.Errorf("get nonce: %w", err))
	}

	fees, err := e.client.FeeData(ctx)
	if err != nil {
		return failed("", fmt.Errorf("get fee data: %w", err))
	}

	gas := nativeTransferGas
	if len(data) > 0 {
		estimated, err := e.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
		if err != nil {
			return failed("", fmt.Errorf("estimate gas: %w", err))
		}
		gas = estimated + estimated*gasLimitMarginPercent/100
	}

	var txData types.TxData
	if fees.IsDynamic() {
		txData = &types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: fees.GasTipCap,
			GasFeeCap: fees.GasFeeCap,
			Gas:       gas,
			To:        &to,
			Value:     value,
			Data:      data,
		}
	} else {
		txData = &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: fees.GasPrice,
			Gas:      gas,
			To:       &to,
			Value:    value,
			Data:     data,
		}
	}

	tx, err := types.SignNewTx(signer.key, types.LatestSignerForChainID(chainID), txData)
	if err != nil {
		return failed("", fmt.Errorf("sign transaction: %w", err))
	}

	if err := e.client.SendTransaction(ctx, tx); err != nil {
		return failed("", fmt.Errorf("send transaction: %w", err))
	}

	hash := tx.Hash().Hex()
	logger.Log.Infow("transaction submitted",
		"hash", hash,
		"from", from.Hex(),
		"to", to.Hex(),
		"nonce", nonce,
		"gas", gas,
	)

	receipt, err := e.waitReceipt(ctx, tx.Hash())
	if err != nil {
		logger.Log.Warnw("transaction unconfirmed, may still mine",
			"hash", hash,
			"from", from.Hex(),
			"nonce", nonce,
			"timeout", e.confirmTimeout,
			"error", err,
		)
		return failed(hash, err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		logger.Log.Warnw("transaction rejected", "hash", hash, "block", receipt.BlockNumber)
		return failed(hash, fmt.Errorf("%w: %s", ErrTransactionReverted, hash))
	}

	logger.Log.Infow("transaction confirmed", "hash", hash, "block", receipt.BlockNumber, "gasUsed", receipt.GasUsed)
	return models.Outcome{Success: true, TxHash: hash}
}

// waitReceipt polls for the receipt of hash until it appears or the confirmation timeout elapses.
func (e *Executor) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		receipt, err := e.client.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			lastErr = err
			logger.Log.Debugw("receipt poll failed", "hash", hash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return nil, fmt.Errorf("%w: %s within %s: %w", chain.ErrTransactionNotConfirmed, hash.Hex(), e.confirmTimeout, lastErr)
			}
			return nil, fmt.Errorf("%w: %s within %s", chain.ErrTransactionNotConfirmed, hash.Hex(), e.confirmTimeout)
		case <-ticker.C:
		}
	}
}

// failed converts an error into an unsuccessful outcome. hash is kept when the transaction was broadcast.
func failed(hash string, err error) models.Outcome {
	return models.Outcome{Success: false, TxHash: hash, Error: err.Error()}
}
