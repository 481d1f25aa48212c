// Package verifier performs the read-only balance and ownership checks that precede a transfer.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/chain"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
)

// ErrInsufficientBalance is matched by every *InsufficientBalanceError.
var ErrInsufficientBalance = errors.New("insufficient balance")

const (
	// BatchSize is the number of sub-calls packed into one aggregate3 request.
	BatchSize = 20
	// batchConcurrency bounds the number of aggregate3 requests in flight.
	batchConcurrency = 4

	nativeSymbol = "ETH"
)

// NativeTransferBuffer is the gas reserve added to native transfer checks: 21000 gas at 20 gwei.
var NativeTransferBuffer = new(big.Int).Mul(big.NewInt(21_000), big.NewInt(20_000_000_000))

// InsufficientBalanceError reports a balance shortfall in base units.
type InsufficientBalanceError struct {
	Required  *big.Int
	Available *big.Int
	Symbol    string
	Decimals  uint8
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: required %s, available %s",
		e.Symbol,
		chain.FromBaseUnits(e.Required, e.Decimals),
		chain.FromBaseUnits(e.Available, e.Decimals),
	)
}

func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

// ChainReader is the read side of chain.Client.
type ChainReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// DecimalsCache stores ERC20 decimals between calls.
type DecimalsCache interface {
	GetDecimals(ctx context.Context, token string) (uint8, error)
	SetDecimals(ctx context.Context, token string, decimals uint8) error
}

// Verifier answers balance and ownership questions against the chain.
type Verifier struct {
	client ChainReader
	cache  DecimalsCache
}

// New creates a Verifier. cache may be nil.
func New(client ChainReader, cache DecimalsCache) *Verifier {
	return &Verifier{client: client, cache: cache}
}

// CheckNativeBalance verifies owner holds amount plus buffer wei and returns the amount in wei.
func (v *Verifier) CheckNativeBalance(
	ctx context.Context,
	owner common.Address,
	amount decimal.Decimal,
	buffer *big.Int,
) (*big.Int, error) {
	value, err := chain.ToBaseUnits(amount, chain.NativeDecimal)
	if err != nil {
		return nil, err
	}

	required := new(big.Int).Set(value)
	if buffer != nil {
		required.Add(required, buffer)
	}

	balance, err := v.client.BalanceAt(ctx, owner, nil)
	if err != nil {
		return nil, fmt.Errorf("get native balance: %w", err)
	}

	if balance.Cmp(required) < 0 {
		return nil, &InsufficientBalanceError{
			Required:  required,
			Available: balance,
			Symbol:    nativeSymbol,
			Decimals:  chain.NativeDecimal,
		}
	}
	return value, nil
}

// TokenDecimals returns the decimals of an ERC20 token, served from the cache when possible.
func (v *Verifier) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	key := token.Hex()
	if v.cache != nil {
		if decimals, err := v.cache.GetDecimals(ctx, key); err == nil {
			return decimals, nil
		}
	}

	var decimals uint8
	if err := v.callView(ctx, token, chain.ERC20ABI, "decimals", &decimals); err != nil {
		return 0, fmt.Errorf("get decimals of %s: %w", key, err)
	}

	if v.cache != nil {
		if err := v.cache.SetDecimals(ctx, key, decimals); err != nil {
			logger.Log.Warnw("failed to cache token decimals", "token", key, "error", err)
		}
	}
	return decimals, nil
}

// CheckERC20Balance verifies owner holds amount of token and returns it in base units with the decimals used.
func (v *Verifier) CheckERC20Balance(
	ctx context.Context,
	token, owner common.Address,
	amount decimal.Decimal,
) (*big.Int, uint8, error) {
	decimals, err := v.TokenDecimals(ctx, token)
	if err != nil {
		return nil, 0, err
	}

	required, err := chain.ToBaseUnits(amount, decimals)
	if err != nil {
		return nil, 0, err
	}

	balance := new(big.Int)
	if err := v.callView(ctx, token, chain.ERC20ABI, "balanceOf", &balance, owner); err != nil {
		return nil, 0, fmt.Errorf("get balance of %s: %w", token.Hex(), err)
	}

	if balance.Cmp(required) < 0 {
		return nil, 0, &InsufficientBalanceError{
			Required:  required,
			Available: balance,
			Symbol:    v.symbol(ctx, token),
			Decimals:  decimals,
		}
	}
	return required, decimals, nil
}

// CheckNFT721Ownership reports whether expectedOwner currently owns tokenID.
func (v *Verifier) CheckNFT721Ownership(
	ctx context.Context,
	nft common.Address,
	tokenID *big.Int,
	expectedOwner common.Address,
) (bool, error) {
	var owner common.Address
	if err := v.callView(ctx, nft, chain.ERC721ABI, "ownerOf", &owner, tokenID); err != nil {
		return false, fmt.Errorf("get owner of %s #%s: %w", nft.Hex(), tokenID, err)
	}
	return strings.EqualFold(owner.Hex(), expectedOwner.Hex()), nil
}

// CheckNFT1155Balance verifies owner holds at least amount of tokenID.
func (v *Verifier) CheckNFT1155Balance(
	ctx context.Context,
	nft, owner common.Address,
	tokenID, amount *big.Int,
) error {
	balance := new(big.Int)
	if err := v.callView(ctx, nft, chain.ERC1155ABI, "balanceOf", &balance, owner, tokenID); err != nil {
		return fmt.Errorf("get balance of %s #%s: %w", nft.Hex(), tokenID, err)
	}

	if balance.Cmp(amount) < 0 {
		return &InsufficientBalanceError{
			Required:  new(big.Int).Set(amount),
			Available: balance,
			Symbol:    fmt.Sprintf("%s#%s", nft.Hex(), tokenID),
		}
	}
	return nil
}

// BatchBalances reads the balance of every address through Multicall3.
// Entries that cannot be read carry a zero balance and Success false.
func (v *Verifier) BatchBalances(
	ctx context.Context,
	token string,
	isNative bool,
	addresses []string,
) ([]models.AddressBalance, error) {
	decimals := chain.NativeDecimal
	tokenAddr := common.HexToAddress(token)

	if !isNative {
		if !common.IsHexAddress(token) {
			return nil, fmt.Errorf("invalid token address %q", token)
		}
		var err error
		if decimals, err = v.TokenDecimals(ctx, tokenAddr); err != nil {
			return nil, err
		}
	}

	build := func(owner common.Address) (chain.Call3, error) {
		if isNative {
			data, err := chain.Multicall3ABI.Pack("getEthBalance", owner)
			return chain.Call3{Target: chain.Multicall3Address, AllowFailure: true, CallData: data}, err
		}
		data, err := chain.ERC20ABI.Pack("balanceOf", owner)
		return chain.Call3{Target: tokenAddr, AllowFailure: true, CallData: data}, err
	}

	return v.batch(ctx, addresses, decimals, build)
}

// BatchAllowances reads the allowance each owner granted spender on token.
func (v *Verifier) BatchAllowances(
	ctx context.Context,
	token common.Address,
	owners []string,
	spender common.Address,
) ([]models.AddressBalance, error) {
	decimals, err := v.TokenDecimals(ctx, token)
	if err != nil {
		return nil, err
	}

	build := func(owner common.Address) (chain.Call3, error) {
		data, err := chain.ERC20ABI.Pack("allowance", owner, spender)
		return chain.Call3{Target: token, AllowFailure: true, CallData: data}, err
	}

	return v.batch(ctx, owners, decimals, build)
}

// batch splits addresses into aggregate3 requests of BatchSize and runs them concurrently.
func (v *Verifier) batch(
	ctx context.Context,
	addresses []string,
	decimals uint8,
	build func(owner common.Address) (chain.Call3, error),
) ([]models.AddressBalance, error) {
	results := make([]models.AddressBalance, len(addresses))
	valid := make([]int, 0, len(addresses))
	for i, a := range addresses {
		results[i] = models.AddressBalance{Address: a, Balance: "0"}
		if common.IsHexAddress(a) {
			valid = append(valid, i)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for start := 0; start < len(valid); start += BatchSize {
		end := min(start+BatchSize, len(valid))
		indexes := valid[start:end]

		g.Go(func() error {
			calls := make([]chain.Call3, len(indexes))
			for j, idx := range indexes {
				c, err := build(common.HexToAddress(addresses[idx]))
				if err != nil {
					return err
				}
				calls[j] = c
			}

			out, err := v.aggregate3(gctx, calls)
			if err != nil {
				logger.Log.Warnw("multicall batch failed",
					"size", len(calls),
					"error", err,
				)
				return nil
			}

			for j, idx := range indexes {
				if j >= len(out) || !out[j].Success || len(out[j].ReturnData) < 32 {
					continue
				}
				value := new(big.Int).SetBytes(out[j].ReturnData[:32])
				results[idx].Balance = chain.FromBaseUnits(value, decimals).String()
				results[idx].Success = true
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (v *Verifier) aggregate3(ctx context.Context, calls []chain.Call3) ([]chain.Call3Result, error) {
	data, err := chain.Multicall3ABI.Pack("aggregate3", calls)
	if err != nil {
		return nil, err
	}

	to := chain.Multicall3Address
	raw, err := v.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}

	unpacked, err := chain.Multicall3ABI.Unpack("aggregate3", raw)
	if err != nil {
		return nil, fmt.Errorf("decode aggregate3: %w", err)
	}
	if len(unpacked) == 0 {
		return nil, errors.New("decode aggregate3: empty result")
	}
	return *abi.ConvertType(unpacked[0], new([]chain.Call3Result)).(*[]chain.Call3Result), nil
}

// symbol returns the token symbol, falling back to its address.
func (v *Verifier) symbol(ctx context.Context, token common.Address) string {
	var s string
	if err := v.callView(ctx, token, chain.ERC20ABI, "symbol", &s); err != nil || s == "" {
		return token.Hex()
	}
	return s
}

// callView packs method, performs an eth_call against contract and unpacks the single output into out.
func (v *Verifier) callView(
	ctx context.Context,
	contract common.Address,
	contractABI abi.ABI,
	method string,
	out any,
	args ...any,
) error {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("pack %s: %w", method, err)
	}

	raw, err := v.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return err
	}

	values, err := contractABI.Unpack(method, raw)
	if err != nil {
		return fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return fmt.Errorf("unpack %s: expected 1 value, got %d", method, len(values))
	}

	switch dst := out.(type) {
	case *uint8:
		*dst = *abi.ConvertType(values[0], new(uint8)).(*uint8)
	case **big.Int:
		*dst = *abi.ConvertType(values[0], new(*big.Int)).(**big.Int)
	case *common.Address:
		*dst = *abi.ConvertType(values[0], new(common.Address)).(*common.Address)
	case *string:
		*dst = *abi.ConvertType(values[0], new(string)).(*string)
	default:
		return fmt.Errorf("unpack %s: unsupported output %T", method, out)
	}
	return nil
}
