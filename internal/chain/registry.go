package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Known chain ids.
const (
	Ethereum      int64 = 1
	Base          int64 = 8453
	MonadTestnet  int64 = 10143
	DefaultChain        = Base
	NativeDecimal uint8 = 18
)

// Well-known addresses shared by every chain.
var (
	Multicall3Address = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")
	ETHPlaceholder    = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")
	ZeroAddress       = common.Address{}
)

// Registry maps chain ids to the contracts the wallet pipeline talks to.
type Registry struct {
	multisend     map[int64]common.Address
	wrappedNative map[int64]common.Address
	ethAddress    map[int64]common.Address
	usdt          map[int64]common.Address
}

// NewRegistry returns the registry of deployed contracts.
func NewRegistry() *Registry {
	return &Registry{
		multisend: map[int64]common.Address{
			Base:         common.HexToAddress("0x2288392445A6323A59bbA29f6672715413a172df"),
			MonadTestnet: common.HexToAddress("0x2cE4A6bC94C6844C1056B3b80eD3F243a7eaF14e"),
		},
		wrappedNative: map[int64]common.Address{
			Base:         common.HexToAddress("0x4200000000000000000000000000000000000006"),
			MonadTestnet: common.HexToAddress("0x760AfE86e5de5fa0Ee542fc7B7B713e1c5425701"),
		},
		ethAddress: map[int64]common.Address{
			Base:         ETHPlaceholder,
			MonadTestnet: ETHPlaceholder,
		},
		usdt: map[int64]common.Address{
			Ethereum: common.HexToAddress("0xdac17f958d2ee523a2206206994597c13d831ec7"),
			Base:     common.HexToAddress("0xfde4C96c8593536E31F229EA8f37b2ADa2699bb2"),
		},
	}
}

// WithMultisend registers or replaces a multisend deployment.
func (r *Registry) WithMultisend(chainID int64, addr common.Address) *Registry {
	r.multisend[chainID] = addr
	return r
}

// WithUSDT registers a token that needs the allowance reset pattern.
func (r *Registry) WithUSDT(chainID int64, addr common.Address) *Registry {
	r.usdt[chainID] = addr
	return r
}

// MultisendAddress returns the multisend contract for chainID.
func (r *Registry) MultisendAddress(chainID int64) (common.Address, error) {
	addr, ok := r.multisend[chainID]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: chain %d", ErrMultisendNotConfigured, chainID)
	}
	return addr, nil
}

// WrappedNative returns the wrapped native token for chainID.
func (r *Registry) WrappedNative(chainID int64) (common.Address, bool) {
	addr, ok := r.wrappedNative[chainID]
	return addr, ok
}

// ETHAddress returns the placeholder used for the native coin on chainID.
func (r *Registry) ETHAddress(chainID int64) (common.Address, bool) {
	addr, ok := r.ethAddress[chainID]
	return addr, ok
}

// NeedsAllowanceReset reports whether token refuses non-zero to non-zero allowance changes on chainID.
func (r *Registry) NeedsAllowanceReset(chainID int64, token common.Address) bool {
	addr, ok := r.usdt[chainID]
	return ok && addr == token
}

// IsNative reports whether token denotes the native coin: empty, zero or the ETH placeholder.
// Strings that are not well-formed addresses are never native.
func IsNative(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return true
	}
	if !common.IsHexAddress(token) {
		return false
	}
	addr := common.HexToAddress(token)
	return addr == ZeroAddress || addr == ETHPlaceholder
}
