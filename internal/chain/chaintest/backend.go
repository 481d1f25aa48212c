// Package chaintest provides an in-memory EVM backend for tests of code built on chain.Client.
package chaintest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/chain"
)

var errReverted = errors.New("execution reverted")

// Token is a fake ERC20 deployment.
type Token struct {
	Decimals      uint8
	Symbol        string
	Balances      map[common.Address]*big.Int
	Allowances    map[common.Address]map[common.Address]*big.Int
	ResetRequired bool // reject non-zero to non-zero approve like USDT
	FailDecimals  bool
}

// Sent is a transaction accepted by the fake backend.
type Sent struct {
	Hash   common.Hash
	From   common.Address
	To     common.Address
	Value  *big.Int
	Method string
	Args   []interface{}
	Status uint64
	Type   uint8
}

// Backend implements chain.Backend over in-memory state.
type Backend struct {
	mu sync.Mutex

	chainID *big.Int
	baseFee *big.Int

	native     map[common.Address]*big.Int
	tokens     map[common.Address]*Token
	nft721     map[common.Address]map[string]common.Address
	nft1155    map[common.Address]map[string]map[common.Address]*big.Int
	multisends map[common.Address]bool
	nonces     map[common.Address]uint64

	txs      map[common.Hash]*types.Transaction
	receipts map[common.Hash]*types.Receipt
	sent     []*Sent
	calls    map[string]int

	// CallErr, when set, fails every eth_call.
	CallErr error
	// SendErr, when set, fails every broadcast.
	SendErr error
	// Pending keeps receipts hidden until a later poll.
	Pending int
}

// New creates an empty EIP-1559 chain.
func New(chainID int64) *Backend {
	return &Backend{
		chainID:    big.NewInt(chainID),
		baseFee:    big.NewInt(1_000_000_000),
		native:     map[common.Address]*big.Int{},
		tokens:     map[common.Address]*Token{},
		nft721:     map[common.Address]map[string]common.Address{},
		nft1155:    map[common.Address]map[string]map[common.Address]*big.Int{},
		multisends: map[common.Address]bool{},
		nonces:     map[common.Address]uint64{},
		txs:        map[common.Hash]*types.Transaction{},
		receipts:   map[common.Hash]*types.Receipt{},
		calls:      map[string]int{},
	}
}

var _ chain.Backend = (*Backend)(nil)

// Legacy switches the chain to pre-London pricing.
func (b *Backend) Legacy() *Backend {
	b.baseFee = nil
	return b
}

func (b *Backend) SetNativeBalance(addr common.Address, wei *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.native[addr] = new(big.Int).Set(wei)
}

func (b *Backend) NativeBalance(addr common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bigOrZero(b.native[addr])
}

// AddToken deploys a fake ERC20 at addr.
func (b *Backend) AddToken(addr common.Address, decimals uint8, symbol string) *Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := &Token{
		Decimals:   decimals,
		Symbol:     symbol,
		Balances:   map[common.Address]*big.Int{},
		Allowances: map[common.Address]map[common.Address]*big.Int{},
	}
	b.tokens[addr] = t
	return t
}

func (b *Backend) SetTokenBalance(token, owner common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token].Balances[owner] = new(big.Int).Set(amount)
}

func (b *Backend) TokenBalance(token, owner common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bigOrZero(b.tokens[token].Balances[owner])
}

func (b *Backend) SetAllowance(token, owner, spender common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setAllowance(b.tokens[token], owner, spender, amount)
}

func (b *Backend) Allowance(token, owner, spender common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bigOrZero(b.tokens[token].Allowances[owner][spender])
}

func (b *Backend) SetNFT721Owner(nft common.Address, tokenID *big.Int, owner common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nft721[nft] == nil {
		b.nft721[nft] = map[string]common.Address{}
	}
	b.nft721[nft][tokenID.String()] = owner
}

func (b *Backend) NFT721Owner(nft common.Address, tokenID *big.Int) common.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nft721[nft][tokenID.String()]
}

func (b *Backend) SetNFT1155Balance(nft common.Address, id *big.Int, owner common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.set1155(nft, id, owner, amount)
}

func (b *Backend) NFT1155Balance(nft common.Address, id *big.Int, owner common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bigOrZero(b.nft1155[nft][id.String()][owner])
}

// AddMultisend deploys a fake multisend contract at addr.
func (b *Backend) AddMultisend(addr common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.multisends[addr] = true
}

// Sent returns the accepted transactions in broadcast order.
func (b *Backend) Sent() []*Sent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Sent, len(b.sent))
	copy(out, b.sent)
	return out
}

// Calls returns how many times an RPC method was invoked.
func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	b.count("eth_chainId")
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_getBalance"]++
	return bigOrZero(b.native[account]), nil
}

func (b *Backend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_call"]++
	if b.CallErr != nil {
		return nil, b.CallErr
	}
	if msg.To == nil {
		return nil, errReverted
	}
	return b.call(*msg.To, msg.Data)
}

func (b *Backend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.count("eth_estimateGas")
	if len(msg.Data) == 0 {
		return 21_000, nil
	}
	return 100_000, nil
}

func (b *Backend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	b.count("eth_gasPrice")
	return big.NewInt(2_000_000_000), nil
}

func (b *Backend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	b.count("eth_maxPriorityFeePerGas")
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_getBlockByNumber"]++
	h := &types.Header{Number: big.NewInt(int64(len(b.sent) + 1))}
	if b.baseFee != nil {
		h.BaseFee = new(big.Int).Set(b.baseFee)
	}
	return h, nil
}

func (b *Backend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_getTransactionCount"]++
	return b.nonces[account], nil
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_sendRawTransaction"]++
	if b.SendErr != nil {
		return b.SendErr
	}

	from, err := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if tx.Nonce() != b.nonces[from] {
		return fmt.Errorf("nonce too low: have %d want %d", tx.Nonce(), b.nonces[from])
	}
	if _, ok := b.txs[tx.Hash()]; ok {
		return errors.New("already known")
	}
	b.nonces[from]++

	s := &Sent{
		Hash:  tx.Hash(),
		From:  from,
		Value: new(big.Int).Set(tx.Value()),
		Type:  tx.Type(),
	}
	if tx.To() != nil {
		s.To = *tx.To()
	}

	status := types.ReceiptStatusSuccessful
	if err := b.apply(s, tx.Data()); err != nil {
		status = types.ReceiptStatusFailed
	}
	s.Status = status

	b.sent = append(b.sent, s)
	b.txs[tx.Hash()] = tx
	b.receipts[tx.Hash()] = &types.Receipt{
		Type:        tx.Type(),
		Status:      status,
		TxHash:      tx.Hash(),
		GasUsed:     tx.Gas(),
		BlockNumber: big.NewInt(int64(len(b.sent))),
	}
	return nil
}

func (b *Backend) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_getTransactionByHash"]++
	tx, ok := b.txs[hash]
	if !ok {
		return nil, false, ethereum.NotFound
	}
	return tx, false, nil
}

func (b *Backend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_getTransactionReceipt"]++
	if b.Pending > 0 {
		b.Pending--
		return nil, ethereum.NotFound
	}
	r, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (b *Backend) count(method string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[method]++
}

// call serves a read-only contract call. Callers hold b.mu.
func (b *Backend) call(to common.Address, data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, errReverted
	}

	switch {
	case to == chain.Multicall3Address:
		return b.callMulticall(data)
	case b.tokens[to] != nil:
		return b.callToken(b.tokens[to], data)
	case b.nft721[to] != nil:
		return b.callNFT721(b.nft721[to], data)
	case b.nft1155[to] != nil:
		return b.callNFT1155(b.nft1155[to], data)
	}
	return nil, errReverted
}

func (b *Backend) callMulticall(data []byte) ([]byte, error) {
	method, args, err := decode(chain.Multicall3ABI, data)
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "getEthBalance":
		return method.Outputs.Pack(bigOrZero(b.native[args[0].(common.Address)]))
	case "aggregate3":
		calls := *abi.ConvertType(args[0], new([]chain.Call3)).(*[]chain.Call3)
		results := make([]chain.Call3Result, len(calls))
		for i, c := range calls {
			ret, err := b.call(c.Target, c.CallData)
			if err != nil {
				if !c.AllowFailure {
					return nil, errReverted
				}
				continue
			}
			results[i] = chain.Call3Result{Success: true, ReturnData: ret}
		}
		return method.Outputs.Pack(results)
	}
	return nil, errReverted
}

func (b *Backend) callToken(t *Token, data []byte) ([]byte, error) {
	method, args, err := decode(chain.ERC20ABI, data)
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "decimals":
		if t.FailDecimals {
			return nil, errReverted
		}
		return method.Outputs.Pack(t.Decimals)
	case "symbol":
		return method.Outputs.Pack(t.Symbol)
	case "name":
		return method.Outputs.Pack(t.Symbol)
	case "balanceOf":
		return method.Outputs.Pack(bigOrZero(t.Balances[args[0].(common.Address)]))
	case "allowance":
		owner, spender := args[0].(common.Address), args[1].(common.Address)
		return method.Outputs.Pack(bigOrZero(t.Allowances[owner][spender]))
	}
	return nil, errReverted
}

func (b *Backend) callNFT721(owners map[string]common.Address, data []byte) ([]byte, error) {
	method, args, err := decode(chain.ERC721ABI, data)
	if err != nil {
		return nil, err
	}
	if method.Name != "ownerOf" {
		return nil, errReverted
	}
	owner, ok := owners[args[0].(*big.Int).String()]
	if !ok {
		return nil, fmt.Errorf("%w: invalid token id", errReverted)
	}
	return method.Outputs.Pack(owner)
}

func (b *Backend) callNFT1155(balances map[string]map[common.Address]*big.Int, data []byte) ([]byte, error) {
	method, args, err := decode(chain.ERC1155ABI, data)
	if err != nil {
		return nil, err
	}
	if method.Name != "balanceOf" {
		return nil, errReverted
	}
	owner, id := args[0].(common.Address), args[1].(*big.Int)
	return method.Outputs.Pack(bigOrZero(balances[id.String()][owner]))
}

// apply executes a state-changing transaction. Callers hold b.mu.
func (b *Backend) apply(s *Sent, data []byte) error {
	if len(data) == 0 {
		s.Method = "transfer"
		return b.moveNative(s.From, s.To, s.Value)
	}

	switch {
	case b.tokens[s.To] != nil:
		return b.applyToken(s, b.tokens[s.To], data)
	case b.multisends[s.To]:
		return b.applyMultisend(s, data)
	case b.nft721[s.To] != nil:
		return b.applyNFT721(s, data)
	case b.nft1155[s.To] != nil:
		return b.applyNFT1155(s, data)
	}
	return errReverted
}

func (b *Backend) applyToken(s *Sent, t *Token, data []byte) error {
	method, args, err := decode(chain.ERC20ABI, data)
	if err != nil {
		return err
	}
	s.Method, s.Args = method.Name, args

	switch method.Name {
	case "transfer":
		return moveToken(t, s.From, args[0].(common.Address), args[1].(*big.Int))
	case "approve":
		spender, amount := args[0].(common.Address), args[1].(*big.Int)
		current := bigOrZero(t.Allowances[s.From][spender])
		if t.ResetRequired && current.Sign() > 0 && amount.Sign() > 0 {
			return errReverted
		}
		b.setAllowance(t, s.From, spender, amount)
		return nil
	case "transferFrom":
		return b.transferFrom(t, s.From, args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int))
	}
	return errReverted
}

func (b *Backend) applyMultisend(s *Sent, data []byte) error {
	method, args, err := decode(chain.MultisendABI, data)
	if err != nil {
		return err
	}
	s.Method, s.Args = method.Name, args

	recipients, amounts := args[0].([]common.Address), args[1].([]*big.Int)
	if len(recipients) != len(amounts) {
		return errReverted
	}

	switch method.Name {
	case "multiSend":
		total := sum(amounts)
		if s.Value.Cmp(total) != 0 {
			return errReverted
		}
		if err := b.moveNative(s.From, s.To, s.Value); err != nil {
			return err
		}
		for i, r := range recipients {
			if err := b.moveNative(s.To, r, amounts[i]); err != nil {
				return err
			}
		}
		return nil
	case "multiSendERC20":
		t := b.tokens[args[2].(common.Address)]
		if t == nil {
			return errReverted
		}
		for i, r := range recipients {
			if err := b.transferFrom(t, s.To, s.From, r, amounts[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return errReverted
}

func (b *Backend) applyNFT721(s *Sent, data []byte) error {
	method, args, err := decode(chain.ERC721ABI, data)
	if err != nil {
		return err
	}
	s.Method, s.Args = method.Name, args
	if method.Name != "safeTransferFrom" {
		return errReverted
	}

	from, to, id := args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int)
	owners := b.nft721[s.To]
	if owners[id.String()] != from || from != s.From {
		return errReverted
	}
	owners[id.String()] = to
	return nil
}

func (b *Backend) applyNFT1155(s *Sent, data []byte) error {
	method, args, err := decode(chain.ERC1155ABI, data)
	if err != nil {
		return err
	}
	s.Method, s.Args = method.Name, args
	if method.Name != "safeTransferFrom" {
		return errReverted
	}

	from, to, id, amount := args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int), args[3].(*big.Int)
	if from != s.From {
		return errReverted
	}
	have := bigOrZero(b.nft1155[s.To][id.String()][from])
	if have.Cmp(amount) < 0 {
		return errReverted
	}
	b.set1155(s.To, id, from, new(big.Int).Sub(have, amount))
	b.set1155(s.To, id, to, new(big.Int).Add(bigOrZero(b.nft1155[s.To][id.String()][to]), amount))
	return nil
}

func (b *Backend) moveNative(from, to common.Address, amount *big.Int) error {
	have := bigOrZero(b.native[from])
	if have.Cmp(amount) < 0 {
		return errors.New("insufficient funds for transfer")
	}
	b.native[from] = new(big.Int).Sub(have, amount)
	b.native[to] = new(big.Int).Add(bigOrZero(b.native[to]), amount)
	return nil
}

func (b *Backend) transferFrom(t *Token, spender, from, to common.Address, amount *big.Int) error {
	allowed := bigOrZero(t.Allowances[from][spender])
	if allowed.Cmp(amount) < 0 {
		return errReverted
	}
	if err := moveToken(t, from, to, amount); err != nil {
		return err
	}
	b.setAllowance(t, from, spender, new(big.Int).Sub(allowed, amount))
	return nil
}

func (b *Backend) setAllowance(t *Token, owner, spender common.Address, amount *big.Int) {
	if t.Allowances[owner] == nil {
		t.Allowances[owner] = map[common.Address]*big.Int{}
	}
	t.Allowances[owner][spender] = new(big.Int).Set(amount)
}

func (b *Backend) set1155(nft common.Address, id *big.Int, owner common.Address, amount *big.Int) {
	if b.nft1155[nft] == nil {
		b.nft1155[nft] = map[string]map[common.Address]*big.Int{}
	}
	if b.nft1155[nft][id.String()] == nil {
		b.nft1155[nft][id.String()] = map[common.Address]*big.Int{}
	}
	b.nft1155[nft][id.String()][owner] = new(big.Int).Set(amount)
}

func moveToken(t *Token, from, to common.Address, amount *big.Int) error {
	have := bigOrZero(t.Balances[from])
	if have.Cmp(amount) < 0 {
		return errReverted
	}
	t.Balances[from] = new(big.Int).Sub(have, amount)
	t.Balances[to] = new(big.Int).Add(bigOrZero(t.Balances[to]), amount)
	return nil
}

func decode(contract abi.ABI, data []byte) (*abi.Method, []interface{}, error) {
	method, err := contract.MethodById(data[:4])
	if err != nil {
		return nil, nil, errReverted
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, errReverted
	}
	return method, args, nil
}

func sum(values []*big.Int) *big.Int {
	total := new(big.Int)
	for _, v := range values {
		total.Add(total, v)
	}
	return total
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
