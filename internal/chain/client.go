package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
)

// Backend is the subset of *ethclient.Client the wallet pipeline uses.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// DialFunc opens a Backend for one endpoint URL.
type DialFunc func(ctx context.Context, url string) (Backend, error)

// FeeData holds the pricing inputs for a new transaction.
// GasFeeCap and GasTipCap are set on EIP-1559 chains, GasPrice otherwise.
type FeeData struct {
	BaseFee   *big.Int
	GasTipCap *big.Int
	GasFeeCap *big.Int
	GasPrice  *big.Int
}

// IsDynamic reports whether the chain prices transactions with a base fee.
func (f *FeeData) IsDynamic() bool {
	return f.BaseFee != nil
}

// Option configures a Client.
type Option func(*Client)

// WithMaxRetries sets the total number of attempts per call.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithDialer replaces the default ethclient dialer.
func WithDialer(dial DialFunc) Option {
	return func(c *Client) {
		c.dial = dial
	}
}

// WithRequestTimeout bounds a single attempt against one endpoint.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// EthDialer dials an endpoint over HTTP with the given per-request timeout.
func EthDialer(timeout time.Duration) DialFunc {
	return func(ctx context.Context, url string) (Backend, error) {
		rc, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(&http.Client{Timeout: timeout}))
		if err != nil {
			return nil, err
		}
		return ethclient.NewClient(rc), nil
	}
}

type endpoint struct {
	url     string
	backend Backend
}

// Client routes every call through one active endpoint and fails over
// round-robin to the next one on retryable errors.
type Client struct {
	mu         sync.Mutex
	endpoints  []*endpoint
	active     int
	switches   int
	maxRetries int
	timeout    time.Duration
	dial       DialFunc
}

// NewClient creates a Client over the ordered endpoint URLs. Endpoints are dialed lazily.
func NewClient(urls []string, opts ...Option) (*Client, error) {
	if len(urls) == 0 {
		return nil, ErrNoEndpoints
	}

	c := &Client{
		endpoints:  make([]*endpoint, 0, len(urls)),
		maxRetries: len(urls),
		timeout:    30 * time.Second,
	}
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			c.endpoints = append(c.endpoints, &endpoint{url: u})
		}
	}
	if len(c.endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	c.maxRetries = len(c.endpoints)

	for _, opt := range opts {
		opt(c)
	}
	if c.dial == nil {
		c.dial = EthDialer(c.timeout)
	}
	return c, nil
}

// NewClientWithBackends creates a Client over already connected backends.
func NewClientWithBackends(backends []Backend, opts ...Option) (*Client, error) {
	urls := make([]string, len(backends))
	for i := range backends {
		urls[i] = fmt.Sprintf("backend-%d", i)
	}
	c, err := NewClient(urls, opts...)
	if err != nil {
		return nil, err
	}
	for i, b := range backends {
		c.endpoints[i].backend = b
	}
	return c, nil
}

// Switches returns how many times the active endpoint has changed.
func (c *Client) Switches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.switches
}

// ActiveURL returns the URL of the endpoint currently serving calls.
func (c *Client) ActiveURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoints[c.active].url
}

func (c *Client) current(ctx context.Context) (Backend, string, error) {
	c.mu.Lock()
	ep := c.endpoints[c.active]
	c.mu.Unlock()

	if ep.backend != nil {
		return ep.backend, ep.url, nil
	}

	b, err := c.dial(ctx, ep.url)
	if err != nil {
		return nil, ep.url, err
	}

	c.mu.Lock()
	if ep.backend == nil {
		ep.backend = b
	}
	b = ep.backend
	c.mu.Unlock()
	return b, ep.url, nil
}

func (c *Client) switchEndpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = (c.active + 1) % len(c.endpoints)
	c.switches++
	return c.endpoints[c.active].url
}

// call runs fn against the active endpoint, switching endpoints before every retry.
func call[T any](ctx context.Context, c *Client, method string, fn func(ctx context.Context, b Backend) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if attempt > 1 {
			url := c.switchEndpoint()
			logger.Log.Warnw("switching rpc endpoint",
				"method", method,
				"attempt", attempt,
				"endpoint", url,
				"error", lastErr,
			)
		}

		backend, _, err := c.current(ctx)
		if err == nil {
			attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
			var res T
			res, err = fn(attemptCtx, backend)
			cancel()
			if err == nil {
				return res, nil
			}
		}

		lastErr = err
		if ctx.Err() != nil {
			return zero, err
		}
		if !IsRetryable(err) {
			return zero, err
		}
	}

	logger.Log.Errorw("rpc endpoints exhausted",
		"method", method,
		"attempts", c.maxRetries,
		"error", lastErr,
	)
	return zero, &UnavailableError{Attempts: c.maxRetries, Err: lastErr}
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return call(ctx, c, "eth_chainId", func(ctx context.Context, b Backend) (*big.Int, error) {
		return b.ChainID(ctx)
	})
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return call(ctx, c, "eth_getBalance", func(ctx context.Context, b Backend) (*big.Int, error) {
		return b.BalanceAt(ctx, account, blockNumber)
	})
}

func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return call(ctx, c, "eth_call", func(ctx context.Context, b Backend) ([]byte, error) {
		return b.CallContract(ctx, msg, blockNumber)
	})
}

func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return call(ctx, c, "eth_estimateGas", func(ctx context.Context, b Backend) (uint64, error) {
		return b.EstimateGas(ctx, msg)
	})
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return call(ctx, c, "eth_gasPrice", func(ctx context.Context, b Backend) (*big.Int, error) {
		return b.SuggestGasPrice(ctx)
	})
}

func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return call(ctx, c, "eth_maxPriorityFeePerGas", func(ctx context.Context, b Backend) (*big.Int, error) {
		return b.SuggestGasTipCap(ctx)
	})
}

func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return call(ctx, c, "eth_getBlockByNumber", func(ctx context.Context, b Backend) (*types.Header, error) {
		return b.HeaderByNumber(ctx, number)
	})
}

func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return call(ctx, c, "eth_getTransactionCount", func(ctx context.Context, b Backend) (uint64, error) {
		return b.PendingNonceAt(ctx, account)
	})
}

// SendTransaction broadcasts a signed transaction. An "already known" reply on a
// retry means an earlier endpoint accepted it before failing, so it counts as success.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	attempts := 0
	_, err := call(ctx, c, "eth_sendRawTransaction", func(ctx context.Context, b Backend) (struct{}, error) {
		attempts++
		err := b.SendTransaction(ctx, tx)
		if err != nil && attempts > 1 && strings.Contains(strings.ToLower(err.Error()), "already known") {
			return struct{}{}, nil
		}
		return struct{}{}, err
	})
	return err
}

func (c *Client) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	type result struct {
		tx      *types.Transaction
		pending bool
	}
	res, err := call(ctx, c, "eth_getTransactionByHash", func(ctx context.Context, b Backend) (result, error) {
		tx, pending, err := b.TransactionByHash(ctx, hash)
		return result{tx: tx, pending: pending}, err
	})
	return res.tx, res.pending, err
}

// TransactionReceipt returns ethereum.NotFound while the transaction is pending.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return call(ctx, c, "eth_getTransactionReceipt", func(ctx context.Context, b Backend) (*types.Receipt, error) {
		r, err := b.TransactionReceipt(ctx, txHash)
		if errors.Is(err, ethereum.NotFound) {
			return nil, ethereum.NotFound
		}
		return r, err
	})
}

// FeeData returns the current fee parameters.
func (c *Client) FeeData(ctx context.Context) (*FeeData, error) {
	head, err := c.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get latest header: %w", err)
	}

	if head.BaseFee == nil {
		price, err := c.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("get gas price: %w", err)
		}
		return &FeeData{GasPrice: price}, nil
	}

	tip, err := c.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gas tip cap: %w", err)
	}
	feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)

	return &FeeData{
		BaseFee:   new(big.Int).Set(head.BaseFee),
		GasTipCap: tip,
		GasFeeCap: feeCap,
	}, nil
}
