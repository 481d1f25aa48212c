package chain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/rpc"
)

// Error variables
var (
	ErrChainUnavailable        = errors.New("all rpc endpoints are unavailable")
	ErrNoEndpoints             = errors.New("at least one rpc endpoint is required")
	ErrMultisendNotConfigured  = errors.New("multisend contract is not configured for this chain")
	ErrTooManyDecimals         = errors.New("amount has more decimal places than the token supports")
	ErrNegativeAmount          = errors.New("amount must not be negative")
	ErrTransactionNotConfirmed = errors.New("transaction was not confirmed in time")
)

// UnavailableError is returned once every retry attempt failed with a retryable error.
type UnavailableError struct {
	Attempts int
	Err      error // last underlying error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrChainUnavailable, e.Attempts, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrChainUnavailable }

// JSON-RPC error codes that providers use for transient conditions.
const (
	codeLimitExceeded = -32005
	codeServerError   = -32000
)

var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:  true,
	419:                        true, // non-standard, used by some providers for throttling
	http.StatusTooManyRequests: true,
}

var retryableErrno = []error{
	syscall.ECONNRESET,
	syscall.ECONNREFUSED,
	syscall.EHOSTUNREACH,
	syscall.ENETUNREACH,
	syscall.ETIMEDOUT,
}

var transientFragments = []string{
	"rate limit",
	"too many requests",
	"timeout",
	"timed out",
	"connection reset",
	"connection refused",
	"socket hang up",
	"service unavailable",
	"bad gateway",
	"gateway timeout",
	"network error",
	"no such host",
	"header not found",
	"server busy",
}

var permanentFragments = []string{
	"execution reverted",
	"insufficient funds",
	"nonce too low",
	"invalid argument",
	"already known",
}

// IsRetryable reports whether err is a transient endpoint failure that justifies switching to the next endpoint.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, f := range permanentFragments {
		if strings.Contains(msg, f) {
			return false
		}
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return isRetryableStatus(httpErr.StatusCode)
	}
	var httpErrPtr *rpc.HTTPError
	if errors.As(err, &httpErrPtr) && httpErrPtr != nil {
		return isRetryableStatus(httpErrPtr.StatusCode)
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case codeLimitExceeded:
			return true
		case codeServerError:
			return containsAny(msg, transientFragments)
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	for _, errno := range retryableErrno {
		if errors.Is(err, errno) {
			return true
		}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return containsAny(msg, transientFragments)
}

func isRetryableStatus(code int) bool {
	return retryableStatus[code] || code >= http.StatusInternalServerError
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
