package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/chain"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/services"
)

//go:generate mockgen -source=balance.go -destination=balance_mock_test.go -package=handlers

// maxBalanceAddresses bounds one batch request.
const maxBalanceAddresses = 500

// BalanceReader reads many balances or allowances at once.
type BalanceReader interface {
	BatchBalances(ctx context.Context, token string, isNative bool, addresses []string) ([]models.AddressBalance, error)
	BatchAllowances(ctx context.Context, token common.Address, owners []string, spender common.Address) ([]models.AddressBalance, error)
}

// NewBatchBalancesHandler returns the balances, or allowances when a spender is given, of many addresses.
// @Summary Batch balances
// @Description Reads native or ERC20 balances through Multicall3. Unreadable entries have success=false.
// @Tags wallets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param balancesRequest body models.BalancesRequest true "Token and addresses"
// @Success 200 {object} models.Result[[]models.AddressBalance] "Balances"
// @Failure 400 {object} models.Result[any] "Invalid request"
// @Failure 503 {object} models.Result[any] "Chain unavailable"
// @Router /wallets/balances [post]
func NewBatchBalancesHandler(svc BalanceReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identity(w, r); !ok {
			return
		}

		var req models.BalancesRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if len(req.Addresses) == 0 || len(req.Addresses) > maxBalanceAddresses {
			writeError(w, r, fmt.Errorf("%w: between 1 and %d addresses are required", services.ErrInvalidRecipient, maxBalanceAddresses))
			return
		}

		native := chain.IsNative(req.TokenAddress)
		if !native && !common.IsHexAddress(req.TokenAddress) {
			writeError(w, r, fmt.Errorf("%w: %q", services.ErrInvalidToken, req.TokenAddress))
			return
		}

		var (
			balances []models.AddressBalance
			err      error
		)
		if req.Spender != "" {
			if native || !common.IsHexAddress(req.Spender) {
				writeError(w, r, fmt.Errorf("%w: allowances need an ERC20 token and a spender address", services.ErrInvalidToken))
				return
			}
			balances, err = svc.BatchAllowances(r.Context(), common.HexToAddress(req.TokenAddress), req.Addresses, common.HexToAddress(req.Spender))
		} else {
			balances, err = svc.BatchBalances(r.Context(), req.TokenAddress, native, req.Addresses)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, models.OK("Balances", balances))
	}
}
