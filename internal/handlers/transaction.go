package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/services"
)

//go:generate mockgen -source=transaction.go -destination=transaction_mock_test.go -package=handlers

// TransactionFinder looks up ledger records.
type TransactionFinder interface {
	GetByHash(ctx context.Context, txHash string) (*models.TransactionRecord, error)
}

// NewGetTransactionHandler returns the ledger record of a transaction the caller sent or received.
// @Summary Get transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param hash path string true "Transaction hash"
// @Success 200 {object} models.Result[models.TransactionRecord] "Ledger record"
// @Failure 404 {object} models.Result[any] "Transaction not found"
// @Router /transactions/{hash} [get]
func NewGetTransactionHandler(svc TransactionFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity(w, r)
		if !ok {
			return
		}

		rec, err := svc.GetByHash(r.Context(), chi.URLParam(r, "hash"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !involves(rec, caller) {
			writeError(w, r, services.ErrTransactionNotFound)
			return
		}
		writeJSON(w, http.StatusOK, models.OK("Transaction", rec))
	}
}

func involves(rec *models.TransactionRecord, caller models.Identity) bool {
	if strings.EqualFold(rec.FromUser, caller.Username) {
		return true
	}
	return rec.ToUser != nil && strings.EqualFold(*rec.ToUser, caller.Username)
}
