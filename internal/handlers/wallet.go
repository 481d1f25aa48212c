package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
)

//go:generate mockgen -source=wallet.go -destination=wallet_mock_test.go -package=handlers

// WalletManager creates and exposes the caller's wallets.
type WalletManager interface {
	CreateMainWallet(ctx context.Context, ownerID uuid.UUID) (*models.WalletInfo, error)
	ExportMainWallet(ctx context.Context, ownerID uuid.UUID) (*models.WalletInfo, error)
	CreateSubWallets(ctx context.Context, ownerID uuid.UUID, n int) ([]*models.WalletInfo, error)
	ListWallets(ctx context.Context, ownerID uuid.UUID) ([]models.WalletView, error)
}

// NewCreateMainWalletHandler creates the caller's main wallet.
// @Summary Create main wallet
// @Tags wallets
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Result[models.WalletInfo] "Main wallet created"
// @Failure 401 {object} models.Result[any] "Unauthorized"
// @Failure 409 {object} models.Result[any] "Main wallet already exists"
// @Router /wallets/main [post]
func NewCreateMainWalletHandler(svc WalletManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity(w, r)
		if !ok {
			return
		}

		info, err := svc.CreateMainWallet(r.Context(), caller.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, models.OK("Main wallet created", info))
	}
}

// NewExportMainWalletHandler returns the private key and mnemonic of the caller's main wallet.
// @Summary Export main wallet
// @Tags wallets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Result[models.WalletInfo] "Main wallet secrets"
// @Failure 401 {object} models.Result[any] "Unauthorized"
// @Failure 404 {object} models.Result[any] "Wallet not found"
// @Router /wallets/main/export [get]
func NewExportMainWalletHandler(svc WalletManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity(w, r)
		if !ok {
			return
		}

		info, err := svc.ExportMainWallet(r.Context(), caller.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, models.OK("Main wallet exported", info))
	}
}

// NewCreateSubWalletsHandler creates auxiliary wallets for the caller.
// @Summary Create sub wallets
// @Tags wallets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subWalletsRequest body models.SubWalletsRequest true "Number of wallets"
// @Success 201 {object} models.Result[[]models.WalletInfo] "Wallets created"
// @Failure 400 {object} models.Result[any] "Invalid count"
// @Failure 401 {object} models.Result[any] "Unauthorized"
// @Router /wallets/sub [post]
func NewCreateSubWalletsHandler(svc WalletManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity(w, r)
		if !ok {
			return
		}

		var req models.SubWalletsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		infos, err := svc.CreateSubWallets(r.Context(), caller.ID, req.Count)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, models.OK("Wallets created", infos))
	}
}

// NewListWalletsHandler lists the caller's wallets without secrets.
// @Summary List wallets
// @Tags wallets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Result[[]models.WalletView] "Wallets"
// @Failure 401 {object} models.Result[any] "Unauthorized"
// @Router /wallets [get]
func NewListWalletsHandler(svc WalletManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity(w, r)
		if !ok {
			return
		}

		views, err := svc.ListWallets(r.Context(), caller.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, models.OK("Wallets", views))
	}
}
