package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
)

//go:generate mockgen -source=transfer.go -destination=transfer_mock_test.go -package=handlers

// Transferer submits transfers on behalf of the caller.
type Transferer interface {
	Transfer(ctx context.Context, caller models.Identity, req models.TransferRequest) (*models.TransferResult, error)
	MultiSend(ctx context.Context, caller models.Identity, req models.MultiSendRequest) (*models.TransferResult, error)
	TransferNFT721(ctx context.Context, caller models.Identity, req models.NFT721TransferRequest) (*models.TransferResult, error)
	TransferNFT1155(ctx context.Context, caller models.Identity, req models.NFT1155TransferRequest) (*models.TransferResult, error)
}

// NewTransferHandler sends native coin or an ERC20 token to a username or address.
// @Summary Transfer tokens
// @Tags transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param transferRequest body models.TransferRequest true "Recipient, token and amount"
// @Success 200 {object} models.Result[models.TransferResult] "Submitted, see data.status"
// @Failure 400 {object} models.Result[any] "Invalid request"
// @Failure 404 {object} models.Result[any] "Recipient or wallet not found"
// @Failure 409 {object} models.Result[any] "Self transfer"
// @Failure 422 {object} models.Result[any] "Insufficient balance"
// @Failure 503 {object} models.Result[any] "Chain unavailable"
// @Router /transfers [post]
func NewTransferHandler(svc Transferer) http.HandlerFunc {
	return transferHandler(func(ctx context.Context, caller models.Identity, r *http.Request) (*models.TransferResult, error) {
		var req models.TransferRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return svc.Transfer(ctx, caller, req)
	})
}

// NewMultiSendHandler sends the same amount to many wallets in one transaction.
// @Summary Multisend
// @Tags transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param multiSendRequest body models.MultiSendRequest true "Token, amount per wallet and wallets"
// @Success 200 {object} models.Result[models.TransferResult] "Submitted, see data.status"
// @Failure 400 {object} models.Result[any] "Invalid request or unsupported chain"
// @Failure 422 {object} models.Result[any] "Insufficient balance"
// @Router /transfers/multisend [post]
func NewMultiSendHandler(svc Transferer) http.HandlerFunc {
	return transferHandler(func(ctx context.Context, caller models.Identity, r *http.Request) (*models.TransferResult, error) {
		var req models.MultiSendRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return svc.MultiSend(ctx, caller, req)
	})
}

// NewTransferNFT721Handler moves one ERC721 token.
// @Summary Transfer ERC721
// @Tags transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param nft721TransferRequest body models.NFT721TransferRequest true "Recipient, contract and token id"
// @Success 200 {object} models.Result[models.TransferResult] "Submitted, see data.status"
// @Failure 422 {object} models.Result[any] "Token not owned"
// @Router /transfers/nft721 [post]
func NewTransferNFT721Handler(svc Transferer) http.HandlerFunc {
	return transferHandler(func(ctx context.Context, caller models.Identity, r *http.Request) (*models.TransferResult, error) {
		var req models.NFT721TransferRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return svc.TransferNFT721(ctx, caller, req)
	})
}

// NewTransferNFT1155Handler moves an amount of one ERC1155 token id.
// @Summary Transfer ERC1155
// @Tags transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param nft1155TransferRequest body models.NFT1155TransferRequest true "Recipient, contract, token id and amount"
// @Success 200 {object} models.Result[models.TransferResult] "Submitted, see data.status"
// @Failure 422 {object} models.Result[any] "Insufficient token balance"
// @Router /transfers/nft1155 [post]
func NewTransferNFT1155Handler(svc Transferer) http.HandlerFunc {
	return transferHandler(func(ctx context.Context, caller models.Identity, r *http.Request) (*models.TransferResult, error) {
		var req models.NFT1155TransferRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return svc.TransferNFT1155(ctx, caller, req)
	})
}

// transferHandler answers 200 for every submitted transfer. A failed submission has success=false.
func transferHandler(submit func(ctx context.Context, caller models.Identity, r *http.Request) (*models.TransferResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity(w, r)
		if !ok {
			return
		}

		res, err := submit(r.Context(), caller, r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		if res.Status != models.TransactionStatusCompleted {
			writeJSON(w, http.StatusOK, models.Result[*models.TransferResult]{Message: "Transfer failed", Data: res})
			return
		}
		writeJSON(w, http.StatusOK, models.OK("Transfer completed", res))
	}
}
