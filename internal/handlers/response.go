package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/chain"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/middlewares"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/services"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/verifier"
)

const internalErrorMessage = "Internal server error"

var errInvalidBody = errors.New("invalid request body")

// statusFor maps domain errors to HTTP statuses. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidBody),
		errors.Is(err, services.ErrInvalidRecipient),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrInvalidWalletCount),
		errors.Is(err, services.ErrUnsupportedChain),
		errors.Is(err, chain.ErrTooManyDecimals),
		errors.Is(err, chain.ErrNegativeAmount),
		errors.Is(err, chain.ErrMultisendNotConfigured):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrWalletNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrRecipientNotFound),
		errors.Is(err, services.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrWalletAlreadyExists),
		errors.Is(err, services.ErrUserAlreadyExists),
		errors.Is(err, services.ErrTransactionFinalized),
		errors.Is(err, services.ErrSelfTransfer):
		return http.StatusConflict
	case errors.Is(err, verifier.ErrInsufficientBalance),
		errors.Is(err, services.ErrNotTokenOwner):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chain.ErrChainUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorw("failed to encode response", "error", err)
	}
}

// writeError answers with the status of err. Internal errors are logged and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Log.Errorw("internal server error",
			"request_id", middlewares.GetRequestID(r.Context()),
			"method", r.Method,
			"uri", r.RequestURI,
			"error", err,
		)
		message = internalErrorMessage
	} else if status == http.StatusServiceUnavailable {
		logger.Log.Warnw("chain unavailable", "request_id", middlewares.GetRequestID(r.Context()), "error", err)
		message = chain.ErrChainUnavailable.Error()
	}
	writeJSON(w, status, models.Fail(message))
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// identity returns the authenticated caller, answering 401 when there is none.
func identity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := middlewares.GetIdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.Fail("Unauthorized"))
	}
	return id, ok
}
