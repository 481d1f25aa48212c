package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
)

//go:generate mockgen -source=register.go -destination=register_mock_test.go -package=handlers

// Registerer defines the interface that the service must implement.
type Registerer interface {
	Register(ctx context.Context, username, password, email string) (*models.WalletInfo, error)
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a user account together with its main wallet. The wallet secrets are returned once.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body models.RegisterRequest true "User registration request"
// @Success 201 {object} models.Result[models.WalletInfo] "User registered"
// @Failure 400 {object} models.Result[any] "Invalid request"
// @Failure 409 {object} models.Result[any] "Username or email already exists"
// @Failure 500 {object} models.Result[any] "Internal server error"
// @Router /register [post]
func NewRegisterHandler(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if strings.TrimSpace(req.Username) == "" || req.Password == "" {
			writeJSON(w, http.StatusBadRequest, models.Fail("username and password are required"))
			return
		}

		info, err := svc.Register(r.Context(), req.Username, req.Password, req.Email)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, models.OK("User registered successfully", info))
	}
}
