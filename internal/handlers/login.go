package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/services"
)

//go:generate mockgen -source=login.go -destination=login_mock_test.go -package=handlers

// Loginer defines the interface that the login service must implement.
type Loginer interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// NewLoginHandler returns an HTTP handler for user login.
// @Summary User login
// @Description Authenticates a user and returns a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body models.LoginRequest true "User login request"
// @Success 200 {object} models.Result[models.LoginResponse] "JWT token"
// @Failure 400 {object} models.Result[any] "Invalid request"
// @Failure 401 {object} models.Result[any] "Invalid username or password"
// @Failure 500 {object} models.Result[any] "Internal server error"
// @Router /login [post]
func NewLoginHandler(svc Loginer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		token, err := svc.Login(r.Context(), req.Username, req.Password)
		if errors.Is(err, services.ErrUserNotFound) {
			err = services.ErrInvalidCredentials
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, models.OK("Login successful", models.LoginResponse{Token: token}))
	}
}
