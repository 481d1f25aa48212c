package middlewares

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
)

//go:generate mockgen -source=auth.go -destination=auth_mock_test.go -package=middlewares

// Tokener defines the minimal interface needed by the middleware
type Tokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetIdentity(ctx context.Context, tokenString string) (models.Identity, error)
}

type identityKey struct{}

// AuthMiddleware rejects requests without a valid token and stores the caller identity in the request context.
func AuthMiddleware(tokener Tokener) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, err := tokener.GetTokenFromRequest(ctx, r)
			if err != nil {
				logger.Log.Warnw("authorization failed", "request_id", GetRequestID(ctx), "error", err)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			identity, err := tokener.GetIdentity(ctx, tokenString)
			if err != nil {
				logger.Log.Warnw("authorization failed", "request_id", GetRequestID(ctx), "error", err)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, identityKey{}, identity)))
		})
	}
}

// GetIdentityFromContext returns the caller set by AuthMiddleware.
func GetIdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(models.Identity)
	return identity, ok
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}
