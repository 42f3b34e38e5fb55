package middlewares

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Tokener defines the minimal interface needed by the auth middleware.
type Tokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetUserID(ctx context.Context, tokenString string) (int64, error)
}

type userIDKeyType struct{}

var userIDKey = userIDKeyType{}

// UserIDFromContext returns the authenticated account id set by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// ContextWithUserID returns a context carrying the account id, the same
// way AuthMiddleware stores it.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// AuthMiddleware returns a middleware that validates the bearer token and
// stashes the account id in the request context.
func AuthMiddleware(tokener Tokener, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, err := tokener.GetTokenFromRequest(ctx, r)
			if err != nil {
				log.Debugw("authorization failed", "err", err)
				unauthorized(w)
				return
			}

			userID, err := tokener.GetUserID(ctx, tokenString)
			if err != nil {
				log.Debugw("authorization failed", "err", err)
				unauthorized(w)
				return
			}

			ctx = context.WithValue(ctx, userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
}
