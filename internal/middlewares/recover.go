package middlewares

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// RecoverMiddleware converts panics into a JSON 500. The client contract
// is JSON on every path, so the default plain-text panic page must never
// reach it.
func RecoverMiddleware(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Errorw("panic recovered",
						"request_id", RequestIDFromContext(r.Context()),
						"method", r.Method,
						"uri", r.RequestURI,
						"panic", rec,
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{"message": "An unexpected error occurred"})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
