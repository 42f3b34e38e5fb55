package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/libertas-alpha/auth-service/internal/services"
)

// EmailConfirmer defines the interface that the confirmation service must implement.
type EmailConfirmer interface {
	ConfirmEmail(ctx context.Context, token string) error
}

// NewConfirmEmailHandler returns an HTTP handler for the emailed
// confirmation link. On success it redirects the browser to the client
// login page with a success indicator.
// @Summary Confirm email address
// @Description Consumes a confirmation token from the emailed link. Confirmation tokens do not expire; reset tokens do.
// @Tags auth
// @Produce json
// @Param token query string true "Confirmation token"
// @Success 302 "Redirect to {CLIENT_URL}/login?confirmed=true"
// @Failure 400 {object} handlers.ErrorResponse "Missing, unknown, or already-consumed token"
// @Router /api/auth/confirm-email [get]
func NewConfirmEmailHandler(svc EmailConfirmer, clientURL string, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeError(w, http.StatusBadRequest, "Token is required")
			return
		}

		if err := svc.ConfirmEmail(r.Context(), token); err != nil {
			if errors.Is(err, services.ErrInvalidOrExpiredToken) {
				writeError(w, http.StatusBadRequest, "Invalid or expired token")
				return
			}
			log.Errorw("internal server error", "err", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}

		http.Redirect(w, r, clientURL+"/login?confirmed=true", http.StatusFound)
	}
}
