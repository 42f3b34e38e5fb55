package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/libertas-alpha/auth-service/internal/middlewares"
	"github.com/libertas-alpha/auth-service/internal/models"
	"github.com/libertas-alpha/auth-service/internal/services"
)

// UserProvider defines the interface that the current-user service must implement.
type UserProvider interface {
	CurrentUser(ctx context.Context, id int64) (*models.User, error)
}

// NewMeHandler returns an HTTP handler for the authenticated identity.
// @Summary Current user
// @Description Returns the identity behind the presented session token.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User "Authenticated identity"
// @Failure 401 {object} handlers.ErrorResponse "Missing or invalid session token"
// @Router /api/auth/me [get]
func NewMeHandler(svc UserProvider, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middlewares.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := svc.CurrentUser(r.Context(), id)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			log.Errorw("internal server error", "err", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}
