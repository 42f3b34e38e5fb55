package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/libertas-alpha/auth-service/internal/services"
)

// PasswordResetter defines the interface that the reset service must implement.
type PasswordResetter interface {
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// ResetPasswordRequest represents the JSON body for completing a reset
// swagger:model ResetPasswordRequest
type ResetPasswordRequest struct {
	// Reset token from the emailed link
	// required: true
	Token string `json:"token"`

	// New password
	// required: true
	Password string `json:"password"`
}

// ResetPasswordResponse represents a successful reset
// swagger:model ResetPasswordResponse
type ResetPasswordResponse struct {
	// example: true
	Success bool `json:"success"`

	// example: Password has been reset successfully
	Message string `json:"message"`
}

// NewResetPasswordHandler returns an HTTP handler completing a password reset.
// @Summary Reset password
// @Description Consumes an unexpired reset token and replaces the password. Expired and unknown tokens are indistinguishable.
// @Tags auth
// @Accept json
// @Produce json
// @Param resetPasswordRequest body handlers.ResetPasswordRequest true "Reset completion"
// @Success 200 {object} handlers.ResetPasswordResponse "Password replaced"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request / invalid or expired token"
// @Router /api/auth/reset-password [post]
func NewResetPasswordHandler(svc PasswordResetter, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetPasswordRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		if err := svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
			if errors.Is(err, services.ErrInvalidOrExpiredToken) {
				writeError(w, http.StatusBadRequest, "Invalid or expired password reset token")
				return
			}
			log.Errorw("internal server error", "err", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}

		writeJSON(w, http.StatusOK, ResetPasswordResponse{
			Success: true,
			Message: "Password has been reset successfully",
		})
	}
}
