package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ResetRequester defines the interface that the forgot-password service must implement.
type ResetRequester interface {
	ForgotPassword(ctx context.Context, email string) error
}

// resetRequestedMessage is returned whether or not the account exists, so
// the endpoint cannot be used to enumerate registered emails.
const resetRequestedMessage = "If a user with this email exists, a password reset link has been sent."

// ForgotPasswordRequest represents the JSON body for a reset request
// swagger:model ForgotPasswordRequest
type ForgotPasswordRequest struct {
	// Email
	// required: true
	// example: alice@example.com
	Email string `json:"email"`
}

// ForgotPasswordResponse represents the generic reset-requested response
// swagger:model ForgotPasswordResponse
type ForgotPasswordResponse struct {
	// Generic message, identical for existing and unknown emails
	Message string `json:"message"`
}

// NewForgotPasswordHandler returns an HTTP handler for reset requests.
// @Summary Request a password reset
// @Description Sends a reset link valid for one hour. The response is identical whether or not the email belongs to an account.
// @Tags auth
// @Accept json
// @Produce json
// @Param forgotPasswordRequest body handlers.ForgotPasswordRequest true "Reset request"
// @Success 200 {object} handlers.ForgotPasswordResponse "Generic confirmation"
// @Failure 400 {object} handlers.ErrorResponse "Missing email"
// @Router /api/auth/forgot-password [post]
func NewForgotPasswordHandler(svc ResetRequester, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ForgotPasswordRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
			writeError(w, http.StatusBadRequest, "Email is required")
			return
		}

		if err := svc.ForgotPassword(r.Context(), req.Email); err != nil {
			log.Errorw("internal server error", "err", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}

		writeJSON(w, http.StatusOK, ForgotPasswordResponse{Message: resetRequestedMessage})
	}
}
