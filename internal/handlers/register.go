package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/libertas-alpha/auth-service/internal/mailer"
	"github.com/libertas-alpha/auth-service/internal/models"
	"github.com/libertas-alpha/auth-service/internal/services"
)

// Registerer defines the interface that the registration service must implement.
type Registerer interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
}

// RegisterRequest represents the JSON body for user registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	// Username
	// required: true
	// example: alice
	Username string `json:"username"`

	// Email
	// required: true
	// example: alice@example.com
	Email string `json:"email"`

	// Password
	// required: true
	// example: secret123
	Password string `json:"password"`
}

// RegisterResponse represents a successful registration response
// swagger:model RegisterResponse
type RegisterResponse struct {
	// Success message
	// example: User registered successfully. Please check your email to confirm your account.
	Message string `json:"message"`

	// Created identity, never the password hash or private key
	User *models.User `json:"user"`
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates an unconfirmed account with a generated wallet and sends a confirmation email. Duplicate email and username are reported separately.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body handlers.RegisterRequest true "User registration request"
// @Success 201 {object} handlers.RegisterResponse "User successfully registered"
// @Failure 400 {object} handlers.ErrorResponse "Duplicate email or username / invalid request"
// @Failure 500 {object} handlers.ErrorResponse "Email delivery or storage failure"
// @Router /api/auth/register [post]
func NewRegisterHandler(svc Registerer, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		user, err := svc.Register(r.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrEmailInUse):
				writeError(w, http.StatusBadRequest, "Email already in use")
			case errors.Is(err, services.ErrUsernameInUse):
				writeError(w, http.StatusBadRequest, "Username already in use")
			case errors.Is(err, mailer.ErrAuthFailed):
				writeError(w, http.StatusInternalServerError,
					"Email authentication failed. Please check EMAIL_USER and EMAIL_PASS")
			case errors.Is(err, mailer.ErrSendFailed):
				writeError(w, http.StatusInternalServerError, "Failed to send confirmation email")
			default:
				log.Errorw("internal server error", "err", err)
				writeError(w, http.StatusInternalServerError, "Something went wrong")
			}
			return
		}

		writeJSON(w, http.StatusCreated, RegisterResponse{
			Message: "User registered successfully. Please check your email to confirm your account.",
			User:    user,
		})
	}
}
