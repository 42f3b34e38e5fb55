package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/libertas-alpha/auth-service/internal/models"
	"github.com/libertas-alpha/auth-service/internal/services"
)

// Loginer defines the interface that the login service must implement.
type Loginer interface {
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

// LoginRequest represents the JSON body for user login
// swagger:model LoginRequest
type LoginRequest struct {
	// Email
	// required: true
	// example: alice@example.com
	Email string `json:"email"`

	// Password
	// required: true
	// example: secret123
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
// swagger:model LoginResponse
type LoginResponse struct {
	// Authenticated identity
	Result *models.User `json:"result"`

	// Session token
	// example: JWT_TOKEN
	Token string `json:"token"`
}

// NewLoginHandler returns an HTTP handler for user login.
// @Summary User login
// @Description Authenticate by email and password and return a session token. Unknown email and wrong password produce the same message; an unconfirmed account is rejected before password verification.
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body handlers.LoginRequest true "Login request"
// @Success 200 {object} handlers.LoginResponse "Identity and session token"
// @Failure 400 {object} handlers.ErrorResponse "Invalid credentials / invalid request"
// @Failure 401 {object} handlers.ErrorResponse "Email not confirmed"
// @Router /api/auth/login [post]
func NewLoginHandler(svc Loginer, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		user, token, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidCredentials):
				writeError(w, http.StatusBadRequest, "Invalid credentials")
			case errors.Is(err, services.ErrEmailNotConfirmed):
				writeError(w, http.StatusUnauthorized, "Please confirm your email before logging in")
			default:
				log.Errorw("internal server error", "err", err)
				writeError(w, http.StatusInternalServerError, "Something went wrong")
			}
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Result: user,
			Token:  token,
		})
	}
}
