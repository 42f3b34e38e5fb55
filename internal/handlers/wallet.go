package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/libertas-alpha/auth-service/internal/middlewares"
	"github.com/libertas-alpha/auth-service/internal/services"
	"github.com/libertas-alpha/auth-service/internal/wallet"
)

// WalletProvider defines the interface that the wallet service must implement.
type WalletProvider interface {
	Wallet(ctx context.Context, id int64) (*wallet.Wallet, error)
}

// WalletResponse carries the account's wallet keypair
// swagger:model WalletResponse
type WalletResponse struct {
	// EIP-55 checksum address
	// example: 0x8ba1f109551bD432803012645Ac136ddd64DBA72
	Address string `json:"address"`

	// Hex-encoded private key, decrypted on demand
	PrivateKey string `json:"privateKey"`
}

// NewWalletHandler returns an HTTP handler for the wallet page data.
// @Summary Wallet keypair
// @Description Returns the account's wallet address and decrypted private key. The key is stored encrypted and only unsealed for this response.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.WalletResponse "Wallet keypair"
// @Failure 401 {object} handlers.ErrorResponse "Missing or invalid session token"
// @Router /api/auth/wallet [get]
func NewWalletHandler(svc WalletProvider, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middlewares.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		wlt, err := svc.Wallet(r.Context(), id)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			log.Errorw("internal server error", "err", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}

		writeJSON(w, http.StatusOK, WalletResponse{
			Address:    wlt.Address,
			PrivateKey: wlt.PrivateKey,
		})
	}
}
