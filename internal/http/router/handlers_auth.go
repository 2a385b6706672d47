package router

import (
	"net/http"
	"time"

	"github.com/yxshee/marfa-gallery/internal/auth"
	"github.com/yxshee/marfa-gallery/internal/platform/wallet"
)

type authSessionRequest struct {
	WalletAddress string `json:"wallet_address"`
}

type sessionResponse struct {
	AccessToken   string    `json:"access_token"`
	TokenType     string    `json:"token_type"`
	ExpiresAt     time.Time `json:"expires_at"`
	WalletAddress string    `json:"wallet_address"`
	Role          auth.Role `json:"role"`
}

type identityResponse struct {
	WalletAddress string    `json:"wallet_address"`
	Role          auth.Role `json:"role"`
	SessionID     string    `json:"session_id"`
}

// handleAuthSession opens a session for a connected wallet. Ownership of the
// wallet is asserted by the client's wallet connector.
func (a *api) handleAuthSession(w http.ResponseWriter, r *http.Request) {
	var req authSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if !wallet.IsValidAddress(req.WalletAddress) {
		writeError(w, http.StatusBadRequest, "INVALID_WALLET", "invalid wallet address")
		return
	}

	walletAddress := wallet.Normalize(req.WalletAddress)
	profileIsAdmin, err := a.profiles.IsAdmin(r.Context(), walletAddress)
	if err != nil {
		a.log.WithError(err).Error("admin lookup failed")
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal server error")
		return
	}

	identity := auth.NewSessionIdentity(walletAddress, profileIsAdmin, a.admins)
	token, err := a.tokenManager.Issue(identity)
	if err != nil {
		a.log.WithError(err).Error("token issue failed")
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal server error")
		return
	}

	a.log.WithField("wallet", walletAddress).WithField("role", identity.Role).Info("wallet session opened")
	writeJSON(w, http.StatusCreated, sessionResponse{
		AccessToken:   token.AccessToken,
		TokenType:     "Bearer",
		ExpiresAt:     token.ExpiresAt,
		WalletAddress: walletAddress,
		Role:          identity.Role,
	})
}

func (a *api) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{
		WalletAddress: identity.WalletAddress,
		Role:          identity.Role,
		SessionID:     identity.SessionID,
	})
}
