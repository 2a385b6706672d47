package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/yxshee/marfa-gallery/internal/auditlog"
	"github.com/yxshee/marfa-gallery/internal/auth"
	"github.com/yxshee/marfa-gallery/internal/profiles"
)

type profileUpsertRequest struct {
	WalletAddress   string `json:"wallet_address"`
	Name            string `json:"name"`
	XHandle         string `json:"x_handle"`
	FarcasterHandle string `json:"farcaster_handle"`
	InstagramHandle string `json:"instagram_handle"`
}

// handleProfilesGet returns one profile when ?wallet= is given, otherwise
// all of them. An unknown wallet yields a null profile, not a 404.
func (a *api) handleProfilesGet(w http.ResponseWriter, r *http.Request) {
	walletAddress := strings.TrimSpace(r.URL.Query().Get("wallet"))
	if walletAddress == "" {
		items, err := a.profiles.List(r.Context())
		if err != nil {
			a.writeProfileError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"profiles": items})
		return
	}

	profile, err := a.profiles.GetByWallet(r.Context(), walletAddress)
	if errors.Is(err, profiles.ErrProfileNotFound) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"profile": nil})
		return
	}
	if err != nil {
		a.writeProfileError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}

func (a *api) handleProfilesUpsert(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return
	}

	var req profileUpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	var before interface{}
	if previous, err := a.profiles.GetByWallet(r.Context(), req.WalletAddress); err == nil {
		before = previous
	}

	profile, err := a.profiles.Upsert(r.Context(), profiles.Requestor{
		WalletAddress: identity.WalletAddress,
		IsAdmin:       auth.IsAllowed(identity.Role, auth.PermissionManageAnyProfile),
	}, profiles.UpsertInput{
		WalletAddress:   req.WalletAddress,
		Name:            req.Name,
		XHandle:         req.XHandle,
		FarcasterHandle: req.FarcasterHandle,
		InstagramHandle: req.InstagramHandle,
	})
	if err != nil {
		a.writeProfileError(w, r, err)
		return
	}
	a.recordSessionAudit(r, auditlog.ActionProfileUpdated, "profile", profile.WalletAddress, before, profile, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}

func (a *api) writeProfileError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, profiles.ErrInvalidProfileInput):
		writeError(w, http.StatusBadRequest, "INVALID_PROFILE", "a valid wallet address and name are required")
	case errors.Is(err, profiles.ErrUnauthorizedProfileAccess):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "you can only update your own profile unless you are an admin")
	case errors.Is(err, profiles.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		a.log.WithError(err).WithField("path", r.URL.Path).Error("profile request failed")
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal server error")
	}
}
