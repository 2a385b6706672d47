package router

import (
	"net/http"

	"github.com/yxshee/marfa-gallery/internal/auth"
)

func (a *api) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.parseAccessIdentity(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), *identity)))
	})
}

func (a *api) requirePermission(permission auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
				return
			}

			if err := auth.MustBeAllowed(identity.Role, permission); err != nil {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (a *api) parseAccessIdentity(authorizationHeader string) (*auth.Identity, error) {
	token, err := bearerToken(authorizationHeader)
	if err != nil {
		return nil, err
	}

	claims, err := a.tokenManager.ParseAndValidate(token)
	if err != nil {
		return nil, err
	}

	return &auth.Identity{
		WalletAddress: claims.WalletAddress,
		Role:          claims.Role,
		SessionID:     claims.SessionID,
	}, nil
}
