package router

import (
	"net/http"

	"github.com/yxshee/marfa-gallery/internal/auditlog"
	"github.com/yxshee/marfa-gallery/internal/auth"
)

func (a *api) handleAdminBackfillIdentifiers(w http.ResponseWriter, r *http.Request) {
	result, err := a.gallery.BackfillIdentifiers(r.Context())
	if err != nil {
		status, body := a.galleryErrorResponse(r, err)
		if result.Updated > 0 {
			updated := result.Updated
			body.Updated = &updated
			body.NewIdentifiers = result.NewIdentifiers
			a.log.WithError(err).WithField("updated", updated).Warn("identifier backfill stopped partway")
			a.recordSessionAudit(r, auditlog.ActionIdentifiersBackfill, "gallery", "identification_words", nil, nil, map[string]interface{}{
				"updated":         updated,
				"new_identifiers": result.NewIdentifiers,
				"error":           body.Code,
			})
		}
		writeJSON(w, status, body)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	a.log.WithField("admin", identity.WalletAddress).WithField("updated", result.Updated).Info("identifier backfill requested")
	a.recordSessionAudit(r, auditlog.ActionIdentifiersBackfill, "gallery", "identification_words", nil, nil, map[string]interface{}{
		"updated":         result.Updated,
		"new_identifiers": result.NewIdentifiers,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "identifiers updated",
		"updated":         result.Updated,
		"new_identifiers": result.NewIdentifiers,
	})
}

func (a *api) handleAdminSeed(w http.ResponseWriter, r *http.Request) {
	if !a.seedEnabled {
		writeError(w, http.StatusForbidden, "SEED_DISABLED", "reseeding the gallery is disabled in production")
		return
	}

	count, err := a.gallery.Seed(r.Context())
	if err != nil {
		a.writeGalleryError(w, r, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	a.log.WithField("admin", identity.WalletAddress).WithField("count", count).Warn("gallery reseeded")
	a.recordSessionAudit(r, auditlog.ActionGallerySeeded, "gallery", "art_pieces", nil, nil, map[string]int{"count": count})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "gallery seeded with demo pieces",
		"count":   count,
	})
}
