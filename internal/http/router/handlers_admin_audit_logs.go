package router

import (
	"net/http"
	"strings"

	"github.com/yxshee/marfa-gallery/internal/auditlog"
)

type adminAuditLogListResponse struct {
	Items []auditlog.Entry `json:"items"`
	Total int              `json:"total"`
}

func (a *api) handleAdminAuditLogsList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil || limit < 1 || limit > 200 {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "limit must be between 1 and 200")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "offset must be zero or positive")
		return
	}

	query := r.URL.Query()
	result := a.auditLogs.List(auditlog.ListInput{
		ActorWallet: strings.TrimSpace(query.Get("actor_wallet")),
		Action:      strings.TrimSpace(query.Get("action")),
		TargetType:  strings.TrimSpace(query.Get("target_type")),
		TargetID:    strings.TrimSpace(query.Get("target_id")),
		Limit:       limit,
		Offset:      offset,
	})

	writeJSON(w, http.StatusOK, adminAuditLogListResponse{
		Items: result.Items,
		Total: result.Total,
	})
}
