package router

import (
	"net/http"

	"github.com/yxshee/marfa-gallery/internal/auditlog"
	"github.com/yxshee/marfa-gallery/internal/auth"
)

// recordSessionAudit attributes a change to the authenticated wallet.
func (a *api) recordSessionAudit(
	r *http.Request,
	action string,
	targetType string,
	targetID string,
	before interface{},
	after interface{},
	metadata interface{},
) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return
	}
	a.recordAudit(auditlog.RecordInput{
		ActorWallet: identity.WalletAddress,
		ActorRole:   identity.Role.String(),
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Before:      before,
		After:       after,
		Metadata:    metadata,
	})
}

func (a *api) recordAudit(input auditlog.RecordInput) {
	if a.auditLogs == nil {
		return
	}
	if _, err := a.auditLogs.Record(input); err != nil {
		a.log.WithError(err).WithField("action", input.Action).Warn("audit log entry dropped")
	}
}
