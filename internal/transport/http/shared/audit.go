package shared

import (
	"net/http"

	"hris/internal/domain/audit"
	"hris/internal/platform/requestctx"
	"hris/internal/transport/http/middleware"
)

// RecordAudit writes one audit event for the authenticated caller. Failures
// are logged and never fail the request that caused them.
func RecordAudit(r *http.Request, recorder audit.Recorder, action, entityType, entityID string, before, after any) {
	if recorder == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	err := recorder.Record(r.Context(), user.TenantID, user.UserID, action, entityType, entityID,
		middleware.GetRequestID(r.Context()), middleware.ClientIP(r), before, after)
	if err != nil {
		requestctx.Logger(r.Context()).Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}
