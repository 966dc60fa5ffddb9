package web

import (
	"net/http"
	"time"

	auditStore "electionadmin/internal/adapters/storage/audit"
	auditDomain "electionadmin/internal/domain/audit"
)

// handleAdminAuditTrail returns audit events (GET /api/admin/audit)
// PRE: User must be authenticated as superadmin or admin
// POST: Returns events matching the optional filters, newest first
func handleAdminAuditTrail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := auditStore.Filter{}

	if category := q.Get("category"); category != "" {
		cat := auditDomain.Category(category)
		filter.Category = &cat
	}
	if action := q.Get("action"); action != "" {
		act := auditDomain.Action(action)
		filter.Action = &act
	}
	if actorID := q.Get("actor_id"); actorID != "" {
		filter.ActorID = &actorID
	}
	if resourceType := q.Get("resource_type"); resourceType != "" {
		filter.ResourceType = &resourceType
	}
	if resourceID := q.Get("resource_id"); resourceID != "" {
		filter.ResourceID = &resourceID
	}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, name+" must be an RFC 3339 timestamp")
			return
		}
		*dst = &t
	}

	events, err := stores.AuditStore.List(r.Context(), filter, queryInt(r, "limit", 100, 1000))
	if err != nil {
		internalError(w, err)
		return
	}
	if events == nil {
		events = []auditDomain.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
