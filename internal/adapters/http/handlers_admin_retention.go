package web

import (
	"log/slog"
	"net/http"
	"time"

	"electionadmin/internal/application/projections"
)

// handleAdminOverview handles GET /api/admin/overview
// PRE: User must be authenticated as superadmin or admin
func handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetElectionOverview(r.Context(), projections.GetElectionOverviewDeps{
		ElectionStore: stores.ElectionStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleRetentionStatus handles GET /api/admin/retention/status
// PRE: User must be authenticated as superadmin or admin
// POST: Returns the durable schedule and the soft-deleted elections by purge deadline
func handleRetentionStatus(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetRetentionStatus(r.Context(), projections.GetRetentionStatusQuery{
		Limit: queryInt(r, "limit", 50, 500),
	}, projections.GetRetentionStatusDeps{
		ScheduleStore: stores.ScheduleStore,
		ElectionStore: stores.ElectionStore,
		Now:           timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleRetentionSweep handles POST /api/admin/retention/sweep
// PRE: User must be authenticated as superadmin or admin
// POST: One sweep cycle ran (or was skipped for the lock); the report is returned
func handleRetentionSweep(w http.ResponseWriter, r *http.Request) {
	if services.Scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "retention scheduler not configured")
		return
	}
	p := currentPrincipal(r)
	slog.Info("retention_sweep_requested", "actor_id", p.ID, "actor_role", p.Role)

	report, err := services.Scheduler.RunNow(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	status := http.StatusOK
	if report.LockHeld {
		status = http.StatusAccepted
	}
	writeJSON(w, status, report)
}

// handleAdminPerf handles GET /api/admin/perf?window=15m
// PRE: User must be authenticated as superadmin or admin
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	window := 15 * time.Minute
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "window must be a positive duration such as 15m")
			return
		}
		window = d
	}
	if perfCollector == nil {
		writeError(w, http.StatusServiceUnavailable, "perf collection disabled")
		return
	}
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(time.Now().Add(-window), queryInt(r, "top", 5, 50)))
}
