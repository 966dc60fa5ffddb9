package web

import (
	"net/http"

	"electionadmin/internal/adapters/http/middleware"
	"electionadmin/internal/domain/account"
)

// registerRoutes maps every endpoint. Election endpoints only require a
// session: the engine's permission check decides what the principal may do.
// Admin endpoints are additionally gated by role.
func registerRoutes(mux *http.ServeMux) {
	authed := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	admins := middleware.RequireRole(account.RoleSuperAdmin, account.RoleAdmin)
	superadmins := middleware.RequireRole(account.RoleSuperAdmin)

	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("GET /api/csrf", handleCSRFToken)
	mux.HandleFunc("POST /api/login", handleLogin)
	mux.HandleFunc("POST /api/logout", handleLogout)
	mux.Handle("GET /api/me", authed(handleMe))

	mux.Handle("GET /api/elections", authed(handleListElections))
	mux.Handle("POST /api/elections", authed(handleCreateElection))
	mux.Handle("GET /api/elections/{id}", authed(handleGetElection))
	mux.Handle("DELETE /api/elections/{id}", authed(handlePurgeElection))
	mux.Handle("POST /api/elections/{id}/archive", authed(handleArchiveElection))
	mux.Handle("POST /api/elections/{id}/soft-delete", authed(handleSoftDeleteElection))
	mux.Handle("POST /api/elections/{id}/restore-archive", authed(handleRestoreArchivedElection))
	mux.Handle("POST /api/elections/{id}/restore-deleted", authed(handleRestoreDeletedElection))
	mux.Handle("POST /api/elections/{id}/approve", authed(handleApproveElection))
	mux.Handle("POST /api/elections/{id}/status", authed(handleAdvanceElectionStatus))
	mux.Handle("GET /api/elections/{id}/history", admins(http.HandlerFunc(handleElectionHistory)))

	mux.Handle("GET /api/admin/overview", admins(http.HandlerFunc(handleAdminOverview)))
	mux.Handle("GET /api/admin/retention/status", admins(http.HandlerFunc(handleRetentionStatus)))
	mux.Handle("POST /api/admin/retention/sweep", admins(http.HandlerFunc(handleRetentionSweep)))
	mux.Handle("GET /api/admin/perf", admins(http.HandlerFunc(handleAdminPerf)))
	mux.Handle("GET /api/admin/audit", admins(http.HandlerFunc(handleAdminAuditTrail)))
	mux.Handle("GET /api/admin/accounts", superadmins(http.HandlerFunc(handleListAccounts)))
	mux.Handle("POST /api/admin/accounts", superadmins(http.HandlerFunc(handleCreateAccount)))
}
