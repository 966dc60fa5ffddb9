package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"electionadmin/internal/application/listutil"
	"electionadmin/internal/application/orchestrators"
	"electionadmin/internal/application/projections"
	electionDomain "electionadmin/internal/domain/election"
)

// electionResponse is the wire shape of an election.
type electionResponse struct {
	ID                           string     `json:"id"`
	Title                        string     `json:"title"`
	Status                       string     `json:"status"`
	EffectiveStatus              string     `json:"effective_status"`
	State                        string     `json:"state"`
	IsActive                     bool       `json:"is_active"`
	IsDeleted                    bool       `json:"is_deleted"`
	NeedsApproval                bool       `json:"needs_approval"`
	CreatedBy                    string     `json:"created_by"`
	CreatedByPrivilegedAuthority bool       `json:"created_by_privileged_authority"`
	CreatedAt                    time.Time  `json:"created_at"`
	UpdatedAt                    time.Time  `json:"updated_at"`
	ArchivedAt                   *time.Time `json:"archived_at,omitempty"`
	ArchivedBy                   string     `json:"archived_by,omitempty"`
	DeletedAt                    *time.Time `json:"deleted_at,omitempty"`
	DeletedBy                    string     `json:"deleted_by,omitempty"`
	RetentionDays                *int       `json:"retention_days,omitempty"`
	AutoDeleteAt                 *time.Time `json:"auto_delete_at,omitempty"`
	ApprovedAt                   *time.Time `json:"approved_at,omitempty"`
	ApprovedBy                   string     `json:"approved_by,omitempty"`
	Version                      int        `json:"version"`
}

func toElectionResponse(e electionDomain.Election) electionResponse {
	return electionResponse{
		ID:                           e.ID,
		Title:                        e.Title,
		Status:                       string(e.Status),
		EffectiveStatus:              string(electionDomain.EffectiveStatus(e)),
		State:                        string(e.State()),
		IsActive:                     e.IsActive,
		IsDeleted:                    e.IsDeleted,
		NeedsApproval:                electionDomain.NeedsApproval(e),
		CreatedBy:                    e.CreatedBy,
		CreatedByPrivilegedAuthority: e.CreatedByPrivilegedAuthority(),
		CreatedAt:                    e.CreatedAt,
		UpdatedAt:                    e.UpdatedAt,
		ArchivedAt:                   e.ArchivedAt,
		ArchivedBy:                   e.ArchivedBy,
		DeletedAt:                    e.DeletedAt,
		DeletedBy:                    e.DeletedBy,
		RetentionDays:                e.RetentionDays,
		AutoDeleteAt:                 e.AutoDeleteAt,
		ApprovedAt:                   e.ApprovedAt,
		ApprovedBy:                   e.ApprovedBy,
		Version:                      e.Version,
	}
}

func toElectionResponses(es []electionDomain.Election) []electionResponse {
	out := make([]electionResponse, 0, len(es))
	for _, e := range es {
		out = append(out, toElectionResponse(e))
	}
	return out
}

func lifecycleDeps() orchestrators.LifecycleDeps {
	return orchestrators.LifecycleDeps{
		ElectionStore: stores.ElectionStore,
		Permissions:   services.Permissions,
		AuditStore:    stores.AuditStore,
		Now:           timeNow,
	}
}

// transitionRequest is the optional body of the transition endpoints.
type transitionRequest struct {
	ExpectedVersion int    `json:"expected_version"`
	RetentionDays   *int   `json:"retention_days"`
	Status          string `json:"status"`
}

func decodeTransition(w http.ResponseWriter, r *http.Request) (orchestrators.LifecycleInput, transitionRequest, bool) {
	var body transitionRequest
	if err := strictDecode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return orchestrators.LifecycleInput{}, body, false
	}
	return orchestrators.LifecycleInput{
		ElectionID:      r.PathValue("id"),
		Principal:       currentPrincipal(r),
		ExpectedVersion: body.ExpectedVersion,
	}, body, true
}

// handleListElections handles GET /api/elections?view=visible|archived|deleted|pending&page=&per_page=
func handleListElections(w http.ResponseWriter, r *http.Request) {
	page := listutil.ParsePage(r.URL.Query())
	input := orchestrators.ListElectionsInput{
		Principal: currentPrincipal(r),
		Limit:     page.Limit(),
		Offset:    page.Offset(),
	}
	deps := orchestrators.ListElectionsDeps{ElectionStore: stores.ElectionStore, Permissions: services.Permissions}

	list := orchestrators.ExecuteListVisibleElections
	switch r.URL.Query().Get("view") {
	case "", "visible":
	case "archived":
		list = orchestrators.ExecuteListArchivedElections
	case "deleted":
		list = orchestrators.ExecuteListSoftDeletedElections
	case "pending":
		list = orchestrators.ExecuteListPendingApproval
	default:
		writeError(w, http.StatusBadRequest, "view must be one of visible, archived, deleted, pending")
		return
	}

	elections, err := list(r.Context(), input, deps)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	setNextLink(w, r, page, len(elections))
	writeJSON(w, http.StatusOK, toElectionResponses(elections))
}

type createElectionRequest struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

// handleCreateElection handles POST /api/elections
func handleCreateElection(w http.ResponseWriter, r *http.Request) {
	var body createElectionRequest
	if err := strictDecode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e, err := orchestrators.ExecuteCreateElection(r.Context(), orchestrators.CreateElectionInput{
		Title:     body.Title,
		Status:    electionDomain.Status(body.Status),
		Principal: currentPrincipal(r),
	}, orchestrators.CreateElectionDeps{
		ElectionStore: stores.ElectionStore,
		Permissions:   services.Permissions,
		AuditStore:    stores.AuditStore,
		Now:           timeNow,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/elections/"+e.ID)
	writeJSON(w, http.StatusCreated, toElectionResponse(e))
}

// handleGetElection handles GET /api/elections/{id}
func handleGetElection(w http.ResponseWriter, r *http.Request) {
	e, err := orchestrators.ExecuteGetElection(r.Context(), orchestrators.LifecycleInput{
		ElectionID: r.PathValue("id"),
		Principal:  currentPrincipal(r),
	}, orchestrators.GetElectionDeps{ElectionStore: stores.ElectionStore, Permissions: services.Permissions})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toElectionResponse(e))
}

// lifecycleHandler adapts a transition orchestrator to an endpoint.
func lifecycleHandler(run func(*http.Request, orchestrators.LifecycleInput, transitionRequest) (electionDomain.Election, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, body, ok := decodeTransition(w, r)
		if !ok {
			return
		}
		e, err := run(r, input, body)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toElectionResponse(e))
	}
}

// handleArchiveElection handles POST /api/elections/{id}/archive
var handleArchiveElection = lifecycleHandler(func(r *http.Request, in orchestrators.LifecycleInput, _ transitionRequest) (electionDomain.Election, error) {
	return orchestrators.ExecuteArchiveElection(r.Context(), in, lifecycleDeps())
})

// handleSoftDeleteElection handles POST /api/elections/{id}/soft-delete.
// retention_days is required; 0 must be sent explicitly to keep forever.
var handleSoftDeleteElection = lifecycleHandler(func(r *http.Request, in orchestrators.LifecycleInput, body transitionRequest) (electionDomain.Election, error) {
	if body.RetentionDays == nil {
		return electionDomain.Election{}, fmt.Errorf("%w: retention_days is required", electionDomain.ErrValidation)
	}
	return orchestrators.ExecuteSoftDeleteElection(r.Context(), orchestrators.SoftDeleteElectionInput{
		LifecycleInput: in,
		RetentionDays:  *body.RetentionDays,
	}, lifecycleDeps())
})

// handleRestoreArchivedElection handles POST /api/elections/{id}/restore-archive
var handleRestoreArchivedElection = lifecycleHandler(func(r *http.Request, in orchestrators.LifecycleInput, _ transitionRequest) (electionDomain.Election, error) {
	return orchestrators.ExecuteRestoreElectionFromArchive(r.Context(), in, lifecycleDeps())
})

// handleRestoreDeletedElection handles POST /api/elections/{id}/restore-deleted
var handleRestoreDeletedElection = lifecycleHandler(func(r *http.Request, in orchestrators.LifecycleInput, _ transitionRequest) (electionDomain.Election, error) {
	return orchestrators.ExecuteRestoreElectionFromSoftDelete(r.Context(), in, lifecycleDeps())
})

// handleApproveElection handles POST /api/elections/{id}/approve
var handleApproveElection = lifecycleHandler(func(r *http.Request, in orchestrators.LifecycleInput, _ transitionRequest) (electionDomain.Election, error) {
	return orchestrators.ExecuteApproveElection(r.Context(), in, lifecycleDeps())
})

// handleAdvanceElectionStatus handles POST /api/elections/{id}/status
var handleAdvanceElectionStatus = lifecycleHandler(func(r *http.Request, in orchestrators.LifecycleInput, body transitionRequest) (electionDomain.Election, error) {
	return orchestrators.ExecuteAdvanceElectionStatus(r.Context(), orchestrators.AdvanceElectionStatusInput{
		LifecycleInput: in,
		Status:         electionDomain.Status(body.Status),
	}, lifecycleDeps())
})

// handlePurgeElection handles DELETE /api/elections/{id}?expected_version=N
func handlePurgeElection(w http.ResponseWriter, r *http.Request) {
	input := orchestrators.LifecycleInput{
		ElectionID: r.PathValue("id"),
		Principal:  currentPrincipal(r),
	}
	if v := r.URL.Query().Get("expected_version"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "expected_version must be a positive integer")
			return
		}
		input.ExpectedVersion = n
	}
	err := orchestrators.ExecutePermanentlyDeleteElection(r.Context(), orchestrators.PermanentlyDeleteElectionInput{
		LifecycleInput: input,
	}, lifecycleDeps())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleElectionHistory handles GET /api/elections/{id}/history
// PRE: User must be authenticated as superadmin or admin
func handleElectionHistory(w http.ResponseWriter, r *http.Request) {
	events, err := projections.QueryGetElectionHistory(r.Context(), projections.GetElectionHistoryQuery{
		ElectionID: r.PathValue("id"),
		Limit:      queryInt(r, "limit", 100, 1000),
	}, projections.GetElectionHistoryDeps{AuditStore: stores.AuditStore})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
