package orchestrators

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"electionadmin/internal/domain/account"
	"electionadmin/internal/domain/audit"
	"electionadmin/internal/domain/election"
	"electionadmin/internal/domain/permission"
)

// ElectionStoreForCreate defines the store interface needed by CreateElection.
type ElectionStoreForCreate interface {
	Insert(ctx context.Context, e election.Election) error
}

// CreateElectionInput carries input for the create orchestrator.
// Status may be empty, draft or upcoming.
type CreateElectionInput struct {
	Title     string
	Status    election.Status
	Principal account.Principal
}

// CreateElectionDeps holds dependencies for CreateElection.
type CreateElectionDeps struct {
	ElectionStore ElectionStoreForCreate
	Permissions   PermissionProvider
	AuditStore    AuditRecorder
	Now           func() time.Time
	GenerateID    func() string
}

// ExecuteCreateElection creates a visible election. Elections created by a
// non-privileged principal start in pending_approval and need approval.
// PRE: principal holds elections:create
// POST: Election inserted at version 1; audit event recorded
func ExecuteCreateElection(ctx context.Context, input CreateElectionInput, deps CreateElectionDeps) (election.Election, error) {
	if err := authorize(ctx, deps.Permissions, input.Principal, permission.OpCreate); err != nil {
		return election.Election{}, err
	}

	switch input.Status {
	case "", election.StatusDraft, election.StatusUpcoming:
	default:
		return election.Election{}, fmt.Errorf("%w: initial status must be draft or upcoming, got %q", election.ErrValidation, input.Status)
	}

	now := time.Now().UTC()
	if deps.Now != nil {
		now = deps.Now()
	}
	id := uuid.NewString()
	if deps.GenerateID != nil {
		id = deps.GenerateID()
	}

	e := election.Election{
		ID:            id,
		Title:         strings.TrimSpace(input.Title),
		IsActive:      true,
		CreatedBy:     input.Principal.ID,
		CreatedByRole: input.Principal.Role,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
	if election.IsPrivilegedAuthority(input.Principal) {
		e.Status = input.Status
		if e.Status == "" {
			e.Status = election.StatusDraft
		}
	} else {
		e.Status = election.StatusPendingApproval
		e.NeedsApproval = true
	}

	if err := e.Validate(); err != nil {
		return election.Election{}, err
	}
	if err := deps.ElectionStore.Insert(ctx, e); err != nil {
		return election.Election{}, err
	}

	recordTransition(ctx, LifecycleDeps{AuditStore: deps.AuditStore}, input.Principal, audit.ActionCreate, e.ID, now, map[string]any{
		"status":         e.Status,
		"needs_approval": e.NeedsApproval,
	})
	return e, nil
}

// ElectionStoreForGet defines the store interface needed by GetElection.
type ElectionStoreForGet interface {
	GetByID(ctx context.Context, id string) (election.Election, error)
}

// GetElectionDeps holds dependencies for GetElection.
type GetElectionDeps struct {
	ElectionStore ElectionStoreForGet
	Permissions   PermissionProvider
}

// ExecuteGetElection loads one election in any lifecycle state.
// PRE: principal holds elections:view
func ExecuteGetElection(ctx context.Context, input LifecycleInput, deps GetElectionDeps) (election.Election, error) {
	if err := authorize(ctx, deps.Permissions, input.Principal, permission.OpGet); err != nil {
		return election.Election{}, err
	}
	if err := requireID(input.ElectionID); err != nil {
		return election.Election{}, err
	}
	return deps.ElectionStore.GetByID(ctx, input.ElectionID)
}
