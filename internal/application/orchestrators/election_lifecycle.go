package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"electionadmin/internal/domain/account"
	"electionadmin/internal/domain/audit"
	"electionadmin/internal/domain/election"
	"electionadmin/internal/domain/permission"
)

// ElectionStoreForLifecycle defines the store interface needed by lifecycle transitions.
type ElectionStoreForLifecycle interface {
	GetByID(ctx context.Context, id string) (election.Election, error)
	Update(ctx context.Context, e election.Election, expectedVersion int) (election.Election, error)
	Delete(ctx context.Context, id string, expectedVersion int) error
}

// PermissionProvider resolves a principal's permission set.
type PermissionProvider interface {
	GetPermissions(ctx context.Context, principalID string) (permission.Set, error)
}

// AuditRecorder appends audit events.
type AuditRecorder interface {
	Save(ctx context.Context, event audit.Event) error
}

// LifecycleDeps holds dependencies for the lifecycle transitions.
type LifecycleDeps struct {
	ElectionStore ElectionStoreForLifecycle
	Permissions   PermissionProvider
	AuditStore    AuditRecorder
	Now           func() time.Time
}

func (d LifecycleDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// LifecycleInput identifies the election and the acting principal.
// ExpectedVersion, when non-zero, must match the stored version; zero uses
// the version just read.
type LifecycleInput struct {
	ElectionID      string
	Principal       account.Principal
	ExpectedVersion int
}

// SoftDeleteElectionInput carries input for the soft-delete transition.
type SoftDeleteElectionInput struct {
	LifecycleInput
	RetentionDays int
}

// PermanentlyDeleteElectionInput carries input for the purge.
// OnlyIfPurgeEligible makes the purge re-check retention on the freshly read
// record; the retention sweep sets it so a restore that raced the sweep wins.
type PermanentlyDeleteElectionInput struct {
	LifecycleInput
	OnlyIfPurgeEligible bool
}

// ExecuteArchiveElection archives a completed, visible election.
// PRE: principal holds elections:delete
// POST: Election archived and version bumped; audit event recorded
func ExecuteArchiveElection(ctx context.Context, input LifecycleInput, deps LifecycleDeps) (election.Election, error) {
	return transition(ctx, input, deps, permission.OpArchive, audit.ActionArchive, nil,
		func(e *election.Election, now time.Time) error {
			return e.Archive(input.Principal.ID, now)
		})
}

// ExecuteSoftDeleteElection soft-deletes a completed, visible election with a retention window.
// PRE: principal holds elections:delete; RetentionDays is an allowed window
// POST: Election soft-deleted with AutoDeleteAt computed; audit event recorded
func ExecuteSoftDeleteElection(ctx context.Context, input SoftDeleteElectionInput, deps LifecycleDeps) (election.Election, error) {
	validate := func() error { return election.ValidateRetentionDays(input.RetentionDays) }
	return transition(ctx, input.LifecycleInput, deps, permission.OpSoftDelete, audit.ActionSoftDelete, validate,
		func(e *election.Election, now time.Time) error {
			return e.SoftDelete(input.Principal.ID, now, input.RetentionDays)
		})
}

// ExecuteRestoreElectionFromArchive returns an archived election to visible.
// PRE: principal holds elections:edit
// POST: Archive stamps cleared; audit event recorded
func ExecuteRestoreElectionFromArchive(ctx context.Context, input LifecycleInput, deps LifecycleDeps) (election.Election, error) {
	return transition(ctx, input, deps, permission.OpRestoreFromArchive, audit.ActionRestoreArchived, nil,
		func(e *election.Election, _ time.Time) error {
			return e.RestoreFromArchive()
		})
}

// ExecuteRestoreElectionFromSoftDelete returns a soft-deleted election to visible.
// PRE: principal holds elections:edit
// POST: Deletion stamps and retention cleared; audit event recorded
func ExecuteRestoreElectionFromSoftDelete(ctx context.Context, input LifecycleInput, deps LifecycleDeps) (election.Election, error) {
	return transition(ctx, input, deps, permission.OpRestoreFromSoftDelete, audit.ActionRestoreSoftDeleted, nil,
		func(e *election.Election, _ time.Time) error {
			return e.RestoreFromSoftDelete()
		})
}

// ExecuteApproveElection clears the approval requirement of a pending election.
// PRE: principal holds elections:edit and is a privileged authority
// POST: NeedsApproval cleared, pending_approval moved to upcoming; audit event recorded
func ExecuteApproveElection(ctx context.Context, input LifecycleInput, deps LifecycleDeps) (election.Election, error) {
	validate := func() error {
		if !election.IsPrivilegedAuthority(input.Principal) {
			return fmt.Errorf("%w: only a privileged authority can approve elections", election.ErrForbidden)
		}
		return nil
	}
	return transition(ctx, input, deps, permission.OpApprove, audit.ActionApprove, validate,
		func(e *election.Election, now time.Time) error {
			return e.Approve(input.Principal.ID, now)
		})
}

// ExecutePermanentlyDeleteElection destroys an archived or soft-deleted election.
// PRE: principal holds elections:delete
// POST: Row removed; later operations on the id fail with ErrNotFound
func ExecutePermanentlyDeleteElection(ctx context.Context, input PermanentlyDeleteElectionInput, deps LifecycleDeps) error {
	if err := authorize(ctx, deps.Permissions, input.Principal, permission.OpPermanentlyDelete); err != nil {
		return err
	}
	if err := requireID(input.ElectionID); err != nil {
		return err
	}

	e, err := deps.ElectionStore.GetByID(ctx, input.ElectionID)
	if err != nil {
		return err
	}
	now := deps.now()
	if !election.CanPermanentlyDelete(e) {
		return fmt.Errorf("%w: cannot purge election in state %s", election.ErrInvalidTransition, e.State())
	}
	if input.OnlyIfPurgeEligible && !election.IsPurgeEligible(e, now) {
		return fmt.Errorf("%w: election is no longer purge-eligible", election.ErrInvalidTransition)
	}

	if err := deps.ElectionStore.Delete(ctx, e.ID, expectedVersion(input.LifecycleInput, e)); err != nil {
		return err
	}

	meta := map[string]any{"state": e.State(), "status": e.Status}
	if e.RetentionDays != nil {
		meta["retention_days"] = *e.RetentionDays
	}
	recordTransition(ctx, deps, input.Principal, audit.ActionPurge, e.ID, now, meta)
	return nil
}

// transition runs the shared read-modify-write sequence:
// authorize, validate input, load, apply the domain transition, versioned write.
func transition(
	ctx context.Context,
	input LifecycleInput,
	deps LifecycleDeps,
	op permission.Operation,
	action audit.Action,
	validate func() error,
	apply func(e *election.Election, now time.Time) error,
) (election.Election, error) {
	if err := authorize(ctx, deps.Permissions, input.Principal, op); err != nil {
		return election.Election{}, err
	}
	if err := requireID(input.ElectionID); err != nil {
		return election.Election{}, err
	}
	if validate != nil {
		if err := validate(); err != nil {
			return election.Election{}, err
		}
	}

	e, err := deps.ElectionStore.GetByID(ctx, input.ElectionID)
	if err != nil {
		return election.Election{}, err
	}
	readVersion := expectedVersion(input, e)

	now := deps.now()
	if err := apply(&e, now); err != nil {
		return election.Election{}, err
	}
	if err := e.Validate(); err != nil {
		return election.Election{}, err
	}
	e.UpdatedAt = now

	updated, err := deps.ElectionStore.Update(ctx, e, readVersion)
	if err != nil {
		return election.Election{}, err
	}

	recordTransition(ctx, deps, input.Principal, action, updated.ID, now, map[string]any{
		"state":   updated.State(),
		"version": updated.Version,
	})
	return updated, nil
}

// authorize checks the operation against the principal's permission set.
func authorize(ctx context.Context, provider PermissionProvider, p account.Principal, op permission.Operation) error {
	if p.ID == "" {
		return fmt.Errorf("%w: no principal", election.ErrForbidden)
	}
	set, err := provider.GetPermissions(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("load permissions: %w", err)
	}
	if !permission.AuthorizeOperation(set, op) {
		action, _ := permission.RequiredAction(op)
		return fmt.Errorf("%w: %s requires elections:%s", election.ErrForbidden, op, action)
	}
	return nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: election id is required", election.ErrValidation)
	}
	return nil
}

func expectedVersion(input LifecycleInput, loaded election.Election) int {
	if input.ExpectedVersion != 0 {
		return input.ExpectedVersion
	}
	return loaded.Version
}

// recordTransition logs the transition and appends an audit event. Audit
// failures are logged; the transition has already been committed.
func recordTransition(ctx context.Context, deps LifecycleDeps, p account.Principal, action audit.Action, electionID string, at time.Time, meta map[string]any) {
	slog.Info("election_event", "event", "election_"+string(action), "election_id", electionID, "actor_id", p.ID, "actor_role", p.Role)

	if deps.AuditStore == nil {
		return
	}
	category := audit.CategoryElection
	if p.ID == election.SystemRetentionActor {
		category = audit.CategoryRetention
	}
	ev := audit.NewEvent(p.ID, p.Email, p.Role, category, action, at).
		WithResource(audit.ResourceElection, electionID).
		WithDescription(fmt.Sprintf("election %s: %s", electionID, action))
	if action == audit.ActionPurge {
		ev = ev.WithSeverity(audit.SeverityWarning)
	}
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			ev = ev.WithMetadata(string(b))
		}
	}
	if err := deps.AuditStore.Save(ctx, ev); err != nil {
		slog.Error("audit_write_failed", "action", action, "election_id", electionID, "error", err)
	}
}
