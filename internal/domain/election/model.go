package election

import (
	"fmt"
	"strings"
	"time"
)

// MaxTitleLength bounds the user-editable title.
const MaxTitleLength = 200

// Status is the operational phase of an election. It is independent of
// lifecycle visibility.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusUpcoming        Status = "upcoming"
	StatusOngoing         Status = "ongoing"
	StatusCompleted       Status = "completed"
)

// ValidStatuses contains all valid status values.
var ValidStatuses = []Status{StatusDraft, StatusPendingApproval, StatusUpcoming, StatusOngoing, StatusCompleted}

// State is the lifecycle state derived from the persisted flags.
type State string

const (
	StateVisible     State = "visible"
	StateArchived    State = "archived"
	StateSoftDeleted State = "soft_deleted"
)

// Election is the lifecycle-relevant projection of an election record.
type Election struct {
	ID            string
	Title         string
	Status        Status
	IsActive      bool
	IsDeleted     bool
	NeedsApproval bool
	CreatedBy     string
	CreatedByRole string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ArchivedAt    *time.Time
	ArchivedBy    string
	DeletedAt     *time.Time
	DeletedBy     string
	RetentionDays *int
	AutoDeleteAt  *time.Time
	ApprovedAt    *time.Time
	ApprovedBy    string
	Version       int
}

// State derives the lifecycle state. The boolean flags are a storage detail;
// control flow should branch on this value instead.
func (e *Election) State() State {
	if e.IsDeleted {
		return StateSoftDeleted
	}
	if !e.IsActive {
		return StateArchived
	}
	return StateVisible
}

// Validate checks field-level rules and the lifecycle invariants.
// PRE: Election struct is populated
// POST: Returns nil if valid, an ErrValidation-wrapped error otherwise
func (e *Election) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrValidation)
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(e.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title cannot exceed %d characters", ErrValidation, MaxTitleLength)
	}
	if !IsValidStatus(e.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, e.Status)
	}
	if strings.TrimSpace(e.CreatedBy) == "" {
		return fmt.Errorf("%w: created_by is required", ErrValidation)
	}
	return e.checkLifecycle()
}

// checkLifecycle rejects flag and stamp combinations that no valid transition produces.
func (e *Election) checkLifecycle() error {
	if e.IsDeleted && e.IsActive {
		return fmt.Errorf("%w: deleted election cannot be active", ErrValidation)
	}
	state := e.State()
	archived := e.ArchivedAt != nil || e.ArchivedBy != ""
	if archived != (state == StateArchived) {
		return fmt.Errorf("%w: archive stamps present outside archived state", ErrValidation)
	}
	deleted := e.DeletedAt != nil || e.DeletedBy != "" || e.RetentionDays != nil
	if deleted != (state == StateSoftDeleted) {
		return fmt.Errorf("%w: deletion stamps present outside soft-deleted state", ErrValidation)
	}
	if e.AutoDeleteAt != nil && state != StateSoftDeleted {
		return fmt.Errorf("%w: auto_delete_at set outside soft-deleted state", ErrValidation)
	}
	if state != StateVisible && e.Status != StatusCompleted {
		return fmt.Errorf("%w: only completed elections can leave the visible state", ErrValidation)
	}
	return nil
}

// Archive moves a completed, visible election to the archive.
// PRE: CanArchive returns true
// POST: IsActive false; ArchivedAt/ArchivedBy stamped
func (e *Election) Archive(actor string, now time.Time) error {
	if !CanArchive(*e) {
		return fmt.Errorf("%w: cannot archive %s election in state %s", ErrInvalidTransition, e.Status, e.State())
	}
	at := now
	e.IsActive = false
	e.ArchivedAt = &at
	e.ArchivedBy = actor
	return nil
}

// SoftDelete hides a completed, visible election and starts its retention clock.
// PRE: CanSoftDelete returns true; retentionDays is an allowed window
// POST: IsDeleted true, IsActive false; deletion stamps and AutoDeleteAt set
func (e *Election) SoftDelete(actor string, now time.Time, retentionDays int) error {
	if err := ValidateRetentionDays(retentionDays); err != nil {
		return err
	}
	if !CanSoftDelete(*e) {
		return fmt.Errorf("%w: cannot delete %s election in state %s", ErrInvalidTransition, e.Status, e.State())
	}
	at := now
	days := retentionDays
	e.IsDeleted = true
	e.IsActive = false
	e.DeletedAt = &at
	e.DeletedBy = actor
	e.RetentionDays = &days
	e.AutoDeleteAt = AutoDeleteAt(at, days)
	return nil
}

// RestoreFromArchive returns an archived election to the visible state.
// PRE: CanRestoreFromArchive returns true
// POST: IsActive true; archive stamps cleared
func (e *Election) RestoreFromArchive() error {
	if !CanRestoreFromArchive(*e) {
		return fmt.Errorf("%w: election is %s, not archived", ErrInvalidTransition, e.State())
	}
	e.IsActive = true
	e.ArchivedAt = nil
	e.ArchivedBy = ""
	return nil
}

// RestoreFromSoftDelete returns a soft-deleted election to the visible state.
// PRE: CanRestoreFromSoftDelete returns true
// POST: IsDeleted false, IsActive true; deletion stamps and retention cleared
func (e *Election) RestoreFromSoftDelete() error {
	if !CanRestoreFromSoftDelete(*e) {
		return fmt.Errorf("%w: election is %s, not soft-deleted", ErrInvalidTransition, e.State())
	}
	e.IsDeleted = false
	e.IsActive = true
	e.DeletedAt = nil
	e.DeletedBy = ""
	e.RetentionDays = nil
	e.AutoDeleteAt = nil
	return nil
}

// Approve clears the approval requirement on a visible, not yet completed election.
// PRE: NeedsApproval returns true
// POST: NeedsApproval false; ApprovedAt/ApprovedBy stamped; pending_approval moves to upcoming
func (e *Election) Approve(actor string, now time.Time) error {
	if e.State() != StateVisible || e.Status == StatusCompleted {
		return fmt.Errorf("%w: only visible, uncompleted elections can be approved", ErrInvalidTransition)
	}
	if !NeedsApproval(*e) {
		return fmt.Errorf("%w: election does not need approval", ErrInvalidTransition)
	}
	at := now
	e.NeedsApproval = false
	e.ApprovedAt = &at
	e.ApprovedBy = actor
	if e.Status == StatusPendingApproval {
		e.Status = StatusUpcoming
	}
	return nil
}

// statusSuccessor is the forward progression of the operational phase.
// pending_approval only leaves through Approve.
var statusSuccessor = map[Status]Status{
	StatusDraft:    StatusUpcoming,
	StatusUpcoming: StatusOngoing,
	StatusOngoing:  StatusCompleted,
}

// AdvanceStatus moves a visible election to the next operational phase.
// PRE: e is visible; next is the successor of the current status
// POST: Status == next
func (e *Election) AdvanceStatus(next Status) error {
	if !IsValidStatus(next) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}
	if e.State() != StateVisible {
		return fmt.Errorf("%w: election is %s; only visible elections change status", ErrInvalidTransition, e.State())
	}
	if NeedsApproval(*e) {
		return fmt.Errorf("%w: election is awaiting approval", ErrInvalidTransition)
	}
	if statusSuccessor[e.Status] != next {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, e.Status, next)
	}
	e.Status = next
	return nil
}

// IsValidStatus reports whether s is a known status.
func IsValidStatus(s Status) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}
