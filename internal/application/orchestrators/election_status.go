package orchestrators

import (
	"context"
	"fmt"
	"time"

	"electionadmin/internal/domain/audit"
	"electionadmin/internal/domain/election"
	"electionadmin/internal/domain/permission"
)

// AdvanceElectionStatusInput carries input for the status progression.
type AdvanceElectionStatusInput struct {
	LifecycleInput
	Status election.Status
}

// ExecuteAdvanceElectionStatus moves a visible election to its next
// operational phase (draft, upcoming, ongoing, completed).
// PRE: principal holds elections:edit
// POST: Status advanced one step; audit event recorded
func ExecuteAdvanceElectionStatus(ctx context.Context, input AdvanceElectionStatusInput, deps LifecycleDeps) (election.Election, error) {
	validate := func() error {
		if !election.IsValidStatus(input.Status) {
			return fmt.Errorf("%w: unknown status %q", election.ErrValidation, input.Status)
		}
		return nil
	}
	return transition(ctx, input.LifecycleInput, deps, permission.OpSetStatus, audit.ActionSetStatus, validate,
		func(e *election.Election, _ time.Time) error {
			return e.AdvanceStatus(input.Status)
		})
}
