package orchestrators

import (
	"context"

	electionStore "electionadmin/internal/adapters/storage/election"
	"electionadmin/internal/domain/account"
	"electionadmin/internal/domain/election"
	"electionadmin/internal/domain/permission"
)

// ElectionStoreForList defines the store interface needed by the listing operations.
type ElectionStoreForList interface {
	List(ctx context.Context, filter electionStore.ListFilter) ([]election.Election, error)
}

// ListElectionsInput carries input for the listing operations.
type ListElectionsInput struct {
	Principal account.Principal
	Limit     int
	Offset    int
}

// ListElectionsDeps holds dependencies for the listing operations.
type ListElectionsDeps struct {
	ElectionStore ElectionStoreForList
	Permissions   PermissionProvider
}

// ExecuteListVisibleElections lists elections in the visible state.
// PRE: principal holds elections:view
func ExecuteListVisibleElections(ctx context.Context, input ListElectionsInput, deps ListElectionsDeps) ([]election.Election, error) {
	return listByState(ctx, input, deps, electionStore.ListFilter{
		IsActive:  electionStore.Bool(true),
		IsDeleted: electionStore.Bool(false),
	})
}

// ExecuteListArchivedElections lists archived elections.
// PRE: principal holds elections:view
func ExecuteListArchivedElections(ctx context.Context, input ListElectionsInput, deps ListElectionsDeps) ([]election.Election, error) {
	return listByState(ctx, input, deps, electionStore.ListFilter{
		IsActive:  electionStore.Bool(false),
		IsDeleted: electionStore.Bool(false),
	})
}

// ExecuteListSoftDeletedElections lists soft-deleted elections awaiting purge or restore.
// PRE: principal holds elections:view
func ExecuteListSoftDeletedElections(ctx context.Context, input ListElectionsInput, deps ListElectionsDeps) ([]election.Election, error) {
	return listByState(ctx, input, deps, electionStore.ListFilter{
		IsDeleted: electionStore.Bool(true),
	})
}

// ExecuteListPendingApproval lists visible, uncompleted elections that still
// need approval. Completed and privileged-authority elections are excluded in
// the query so that paging counts only real members; election.NeedsApproval
// still has the final say on each row.
// PRE: principal holds elections:view
func ExecuteListPendingApproval(ctx context.Context, input ListElectionsInput, deps ListElectionsDeps) ([]election.Election, error) {
	candidates, err := listByState(ctx, input, deps, electionStore.ListFilter{
		IsActive:            electionStore.Bool(true),
		IsDeleted:           electionStore.Bool(false),
		NeedsApproval:       electionStore.Bool(true),
		ExcludeStatuses:     []election.Status{election.StatusCompleted},
		ExcludeCreatorRoles: election.PrivilegedRoles(),
	})
	if err != nil {
		return nil, err
	}
	pending := make([]election.Election, 0, len(candidates))
	for _, e := range candidates {
		if e.Status != election.StatusCompleted && election.NeedsApproval(e) {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

func listByState(ctx context.Context, input ListElectionsInput, deps ListElectionsDeps, filter electionStore.ListFilter) ([]election.Election, error) {
	if err := authorize(ctx, deps.Permissions, input.Principal, permission.OpList); err != nil {
		return nil, err
	}
	filter.Limit = input.Limit
	filter.Offset = input.Offset
	return deps.ElectionStore.List(ctx, filter)
}
