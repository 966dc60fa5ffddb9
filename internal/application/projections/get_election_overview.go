package projections

import (
	"context"

	electionStore "electionadmin/internal/adapters/storage/election"
	domainElection "electionadmin/internal/domain/election"
)

// ElectionOverviewResult counts elections per lifecycle state.
type ElectionOverviewResult struct {
	Visible         int                           `json:"visible"`
	Archived        int                           `json:"archived"`
	SoftDeleted     int                           `json:"soft_deleted"`
	PendingApproval int                           `json:"pending_approval"`
	VisibleByStatus map[domainElection.Status]int `json:"visible_by_status"`
}

// GetElectionOverviewDeps holds dependencies for GetElectionOverview.
type GetElectionOverviewDeps struct {
	ElectionStore ElectionStore
}

// QueryGetElectionOverview builds the admin dashboard counts. Visible
// elections are grouped by their effective status, so an election awaiting
// approval counts as pending_approval whatever its stored status.
func QueryGetElectionOverview(ctx context.Context, deps GetElectionOverviewDeps) (ElectionOverviewResult, error) {
	all, err := deps.ElectionStore.List(ctx, electionStore.ListFilter{})
	if err != nil {
		return ElectionOverviewResult{}, err
	}

	result := ElectionOverviewResult{VisibleByStatus: make(map[domainElection.Status]int)}
	for _, e := range all {
		switch e.State() {
		case domainElection.StateVisible:
			result.Visible++
			result.VisibleByStatus[domainElection.EffectiveStatus(e)]++
			if e.Status != domainElection.StatusCompleted && domainElection.NeedsApproval(e) {
				result.PendingApproval++
			}
		case domainElection.StateArchived:
			result.Archived++
		case domainElection.StateSoftDeleted:
			result.SoftDeleted++
		}
	}
	return result, nil
}
