package projections

import (
	"context"
	"errors"
	"testing"
	"time"

	domainElection "electionadmin/internal/domain/election"
)

// TestQueryGetElectionOverview verifies per-state counts and effective status grouping.
func TestQueryGetElectionOverview(t *testing.T) {
	pending := completed("p")
	pending.Status = domainElection.StatusPendingApproval
	pending.NeedsApproval = true
	pending.CreatedBy = "u-officer"
	pending.CreatedByRole = "officer"

	staleFlag := completed("s")
	staleFlag.Status = domainElection.StatusUpcoming
	staleFlag.NeedsApproval = true // superadmin creator: never pending

	archived := completed("a")
	if err := archived.Archive("u-admin", projectionClock); err != nil {
		t.Fatal(err)
	}

	store := &mockElectionStore{elections: []domainElection.Election{
		completed("c"), pending, staleFlag, archived, deletedAgo("d", 7, time.Hour),
	}}
	result, err := QueryGetElectionOverview(context.Background(), GetElectionOverviewDeps{ElectionStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Visible != 3 || result.Archived != 1 || result.SoftDeleted != 1 {
		t.Errorf("counts = %+v", result)
	}
	if result.PendingApproval != 1 {
		t.Errorf("pending = %d, want 1", result.PendingApproval)
	}
	if result.VisibleByStatus[domainElection.StatusUpcoming] != 1 ||
		result.VisibleByStatus[domainElection.StatusCompleted] != 1 ||
		result.VisibleByStatus[domainElection.StatusPendingApproval] != 1 {
		t.Errorf("by status = %v", result.VisibleByStatus)
	}
}

func TestQueryGetElectionOverview_StoreError(t *testing.T) {
	_, err := QueryGetElectionOverview(context.Background(), GetElectionOverviewDeps{
		ElectionStore: &mockElectionStore{err: errors.New("boom")},
	})
	if err == nil {
		t.Error("expected error")
	}
}
