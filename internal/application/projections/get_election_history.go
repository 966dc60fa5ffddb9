package projections

import (
	"context"
	"fmt"

	auditStore "electionadmin/internal/adapters/storage/audit"
	domainAudit "electionadmin/internal/domain/audit"
	domainElection "electionadmin/internal/domain/election"
)

// GetElectionHistoryQuery carries query parameters.
type GetElectionHistoryQuery struct {
	ElectionID string
	Limit      int
}

// GetElectionHistoryDeps holds dependencies for GetElectionHistory.
type GetElectionHistoryDeps struct {
	AuditStore AuditStore
}

// QueryGetElectionHistory returns the audit trail of one election, newest
// first. The trail outlives the record, so a purged election still has history.
// PRE: ElectionID is non-empty
func QueryGetElectionHistory(ctx context.Context, query GetElectionHistoryQuery, deps GetElectionHistoryDeps) ([]domainAudit.Event, error) {
	if query.ElectionID == "" {
		return nil, fmt.Errorf("%w: election id is required", domainElection.ErrValidation)
	}
	if query.Limit <= 0 {
		query.Limit = 100
	}
	resourceType := domainAudit.ResourceElection
	return deps.AuditStore.List(ctx, auditStore.Filter{
		ResourceType: &resourceType,
		ResourceID:   &query.ElectionID,
	}, query.Limit)
}
