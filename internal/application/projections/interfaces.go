package projections

import (
	"context"

	auditStore "electionadmin/internal/adapters/storage/audit"
	electionStore "electionadmin/internal/adapters/storage/election"
	domainAudit "electionadmin/internal/domain/audit"
	domainElection "electionadmin/internal/domain/election"
	domainRetention "electionadmin/internal/domain/retention"
)

// ElectionStore interface for election queries.
type ElectionStore interface {
	List(ctx context.Context, filter electionStore.ListFilter) ([]domainElection.Election, error)
}

// ScheduleStore interface for retention schedule queries.
type ScheduleStore interface {
	Get(ctx context.Context, name string) (domainRetention.Schedule, error)
}

// AuditStore interface for audit trail queries.
type AuditStore interface {
	List(ctx context.Context, filter auditStore.Filter, limit int) ([]domainAudit.Event, error)
}
