package projections

import (
	"context"
	"time"

	auditStore "electionadmin/internal/adapters/storage/audit"
	electionStore "electionadmin/internal/adapters/storage/election"
	domainAudit "electionadmin/internal/domain/audit"
	domainElection "electionadmin/internal/domain/election"
	domainRetention "electionadmin/internal/domain/retention"
)

var projectionClock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type mockElectionStore struct {
	elections []domainElection.Election
	err       error
}

// List returns seeded elections matching the deleted flag.
// PRE: filter is valid
// POST: Returns the seeded elections the filter selects
func (m *mockElectionStore) List(_ context.Context, f electionStore.ListFilter) ([]domainElection.Election, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domainElection.Election
	for _, e := range m.elections {
		if f.IsDeleted != nil && e.IsDeleted != *f.IsDeleted {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type mockScheduleStore struct {
	schedule *domainRetention.Schedule
}

// Get returns the seeded schedule or ErrScheduleNotFound.
func (m *mockScheduleStore) Get(_ context.Context, _ string) (domainRetention.Schedule, error) {
	if m.schedule == nil {
		return domainRetention.Schedule{}, domainRetention.ErrScheduleNotFound
	}
	return *m.schedule, nil
}

type mockAuditStore struct {
	events     []domainAudit.Event
	lastFilter auditStore.Filter
	lastLimit  int
}

// List returns seeded events for the filtered resource.
func (m *mockAuditStore) List(_ context.Context, f auditStore.Filter, limit int) ([]domainAudit.Event, error) {
	m.lastFilter = f
	m.lastLimit = limit
	var out []domainAudit.Event
	for _, e := range m.events {
		if f.ResourceID != nil && e.ResourceID != *f.ResourceID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func completed(id string) domainElection.Election {
	return domainElection.Election{
		ID:            id,
		Title:         "Election " + id,
		Status:        domainElection.StatusCompleted,
		IsActive:      true,
		CreatedBy:     "u-super",
		CreatedByRole: "superadmin",
		Version:       1,
	}
}

func deletedAgo(id string, days int, ago time.Duration) domainElection.Election {
	e := completed(id)
	if err := e.SoftDelete("u-admin", projectionClock.Add(-ago), days); err != nil {
		panic(err)
	}
	return e
}
