package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	electionStore "electionadmin/internal/adapters/storage/election"
	"electionadmin/internal/domain/account"
	"electionadmin/internal/domain/audit"
	"electionadmin/internal/domain/election"
	"electionadmin/internal/domain/permission"
	"electionadmin/internal/domain/retention"
)

var electionClock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func electionNow() time.Time { return electionClock }

var (
	superadmin = account.Principal{ID: "u-super", Email: "super@example.org", Role: account.RoleSuperAdmin}
	admin      = account.Principal{ID: "u-admin", Email: "admin@example.org", Role: account.RoleAdmin}
	officer    = account.Principal{ID: "u-officer", Email: "officer@example.org", Role: account.RoleOfficer}
	viewer     = account.Principal{ID: "u-viewer", Email: "viewer@example.org", Role: account.RoleViewer}
)

// mockElectionStore is an in-memory store with the same optimistic
// versioning contract as the SQLite store.
type mockElectionStore struct {
	mu        sync.Mutex
	elections map[string]election.Election

	deleteErr   map[string]error // injected Delete failures by id
	afterList   func()           // runs after List returns its snapshot
	deleteCalls int
	listFilters []electionStore.ListFilter
}

func newMockElectionStore(es ...election.Election) *mockElectionStore {
	m := &mockElectionStore{elections: make(map[string]election.Election), deleteErr: make(map[string]error)}
	for _, e := range es {
		if e.Version == 0 {
			e.Version = 1
		}
		m.elections[e.ID] = e
	}
	return m
}

func (m *mockElectionStore) GetByID(_ context.Context, id string) (election.Election, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.elections[id]
	if !ok {
		return election.Election{}, fmt.Errorf("election %s: %w", id, election.ErrNotFound)
	}
	return e, nil
}

func (m *mockElectionStore) List(_ context.Context, f electionStore.ListFilter) ([]election.Election, error) {
	m.mu.Lock()
	m.listFilters = append(m.listFilters, f)
	var out []election.Election
	for _, e := range m.elections {
		if f.IsActive != nil && e.IsActive != *f.IsActive {
			continue
		}
		if f.IsDeleted != nil && e.IsDeleted != *f.IsDeleted {
			continue
		}
		if f.NeedsApproval != nil && e.NeedsApproval != *f.NeedsApproval {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.DeletedBefore != nil && (e.DeletedAt == nil || e.DeletedAt.After(*f.DeletedBefore)) {
			continue
		}
		if slices.Contains(f.ExcludeStatuses, e.Status) || slices.Contains(f.ExcludeCreatorRoles, e.CreatedByRole) {
			continue
		}
		out = append(out, e)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 {
		out = out[min(f.Offset, len(out)):]
		out = out[:min(f.Limit, len(out))]
	}
	if m.afterList != nil {
		m.afterList()
	}
	return out, nil
}

func (m *mockElectionStore) Insert(_ context.Context, e election.Election) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.elections[e.ID]; ok {
		return errors.New("duplicate id")
	}
	m.elections[e.ID] = e
	return nil
}

func (m *mockElectionStore) Update(_ context.Context, e election.Election, expectedVersion int) (election.Election, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.elections[e.ID]
	if !ok {
		return election.Election{}, fmt.Errorf("election %s: %w", e.ID, election.ErrNotFound)
	}
	if cur.Version != expectedVersion {
		return election.Election{}, fmt.Errorf("election %s: %w", e.ID, election.ErrConflict)
	}
	e.Version = expectedVersion + 1
	m.elections[e.ID] = e
	return e, nil
}

func (m *mockElectionStore) Delete(_ context.Context, id string, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if err := m.deleteErr[id]; err != nil {
		return err
	}
	cur, ok := m.elections[id]
	if !ok {
		return fmt.Errorf("election %s: %w", id, election.ErrNotFound)
	}
	if cur.Version != expectedVersion {
		return fmt.Errorf("election %s: %w", id, election.ErrConflict)
	}
	delete(m.elections, id)
	return nil
}

func (m *mockElectionStore) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.elections[id]
	return ok
}

// mockPermissions grants each principal id a fixed set.
type mockPermissions struct {
	sets map[string]permission.Set
	err  error
}

func (m *mockPermissions) GetPermissions(_ context.Context, id string) (permission.Set, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sets[id], nil
}

func grant(actions permission.Actions) permission.Set {
	return permission.Set{permission.ResourceElections: actions}
}

func defaultPermissions() *mockPermissions {
	all := permission.Actions{View: true, Create: true, Edit: true, Delete: true}
	return &mockPermissions{sets: map[string]permission.Set{
		superadmin.ID:                 grant(all),
		admin.ID:                      grant(all),
		officer.ID:                    grant(permission.Actions{View: true, Create: true, Edit: true}),
		viewer.ID:                     grant(permission.Actions{View: true}),
		election.SystemRetentionActor: grant(permission.Actions{View: true, Delete: true}),
	}}
}

// mockAudit collects audit events.
type mockAudit struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (m *mockAudit) Save(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockAudit) actions() []audit.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.Action, len(m.events))
	for i, e := range m.events {
		out[i] = e.Action
	}
	return out
}

// mockScheduleStore keeps schedules in memory.
type mockScheduleStore struct {
	mu        sync.Mutex
	schedules map[string]retention.Schedule
	saves     int
}

func newMockScheduleStore() *mockScheduleStore {
	return &mockScheduleStore{schedules: make(map[string]retention.Schedule)}
}

func (m *mockScheduleStore) Get(_ context.Context, name string) (retention.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[name]
	if !ok {
		return retention.Schedule{}, retention.ErrScheduleNotFound
	}
	return s, nil
}

func (m *mockScheduleStore) Save(_ context.Context, s retention.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.schedules[s.Name] = s
	return nil
}

// --- fixtures ---

func visibleElection(id string, status election.Status) election.Election {
	return election.Election{
		ID:            id,
		Title:         "Election " + id,
		Status:        status,
		IsActive:      true,
		CreatedBy:     superadmin.ID,
		CreatedByRole: superadmin.Role,
		CreatedAt:     electionClock.Add(-90 * election.Day),
		UpdatedAt:     electionClock.Add(-90 * election.Day),
		Version:       1,
	}
}

func archivedElection(id string) election.Election {
	e := visibleElection(id, election.StatusCompleted)
	if err := e.Archive(admin.ID, electionClock.Add(-time.Hour)); err != nil {
		panic(err)
	}
	return e
}

func softDeletedElection(id string, days int, deletedAt time.Time) election.Election {
	e := visibleElection(id, election.StatusCompleted)
	if err := e.SoftDelete(admin.ID, deletedAt, days); err != nil {
		panic(err)
	}
	return e
}

func lifecycleDeps(store *mockElectionStore, auditLog *mockAudit) LifecycleDeps {
	return LifecycleDeps{
		ElectionStore: store,
		Permissions:   defaultPermissions(),
		AuditStore:    auditLog,
		Now:           electionNow,
	}
}
