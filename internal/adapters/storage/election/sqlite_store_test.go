package election

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"electionadmin/internal/adapters/storage"
	domain "electionadmin/internal/domain/election"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

var base = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func newElection(id string, status domain.Status) domain.Election {
	return domain.Election{
		ID:            id,
		Title:         "Election " + id,
		Status:        status,
		IsActive:      true,
		CreatedBy:     "admin-1",
		CreatedByRole: "superadmin",
		CreatedAt:     base,
		UpdatedAt:     base,
	}
}

// TestSQLiteStore_InsertGet tests that every column round-trips.
func TestSQLiteStore_InsertGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	e := newElection("e1", domain.StatusCompleted)
	if err := e.SoftDelete("admin-1", base.Add(time.Hour), 30); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if err := s.Insert(ctx, e); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.GetByID(ctx, "e1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}
	if got.State() != domain.StateSoftDeleted {
		t.Errorf("State = %s, want soft_deleted", got.State())
	}
	if got.RetentionDays == nil || *got.RetentionDays != 30 {
		t.Errorf("RetentionDays = %v, want 30", got.RetentionDays)
	}
	if got.AutoDeleteAt == nil || !got.AutoDeleteAt.Equal(*e.AutoDeleteAt) {
		t.Errorf("AutoDeleteAt = %v, want %v", got.AutoDeleteAt, e.AutoDeleteAt)
	}
	if got.DeletedBy != "admin-1" || got.ArchivedAt != nil {
		t.Errorf("unexpected metadata: %+v", got)
	}
}

// TestSQLiteStore_GetMissing tests the not-found mapping.
func TestSQLiteStore_GetMissing(t *testing.T) {
	s := openStore(t)
	_, err := s.GetByID(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestSQLiteStore_UpdateVersioning tests optimistic concurrency on Update.
func TestSQLiteStore_UpdateVersioning(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	e := newElection("e1", domain.StatusCompleted)
	if err := s.Insert(ctx, e); err != nil {
		t.Fatal(err)
	}
	loaded, _ := s.GetByID(ctx, "e1")

	if err := loaded.Archive("admin-1", base.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	updated, err := s.Update(ctx, loaded, loaded.Version)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("Version = %d, want 2", updated.Version)
	}

	// A writer holding the old version loses.
	stale := loaded
	if _, err := s.Update(ctx, stale, 1); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("stale update err = %v, want ErrConflict", err)
	}

	ghost := newElection("ghost", domain.StatusDraft)
	if _, err := s.Update(ctx, ghost, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing update err = %v, want ErrNotFound", err)
	}

	got, _ := s.GetByID(ctx, "e1")
	if got.State() != domain.StateArchived || got.Version != 2 {
		t.Errorf("stored = %s v%d, want archived v2", got.State(), got.Version)
	}
}

// TestSQLiteStore_DeleteVersioning tests that Delete honours the expected version.
func TestSQLiteStore_DeleteVersioning(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	if err := s.Insert(ctx, newElection("e1", domain.StatusCompleted)); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, "e1", 7); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	if err := s.Delete(ctx, "e1", 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "e1", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

// TestSQLiteStore_ListFilters tests state and cutoff filters.
func TestSQLiteStore_ListFilters(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	visible := newElection("visible", domain.StatusOngoing)
	archived := newElection("archived", domain.StatusCompleted)
	archived.Archive("admin-1", base)
	oldDeleted := newElection("old-deleted", domain.StatusCompleted)
	oldDeleted.SoftDelete("admin-1", base.Add(-40*24*time.Hour), 30)
	newDeleted := newElection("new-deleted", domain.StatusCompleted)
	newDeleted.SoftDelete("admin-1", base, 7)
	pending := newElection("pending", domain.StatusPendingApproval)
	pending.NeedsApproval = true

	for _, e := range []domain.Election{visible, archived, oldDeleted, newDeleted, pending} {
		if err := s.Insert(ctx, e); err != nil {
			t.Fatalf("Insert %s: %v", e.ID, err)
		}
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   int
	}{
		{"all", ListFilter{}, 5},
		{"visible", ListFilter{IsActive: Bool(true), IsDeleted: Bool(false)}, 2},
		{"archived", ListFilter{IsActive: Bool(false), IsDeleted: Bool(false)}, 1},
		{"soft deleted", ListFilter{IsDeleted: Bool(true)}, 2},
		{"pending", ListFilter{NeedsApproval: Bool(true)}, 1},
		{"by status", ListFilter{Status: domain.StatusCompleted}, 3},
		{"deleted before cutoff", ListFilter{IsDeleted: Bool(true), DeletedBefore: ptr(base.Add(-7 * 24 * time.Hour))}, 1},
		{"cutoff is inclusive", ListFilter{IsDeleted: Bool(true), DeletedBefore: ptr(base)}, 2},
		{"limit", ListFilter{Limit: 2}, 2},
		{"exclude statuses", ListFilter{ExcludeStatuses: []domain.Status{domain.StatusCompleted, domain.StatusPendingApproval}}, 1},
		{"exclude creator roles", ListFilter{ExcludeCreatorRoles: []string{"superadmin"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d elections, want %d", len(got), tt.want)
			}
		})
	}
}

// TestSQLiteStore_ListExclusionsBeforeLimit checks that excluded rows do not
// take up page slots.
func TestSQLiteStore_ListExclusionsBeforeLimit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	officerPending := newElection("officer-pending", domain.StatusPendingApproval)
	officerPending.CreatedBy = "officer-1"
	officerPending.CreatedByRole = "officer"
	officerPending.NeedsApproval = true
	for i, id := range []string{"super-a", "super-b"} {
		e := newElection(id, domain.StatusUpcoming)
		e.NeedsApproval = true
		e.CreatedAt = base.Add(time.Duration(i+1) * time.Hour)
		if err := s.Insert(ctx, e); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}
	if err := s.Insert(ctx, officerPending); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.List(ctx, ListFilter{
		NeedsApproval:       Bool(true),
		ExcludeCreatorRoles: []string{"superadmin"},
		Limit:               2,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "officer-pending" {
		t.Errorf("got %v, want [officer-pending]", got)
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
