package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"electionadmin/internal/adapters/storage"
	domain "electionadmin/internal/domain/audit"
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

// TestSQLiteStore_SaveListGet tests persistence and filtering of audit events.
func TestSQLiteStore_SaveListGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	archive := domain.NewEvent("u1", "u1@x.org", "admin", domain.CategoryElection, domain.ActionArchive, t0).
		WithResource(domain.ResourceElection, "e1")
	purge := domain.NewEvent("system-retention-policy", "", "system", domain.CategoryRetention, domain.ActionPurge, t0.Add(time.Hour)).
		WithResource(domain.ResourceElection, "e1").
		WithSeverity(domain.SeverityWarning).
		WithMetadata(`{"retention_days":7}`)
	other := domain.NewEvent("u2", "u2@x.org", "officer", domain.CategoryElection, domain.ActionCreate, t0.Add(2*time.Hour)).
		WithResource(domain.ResourceElection, "e2")

	for _, e := range []domain.Event{archive, purge, other} {
		if err := s.Save(ctx, e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	id := "e1"
	events, err := s.List(ctx, Filter{ResourceID: &id}, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Action != domain.ActionPurge {
		t.Errorf("first event = %s, want newest (purge)", events[0].Action)
	}

	cat := domain.CategoryRetention
	events, _ = s.List(ctx, Filter{Category: &cat}, 10)
	if len(events) != 1 || events[0].Metadata != `{"retention_days":7}` {
		t.Errorf("category filter = %+v", events)
	}

	from := t0.Add(90 * time.Minute)
	events, _ = s.List(ctx, Filter{From: &from}, 10)
	if len(events) != 1 || events[0].ID != other.ID {
		t.Errorf("from filter = %+v", events)
	}

	got, err := s.GetByID(ctx, purge.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Timestamp.Equal(purge.Timestamp) || got.Severity != domain.SeverityWarning {
		t.Errorf("GetByID = %+v", got)
	}

	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("err = %v, want ErrEventNotFound", err)
	}
}
