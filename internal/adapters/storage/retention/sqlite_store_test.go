package retention

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"electionadmin/internal/adapters/storage"
	domain "electionadmin/internal/domain/retention"
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

// TestSQLiteStore_ScheduleRoundTrip tests that the schedule and its report survive a reload.
func TestSQLiteStore_ScheduleRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	if _, err := s.Get(ctx, domain.DefaultScheduleName); !errors.Is(err, domain.ErrScheduleNotFound) {
		t.Fatalf("err = %v, want ErrScheduleNotFound", err)
	}

	sched := domain.NewSchedule(domain.DefaultScheduleName, now)
	if err := s.Save(ctx, sched); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Get(ctx, domain.DefaultScheduleName)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.NextRunAt.Equal(now) || got.LastRunAt != nil || got.LastReport != nil {
		t.Errorf("fresh schedule = %+v", got)
	}

	got.RecordRun(domain.SweepReport{Scanned: 4, Purged: 3, Failed: 1, FailedIDs: []string{"e9"}}, now.Add(time.Minute), time.Hour)
	if err := s.Save(ctx, got); err != nil {
		t.Fatalf("Save after run: %v", err)
	}

	reloaded, err := s.Get(ctx, domain.DefaultScheduleName)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reloaded.NextRunAt.Equal(now.Add(61 * time.Minute)) {
		t.Errorf("NextRunAt = %v", reloaded.NextRunAt)
	}
	if reloaded.LastReport == nil || reloaded.LastReport.Purged != 3 || len(reloaded.LastReport.FailedIDs) != 1 {
		t.Errorf("LastReport = %+v", reloaded.LastReport)
	}
}
