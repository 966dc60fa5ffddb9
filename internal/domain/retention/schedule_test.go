package retention_test

import (
	"testing"
	"time"

	"electionadmin/internal/domain/retention"
)

// TestSchedule_Lifecycle tests due detection and advancement.
func TestSchedule_Lifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := retention.NewSchedule(retention.DefaultScheduleName, now)

	if !s.IsDue(now) {
		t.Fatal("new schedule should be due immediately")
	}

	s.RecordRun(retention.SweepReport{Purged: 2}, now, time.Hour)
	if s.IsDue(now.Add(59 * time.Minute)) {
		t.Error("schedule should not be due before the interval elapses")
	}
	if !s.IsDue(now.Add(time.Hour)) {
		t.Error("schedule should be due once the interval elapses")
	}
	if !s.IsDue(now.Add(72 * time.Hour)) {
		t.Error("overdue schedule should be due")
	}
	if s.LastRunAt == nil || !s.LastRunAt.Equal(now) {
		t.Errorf("LastRunAt = %v, want %v", s.LastRunAt, now)
	}
	if s.LastReport == nil || s.LastReport.Purged != 2 {
		t.Errorf("LastReport not recorded: %+v", s.LastReport)
	}
}

// TestSweepReport_Ran tests the lock-held skip marker.
func TestSweepReport_Ran(t *testing.T) {
	if !(retention.SweepReport{}).Ran() {
		t.Error("default report should count as ran")
	}
	if (retention.SweepReport{LockHeld: true}).Ran() {
		t.Error("lock-held report should not count as ran")
	}
}
