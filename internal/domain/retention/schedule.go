package retention

import (
	"errors"
	"time"
)

// DefaultScheduleName identifies the election purge schedule row.
const DefaultScheduleName = "election-retention"

// ErrScheduleNotFound is returned when no schedule has been persisted yet.
var ErrScheduleNotFound = errors.New("retention schedule not found")

// SweepReport summarises one sweep cycle.
type SweepReport struct {
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Cutoff      time.Time `json:"cutoff"`
	Scanned     int       `json:"scanned"`
	Eligible    int       `json:"eligible"`
	Purged      int       `json:"purged"`
	AlreadyGone int       `json:"already_gone"`
	Stale       int       `json:"stale"`
	Failed      int       `json:"failed"`
	FailedIDs   []string  `json:"failed_ids,omitempty"`
	LockHeld    bool      `json:"lock_held"`
	Interrupted bool      `json:"interrupted"`
	// LockExpiring is set when dispatch stopped because the sweep lock was
	// close to its TTL. Remaining records are picked up by the next cycle.
	LockExpiring bool `json:"lock_expiring,omitempty"`
}

// Ran reports whether the cycle actually processed records, i.e. it was not
// skipped because another sweeper held the lock.
func (r SweepReport) Ran() bool {
	return !r.LockHeld
}

// Schedule is the durable timer of the retention sweep. NextRunAt lives in the
// database, so the cadence survives restarts and does not depend on any session.
type Schedule struct {
	Name       string       `json:"name"`
	NextRunAt  time.Time    `json:"next_run_at"`
	LastRunAt  *time.Time   `json:"last_run_at,omitempty"`
	LastReport *SweepReport `json:"last_report,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// NewSchedule returns a schedule that is due immediately.
func NewSchedule(name string, now time.Time) Schedule {
	return Schedule{Name: name, NextRunAt: now, UpdatedAt: now}
}

// IsDue reports whether a sweep should run at now. An overdue schedule (for
// example after downtime) is due right away.
func (s *Schedule) IsDue(now time.Time) bool {
	return !now.Before(s.NextRunAt)
}

// RecordRun stores the report and advances NextRunAt by interval from now.
// PRE: interval > 0
// POST: LastRunAt = now; NextRunAt = now + interval
func (s *Schedule) RecordRun(report SweepReport, now time.Time, interval time.Duration) {
	at := now
	s.LastRunAt = &at
	s.LastReport = &report
	s.NextRunAt = now.Add(interval)
	s.UpdatedAt = now
}
