package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"electionadmin/internal/domain/retention"
)

// ScheduleStore persists the retention schedule.
type ScheduleStore interface {
	Get(ctx context.Context, name string) (retention.Schedule, error)
	Save(ctx context.Context, s retention.Schedule) error
}

// RetentionSchedulerConfig holds configuration for the retention scheduler.
type RetentionSchedulerConfig struct {
	Name     string        // schedule row name
	Interval time.Duration // time between sweeps
	Poll     time.Duration // how often to re-read the schedule while waiting
	Sweep    RetentionSweepConfig
	Enabled  bool
}

// DefaultRetentionSchedulerConfig returns sensible defaults.
func DefaultRetentionSchedulerConfig() RetentionSchedulerConfig {
	return RetentionSchedulerConfig{
		Name:     retention.DefaultScheduleName,
		Interval: time.Hour,
		Poll:     time.Minute,
		Sweep:    DefaultRetentionSweepConfig(),
		Enabled:  true,
	}
}

// RetentionScheduler drives sweeps from the persisted schedule, so the
// cadence survives restarts and an overdue sweep runs as soon as it starts.
type RetentionScheduler struct {
	cfg       RetentionSchedulerConfig
	schedules ScheduleStore
	deps      RetentionSweepDeps
	mu        sync.Mutex // serialises schedule read-modify-write in this process
}

// NewRetentionScheduler creates a scheduler. Zero config fields take defaults.
func NewRetentionScheduler(cfg RetentionSchedulerConfig, schedules ScheduleStore, deps RetentionSweepDeps) *RetentionScheduler {
	def := DefaultRetentionSchedulerConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Poll <= 0 || cfg.Poll > cfg.Interval {
		cfg.Poll = min(def.Poll, cfg.Interval)
	}
	return &RetentionScheduler{cfg: cfg, schedules: schedules, deps: deps}
}

// Status returns the persisted schedule, creating it on first use.
func (s *RetentionScheduler) Status(ctx context.Context) (retention.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// RunOnce runs a sweep if the schedule is due.
// POST: ran reports whether a sweep executed; when it did, NextRunAt advanced
func (s *RetentionScheduler) RunOnce(ctx context.Context) (report retention.SweepReport, ran bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sched, err := s.load(ctx)
	if err != nil {
		return retention.SweepReport{}, false, err
	}
	if !sched.IsDue(s.now()) {
		return retention.SweepReport{}, false, nil
	}
	return s.sweep(ctx, sched)
}

// RunNow runs a sweep regardless of the schedule, e.g. from an operator
// trigger, and advances the schedule when the sweep ran.
func (s *RetentionScheduler) RunNow(ctx context.Context) (retention.SweepReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sched, err := s.load(ctx)
	if err != nil {
		return retention.SweepReport{}, err
	}
	report, _, err := s.sweep(ctx, sched)
	return report, err
}

// Run loops until ctx is cancelled, sweeping whenever the schedule is due.
// PRE: ctx is cancellable for shutdown
// POST: returns after the in-flight sweep (if any) has finished its purges
func (s *RetentionScheduler) Run(ctx context.Context) {
	slog.Info("retention_scheduler_started", "interval", s.cfg.Interval.String(), "schedule", s.cfg.Name)
	for {
		if _, _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			slog.Error("retention_scheduler_error", "error", err)
		}

		wait := s.cfg.Poll
		if sched, err := s.Status(ctx); err == nil {
			if until := sched.NextRunAt.Sub(s.now()); until < wait {
				wait = max(until, time.Second)
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("retention_scheduler_stopped")
			return
		case <-timer.C:
		}
	}
}

// StartRetentionScheduler starts Run in a background goroutine.
// PRE: Context is valid, scheduler is initialized
// POST: Goroutine started; the returned stop function cancels it and waits
func StartRetentionScheduler(ctx context.Context, s *RetentionScheduler) func() {
	if !s.cfg.Enabled {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (s *RetentionScheduler) now() time.Time {
	if s.deps.Now != nil {
		return s.deps.Now()
	}
	return time.Now().UTC()
}

// load reads the schedule, persisting a due-now schedule on first use.
func (s *RetentionScheduler) load(ctx context.Context) (retention.Schedule, error) {
	sched, err := s.schedules.Get(ctx, s.cfg.Name)
	if errors.Is(err, retention.ErrScheduleNotFound) {
		sched = retention.NewSchedule(s.cfg.Name, s.now())
		if err := s.schedules.Save(ctx, sched); err != nil {
			return retention.Schedule{}, fmt.Errorf("create retention schedule: %w", err)
		}
		return sched, nil
	}
	if err != nil {
		return retention.Schedule{}, fmt.Errorf("load retention schedule: %w", err)
	}
	return sched, nil
}

// sweep runs one cycle and records it. A cycle skipped because another
// sweeper holds the lock leaves the schedule untouched.
func (s *RetentionScheduler) sweep(ctx context.Context, sched retention.Schedule) (retention.SweepReport, bool, error) {
	report, err := ExecuteRetentionSweep(ctx, s.cfg.Sweep, s.deps)
	if err != nil {
		return report, false, err
	}
	if !report.Ran() {
		return report, false, nil
	}

	sched.RecordRun(report, s.now(), s.cfg.Interval)
	if err := s.schedules.Save(context.WithoutCancel(ctx), sched); err != nil {
		return report, true, fmt.Errorf("save retention schedule: %w", err)
	}
	slog.Info("retention_schedule_advanced", "schedule", sched.Name, "next_run_at", sched.NextRunAt)
	return report, true, nil
}
