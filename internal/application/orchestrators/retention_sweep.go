package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"electionadmin/internal/adapters/http/perf"
	"electionadmin/internal/adapters/lock"
	electionStore "electionadmin/internal/adapters/storage/election"
	"electionadmin/internal/domain/account"
	"electionadmin/internal/domain/election"
	"electionadmin/internal/domain/retention"
)

// RetentionSweepLockKey names the lock that keeps sweep cycles from overlapping.
const RetentionSweepLockKey = "retention-sweep"

// RetentionPrincipal is the identity the sweep purges as.
var RetentionPrincipal = account.Principal{ID: election.SystemRetentionActor, Role: account.RoleSystem}

// ElectionStoreForSweep defines the store interface needed by the retention sweep.
type ElectionStoreForSweep interface {
	ElectionStoreForLifecycle
	List(ctx context.Context, filter electionStore.ListFilter) ([]election.Election, error)
}

// RetentionSweepConfig tunes one sweep cycle.
type RetentionSweepConfig struct {
	Concurrency   int           // purges in flight at once
	RatePerSecond float64       // purge dispatch rate; <= 0 means unlimited
	LockTTL       time.Duration // upper bound on a cycle holding the lock
}

// lockMargin is how long before the lock TTL dispatching stops, leaving
// in-flight purges time to finish while the lock is still held.
func lockMargin(ttl time.Duration) time.Duration {
	return ttl / 10
}

// DefaultRetentionSweepConfig returns sensible defaults.
func DefaultRetentionSweepConfig() RetentionSweepConfig {
	return RetentionSweepConfig{
		Concurrency:   4,
		RatePerSecond: 20,
		LockTTL:       10 * time.Minute,
	}
}

// RetentionSweepDeps holds dependencies for the sweep.
type RetentionSweepDeps struct {
	ElectionStore ElectionStoreForSweep
	Permissions   PermissionProvider
	AuditStore    AuditRecorder
	Locker        lock.Locker
	Perf          *perf.Collector
	Now           func() time.Time
}

// ExecuteRetentionSweep purges every soft-deleted election whose retention
// window has elapsed. Per-record failures are counted and never abort the
// cycle; already-purged records count as AlreadyGone. Cancelling ctx stops
// new purges from being dispatched while dispatched ones run to completion.
// Dispatch also stops once the lock nears its TTL, so no purge is started
// after another sweeper could have taken the lock over.
// PRE: deps.ElectionStore and deps.Permissions are set
// POST: Returns a report; LockHeld is set when another cycle owns the lock
func ExecuteRetentionSweep(ctx context.Context, cfg RetentionSweepConfig, deps RetentionSweepDeps) (retention.SweepReport, error) {
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	start := nowFn()
	report := retention.SweepReport{
		StartedAt: start,
		Cutoff:    start.Add(-election.MinRetentionWindow()),
	}

	var lockDeadline time.Time
	if deps.Locker != nil {
		ttl := cfg.LockTTL
		if ttl <= 0 {
			ttl = DefaultRetentionSweepConfig().LockTTL
		}
		release, acquired, err := deps.Locker.TryAcquire(ctx, RetentionSweepLockKey, ttl)
		if err != nil {
			return report, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !acquired {
			report.LockHeld = true
			report.FinishedAt = nowFn()
			slog.Info("retention_sweep_skipped", "reason", "lock_held")
			return report, nil
		}
		lockDeadline = nowFn().Add(ttl - lockMargin(ttl))
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("retention_sweep_unlock_failed", "error", err)
			}
		}()
	}

	candidates, err := deps.ElectionStore.List(ctx, electionStore.ListFilter{
		IsDeleted:     electionStore.Bool(true),
		DeletedBefore: &report.Cutoff,
	})
	if err != nil {
		return report, fmt.Errorf("list soft-deleted elections: %w", err)
	}
	report.Scanned = len(candidates)

	var eligible []election.Election
	for _, e := range candidates {
		if election.IsPurgeEligible(e, start) {
			eligible = append(eligible, e)
		}
	}
	report.Eligible = len(eligible)

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	limiter := rate.NewLimiter(limit, concurrency)

	lifecycle := LifecycleDeps{
		ElectionStore: deps.ElectionStore,
		Permissions:   deps.Permissions,
		AuditStore:    deps.AuditStore,
		Now:           nowFn,
	}
	// Purges outlive a cancelled sweep so none is left half-done.
	purgeCtx := context.WithoutCancel(ctx)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(concurrency)

	dispatched := 0
	for _, e := range eligible {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			report.Interrupted = true
			break
		}
		if !lockDeadline.IsZero() && !nowFn().Before(lockDeadline) {
			report.Interrupted = true
			report.LockExpiring = true
			slog.Warn("retention_sweep_stopped", "reason", "lock_expiring", "remaining", report.Eligible-dispatched)
			break
		}
		dispatched++

		g.Go(func() error {
			began := time.Now()
			err := ExecutePermanentlyDeleteElection(purgeCtx, PermanentlyDeleteElectionInput{
				LifecycleInput: LifecycleInput{
					ElectionID: e.ID,
					Principal:  RetentionPrincipal,
				},
				OnlyIfPurgeEligible: true,
			}, lifecycle)

			deps.Perf.Record(perf.Entry{
				Kind:       perf.KindPurge,
				Name:       "purge",
				Failed:     err != nil && !errors.Is(err, election.ErrNotFound),
				DurationMs: float64(time.Since(began).Microseconds()) / 1000.0,
				Timestamp:  began,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Purged++
			case errors.Is(err, election.ErrNotFound):
				report.AlreadyGone++
				slog.Info("retention_purge_skipped", "election_id", e.ID, "reason", "already_purged")
			case errors.Is(err, election.ErrInvalidTransition):
				report.Stale++
				slog.Info("retention_purge_skipped", "election_id", e.ID, "reason", "no_longer_eligible")
			default:
				report.Failed++
				report.FailedIDs = append(report.FailedIDs, e.ID)
				slog.Error("retention_purge_failed", "election_id", e.ID, "error", err)
			}
			// Per-record failures are isolated; never fail the group.
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.FailedIDs)
	report.FinishedAt = nowFn()
	slog.Info("retention_sweep_complete",
		"scanned", report.Scanned,
		"eligible", report.Eligible,
		"purged", report.Purged,
		"already_gone", report.AlreadyGone,
		"stale", report.Stale,
		"failed", report.Failed,
		"interrupted", report.Interrupted,
		"lock_expiring", report.LockExpiring,
	)
	return report, nil
}
