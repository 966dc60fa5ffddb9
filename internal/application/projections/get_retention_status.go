package projections

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	electionStore "electionadmin/internal/adapters/storage/election"
	domainElection "electionadmin/internal/domain/election"
	domainRetention "electionadmin/internal/domain/retention"
)

// GetRetentionStatusQuery carries query parameters.
type GetRetentionStatusQuery struct {
	ScheduleName string // defaults to the standard schedule
	Limit        int    // max upcoming purges returned; defaults to 50
}

// UpcomingPurge is a soft-deleted election with a retention deadline.
type UpcomingPurge struct {
	ElectionID    string    `json:"election_id"`
	Title         string    `json:"title"`
	DeletedAt     time.Time `json:"deleted_at"`
	DeletedBy     string    `json:"deleted_by"`
	RetentionDays int       `json:"retention_days"`
	AutoDeleteAt  time.Time `json:"auto_delete_at"`
	DaysRemaining int       `json:"days_remaining"`
	Eligible      bool      `json:"eligible"`
}

// RetentionStatusResult carries the query result.
type RetentionStatusResult struct {
	Schedule   *domainRetention.Schedule `json:"schedule,omitempty"`
	Due        bool                      `json:"due"`
	Upcoming   []UpcomingPurge           `json:"upcoming"`
	Eligible   int                       `json:"eligible"`
	Indefinite int                       `json:"indefinite"`
}

// GetRetentionStatusDeps holds dependencies for GetRetentionStatus.
type GetRetentionStatusDeps struct {
	ScheduleStore ScheduleStore
	ElectionStore ElectionStore
	Now           func() time.Time
}

// QueryGetRetentionStatus reports the sweep schedule and the soft-deleted
// elections ordered by when they become purge-eligible.
// PRE: deps.ElectionStore is set
// POST: Upcoming is sorted by AutoDeleteAt ascending; never-expiring elections are only counted
func QueryGetRetentionStatus(ctx context.Context, query GetRetentionStatusQuery, deps GetRetentionStatusDeps) (RetentionStatusResult, error) {
	now := time.Now().UTC()
	if deps.Now != nil {
		now = deps.Now()
	}
	if query.ScheduleName == "" {
		query.ScheduleName = domainRetention.DefaultScheduleName
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}

	var result RetentionStatusResult
	if deps.ScheduleStore != nil {
		sched, err := deps.ScheduleStore.Get(ctx, query.ScheduleName)
		switch {
		case err == nil:
			result.Schedule = &sched
			result.Due = sched.IsDue(now)
		case errors.Is(err, domainRetention.ErrScheduleNotFound):
			// Never run yet: the scheduler treats a missing schedule as due.
			result.Due = true
		default:
			return RetentionStatusResult{}, err
		}
	}

	deleted, err := deps.ElectionStore.List(ctx, electionStore.ListFilter{IsDeleted: electionStore.Bool(true)})
	if err != nil {
		return RetentionStatusResult{}, err
	}

	upcoming := make([]UpcomingPurge, 0, len(deleted))
	for _, e := range deleted {
		if e.AutoDeleteAt == nil {
			result.Indefinite++
			continue
		}
		p := UpcomingPurge{
			ElectionID:    e.ID,
			Title:         e.Title,
			DeletedBy:     e.DeletedBy,
			AutoDeleteAt:  *e.AutoDeleteAt,
			DaysRemaining: daysUntil(now, *e.AutoDeleteAt),
			Eligible:      domainElection.IsPurgeEligible(e, now),
		}
		if e.DeletedAt != nil {
			p.DeletedAt = *e.DeletedAt
		}
		if e.RetentionDays != nil {
			p.RetentionDays = *e.RetentionDays
		}
		if p.Eligible {
			result.Eligible++
		}
		upcoming = append(upcoming, p)
	}

	sort.Slice(upcoming, func(i, j int) bool {
		if upcoming[i].AutoDeleteAt.Equal(upcoming[j].AutoDeleteAt) {
			return upcoming[i].ElectionID < upcoming[j].ElectionID
		}
		return upcoming[i].AutoDeleteAt.Before(upcoming[j].AutoDeleteAt)
	})
	if len(upcoming) > query.Limit {
		upcoming = upcoming[:query.Limit]
	}
	result.Upcoming = upcoming
	return result, nil
}

// daysUntil rounds up to whole days and never goes below zero.
func daysUntil(now, at time.Time) int {
	if !at.After(now) {
		return 0
	}
	return int(math.Ceil(at.Sub(now).Hours() / 24))
}
