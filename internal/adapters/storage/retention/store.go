package retention

import (
	"context"

	domain "electionadmin/internal/domain/retention"
)

// Store persists the durable retention schedule.
type Store interface {
	// Get returns the named schedule or domain.ErrScheduleNotFound.
	Get(ctx context.Context, name string) (domain.Schedule, error)
	// Save upserts the schedule.
	Save(ctx context.Context, schedule domain.Schedule) error
}
