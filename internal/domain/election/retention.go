package election

import (
	"fmt"
	"time"
)

// SystemRetentionActor is recorded as the actor of purges made by the retention sweep.
const SystemRetentionActor = "system-retention-policy"

// AllowedRetentionDays lists the windows a soft-delete may choose. Zero keeps
// the record forever.
var AllowedRetentionDays = []int{0, 7, 30, 90, 180, 365}

// Day is the unit of a retention window.
const Day = 24 * time.Hour

// ValidateRetentionDays rejects windows outside AllowedRetentionDays.
func ValidateRetentionDays(days int) error {
	for _, d := range AllowedRetentionDays {
		if d == days {
			return nil
		}
	}
	return fmt.Errorf("%w: retention_days must be one of %v, got %d", ErrValidation, AllowedRetentionDays, days)
}

// AutoDeleteAt computes when a record deleted at deletedAt becomes purge-eligible.
// Returns nil when days is zero (keep forever).
func AutoDeleteAt(deletedAt time.Time, days int) *time.Time {
	if days <= 0 {
		return nil
	}
	at := deletedAt.Add(time.Duration(days) * Day)
	return &at
}

// MinRetentionWindow is the shortest positive window. Any purge-eligible record
// was deleted at least this long ago, so sweeps can bound their query by it.
func MinRetentionWindow() time.Duration {
	shortest := 0
	for _, d := range AllowedRetentionDays {
		if d > 0 && (shortest == 0 || d < shortest) {
			shortest = d
		}
	}
	return time.Duration(shortest) * Day
}
