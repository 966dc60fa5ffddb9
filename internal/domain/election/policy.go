package election

import "time"

// CanArchive returns true iff the election is completed and visible.
func CanArchive(e Election) bool {
	return e.Status == StatusCompleted && e.State() == StateVisible
}

// CanSoftDelete has the same precondition as CanArchive.
func CanSoftDelete(e Election) bool {
	return e.Status == StatusCompleted && e.State() == StateVisible
}

// CanRestoreFromArchive returns true iff the election is archived.
func CanRestoreFromArchive(e Election) bool {
	return e.State() == StateArchived
}

// CanRestoreFromSoftDelete returns true iff the election is soft-deleted.
func CanRestoreFromSoftDelete(e Election) bool {
	return e.State() == StateSoftDeleted
}

// CanPermanentlyDelete returns true iff the election is archived or soft-deleted.
// A visible election is never purged directly.
func CanPermanentlyDelete(e Election) bool {
	s := e.State()
	return s == StateArchived || s == StateSoftDeleted
}

// IsPurgeEligible returns true iff the election is soft-deleted, carries an
// auto-delete time, and that time has been reached.
func IsPurgeEligible(e Election, now time.Time) bool {
	if e.State() != StateSoftDeleted || e.AutoDeleteAt == nil {
		return false
	}
	return !now.Before(*e.AutoDeleteAt)
}

// EffectiveStatus is the status used for display and authorization: elections
// still awaiting approval report pending_approval regardless of the stored status.
func EffectiveStatus(e Election) Status {
	if NeedsApproval(e) {
		return StatusPendingApproval
	}
	return e.Status
}
