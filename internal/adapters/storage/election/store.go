package election

import (
	"context"
	"time"

	domain "electionadmin/internal/domain/election"
)

// Store persists Election state. Writes are optimistic: Update and Delete
// only apply when the stored version equals expectedVersion.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Election, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Election, error)
	Insert(ctx context.Context, value domain.Election) error
	Update(ctx context.Context, value domain.Election, expectedVersion int) (domain.Election, error)
	Delete(ctx context.Context, id string, expectedVersion int) error
}

// ListFilter carries filtering parameters for List operations.
// Nil pointers and zero values mean "any".
type ListFilter struct {
	IsActive      *bool
	IsDeleted     *bool
	NeedsApproval *bool
	Status        domain.Status
	DeletedBefore *time.Time
	// Exclusions are applied in the query, before Limit and Offset.
	ExcludeStatuses     []domain.Status
	ExcludeCreatorRoles []string
	Limit               int
	Offset              int
}

// Bool returns a pointer to b, for building filters.
func Bool(b bool) *bool {
	return &b
}
