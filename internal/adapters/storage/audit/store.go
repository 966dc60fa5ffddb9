package audit

import (
	"context"
	"errors"
	"time"

	domain "electionadmin/internal/domain/audit"
)

// ErrEventNotFound is returned when an audit event id does not exist.
var ErrEventNotFound = errors.New("audit event not found")

// Store defines the interface for audit event persistence. Events are
// append-only; there is no update or delete.
type Store interface {
	// Save persists an audit event.
	// PRE: event has an ID and action
	Save(ctx context.Context, event domain.Event) error

	// List returns audit events ordered by timestamp desc.
	// PRE: limit > 0
	List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error)

	// GetByID retrieves a specific audit event.
	GetByID(ctx context.Context, id string) (domain.Event, error)
}

// Filter defines query parameters for listing audit events. Nil means "any".
type Filter struct {
	Category     *domain.Category
	Action       *domain.Action
	ActorID      *string
	ResourceType *string
	ResourceID   *string
	From         *time.Time
	To           *time.Time
}
