package audit

import (
	"time"

	"github.com/google/uuid"
)

// Category represents the type of audit event.
type Category string

const (
	CategoryElection  Category = "election"
	CategoryRetention Category = "retention"
	CategorySecurity  Category = "security"
	CategorySystem    Category = "system"
)

// Action represents the action that occurred.
type Action string

const (
	ActionCreate             Action = "create"
	ActionApprove            Action = "approve"
	ActionSetStatus          Action = "set_status"
	ActionArchive            Action = "archive"
	ActionSoftDelete         Action = "soft_delete"
	ActionRestoreArchived    Action = "restore_archived"
	ActionRestoreSoftDeleted Action = "restore_soft_deleted"
	ActionPurge              Action = "purge"
	ActionSweep              Action = "sweep"
	ActionLogin              Action = "login"
	ActionLogout             Action = "logout"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ResourceElection is the ResourceType recorded for election events.
const ResourceElection = "election"

// Event represents a single audit log entry.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	ActorID      string    `json:"actor_id"`
	ActorEmail   string    `json:"actor_email"`
	ActorRole    string    `json:"actor_role"`
	ResourceID   string    `json:"resource_id"`
	ResourceType string    `json:"resource_type"`
	Description  string    `json:"description"`
	Metadata     string    `json:"metadata"`
}

// NewEvent creates a new audit event at the given time.
// PRE: actorID and action are non-empty
// POST: Returns an Event with a fresh ID and info severity
func NewEvent(actorID, actorEmail, actorRole string, category Category, action Action, at time.Time) Event {
	return Event{
		ID:         uuid.New().String(),
		Timestamp:  at,
		Category:   category,
		Action:     action,
		Severity:   SeverityInfo,
		ActorID:    actorID,
		ActorEmail: actorEmail,
		ActorRole:  actorRole,
	}
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithResource sets resource information.
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDescription sets the event description.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithMetadata sets optional JSON metadata.
// PRE: metadata is valid JSON or empty
func (e Event) WithMetadata(metadata string) Event {
	e.Metadata = metadata
	return e
}
