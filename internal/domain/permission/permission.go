package permission

import (
	"fmt"
	"strings"
)

// Action is a permission verb on a resource.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// ResourceElections is the resource class guarded for lifecycle operations.
const ResourceElections = "elections"

// ValidActions contains all valid actions.
var ValidActions = []Action{ActionView, ActionCreate, ActionEdit, ActionDelete}

// Actions is the per-resource grant.
type Actions struct {
	View   bool
	Create bool
	Edit   bool
	Delete bool
}

// Allows reports whether the grant covers action.
func (a Actions) Allows(action Action) bool {
	switch action {
	case ActionView:
		return a.View
	case ActionCreate:
		return a.Create
	case ActionEdit:
		return a.Edit
	case ActionDelete:
		return a.Delete
	default:
		return false
	}
}

// With returns a copy of the grant with action enabled.
func (a Actions) With(action Action) (Actions, error) {
	switch action {
	case ActionView:
		a.View = true
	case ActionCreate:
		a.Create = true
	case ActionEdit:
		a.Edit = true
	case ActionDelete:
		a.Delete = true
	default:
		return a, fmt.Errorf("unknown action %q", action)
	}
	return a, nil
}

// String renders the granted actions, e.g. "view,edit".
func (a Actions) String() string {
	var parts []string
	for _, action := range ValidActions {
		if a.Allows(action) {
			parts = append(parts, string(action))
		}
	}
	return strings.Join(parts, ",")
}

// Set maps a resource class to the principal's grant on it.
type Set map[string]Actions

// Authorize is the authorization gate: a pure lookup of action on resource.
// It knows nothing about lifecycle state. A nil or empty set denies everything.
func Authorize(set Set, resource string, action Action) bool {
	grant, ok := set[resource]
	if !ok {
		return false
	}
	return grant.Allows(action)
}

// Operation names a lifecycle operation exposed by the engine.
type Operation string

const (
	OpArchive               Operation = "archive"
	OpSoftDelete            Operation = "soft_delete"
	OpPermanentlyDelete     Operation = "permanently_delete"
	OpRestoreFromArchive    Operation = "restore_from_archive"
	OpRestoreFromSoftDelete Operation = "restore_from_soft_delete"
	OpList                  Operation = "list"
	OpGet                   Operation = "get"
	OpCreate                Operation = "create"
	OpApprove               Operation = "approve"
	OpSetStatus             Operation = "set_status"
)

// operationActions maps each operation to the action it requires on elections.
var operationActions = map[Operation]Action{
	OpArchive:               ActionDelete,
	OpSoftDelete:            ActionDelete,
	OpPermanentlyDelete:     ActionDelete,
	OpRestoreFromArchive:    ActionEdit,
	OpRestoreFromSoftDelete: ActionEdit,
	OpList:                  ActionView,
	OpGet:                   ActionView,
	OpCreate:                ActionCreate,
	OpApprove:               ActionEdit,
	OpSetStatus:             ActionEdit,
}

// RequiredAction returns the action an operation needs. Unknown operations
// report false and must be denied.
func RequiredAction(op Operation) (Action, bool) {
	a, ok := operationActions[op]
	return a, ok
}

// AuthorizeOperation authorizes op on the elections resource.
func AuthorizeOperation(set Set, op Operation) bool {
	action, ok := RequiredAction(op)
	if !ok {
		return false
	}
	return Authorize(set, ResourceElections, action)
}
