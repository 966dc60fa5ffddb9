package permission_test

import (
	"testing"

	"electionadmin/internal/domain/permission"
)

// TestAuthorize tests the pure lookup against a permission set.
func TestAuthorize(t *testing.T) {
	set := permission.Set{
		permission.ResourceElections: {View: true, Edit: true},
		"themes":                     {View: true, Create: true, Edit: true, Delete: true},
	}

	tests := []struct {
		resource string
		action   permission.Action
		want     bool
	}{
		{permission.ResourceElections, permission.ActionView, true},
		{permission.ResourceElections, permission.ActionEdit, true},
		{permission.ResourceElections, permission.ActionCreate, false},
		{permission.ResourceElections, permission.ActionDelete, false},
		{"candidates", permission.ActionView, false},
		{permission.ResourceElections, "publish", false},
	}
	for _, tt := range tests {
		if got := permission.Authorize(set, tt.resource, tt.action); got != tt.want {
			t.Errorf("Authorize(%s, %s) = %v, want %v", tt.resource, tt.action, got, tt.want)
		}
	}

	if permission.Authorize(nil, permission.ResourceElections, permission.ActionView) {
		t.Error("nil set must deny")
	}
}

// TestAuthorizeOperation tests the lifecycle operation to action mapping.
func TestAuthorizeOperation(t *testing.T) {
	viewOnly := permission.Set{permission.ResourceElections: {View: true}}
	editor := permission.Set{permission.ResourceElections: {View: true, Edit: true}}
	deleter := permission.Set{permission.ResourceElections: {View: true, Delete: true}}

	tests := []struct {
		name string
		set  permission.Set
		op   permission.Operation
		want bool
	}{
		{"view-only archive", viewOnly, permission.OpArchive, false},
		{"view-only list", viewOnly, permission.OpList, true},
		{"editor restore archive", editor, permission.OpRestoreFromArchive, true},
		{"editor restore delete", editor, permission.OpRestoreFromSoftDelete, true},
		{"editor soft delete", editor, permission.OpSoftDelete, false},
		{"deleter archive", deleter, permission.OpArchive, true},
		{"deleter purge", deleter, permission.OpPermanentlyDelete, true},
		{"deleter restore", deleter, permission.OpRestoreFromArchive, false},
		{"editor approve", editor, permission.OpApprove, true},
		{"unknown operation", deleter, "rename", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := permission.AuthorizeOperation(tt.set, tt.op); got != tt.want {
				t.Errorf("AuthorizeOperation = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestActions_With tests building grants from action names.
func TestActions_With(t *testing.T) {
	var a permission.Actions
	var err error
	for _, act := range []permission.Action{permission.ActionView, permission.ActionDelete} {
		a, err = a.With(act)
		if err != nil {
			t.Fatalf("With(%s) failed: %v", act, err)
		}
	}
	if a.String() != "view,delete" {
		t.Errorf("String() = %q, want view,delete", a.String())
	}
	if _, err := a.With("publish"); err == nil {
		t.Error("expected error for unknown action")
	}
}
