// Package rbac maps principals to permission sets through a role policy.
package rbac

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"electionadmin/internal/domain/account"
	"electionadmin/internal/domain/permission"
)

// Policy assigns a permission set to each role.
type Policy struct {
	roles map[string]permission.Set
}

// policyFile is the YAML shape:
//
//	roles:
//	  officer:
//	    elections: [view, create, edit]
type policyFile struct {
	Roles map[string]map[string][]string `yaml:"roles"`
}

// DefaultPolicy is used when no policy file is configured.
func DefaultPolicy() Policy {
	all := permission.Actions{View: true, Create: true, Edit: true, Delete: true}
	return Policy{roles: map[string]permission.Set{
		account.RoleSuperAdmin: {permission.ResourceElections: all},
		account.RoleAdmin:      {permission.ResourceElections: all},
		account.RoleOfficer:    {permission.ResourceElections: {View: true, Create: true, Edit: true}},
		account.RoleViewer:     {permission.ResourceElections: {View: true}},
		account.RoleSystem:     {permission.ResourceElections: {View: true, Delete: true}},
	}}
}

// ParsePolicy decodes a YAML policy. Roles absent from the file get nothing.
func ParsePolicy(data []byte) (Policy, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	if len(f.Roles) == 0 {
		return Policy{}, fmt.Errorf("parse policy: no roles defined")
	}

	p := Policy{roles: make(map[string]permission.Set, len(f.Roles))}
	for role, resources := range f.Roles {
		if role != account.RoleSystem && !account.IsValidRole(role) {
			return Policy{}, fmt.Errorf("parse policy: unknown role %q", role)
		}
		set := make(permission.Set, len(resources))
		for resource, actions := range resources {
			var grant permission.Actions
			for _, a := range actions {
				var err error
				if grant, err = grant.With(permission.Action(a)); err != nil {
					return Policy{}, fmt.Errorf("parse policy: role %s, resource %s: %w", role, resource, err)
				}
			}
			set[resource] = grant
		}
		p.roles[role] = set
	}
	return p, nil
}

// LoadPolicy reads a policy file, or returns DefaultPolicy when path is empty.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("load policy %q: %w", path, err)
	}
	return ParsePolicy(data)
}

// PermissionsFor returns a copy of the role's set; unknown roles get an empty set.
func (p Policy) PermissionsFor(role string) permission.Set {
	out := make(permission.Set)
	for resource, grant := range p.roles[role] {
		out[resource] = grant
	}
	return out
}
