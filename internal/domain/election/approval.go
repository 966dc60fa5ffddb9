package election

import "electionadmin/internal/domain/account"

// IsPrivilegedAuthority reports whether p belongs to the top administrative tier.
// Elections created by such principals never wait for approval. This is the only
// place the rule is decided.
func IsPrivilegedAuthority(p account.Principal) bool {
	for _, role := range PrivilegedRoles() {
		if p.Role == role {
			return true
		}
	}
	return false
}

// PrivilegedRoles returns the roles IsPrivilegedAuthority accepts, for
// stores that need to apply the rule inside a query.
func PrivilegedRoles() []string {
	return []string{account.RoleSuperAdmin}
}

// Creator returns the principal that created the election.
func (e *Election) Creator() account.Principal {
	return account.Principal{ID: e.CreatedBy, Role: e.CreatedByRole}
}

// CreatedByPrivilegedAuthority is derived from the stored creator role.
func (e *Election) CreatedByPrivilegedAuthority() bool {
	return IsPrivilegedAuthority(e.Creator())
}

// NeedsApproval returns true iff the stored flag is set and the creator is not
// a privileged authority. Listings of pending elections must use this rather
// than the raw flag.
func NeedsApproval(e Election) bool {
	return e.NeedsApproval && !e.CreatedByPrivilegedAuthority()
}
