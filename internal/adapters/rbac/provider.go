package rbac

import (
	"context"
	"errors"
	"fmt"

	"electionadmin/internal/domain/account"
	"electionadmin/internal/domain/election"
	"electionadmin/internal/domain/permission"
)

// AccountLookup is the account store subset the provider needs.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// Provider resolves a principal id to its permission set.
type Provider struct {
	policy   Policy
	accounts AccountLookup
}

// NewProvider creates a provider over the given policy and account store.
func NewProvider(policy Policy, accounts AccountLookup) *Provider {
	return &Provider{policy: policy, accounts: accounts}
}

// GetPermissions returns the principal's permissions. The retention policy
// actor is not an account and maps to the system role. Unknown principals get
// an empty set; store failures are returned.
func (p *Provider) GetPermissions(ctx context.Context, principalID string) (permission.Set, error) {
	if principalID == election.SystemRetentionActor {
		return p.policy.PermissionsFor(account.RoleSystem), nil
	}
	acct, err := p.accounts.GetByID(ctx, principalID)
	if errors.Is(err, account.ErrAccountNotFound) {
		return permission.Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve permissions for %s: %w", principalID, err)
	}
	return p.policy.PermissionsFor(acct.Role), nil
}
