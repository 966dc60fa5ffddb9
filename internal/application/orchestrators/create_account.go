package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"electionadmin/internal/domain/account"
)

// AccountStoreForCreate defines the store interface needed by CreateAccount.
type AccountStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context) (int, error)
}

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	Email    string
	Password string
	Role     string
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStoreForCreate
	Now          func() time.Time
}

var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// ExecuteCreateAccount coordinates account creation.
// PRE: Valid email, password >= 12 chars, valid role
// POST: Account created with hashed password
// INVARIANT: Email must be unique
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	_, err := deps.AccountStore.GetByEmail(ctx, email)
	if err == nil {
		return "", ErrEmailAlreadyExists
	}
	if !errors.Is(err, account.ErrAccountNotFound) {
		return "", fmt.Errorf("check existing account: %w", err)
	}

	now := time.Now().UTC()
	if deps.Now != nil {
		now = deps.Now()
	}
	acct := account.Account{
		ID:        uuid.New().String(),
		Email:     email,
		Role:      input.Role,
		CreatedAt: now,
	}
	if err := acct.Validate(); err != nil {
		return "", err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return "", err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return "", err
	}

	slog.Info("auth_event", "event", "account_created", "email", email, "role", input.Role)
	return acct.ID, nil
}

// ExecuteSeedAdmin creates the first superadmin when the account table is empty.
// PRE: email and password are set
// POST: Exactly one superadmin exists if there were no accounts; otherwise no-op
func ExecuteSeedAdmin(ctx context.Context, email, password string, deps CreateAccountDeps) (bool, error) {
	n, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := ExecuteCreateAccount(ctx, CreateAccountInput{Email: email, Password: password, Role: account.RoleSuperAdmin}, deps); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}
