package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"electionadmin/internal/domain/account"
	"electionadmin/internal/domain/audit"
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForLogin
	AuditStore   AuditRecorder
	Now          func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
)

// ExecuteLogin validates credentials and returns the principal for session creation.
// PRE: Valid email and password provided
// POST: Returns the principal on success, records failed login on failure
// INVARIANT: Account must not be locked
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (account.Principal, error) {
	if input.Email == "" || input.Password == "" {
		return account.Principal{}, ErrInvalidCredentials
	}
	now := time.Now().UTC()
	if deps.Now != nil {
		now = deps.Now()
	}

	acct, err := deps.AccountStore.GetByEmail(ctx, input.Email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "not_found")
		return account.Principal{}, ErrInvalidCredentials
	}

	if acct.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "email", input.Email, "reason", "locked")
		return account.Principal{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin(now)
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			slog.Error("auth_event", "event", "lockout_save_failed", "email", input.Email, "error", err)
		}
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		return account.Principal{}, ErrInvalidCredentials
	}

	if acct.FailedLogins > 0 {
		acct.ResetFailedLogins()
		_ = deps.AccountStore.Save(ctx, acct)
	}

	p := acct.Principal()
	slog.Info("auth_event", "event", "login_success", "email", acct.Email, "role", acct.Role)
	if deps.AuditStore != nil {
		ev := audit.NewEvent(p.ID, p.Email, p.Role, audit.CategorySecurity, audit.ActionLogin, now)
		if err := deps.AuditStore.Save(ctx, ev); err != nil {
			slog.Error("audit_write_failed", "action", audit.ActionLogin, "error", err)
		}
	}
	return p, nil
}
