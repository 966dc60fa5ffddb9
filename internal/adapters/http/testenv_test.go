package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"electionadmin/internal/adapters/http/middleware"
	"electionadmin/internal/adapters/http/perf"
	"electionadmin/internal/adapters/lock"
	"electionadmin/internal/adapters/rbac"
	"electionadmin/internal/adapters/storage"
	accountStore "electionadmin/internal/adapters/storage/account"
	auditStore "electionadmin/internal/adapters/storage/audit"
	electionStore "electionadmin/internal/adapters/storage/election"
	retentionStore "electionadmin/internal/adapters/storage/retention"
	"electionadmin/internal/application/orchestrators"
	accountDomain "electionadmin/internal/domain/account"
)

// testEnv is the full handler chain over an in-memory database.
type testEnv struct {
	handler   http.Handler
	elections *electionStore.SQLiteStore
	accounts  *accountStore.SQLiteStore
	audits    *auditStore.SQLiteStore
	collector *perf.Collector
	tokens    map[string]string // role -> session token
}

var testAccounts = []accountDomain.Account{
	{ID: "u-super", Email: "super@example.org", Role: accountDomain.RoleSuperAdmin},
	{ID: "u-admin", Email: "admin@example.org", Role: accountDomain.RoleAdmin},
	{ID: "u-officer", Email: "officer@example.org", Role: accountDomain.RoleOfficer},
	{ID: "u-viewer", Email: "viewer@example.org", Role: accountDomain.RoleViewer},
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &testEnv{
		elections: electionStore.NewSQLiteStore(db),
		accounts:  accountStore.NewSQLiteStore(db),
		audits:    auditStore.NewSQLiteStore(db),
		collector: perf.NewCollector(256),
		tokens:    make(map[string]string),
	}
	schedules := retentionStore.NewSQLiteStore(db)

	ctx := context.Background()
	for _, a := range testAccounts {
		a.PasswordHash = "unused"
		a.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		if err := env.accounts.Save(ctx, a); err != nil {
			t.Fatalf("seed account %s: %v", a.ID, err)
		}
	}

	perms := rbac.NewProvider(rbac.DefaultPolicy(), env.accounts)
	scheduler := orchestrators.NewRetentionScheduler(orchestrators.RetentionSchedulerConfig{Interval: time.Hour},
		schedules, orchestrators.RetentionSweepDeps{
			ElectionStore: env.elections,
			Permissions:   perms,
			AuditStore:    env.audits,
			Locker:        lock.NewLocal(),
			Perf:          env.collector,
		})

	prevLimit := RateLimitPerSecond
	RateLimitPerSecond = 10000
	t.Cleanup(func() { RateLimitPerSecond = prevLimit })

	env.handler = NewMux(&Stores{
		AccountStore:  env.accounts,
		ElectionStore: env.elections,
		AuditStore:    env.audits,
		ScheduleStore: schedules,
	}, Services{Permissions: perms, Scheduler: scheduler}, env.collector)

	for _, a := range testAccounts {
		token, err := sessions.Create(a.Principal())
		if err != nil {
			t.Fatalf("create session: %v", err)
		}
		env.tokens[a.Role] = token
	}
	return env
}

// do sends a JSON request as the given role; an empty role is anonymous.
func (env *testEnv) do(t *testing.T, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: env.tokens[role]})
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}
