// Package cli is the electionctl command line: operator access to the
// retention sweep and schedule without going through the HTTP API.
package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"electionadmin/internal/adapters/lock"
	"electionadmin/internal/adapters/rbac"
	"electionadmin/internal/adapters/storage"
	accountStore "electionadmin/internal/adapters/storage/account"
	auditStore "electionadmin/internal/adapters/storage/audit"
	electionStore "electionadmin/internal/adapters/storage/election"
	retentionStore "electionadmin/internal/adapters/storage/retention"
	"electionadmin/internal/application/orchestrators"
)

// Version is set at build time.
var Version = "dev"

// App is the electionctl application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	dbPath     string
	policyPath string
	redisAddr  string
	redisDB    int
}

// New creates the command tree.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "electionctl",
		Short: "Operate the election administration database",
		Long: `electionctl runs maintenance against the election administration
database: retention sweeps, the sweep schedule and schema inspection.

It shares the sweep lock with running servers, so a manual sweep never
overlaps a scheduled one. The lock lives in the database itself unless a
Redis address is given, in which case both sides must name the same Redis
instance and DB.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	app.root.PersistentFlags().StringVar(&app.dbPath, "db", envOrDefault("ELECTIONS_DB", "elections.db"), "Path to the SQLite database")
	app.root.PersistentFlags().StringVar(&app.policyPath, "policy", os.Getenv("ELECTIONS_POLICY_FILE"), "Permission policy YAML (default policy when empty)")
	lockEnv := lock.ConfigFromEnv()
	app.root.PersistentFlags().StringVar(&app.redisAddr, "redis", lockEnv.RedisAddr, "Redis address for the sweep lock (database lock when empty)")
	app.root.PersistentFlags().IntVar(&app.redisDB, "redis-db", lockEnv.RedisDB, "Redis DB number for the sweep lock")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newSweepCmd(),
		app.newStatusCmd(),
		app.newMigrateCmd(),
	)
	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the application until it finishes or is interrupted.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the application with explicit arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "electionctl version %s (schema %d)\n", Version, storage.LatestSchemaVersion())
		},
	}
}

func (a *App) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.OpenSQLite(a.dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			v, err := storage.SchemaVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s is at schema version %d\n", a.dbPath, v)
			return nil
		},
	}
}

// env is the wiring one command needs.
type env struct {
	db        *sql.DB
	elections *electionStore.SQLiteStore
	schedules *retentionStore.SQLiteStore
	sweepDeps orchestrators.RetentionSweepDeps
	close     func()
}

func (a *App) open(ctx context.Context) (*env, error) {
	db, err := storage.OpenSQLite(a.dbPath)
	if err != nil {
		return nil, err
	}
	policy := rbac.DefaultPolicy()
	if a.policyPath != "" {
		if policy, err = rbac.LoadPolicy(a.policyPath); err != nil {
			db.Close()
			return nil, err
		}
	}

	locker, closeLocker, err := lock.Open(ctx, a.lockConfig(), db)
	if err != nil {
		db.Close()
		return nil, err
	}
	closers := []func(){func() { db.Close() }, func() { closeLocker() }}

	e := &env{
		db:        db,
		elections: electionStore.NewSQLiteStore(db),
		schedules: retentionStore.NewSQLiteStore(db),
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}
	e.sweepDeps = orchestrators.RetentionSweepDeps{
		ElectionStore: e.elections,
		Permissions:   rbac.NewProvider(policy, accountStore.NewSQLiteStore(db)),
		AuditStore:    auditStore.NewSQLiteStore(db),
		Locker:        locker,
	}
	return e, nil
}

// lockConfig is the sweep lock the server would build from the same
// environment, with --redis and --redis-db applied on top.
func (a *App) lockConfig() lock.Config {
	cfg := lock.ConfigFromEnv()
	cfg.RedisAddr = a.redisAddr
	cfg.RedisDB = a.redisDB
	return cfg
}

func (a *App) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
