package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	web "electionadmin/internal/adapters/http"
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
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if os.Getenv("ELECTIONS_LOG_FORMAT") == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}

	dbPath := envOrDefault("ELECTIONS_DB", "elections.db")
	db, err := storage.OpenSQLite(dbPath)
	if err != nil {
		log.Fatalf("failed to initialise database: %v", err)
	}
	defer db.Close()
	log.Println("Database initialized successfully!")

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, storage.SlowQueryThresholdFromEnv())

	stores := &web.Stores{
		AccountStore:  accountStore.NewSQLiteStore(timedDB),
		ElectionStore: electionStore.NewSQLiteStore(timedDB),
		AuditStore:    auditStore.NewSQLiteStore(timedDB),
		ScheduleStore: retentionStore.NewSQLiteStore(timedDB),
	}

	policy := rbac.DefaultPolicy()
	if path := os.Getenv("ELECTIONS_POLICY_FILE"); path != "" {
		if policy, err = rbac.LoadPolicy(path); err != nil {
			log.Fatalf("failed to load permission policy: %v", err)
		}
		log.Printf("Permission policy loaded from %s", path)
	}
	permissions := rbac.NewProvider(policy, stores.AccountStore)

	// Seed the first superadmin when the account table is empty
	adminEmail := os.Getenv("ELECTIONS_ADMIN_EMAIL")
	adminPassword := os.Getenv("ELECTIONS_ADMIN_PASSWORD")
	if adminEmail != "" && adminPassword != "" {
		seeded, err := orchestrators.ExecuteSeedAdmin(context.Background(), adminEmail, adminPassword,
			orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore})
		if err != nil {
			log.Fatalf("failed to seed admin: %v", err)
		}
		if seeded {
			log.Printf("Seeded superadmin %s", adminEmail)
		}
	}

	locker, closeLocker := newLocker(db)
	defer closeLocker()

	schedCfg := orchestrators.DefaultRetentionSchedulerConfig()
	schedCfg.Interval = envDuration("ELECTIONS_RETENTION_INTERVAL", schedCfg.Interval)
	schedCfg.Sweep.Concurrency = envInt("ELECTIONS_RETENTION_CONCURRENCY", schedCfg.Sweep.Concurrency)
	schedCfg.Sweep.RatePerSecond = float64(envInt("ELECTIONS_RETENTION_RATE", int(schedCfg.Sweep.RatePerSecond)))
	schedCfg.Enabled = os.Getenv("ELECTIONS_RETENTION_DISABLED") == ""
	scheduler := orchestrators.NewRetentionScheduler(schedCfg, stores.ScheduleStore, orchestrators.RetentionSweepDeps{
		ElectionStore: stores.ElectionStore,
		Permissions:   permissions,
		AuditStore:    stores.AuditStore,
		Locker:        locker,
		Perf:          collector,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopScheduler := orchestrators.StartRetentionScheduler(ctx, scheduler)
	defer stopScheduler()

	web.RateLimitPerSecond = envInt("ELECTIONS_RATE_LIMIT", web.RateLimitPerSecond)
	handler := web.NewMux(stores, web.Services{Permissions: permissions, Scheduler: scheduler}, collector)
	go sweepRateLimiter(ctx, web.Limiter)

	addr := envOrDefault("ELECTIONS_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Election admin %s starting on %s (env=%s, schema=%d)", version, addr, envOrDefault("ELECTIONS_ENV", "development"), storage.LatestSchemaVersion())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown_started")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown_failed", "error", err)
		}
	}
}

// newLocker returns a Redis lock when ELECTIONS_REDIS_ADDR is set and the
// database's sweep_lock table otherwise. Either way electionctl builds the
// same lock from the same environment.
func newLocker(db *sql.DB) (lock.Locker, func()) {
	cfg := lock.ConfigFromEnv()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	locker, closeLocker, err := lock.Open(ctx, cfg, db)
	if err != nil {
		log.Fatalf("failed to open sweep lock: %v", err)
	}
	log.Printf("Retention sweep lock: %s", cfg.Backend())
	return locker, func() {
		if err := closeLocker(); err != nil {
			slog.Warn("sweep_lock_close_failed", "error", err)
		}
	}
}

// sweepRateLimiter drops idle per-IP limiters every few minutes.
func sweepRateLimiter(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				slog.Debug("rate_limiter_swept", "removed", n)
			}
		}
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
		log.Printf("WARNING: ignoring invalid %s=%q", key, v)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		log.Printf("WARNING: ignoring invalid %s=%q", key, v)
	}
	return fallback
}
