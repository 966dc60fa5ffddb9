package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"strings"

	"electionadmin/internal/adapters/http/middleware"
	"electionadmin/internal/adapters/http/perf"
	accountStore "electionadmin/internal/adapters/storage/account"
	auditStore "electionadmin/internal/adapters/storage/audit"
	electionStore "electionadmin/internal/adapters/storage/election"
	retentionStore "electionadmin/internal/adapters/storage/retention"
	"electionadmin/internal/application/orchestrators"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore  accountStore.Store
	ElectionStore electionStore.Store
	AuditStore    auditStore.Store
	ScheduleStore retentionStore.Store
}

// Services holds the collaborators that are not plain stores.
type Services struct {
	Permissions orchestrators.PermissionProvider
	Scheduler   *orchestrators.RetentionScheduler
}

// loadCSRFKey reads the CSRF secret from ELECTIONS_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("ELECTIONS_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("ELECTIONS_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if isProduction() {
		log.Fatal("ELECTIONS_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key. Set ELECTIONS_CSRF_KEY for production.")
	return key
}

func isProduction() bool {
	return os.Getenv("ELECTIONS_ENV") == "production"
}

func trustedOrigins() []string {
	v := os.Getenv("ELECTIONS_TRUSTED_ORIGINS")
	if v == "" {
		return []string{"localhost:8080", "127.0.0.1:8080"}
	}
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global services instance (set by NewMux)
var services Services

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Limiter is the per-IP limiter of the last NewMux call; the server sweeps it.
var Limiter *middleware.RateLimiter

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, svc Services, collector *perf.Collector) http.Handler {
	stores = s
	services = svc
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = isProduction()

	mux := http.NewServeMux()
	registerRoutes(mux)

	csrfKey := loadCSRFKey()
	Limiter = middleware.NewRateLimiter(RateLimitPerSecond)

	// Applied inner to outer: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, isProduction(), trustedOrigins()),
		middleware.Auth(sessions),
		middleware.RateLimit(Limiter),
		middleware.Timing(collector),
	)
}
