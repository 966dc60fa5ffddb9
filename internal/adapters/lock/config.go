package lock

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
)

// Config selects the lock backend. Servers and electionctl both build it, so
// a manual sweep and a scheduled one always contend for the same lock.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ConfigFromEnv reads ELECTIONS_REDIS_ADDR, ELECTIONS_REDIS_PASSWORD and
// ELECTIONS_REDIS_DB. An unparsable DB number falls back to 0.
func ConfigFromEnv() Config {
	cfg := Config{
		RedisAddr:     os.Getenv("ELECTIONS_REDIS_ADDR"),
		RedisPassword: os.Getenv("ELECTIONS_REDIS_PASSWORD"),
	}
	if v := os.Getenv("ELECTIONS_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = n
		}
	}
	return cfg
}

// Backend names the locker Open would build.
func (c Config) Backend() string {
	if c.RedisAddr != "" {
		return "redis"
	}
	return "sqlite"
}

// Open builds the configured locker: Redis when an address is set, otherwise
// the sweep_lock table of db. The returned close func is never nil.
func Open(ctx context.Context, cfg Config, db *sql.DB) (Locker, func() error, error) {
	if cfg.RedisAddr == "" {
		return NewSQLite(db), func() error { return nil }, nil
	}
	r, err := NewRedisFromAddr(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open sweep lock: %w", err)
	}
	return r, r.Close, nil
}
