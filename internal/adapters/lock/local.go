package lock

import (
	"context"
	"sync"
	"time"
)

var _ Locker = (*Local)(nil)

// Local is an in-process Locker. It only excludes sweeps within one process;
// anything that shares a database with another process uses SQLite or Redis.
// Expired holds are reclaimable, so a crashed holder cannot wedge the sweep.
type Local struct {
	mu   sync.Mutex
	held map[string]localHold
	now  func() time.Time
	seq  uint64
}

type localHold struct {
	token   uint64
	expires time.Time
}

// NewLocal creates an empty in-process locker.
func NewLocal() *Local {
	return &Local{held: make(map[string]localHold), now: time.Now}
}

// TryAcquire implements Locker.
func (l *Local) TryAcquire(_ context.Context, key string, ttl time.Duration) (ReleaseFunc, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if h, ok := l.held[key]; ok && now.Before(h.expires) {
		return nil, false, nil
	}
	l.seq++
	token := l.seq
	l.held[key] = localHold{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if h, ok := l.held[key]; ok && h.token == token {
			delete(l.held, key)
		}
		return nil
	}, true, nil
}
