package perf

import (
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 4096

// EntryKind distinguishes the source of a timing.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
	KindPurge
)

// String names the kind for JSON output.
func (k EntryKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindQuery:
		return "query"
	case KindPurge:
		return "purge"
	default:
		return "unknown"
	}
}

// Entry is a single timing record.
type Entry struct {
	Kind       EntryKind
	Name       string // HTTP route, SQL op or "purge"
	StatusCode int
	Failed     bool
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring of timing entries. When full the oldest
// entries are overwritten; aggregation only happens in Snapshot.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	total   map[EntryKind]int64
}

// NewCollector creates a collector holding up to size entries.
// PRE: size > 0 (non-positive falls back to DefaultRingSize)
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{
		entries: make([]Entry, size),
		total:   make(map[EntryKind]int64),
	}
}

// Record appends an entry. Safe on a nil collector.
func (c *Collector) Record(e Entry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[c.next] = e
	c.next = (c.next + 1) % len(c.entries)
	c.total[e.Kind]++
	c.mu.Unlock()
}

// TotalRecorded returns how many entries were ever recorded, across kinds.
func (c *Collector) TotalRecorded() int64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, v := range c.total {
		n += v
	}
	return n
}

// KindStat aggregates the entries of one kind.
type KindStat struct {
	Kind    string   `json:"kind"`
	Total   int64    `json:"total"`
	Window  int      `json:"window"`
	Failed  int      `json:"failed"`
	P50Ms   float64  `json:"p50_ms"`
	P95Ms   float64  `json:"p95_ms"`
	Slowest []string `json:"slowest,omitempty"`
}

// Snapshot holds per-kind stats for entries recorded since a point in time.
type Snapshot struct {
	Since time.Time  `json:"since"`
	Kinds []KindStat `json:"kinds"`
}

// Snapshot aggregates entries newer than since. topN bounds the slowest-name list.
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	totals := make(map[EntryKind]int64, len(c.total))
	for k, v := range c.total {
		totals[k] = v
	}
	c.mu.Unlock()

	durations := make(map[EntryKind][]float64)
	failed := make(map[EntryKind]int)
	maxByName := make(map[EntryKind]map[string]float64)
	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		durations[e.Kind] = append(durations[e.Kind], e.DurationMs)
		if e.Failed {
			failed[e.Kind]++
		}
		if maxByName[e.Kind] == nil {
			maxByName[e.Kind] = make(map[string]float64)
		}
		if e.DurationMs > maxByName[e.Kind][e.Name] {
			maxByName[e.Kind][e.Name] = e.DurationMs
		}
	}

	snap := Snapshot{Since: since}
	for _, kind := range []EntryKind{KindRequest, KindQuery, KindPurge} {
		d := durations[kind]
		sort.Float64s(d)
		snap.Kinds = append(snap.Kinds, KindStat{
			Kind:    kind.String(),
			Total:   totals[kind],
			Window:  len(d),
			Failed:  failed[kind],
			P50Ms:   percentile(d, 50),
			P95Ms:   percentile(d, 95),
			Slowest: slowest(maxByName[kind], topN),
		})
	}
	return snap
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// slowest returns up to n names ordered by their worst duration.
func slowest(byName map[string]float64, n int) []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if byName[names[i]] == byName[names[j]] {
			return names[i] < names[j]
		}
		return byName[names[i]] > byName[names[j]]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}
