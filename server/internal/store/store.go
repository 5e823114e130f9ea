package store

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pump1090/pump1090/pkg/types"
)

// FlightTimeout is the age in seconds beyond which an aircraft's last
// message is too old for it to count as valid.
const FlightTimeout = 20

// Entry is an aircraft record together with the time it was last received.
type Entry struct {
	Aircraft  types.Aircraft
	UpdatedAt time.Time
}

// Store is a thread-safe in-memory aircraft store keyed by hex.
type Store struct {
	mu       sync.RWMutex
	latest   *types.Snapshot
	valid    []types.Aircraft
	excluded []types.Aircraft
	data     map[string]*Entry
	ttl      time.Duration
	now      func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given aircraft TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// PutSnapshot accepts snap if its Now is newer than the current snapshot's
// and reports whether it did. Callers must not modify snap afterwards.
func (s *Store) PutSnapshot(snap *types.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest != nil && snap.Now <= s.latest.Now {
		return false
	}

	s.latest = snap
	s.valid, s.excluded = Partition(snap.Aircraft)
	ts := s.now()
	for _, a := range snap.Aircraft {
		if a.Hex == "" {
			continue
		}
		s.data[strings.ToLower(a.Hex)] = &Entry{Aircraft: a, UpdatedAt: ts}
	}
	return true
}

// Raw returns the latest accepted snapshot. Before the first snapshot it
// returns an empty one with Now set to -1.
func (s *Store) Raw() types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return types.Snapshot{Now: -1, Aircraft: []types.Aircraft{}}
	}
	return *s.latest
}

// Valid returns the aircraft of the latest snapshot that pass IsValid.
func (s *Store) Valid() []types.Aircraft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Aircraft{}, s.valid...)
}

// Excluded returns the aircraft of the latest snapshot that fail IsValid.
func (s *Store) Excluded() []types.Aircraft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Aircraft{}, s.excluded...)
}

// Get returns the Entry for hex, matched case-insensitively, and whether one
// was found. The entry may be stale if the TTL has elapsed but Evict has not
// run yet.
func (s *Store) Get(hex string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[strings.ToLower(hex)]
	return e, ok
}

// List returns the entries updated within the TTL, ordered by hex.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UpdatedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Aircraft.Hex < out[j].Aircraft.Hex })
	return out
}

// Count returns the number of aircraft held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// TTL returns the configured aircraft TTL.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Evict removes aircraft whose UpdatedAt is older than now minus TTL and
// returns how many were removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for hex, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, hex)
			removed++
		}
	}
	return removed
}

// Run evicts stale aircraft every half TTL (at least once a second) until
// ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := max(s.ttl/2, time.Second)
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale aircraft", "count", n)
			}
		}
	}
}

// IsValid reports whether a carries a position, a callsign and a recent
// enough message to be shown as a real flight.
func IsValid(a types.Aircraft) bool {
	if a.Lat == nil || a.Lon == nil || a.Seen == nil || a.Flight == nil {
		return false
	}
	return *a.Seen < FlightTimeout
}

// Partition splits aircraft into those passing IsValid and the rest,
// preserving order. Both results are non-nil.
func Partition(aircraft []types.Aircraft) (valid, excluded []types.Aircraft) {
	valid = []types.Aircraft{}
	excluded = []types.Aircraft{}
	for _, a := range aircraft {
		if IsValid(a) {
			valid = append(valid, a)
		} else {
			excluded = append(excluded, a)
		}
	}
	return valid, excluded
}
