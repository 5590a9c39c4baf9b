// Package store holds the session's value store: a thread-safe mapping
// from parameter index (and, for bitfield carriers, subfield name) to
// the last-observed decoded value (spec.md §4.5). Writes originate from
// the worker goroutine via internal/session; reads originate from
// internal/facade on the caller's goroutine.
package store

import (
	"sync"

	"github.com/MackanT/NibeTester/internal/registry"
)

// Entry is one decoded parameter, as last observed on the bus.
type Entry struct {
	Index   byte
	Scalar  *registry.Decoded // nil when the definition projects to bitfields instead
	Fields  []registry.Field  // non-nil when the definition has bitfields
	Warning string            // e.g. "UnknownParameter"; empty when none
}

// Store is the thread-safe value table. The zero value is not usable;
// construct with New.
type Store struct {
	mu       sync.RWMutex
	entries  map[byte]Entry
	observed map[byte]bool
	changed  chan struct{}
}

// New returns an empty Store. One Store belongs to exactly one Session
// and is never shared across sessions (spec.md §3).
func New() *Store {
	return &Store{
		entries:  make(map[byte]Entry),
		observed: make(map[byte]bool),
		changed:  make(chan struct{}),
	}
}

// Put records a freshly decoded parameter, overwriting whatever was
// there before (last write wins, per spec.md §4.5). Waiters parked on
// Changed are woken.
func (s *Store) Put(e Entry) {
	s.mu.Lock()
	s.entries[e.Index] = e
	s.observed[e.Index] = true
	old := s.changed
	s.changed = make(chan struct{})
	s.mu.Unlock()
	close(old)
}

// Changed returns a channel that closes the next time any Put occurs.
// The Façade's one-shot read waits on this instead of busy-polling the
// collection-complete predicate (spec.md §5's condition-variable wait).
func (s *Store) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}

// Get returns the last-observed scalar value for idx.
func (s *Store) Get(idx byte) (registry.Decoded, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[idx]
	if !ok || e.Scalar == nil {
		return registry.Decoded{}, false
	}
	return *e.Scalar, true
}

// GetBitfield returns the last-observed value of one named subfield of
// a bitfield-carrying parameter.
func (s *Store) GetBitfield(idx byte, name string) (registry.Decoded, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[idx]
	if !ok {
		return registry.Decoded{}, false
	}
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return registry.Decoded{}, false
}

// Observed reports whether idx has been decoded at least once.
func (s *Store) Observed(idx byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.observed[idx]
}

// ObservedAll implements the collection-complete predicate (spec.md
// §4.4): true once every index in expected has been observed at least
// once.
func (s *Store) ObservedAll(expected []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, idx := range expected {
		if !s.observed[idx] {
			return false
		}
	}
	return true
}

// Snapshot returns a coherent copy of every entry observed so far. The
// returned map shares no state with the Store, so callers can hold it
// across further Session activity without torn reads of multi-byte
// values.
func (s *Store) Snapshot() map[byte]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[byte]Entry, len(s.entries))
	for idx, e := range s.entries {
		cp := e
		if e.Scalar != nil {
			scalar := *e.Scalar
			cp.Scalar = &scalar
		}
		cp.Fields = append([]registry.Field(nil), e.Fields...)
		out[idx] = cp
	}
	return out
}
