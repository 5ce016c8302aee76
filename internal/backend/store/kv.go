// Package store holds the stub backend's state: registered users with
// their card lists, the merchant table used for store resolution, and the
// reward rules driving deterministic suggestion ranking.
package store

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// KV is a small thread-safe in-memory table keyed by string, preserving
// insertion order so listings and rankings stay deterministic.
type KV[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

// NewKV creates an empty table.
func NewKV[T any]() *KV[T] {
	return &KV[T]{items: make(map[string]T)}
}

// Set stores an item under key. Overwrites keep their original position.
func (s *KV[T]) Set(key string, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[key]; !exists {
		s.order = append(s.order, key)
	}
	s.items[key] = item
}

// Get retrieves an item by key.
func (s *KV[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[key]
	return item, ok
}

// Delete removes an item by key, reporting whether it existed.
func (s *KV[T]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[key]; !exists {
		return false
	}
	delete(s.items, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all items in insertion order.
func (s *KV[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}

// Filter returns items matching the predicate, in insertion order.
func (s *KV[T]) Filter(pred func(key string, item T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []T
	for _, k := range s.order {
		if pred(k, s.items[k]) {
			out = append(out, s.items[k])
		}
	}
	return out
}

// Count returns the number of stored items.
func (s *KV[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Reset clears the table.
func (s *KV[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
	s.order = nil
}

// Snapshot returns the table as a JSON-serializable map.
func (s *KV[T]) Snapshot() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]T, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out
}

// LoadSnapshot replaces the table contents. Keys are sorted so reloaded
// state lists deterministically.
func (s *KV[T]) LoadSnapshot(snapshot map[string]T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T, len(snapshot))
	s.order = make([]string, 0, len(snapshot))
	for k, v := range snapshot {
		s.items[k] = v
		s.order = append(s.order, k)
	}
	sort.Strings(s.order)
}

// MarshalJSON serializes the table as its snapshot map.
func (s *KV[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// UnmarshalJSON replaces the table from a snapshot map.
func (s *KV[T]) UnmarshalJSON(data []byte) error {
	var snapshot map[string]T
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return err
	}
	s.LoadSnapshot(snapshot)
	return nil
}

// Clock is a simulated clock. Advancing it moves the backend's notion of
// the current quarter, which the suggestion tests lean on.
type Clock struct {
	mu     sync.RWMutex
	offset time.Duration
}

// NewClock creates a clock with no offset.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Now().Add(c.offset)
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += d
}

// Reset zeroes the clock offset.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = 0
}

// Offset returns the current clock offset.
func (c *Clock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}
