// Package form holds the mutable runtime around the pure interpretation
// pipeline: value state, debounced revalidation, and fieldset composition.
package form

import (
	"strings"
	"sync"
)

// WatchFunc observes value changes. The path uses dotted notation for values
// nested under scoped fieldsets.
type WatchFunc func(path string, value any)

// State is a concurrency-safe store for form values and interaction flags.
type State struct {
	mu          sync.RWMutex
	values      map[string]any
	touched     map[string]bool
	submitCount int
	dirty       bool

	watchMu  sync.Mutex
	watchSeq int
	watchers map[int]WatchFunc
}

// NewState seeds the store with initial values. The map is copied.
func NewState(initial map[string]any) *State {
	values := make(map[string]any, len(initial))
	for key, value := range initial {
		values[key] = value
	}
	return &State{
		values:   values,
		touched:  map[string]bool{},
		watchers: map[int]WatchFunc{},
	}
}

// SetValue stores a value at the dotted path, marks it touched, flags the
// form dirty, and notifies watchers.
func (s *State) SetValue(path string, value any) {
	s.mu.Lock()
	setPath(s.values, path, value)
	s.touched[path] = true
	s.dirty = true
	s.mu.Unlock()

	s.notify(path, value)
}

// Value reads the value at a dotted path.
func (s *State) Value(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPath(s.values, path)
}

// Values returns a shallow copy of the top-level value map.
func (s *State) Values() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}
	return out
}

// Touched reports whether the path has been set since construction or reset.
func (s *State) Touched(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.touched[path]
}

// TouchedPaths returns a copy of the touched set.
func (s *State) TouchedPaths() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(s.touched))
	for key, value := range s.touched {
		out[key] = value
	}
	return out
}

// Dirty reports whether any value changed since construction or reset.
func (s *State) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// RecordSubmit increments and returns the submit counter.
func (s *State) RecordSubmit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitCount++
	return s.submitCount
}

// SubmitCount returns how many submissions have been attempted.
func (s *State) SubmitCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submitCount
}

// IsSubmitted reports whether at least one submission has been attempted.
func (s *State) IsSubmitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submitCount > 0
}

// Reset replaces all values and clears interaction flags.
func (s *State) Reset(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string]any, len(values))
	for key, value := range values {
		s.values[key] = value
	}
	s.touched = map[string]bool{}
	s.dirty = false
}

// Watch registers an observer and returns its unsubscribe function.
func (s *State) Watch(fn WatchFunc) func() {
	if fn == nil {
		return func() {}
	}
	s.watchMu.Lock()
	s.watchSeq++
	id := s.watchSeq
	s.watchers[id] = fn
	s.watchMu.Unlock()

	return func() {
		s.watchMu.Lock()
		delete(s.watchers, id)
		s.watchMu.Unlock()
	}
}

func (s *State) notify(path string, value any) {
	s.watchMu.Lock()
	observers := make([]WatchFunc, 0, len(s.watchers))
	for _, fn := range s.watchers {
		observers = append(observers, fn)
	}
	s.watchMu.Unlock()

	for _, fn := range observers {
		fn(path, value)
	}
}

// setPath writes a value at a dotted path, creating intermediate maps.
func setPath(values map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := values
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func getPath(values map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = values
	for _, part := range parts {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
