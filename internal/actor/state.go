package actor

import "maps"

// State is the actor's key/value mapping. It is not safe for concurrent use;
// while the actor runs only the loop goroutine touches it.
type State struct {
	entries map[string]string
}

// NewState returns an empty State.
func NewState() *State {
	return &State{entries: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *State) Get(key string) (string, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// Set inserts or overwrites key.
func (s *State) Set(key, value string) {
	s.entries[key] = value
}

// Clear removes every entry.
func (s *State) Clear() {
	clear(s.entries)
}

// Len returns the number of entries.
func (s *State) Len() int {
	return len(s.entries)
}

// Snapshot returns a copy of the entries.
func (s *State) Snapshot() map[string]string {
	return maps.Clone(s.entries)
}
