package policy

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Names of the built-in policies.
const (
	NameParity = "parity"
	NameAlways = "always"
)

// Info pairs a policy name with its description.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry holds named policies.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

// NewRegistry creates an empty policy registry.
func NewRegistry() *Registry {
	return &Registry{
		policies: make(map[string]Policy),
	}
}

// DefaultRegistry returns a registry holding the built-in policies, with
// latencies expressed in multiples of unit.
func DefaultRegistry(unit time.Duration) *Registry {
	r := NewRegistry()
	r.Register(NameParity, Parity{Unit: unit})
	r.Register(NameAlways, Always{Unit: unit})
	return r
}

// Register adds a policy under the given name, replacing any previous one.
func (r *Registry) Register(name string, p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[name] = p
}

// Resolve returns the policy registered under name.
func (r *Registry) Resolve(name string) (Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("policy %q is not registered", name)
	}
	return p, nil
}

// List returns information about all registered policies, sorted by name
// for a stable API response.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.policies))
	for name, p := range r.policies {
		infos = append(infos, Info{
			Name:        name,
			Description: p.Describe(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}
