package circuit

import (
	"sort"
	"sync"
)

// Registry owns the breakers of a process, keyed by resource name. It replaces
// process-global breaker state: whoever builds the clients passes the registry in.
type Registry struct {
	mu       sync.Mutex
	defaults []Option
	breakers map[string]*Breaker
}

// NewRegistry creates a registry whose breakers are built with defaults.
func NewRegistry(defaults ...Option) *Registry {
	return &Registry{
		defaults: defaults,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for name, creating it on first use. Options given here
// apply only when the breaker is created.
func (r *Registry) Get(name string, opts ...Option) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	all := make([]Option, 0, len(r.defaults)+len(opts))
	all = append(all, r.defaults...)
	all = append(all, opts...)
	b := New(name, all...)
	r.breakers[name] = b
	return b
}

// States snapshots the state of every breaker.
func (r *Registry) States() map[string]State {
	r.mu.Lock()
	breakers := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.Unlock()

	out := make(map[string]State, len(breakers))
	for _, b := range breakers {
		out[b.Name()] = b.State()
	}
	return out
}

// Names lists registered breakers in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
