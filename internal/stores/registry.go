package stores

import (
	"fmt"
	"strings"
)

// Registry is an ordered, read-only list of adapters. Its order is the
// per-code visiting order and therefore the order of exported rows.
type Registry struct {
	adapters []Adapter
}

// NewRegistry validates adapters and rejects duplicate names.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	seen := make(map[string]bool, len(adapters))
	for _, a := range adapters {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(a.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate store %q", a.Name)
		}
		seen[key] = true
	}

	r := &Registry{adapters: make([]Adapter, len(adapters))}
	copy(r.adapters, adapters)
	return r, nil
}

// Default returns the built-in storefronts.
func Default() *Registry {
	r, err := NewRegistry(defaultAdapters()...)
	if err != nil {
		panic(fmt.Sprintf("built-in store table is invalid: %v", err))
	}
	return r
}

// All returns the adapters in registry order. The slice is a copy.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

func (r *Registry) Len() int {
	return len(r.adapters)
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name
	}
	return names
}

// Select keeps only the named stores (case-insensitive), in registry order
// rather than argument order. No names keeps everything.
func (r *Registry) Select(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			wanted[n] = true
		}
	}

	var kept []Adapter
	for _, a := range r.adapters {
		key := strings.ToLower(a.Name)
		if wanted[key] {
			kept = append(kept, a)
			delete(wanted, key)
		}
	}

	for n := range wanted {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, n)
	}

	return NewRegistry(kept...)
}

// Lookup finds one adapter by name, case-insensitively.
func (r *Registry) Lookup(name string) (Adapter, error) {
	for _, a := range r.adapters {
		if strings.EqualFold(a.Name, strings.TrimSpace(name)) {
			return a, nil
		}
	}
	return Adapter{}, fmt.Errorf("%w: %s", ErrUnknownStore, name)
}
