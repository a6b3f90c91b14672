package tools

import (
	"errors"
	"fmt"
	"sort"
)

// Registry maps function names to capabilities. It is immutable once built and
// safe to share across sessions.
type Registry struct {
	defs map[string]ToolDefinition
}

// NewRegistry builds a registry. Empty names, missing handlers and duplicate
// names are rejected.
func NewRegistry(defs ...ToolDefinition) (*Registry, error) {
	r := &Registry{defs: make(map[string]ToolDefinition, len(defs))}
	for _, d := range defs {
		if d.Name == "" {
			return nil, errors.New("tool name is empty")
		}
		if d.Function == nil {
			return nil, fmt.Errorf("tool %s has no function", d.Name)
		}
		if _, exists := r.defs[d.Name]; exists {
			return nil, fmt.Errorf("tool %s already registered", d.Name)
		}
		r.defs[d.Name] = d
	}
	return r, nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the registered definitions sorted by name.
func (r *Registry) Definitions() []ToolDefinition {
	out := make([]ToolDefinition, 0, len(r.defs))
	for _, n := range r.Names() {
		out = append(out, r.defs[n])
	}
	return out
}

// DefaultRegistry wires the ordering capabilities.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Ordering()...)
	if err != nil {
		panic(err)
	}
	return r
}
