package schema

import (
	"fmt"
	"slices"
)

// Registry holds schemas by key.
type Registry struct {
	schemas map[string]*Entity
}

// NewRegistry creates a registry holding the given schemas.
// Panics on duplicate keys; use Register to handle the error.
func NewRegistry(schemas ...*Entity) *Registry {
	r := &Registry{schemas: make(map[string]*Entity, len(schemas))}
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a schema. Registering the same instance twice is a no-op;
// a different schema with an existing key is an error.
func (r *Registry) Register(s *Entity) error {
	if existing, ok := r.schemas[s.key]; ok {
		if existing == s {
			return nil
		}
		return fmt.Errorf("schema %q already registered", s.key)
	}
	r.schemas[s.key] = s
	return nil
}

// Get returns the schema registered under key.
func (r *Registry) Get(key string) (*Entity, bool) {
	s, ok := r.schemas[key]
	return s, ok
}

// Keys returns all registered keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	return len(r.schemas)
}

// Closure returns every schema key reachable from s through relations,
// including s itself, in sorted order.
func Closure(s *Entity) []string {
	seen := map[string]bool{}
	var walk func(*Entity)
	walk = func(e *Entity) {
		if seen[e.key] {
			return
		}
		seen[e.key] = true
		for _, prop := range e.order {
			walk(e.relations[prop].Target)
		}
	}
	walk(s)

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
