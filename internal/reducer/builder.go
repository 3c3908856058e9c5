package reducer

import (
	"github.com/roach88/normstate/internal/ir"
)

// builder stages a transition with copy-on-write semantics.
// The outer entity map is copied once; an inner map is copied the first
// time a command writes to it. Everything else is shared with the previous
// state.
type builder struct {
	entities ir.EntityMap
	owned    map[string]bool // inner maps already copied for this transition
}

func newBuilder(prev *ir.State) *builder {
	entities := make(ir.EntityMap, len(prev.Entities))
	for key, inner := range prev.Entities {
		entities[key] = inner
	}
	return &builder{
		entities: entities,
		owned:    make(map[string]bool),
	}
}

// inner returns a writable inner map for key, creating it if absent.
func (b *builder) inner(key string) map[string]ir.IRObject {
	if b.owned[key] {
		return b.entities[key]
	}
	prev := b.entities[key]
	inner := make(map[string]ir.IRObject, len(prev)+1)
	for id, rec := range prev {
		inner[id] = rec
	}
	b.entities[key] = inner
	b.owned[key] = true
	return inner
}

// replace installs an inner map the builder owns outright.
func (b *builder) replace(key string, inner map[string]ir.IRObject) {
	b.entities[key] = inner
	b.owned[key] = true
}

// merge folds incoming records into the staged entities field by field.
func (b *builder) merge(incoming ir.EntityMap) {
	for key, records := range incoming {
		inner := b.inner(key)
		for id, rec := range records {
			existing, ok := inner[id]
			if !ok {
				inner[id] = rec
				continue
			}
			merged := existing.Clone()
			for field, v := range rec {
				merged[field] = v
			}
			inner[id] = merged
		}
	}
}

// parentRefs returns the relation array held by the parent record, if the
// parent exists and the property is an array.
func (b *builder) parentRefs(key, id, property string) (ir.IRArray, ir.IRObject, bool) {
	if property == "" {
		return nil, nil, false
	}
	parent, ok := b.entities.Get(key, id)
	if !ok {
		return nil, nil, false
	}
	refs, ok := parent[property].(ir.IRArray)
	if !ok {
		return nil, nil, false
	}
	return refs, parent, true
}

// setField stores a copy of rec with one field replaced.
func (b *builder) setField(key, id string, rec ir.IRObject, field string, v ir.IRValue) {
	next := rec.Clone()
	next[field] = v
	b.inner(key)[id] = next
}

// delete removes key/id if present. Copies the inner map only when the id
// exists.
func (b *builder) delete(key, id string) {
	if _, ok := b.entities.Get(key, id); !ok {
		return
	}
	delete(b.inner(key), id)
}

func (b *builder) build(result []string) *ir.State {
	if result == nil {
		result = []string{}
	}
	return &ir.State{
		Result:   result,
		Entities: b.entities,
	}
}
