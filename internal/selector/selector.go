// Package selector reads and denormalizes entities from an ir.State.
//
// Selectors take a Source, anything that can hand out the normalized state.
// Projectors take the entity map directly, so a view can combine entities of
// several schemas before denormalizing. Everything here is read-only.
package selector

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/normstate/internal/ir"
	"github.com/roach88/normstate/internal/normalize"
	"github.com/roach88/normstate/internal/schema"
)

// Source yields the normalized state. *ir.State and engine snapshots
// implement it.
type Source interface {
	Normalized() *ir.State
}

// GetNormalizedEntities returns the whole entity map of the state.
// Projectors need it to resolve relations across schema keys.
func GetNormalizedEntities(src Source) ir.EntityMap {
	st := src.Normalized()
	if st == nil {
		return nil
	}
	return st.Entities
}

// GetResult returns the result ids of the last command that carried one.
func GetResult(src Source) []string {
	st := src.Normalized()
	if st == nil {
		return nil
	}
	return st.Result
}

// SchemaSelectors bundles selectors and projectors bound to one schema.
type SchemaSelectors struct {
	// GetNormalizedEntities is the package function, exported here for
	// convenience.
	GetNormalizedEntities func(Source) ir.EntityMap

	// GetEntities denormalizes every record of the schema. Memoized on the
	// identity of the inner maps of the schema and of every schema reachable
	// through its relations.
	GetEntities func(Source) ir.IRArray

	// EntityProjector denormalizes the record id. Returns false when the
	// schema key or the id is not stored.
	EntityProjector func(entities ir.EntityMap, id string) (ir.IRObject, bool)

	// EntitiesProjector denormalizes the records with the given ids in
	// order, or every stored record (sorted by id) when ids is nil. An empty
	// non-nil ids yields an empty array. Returns false when the schema key is
	// not stored.
	EntitiesProjector func(entities ir.EntityMap, ids []string) (ir.IRArray, bool)

	schema *schema.Entity
}

// CreateSchemaSelectors binds selectors and projectors to s.
func CreateSchemaSelectors(s *schema.Entity) *SchemaSelectors {
	entityProjector := func(entities ir.EntityMap, id string) (ir.IRObject, bool) {
		if _, ok := entities[s.Key()]; !ok {
			return nil, false
		}
		return normalize.DenormalizeOne(id, s, entities)
	}

	entitiesProjector := func(entities ir.EntityMap, ids []string) (ir.IRArray, bool) {
		if _, ok := entities[s.Key()]; !ok {
			return nil, false
		}
		if ids == nil {
			ids = entities.IDs(s.Key())
		}
		return normalize.DenormalizeMany(ids, s, entities), true
	}

	closure := func() []string { return schema.Closure(s) }
	all := Memoize(closure, func(entities ir.EntityMap) ir.IRArray {
		out, _ := entitiesProjector(entities, nil)
		return out
	})

	return &SchemaSelectors{
		GetNormalizedEntities: GetNormalizedEntities,
		GetEntities: func(src Source) ir.IRArray {
			return all(GetNormalizedEntities(src))
		},
		EntityProjector:   entityProjector,
		EntitiesProjector: entitiesProjector,
		schema:            s,
	}
}

// Schema returns the bound schema.
func (s *SchemaSelectors) Schema() *schema.Entity {
	return s.schema
}

// As decodes a denormalized value into T through its JSON form. Values of
// cyclic schemas that loop back on themselves fail with ir.ErrCycle.
func As[T any](v ir.IRValue) (T, error) {
	var out T
	if err := ir.CheckAcyclic(v); err != nil {
		return out, fmt.Errorf("encode %T: %w", v, err)
	}
	raw, err := ir.MarshalIRValue(v)
	if err != nil {
		return out, fmt.Errorf("encode %T: %w", v, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode into %T: %w", out, err)
	}
	return out, nil
}
