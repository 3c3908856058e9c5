package normalize

import (
	"github.com/roach88/normstate/internal/ir"
	"github.com/roach88/normstate/internal/schema"
)

// Denormalize rebuilds nested records from a flat entity map.
//
// root selects ids per schema key and shapes gives the schema for each key in
// root. Every selected record is copied and its relation ids are replaced by
// the resolved records, recursively. Ids that cannot be resolved are dropped
// from arrays, and a single relation that cannot be resolved is removed from
// the record. Keys in root without a shape are ignored.
//
// Records reached more than once share one rebuilt value; a cyclic graph
// therefore produces cyclic values. Callers must treat the output as
// read-only.
func Denormalize(root map[string][]string, shapes map[string]*schema.Entity, entities ir.EntityMap) map[string]ir.IRArray {
	d := newDenormalizer(entities)
	out := make(map[string]ir.IRArray, len(root))
	for key, ids := range root {
		s, ok := shapes[key]
		if !ok || s == nil {
			continue
		}
		out[key] = d.many(ids, s)
	}
	return out
}

// DenormalizeOne rebuilds the record stored at s.Key()/id.
func DenormalizeOne(id string, s *schema.Entity, entities ir.EntityMap) (ir.IRObject, bool) {
	return newDenormalizer(entities).unvisit(id, s)
}

// DenormalizeMany rebuilds the records with the given ids, in order,
// skipping ids that are not stored.
func DenormalizeMany(ids []string, s *schema.Entity, entities ir.EntityMap) ir.IRArray {
	return newDenormalizer(entities).many(ids, s)
}

type denormalizer struct {
	entities ir.EntityMap
	cache    map[cacheKey]ir.IRObject
}

type cacheKey struct {
	schema string
	id     string
}

func newDenormalizer(entities ir.EntityMap) *denormalizer {
	return &denormalizer{
		entities: entities,
		cache:    make(map[cacheKey]ir.IRObject),
	}
}

func (d *denormalizer) many(ids []string, s *schema.Entity) ir.IRArray {
	out := make(ir.IRArray, 0, len(ids))
	for _, id := range ids {
		if rec, ok := d.unvisit(id, s); ok {
			out = append(out, rec)
		}
	}
	return out
}

func (d *denormalizer) unvisit(id string, s *schema.Entity) (ir.IRObject, bool) {
	ck := cacheKey{schema: s.Key(), id: id}
	if rec, ok := d.cache[ck]; ok {
		return rec, true
	}
	stored, ok := d.entities.Get(s.Key(), id)
	if !ok {
		return nil, false
	}

	rec := stored.Clone()
	d.cache[ck] = rec

	for _, rel := range s.Relations() {
		v, present := rec[rel.Property]
		if !present {
			continue
		}
		if _, isNull := v.(ir.IRNull); isNull {
			continue
		}
		if rel.Many {
			if _, isArr := v.(ir.IRArray); !isArr {
				continue
			}
			rec[rel.Property] = d.many(ir.IDList(v), rel.Target)
			continue
		}
		childID, ok := ir.IDString(v)
		if !ok {
			continue
		}
		if child, found := d.unvisit(childID, rel.Target); found {
			rec[rel.Property] = child
		} else {
			delete(rec, rel.Property)
		}
	}
	return rec, true
}
