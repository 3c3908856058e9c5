// Package normalize converts nested entity graphs to a flat entity map and
// back, driven by schema.Entity descriptions.
//
// Normalize replaces every related record with its id and collects each
// record under entities[schemaKey][id]. Denormalize reverses this, resolving
// ids against an entity map. Neither function mutates its inputs.
package normalize

import (
	"fmt"

	"github.com/roach88/normstate/internal/ir"
	"github.com/roach88/normstate/internal/schema"
)

// Result is the output of Normalize.
type Result struct {
	// Result holds the ids of the top-level records in input order.
	Result []string

	// Entities holds every record reached from the input.
	Entities ir.EntityMap
}

// Error reports input that does not match its schema.
type Error struct {
	Schema  string // schema key being normalized
	Path    string // location in the input, e.g. "[0].childs[1]"
	Message string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("normalize %s: %s", e.Schema, e.Message)
	}
	return fmt.Sprintf("normalize %s at %s: %s", e.Schema, e.Path, e.Message)
}

// Normalize flattens data against s.
//
// data is a single record (IRObject) or an array of records. Relation
// properties may hold nested records, which are normalized recursively, or
// ids (string or int), which are kept as references. A record reached more
// than once is merged field by field, later occurrences winning.
func Normalize(data ir.IRValue, s *schema.Entity) (*Result, error) {
	n := &normalizer{entities: ir.EntityMap{}}
	res := &Result{Result: []string{}}

	switch val := data.(type) {
	case ir.IRObject:
		id, err := n.visit(val, s, "")
		if err != nil {
			return nil, err
		}
		res.Result = append(res.Result, id)
	case ir.IRArray:
		for i, elem := range val {
			rec, ok := elem.(ir.IRObject)
			if !ok {
				return nil, &Error{Schema: s.Key(), Path: fmt.Sprintf("[%d]", i), Message: fmt.Sprintf("expected object, got %T", elem)}
			}
			id, err := n.visit(rec, s, fmt.Sprintf("[%d]", i))
			if err != nil {
				return nil, err
			}
			res.Result = append(res.Result, id)
		}
	default:
		return nil, &Error{Schema: s.Key(), Message: fmt.Sprintf("expected object or array, got %T", data)}
	}

	res.Entities = n.entities
	return res, nil
}

type normalizer struct {
	entities ir.EntityMap
}

// visit normalizes one record and returns its id.
func (n *normalizer) visit(record ir.IRObject, s *schema.Entity, path string) (string, error) {
	id, err := s.ID(record)
	if err != nil {
		return "", &Error{Schema: s.Key(), Path: path, Message: err.Error()}
	}

	flat := record.Clone()
	for _, rel := range s.Relations() {
		v, present := record[rel.Property]
		if !present {
			continue
		}
		if _, isNull := v.(ir.IRNull); isNull {
			continue
		}
		propPath := path + "." + rel.Property
		ref, err := n.reference(v, rel, propPath)
		if err != nil {
			return "", err
		}
		flat[rel.Property] = ref
	}

	n.store(s.Key(), id, flat)
	return id, nil
}

// reference normalizes a relation value into an id or an array of ids.
func (n *normalizer) reference(v ir.IRValue, rel schema.Relation, path string) (ir.IRValue, error) {
	if !rel.Many {
		return n.single(v, rel.Target, path)
	}

	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, &Error{Schema: rel.Target.Key(), Path: path, Message: fmt.Sprintf("expected array, got %T", v)}
	}
	ids := make(ir.IRArray, 0, len(arr))
	for i, elem := range arr {
		ref, err := n.single(elem, rel.Target, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		ids = append(ids, ref)
	}
	return ids, nil
}

func (n *normalizer) single(v ir.IRValue, target *schema.Entity, path string) (ir.IRValue, error) {
	if rec, ok := v.(ir.IRObject); ok {
		id, err := n.visit(rec, target, path)
		if err != nil {
			return nil, err
		}
		return ir.IRString(id), nil
	}
	if id, ok := ir.IDString(v); ok {
		return ir.IRString(id), nil
	}
	return nil, &Error{Schema: target.Key(), Path: path, Message: fmt.Sprintf("expected object or id, got %T", v)}
}

// store adds a record, merging field by field with an earlier occurrence.
func (n *normalizer) store(key, id string, rec ir.IRObject) {
	inner, ok := n.entities[key]
	if !ok {
		inner = make(map[string]ir.IRObject)
		n.entities[key] = inner
	}
	existing, ok := inner[id]
	if !ok {
		inner[id] = rec
		return
	}
	for k, v := range rec {
		existing[k] = v
	}
}
