package ir

import (
	"fmt"
	"slices"
	"strconv"
)

// EntityMap maps a schema key to the records stored under it, keyed by id.
// It is the shape of the entities produced by normalizing data against a
// schema, and the flat storage of State.
type EntityMap map[string]map[string]IRObject

// Get returns the record stored at key/id.
func (m EntityMap) Get(key, id string) (IRObject, bool) {
	inner, ok := m[key]
	if !ok {
		return nil, false
	}
	rec, ok := inner[id]
	return rec, ok
}

// Keys returns the schema keys in sorted order.
func (m EntityMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// IDs returns the ids stored under key in sorted order.
func (m EntityMap) IDs(key string) []string {
	inner := m[key]
	ids := make([]string, 0, len(inner))
	for id := range inner {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Count returns the total number of records across all schema keys.
func (m EntityMap) Count() int {
	n := 0
	for _, inner := range m {
		n += len(inner)
	}
	return n
}

// State is the normalized entity state.
//
// Result holds the top-level ids of the most recent command that carried a
// result (set, add, add child, update), in their original order. It is not an
// index of every known root id.
//
// Entities is the accumulated flat storage of every entity until removed.
//
// A State is immutable once published: transitions share untouched inner
// maps and records with the previous state, so callers must never write to
// either field in place.
type State struct {
	Result   []string  `json:"result"`
	Entities EntityMap `json:"entities"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		Result:   []string{},
		Entities: EntityMap{},
	}
}

// Normalized returns the state itself, so a bare State can be handed to any
// selector that reads through a Source.
func (s *State) Normalized() *State {
	return s
}

// IDString converts an id value to its string form.
// Strings are used verbatim and integers are formatted in base 10; any other
// kind of value is not a valid id.
func IDString(v IRValue) (string, bool) {
	switch val := v.(type) {
	case IRString:
		return string(val), true
	case IRInt:
		return strconv.FormatInt(int64(val), 10), true
	default:
		return "", false
	}
}

// IDList reads a relation value as a list of ids.
// A single id yields one element; an array yields its id elements in order,
// skipping anything that is not an id.
func IDList(v IRValue) []string {
	if arr, ok := v.(IRArray); ok {
		ids := make([]string, 0, len(arr))
		for _, elem := range arr {
			if id, ok := IDString(elem); ok {
				ids = append(ids, id)
			}
		}
		return ids
	}
	if id, ok := IDString(v); ok {
		return []string{id}
	}
	return nil
}

// ToIRObject converts the entity map into a nested IRObject, used for
// canonical hashing and golden snapshots.
func (m EntityMap) ToIRObject() IRObject {
	out := make(IRObject, len(m))
	for key, inner := range m {
		obj := make(IRObject, len(inner))
		for id, rec := range inner {
			obj[id] = rec
		}
		out[key] = obj
	}
	return out
}

// ToIRObject converts the whole state into an IRObject.
func (s *State) ToIRObject() IRObject {
	return IRObject{
		"result":   Strings(s.Result...),
		"entities": s.Entities.ToIRObject(),
	}
}

// String implements fmt.Stringer with a compact summary.
func (s *State) String() string {
	return fmt.Sprintf("State{result=%v schemas=%d records=%d}", s.Result, len(s.Entities), s.Entities.Count())
}
