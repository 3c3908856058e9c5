// Package reducer folds normalization commands into an ir.State.
//
// Reduce is a pure transition: it never mutates the state it is given and
// never fails. Inner maps and records not touched by a command are shared
// between the old and new state, so selectors memoized on map identity stay
// valid across unrelated transitions.
//
// Policy per command:
//
//   - SetData replaces the inner map of every schema key it carries.
//   - AddData and UpdateData merge each incoming record into the stored one,
//     field by field; the incoming value of a field wins.
//   - AddChildData merges like AddData, then appends the new ids to the
//     parent's relation array, skipping ids already linked.
//   - RemoveData deletes one record and the immediate children named by its
//     removeChildren map.
//   - RemoveChildData deletes one record and its first reference in the
//     parent's relation array.
//
// A command addressing a record that does not exist returns the input state
// unchanged (the same pointer). So does any command of a type the reducer
// does not know.
package reducer

import (
	"log/slog"
	"slices"

	"github.com/roach88/normstate/internal/action"
	"github.com/roach88/normstate/internal/ir"
)

// Initial returns the empty state.
func Initial() *ir.State {
	return ir.NewState()
}

// Reduce applies cmd to state and returns the next state.
// A nil state is treated as Initial().
func Reduce(state *ir.State, cmd any) *ir.State {
	if state == nil {
		state = Initial()
	}

	switch c := cmd.(type) {
	case *action.SetData:
		return set(state, c.Payload)
	case *action.AddData:
		return add(state, c.Payload.Entities, c.Payload.Result)
	case *action.AddChildData:
		return addChild(state, c.Payload)
	case *action.UpdateData:
		return add(state, c.Payload.Changes, c.Payload.Result)
	case *action.RemoveData:
		return remove(state, c.Payload)
	case *action.RemoveChildData:
		return removeChild(state, c.Payload)
	default:
		return state
	}
}

// Fold applies commands in order.
func Fold(state *ir.State, cmds ...action.Command) *ir.State {
	for _, cmd := range cmds {
		state = Reduce(state, cmd)
	}
	return state
}

func set(state *ir.State, p action.EntitiesPayload) *ir.State {
	b := newBuilder(state)
	for key, incoming := range p.Entities {
		inner := make(map[string]ir.IRObject, len(incoming))
		for id, rec := range incoming {
			inner[id] = rec
		}
		b.replace(key, inner)
	}
	return b.build(slices.Clone(p.Result))
}

func add(state *ir.State, entities ir.EntityMap, result []string) *ir.State {
	b := newBuilder(state)
	b.merge(entities)
	return b.build(slices.Clone(result))
}

func addChild(state *ir.State, p action.ChildPayload) *ir.State {
	b := newBuilder(state)
	b.merge(p.Entities)

	refs, parent, ok := b.parentRefs(p.ParentSchemaKey, p.ParentID, p.ParentProperty)
	switch {
	case ok && len(p.Result) > 0:
		next := slices.Grow(slices.Clone(refs), len(p.Result))
		for _, id := range p.Result {
			next = append(next, ir.IRString(id))
		}
		b.setField(p.ParentSchemaKey, p.ParentID, parent, p.ParentProperty, next)
	case !ok && p.ParentProperty != "":
		slog.Debug("add child: parent reference not found",
			"parent_schema", p.ParentSchemaKey,
			"parent_id", p.ParentID,
			"property", p.ParentProperty,
		)
	}

	return b.build(slices.Clone(p.Result))
}

func remove(state *ir.State, p action.RemovePayload) *ir.State {
	rec, ok := state.Entities.Get(p.Key, p.ID)
	if !ok {
		slog.Debug("remove: entity not found", "schema", p.Key, "id", p.ID)
		return state
	}

	b := newBuilder(state)
	for childKey, prop := range p.RemoveChildren {
		ref, present := rec[prop]
		if !present {
			continue
		}
		if _, known := state.Entities[childKey]; !known {
			continue
		}
		for _, childID := range ir.IDList(ref) {
			b.delete(childKey, childID)
		}
	}
	b.delete(p.Key, p.ID)

	return b.build(state.Result)
}

func removeChild(state *ir.State, p action.RemoveChildPayload) *ir.State {
	if _, ok := state.Entities.Get(p.ChildSchemaKey, p.ID); !ok {
		slog.Debug("remove child: entity not found", "schema", p.ChildSchemaKey, "id", p.ID)
		return state
	}

	b := newBuilder(state)
	if refs, parent, ok := b.parentRefs(p.ParentSchemaKey, p.ParentID, p.ParentProperty); ok {
		idx := slices.IndexFunc(refs, func(v ir.IRValue) bool {
			id, isID := ir.IDString(v)
			return isID && id == p.ID
		})
		if idx >= 0 {
			next := slices.Delete(slices.Clone(refs), idx, idx+1)
			b.setField(p.ParentSchemaKey, p.ParentID, parent, p.ParentProperty, next)
		}
	}
	b.delete(p.ChildSchemaKey, p.ID)

	return b.build(state.Result)
}
