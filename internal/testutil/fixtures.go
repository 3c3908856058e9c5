package testutil

import (
	"github.com/roach88/normstate/internal/ir"
	"github.com/roach88/normstate/internal/schema"
)

// ParentChild returns the two-level fixture schemas: "parent" holds an
// array of "child" records under "childs".
func ParentChild() (parent, child *schema.Entity) {
	child = schema.New("child")
	parent = schema.New("parent", schema.WithRelations("childs", child))
	return parent, child
}

// Record builds a record from an id and alternating field/value pairs.
// Values are converted with ir.FromAny and must be valid record values.
func Record(id string, kv ...any) ir.IRObject {
	rec := ir.IRObject{"id": ir.IRString(id)}
	for i := 0; i+1 < len(kv); i += 2 {
		v, err := ir.FromAny(kv[i+1])
		if err != nil {
			panic(err)
		}
		rec[kv[i].(string)] = v
	}
	return rec
}

// ParentData returns one parent record with the given nested children.
func ParentData(id string, childIDs ...string) ir.IRObject {
	childs := make(ir.IRArray, 0, len(childIDs))
	for _, cid := range childIDs {
		childs = append(childs, Record(cid, "name", "child "+cid))
	}
	return ir.IRObject{
		"id":     ir.IRString(id),
		"name":   ir.IRString("parent " + id),
		"childs": childs,
	}
}
