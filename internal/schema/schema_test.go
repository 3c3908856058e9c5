package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/normstate/internal/ir"
)

func TestNewDefaults(t *testing.T) {
	s := New("user")
	assert.Equal(t, "user", s.Key())
	assert.Equal(t, DefaultIDAttribute, s.IDAttribute())
	assert.Empty(t, s.Relations())
	assert.Equal(t, "schema.Entity(user)", s.String())
}

func TestRelationsDeclarationOrder(t *testing.T) {
	child := New("child")
	owner := New("owner")
	parent := New("parent",
		WithIDAttribute("uuid"),
		WithRelations("childs", child),
		WithRelation("owner", owner),
	)

	rels := parent.Relations()
	require.Len(t, rels, 2)
	assert.Equal(t, Relation{Property: "childs", Target: child, Many: true}, rels[0])
	assert.Equal(t, Relation{Property: "owner", Target: owner}, rels[1])
	assert.Equal(t, "uuid", parent.IDAttribute())
}

func TestDefineMutualRecursion(t *testing.T) {
	user := New("user")
	post := New("post", WithRelation("author", user))
	user.Define(Relation{Property: "posts", Target: post, Many: true})

	rel, ok := user.Relation("posts")
	require.True(t, ok)
	assert.Same(t, post, rel.Target)

	rel, ok = rel.Target.Relation("author")
	require.True(t, ok)
	assert.Same(t, user, rel.Target)
}

func TestDefineReplacesKeepingPosition(t *testing.T) {
	a, b := New("a"), New("b")
	s := New("s", WithRelation("x", a), WithRelation("y", a))

	s.Define(Relation{Property: "x", Target: b, Many: true})

	rels := s.Relations()
	require.Len(t, rels, 2)
	assert.Equal(t, "x", rels[0].Property)
	assert.Same(t, b, rels[0].Target)
	assert.True(t, s.HasRelationKey("b"))
	assert.True(t, s.HasRelationKey("a"), "y still targets a")

	prop, ok := s.PropertyFor(a)
	require.True(t, ok)
	assert.Equal(t, "y", prop)
}

func TestDefineIgnoresNilTarget(t *testing.T) {
	s := New("s").Define(Relation{Property: "x"})
	assert.Empty(t, s.Relations())
}

func TestPropertyFor(t *testing.T) {
	child := New("child")
	parent := New("parent",
		WithRelations("childs", child),
		WithRelation("favourite", child),
	)

	prop, ok := parent.PropertyFor(child)
	require.True(t, ok)
	assert.Equal(t, "childs", prop, "first declared wins")

	_, ok = parent.PropertyFor(New("other"))
	assert.False(t, ok)
	_, ok = parent.PropertyFor(nil)
	assert.False(t, ok)

	// Matched by key, not by instance.
	prop, ok = parent.PropertyFor(New("child"))
	require.True(t, ok)
	assert.Equal(t, "childs", prop)
}

func TestHasRelationKey(t *testing.T) {
	parent := New("parent", WithRelations("childs", New("child")))
	assert.True(t, parent.HasRelationKey("child"))
	assert.False(t, parent.HasRelationKey("childs"), "property names are not keys")
	assert.False(t, parent.HasRelationKey("parent"))
}

func TestID(t *testing.T) {
	s := New("user", WithIDAttribute("uuid"))

	id, err := s.ID(ir.IRObject{"uuid": ir.IRString("u1")})
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	id, err = s.ID(ir.IRObject{"uuid": ir.IRInt(7)})
	require.NoError(t, err)
	assert.Equal(t, "7", id)

	_, err = s.ID(ir.IRObject{"id": ir.IRString("u1")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no "uuid" attribute`)

	_, err = s.ID(ir.IRObject{"uuid": ir.IRBool(true)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a string or int")
}
