package ir

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() *State {
	return &State{
		Result: []string{"p1"},
		Entities: EntityMap{
			"parent": {"p1": {"id": IRString("p1"), "childs": Strings("c1")}},
			"child":  {"c1": {"id": IRString("c1"), "name": IRString("one")}},
		},
	}
}

func TestStateHashDeterminism(t *testing.T) {
	h1, err := StateHash(sampleState())
	require.NoError(t, err)
	h2, err := StateHash(sampleState())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
	_, err = hex.DecodeString(h1)
	assert.NoError(t, err)
}

func TestStateHashChangesWithContent(t *testing.T) {
	base := MustStateHash(sampleState())

	renamed := sampleState()
	renamed.Entities["child"]["c1"] = IRObject{"id": IRString("c1"), "name": IRString("two")}
	assert.NotEqual(t, base, MustStateHash(renamed))

	noResult := sampleState()
	noResult.Result = []string{}
	assert.NotEqual(t, base, MustStateHash(noResult), "result is part of the hash")
}

func TestStateHashEmptyState(t *testing.T) {
	assert.Equal(t, MustStateHash(NewState()), MustStateHash(&State{Result: []string{}, Entities: EntityMap{}}))
}

func TestCommandHash(t *testing.T) {
	payload := IRObject{"id": IRString("c1"), "key": IRString("child")}

	h1, err := CommandHash("[@@Normalize] Remove Data", payload)
	require.NoError(t, err)
	h2, err := CommandHash("[@@Normalize] Remove Data", payload.Clone())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := CommandHash("[@@Normalize] Update Data", payload)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, hashWithDomain(DomainState, data), hashWithDomain(DomainCommand, data))

	// The null separator keeps domain+data boundaries unambiguous.
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}
