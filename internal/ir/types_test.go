package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityMapAccessors(t *testing.T) {
	m := EntityMap{
		"parent": {"p2": {}, "p1": {"id": IRString("p1")}},
		"child":  {"c1": {}},
	}

	rec, ok := m.Get("parent", "p1")
	require.True(t, ok)
	assert.Equal(t, IRString("p1"), rec["id"])

	_, ok = m.Get("parent", "nope")
	assert.False(t, ok)
	_, ok = m.Get("nope", "p1")
	assert.False(t, ok)

	assert.Equal(t, []string{"child", "parent"}, m.Keys())
	assert.Equal(t, []string{"p1", "p2"}, m.IDs("parent"))
	assert.Empty(t, m.IDs("nope"))
	assert.Equal(t, 3, m.Count())
}

func TestIDString(t *testing.T) {
	id, ok := IDString(IRString("abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	id, ok = IDString(IRInt(-42))
	assert.True(t, ok)
	assert.Equal(t, "-42", id)

	_, ok = IDString(IRBool(true))
	assert.False(t, ok)
	_, ok = IDString(IRNull{})
	assert.False(t, ok)
}

func TestIDList(t *testing.T) {
	assert.Equal(t, []string{"1"}, IDList(IRString("1")))
	assert.Equal(t, []string{"1", "2"}, IDList(IRArray{IRString("1"), IRBool(true), IRInt(2)}))
	assert.Empty(t, IDList(IRArray{}))
	assert.Nil(t, IDList(IRNull{}))
}

func TestStateJSON(t *testing.T) {
	st := &State{
		Result:   []string{"p1"},
		Entities: EntityMap{"parent": {"p1": {"id": IRString("p1")}}},
	}

	data, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":["p1"],"entities":{"parent":{"p1":{"id":"p1"}}}}`, string(data))

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, st.Result, decoded.Result)
	assert.Equal(t, st.Entities, decoded.Entities)
}

func TestNewStateEmpty(t *testing.T) {
	st := NewState()
	assert.NotNil(t, st.Result)
	assert.NotNil(t, st.Entities)
	assert.Same(t, st, st.Normalized())
	assert.Equal(t, "State{result=[] schemas=0 records=0}", st.String())
}
