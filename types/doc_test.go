package types_test

import (
	"testing"

	"github.com/forbearing/docdb/types"
	"github.com/stretchr/testify/assert"
)

func TestDocRoundTrip(t *testing.T) {
	d := types.From(map[string]types.Value{
		"name": "Ada",
		"age":  int64(30),
	})
	again := types.From(d.ToObject(nil, nil))
	assert.Equal(t, d.ToObject(nil, nil), again.ToObject(nil, nil))
}

func TestDocAutoLiftsNested(t *testing.T) {
	d := types.From(map[string]types.Value{
		"author": map[string]types.Value{"$id": "u1", "name": "Ada"},
	})
	author, ok := d.Get("author").(*types.Doc)
	assert.True(t, ok)
	assert.Equal(t, "u1", author.ID())
}

func TestDocAppendPrepend(t *testing.T) {
	d := types.From(map[string]types.Value{})
	assert.NoError(t, d.Append("tags", "a"))
	assert.NoError(t, d.Append("tags", "b"))
	assert.NoError(t, d.Prepend("tags", "z"))
	assert.Equal(t, types.List{"z", "a", "b"}, d.Get("tags"))

	d.Set("name", "Ada")
	assert.Error(t, d.Append("name", "x"))
}

func TestDocUpdateNoopOnNil(t *testing.T) {
	d := types.From(map[string]types.Value{"name": "Ada"})
	d.Update("name", nil)
	assert.Equal(t, "Ada", d.Get("name"))
	d.Update("name", "Grace")
	assert.Equal(t, "Grace", d.Get("name"))
}

func TestDocCloneIsDeep(t *testing.T) {
	d := types.From(map[string]types.Value{"tags": types.List{"a"}})
	c := d.Clone()
	_ = c.Append("tags", "b")
	assert.Equal(t, types.List{"a"}, d.Get("tags"))
	assert.Equal(t, types.List{"a", "b"}, c.Get("tags"))
}

func TestDocFindReplaceDeleteWhere(t *testing.T) {
	d := types.From(map[string]types.Value{"a": int64(1), "b": int64(2), "c": "x"})
	found := d.FindWhere(func(_ string, v types.Value) bool {
		_, ok := v.(int64)
		return ok
	})
	assert.Len(t, found, 2)

	d.ReplaceWhere(func(_ string, v types.Value) bool {
		_, ok := v.(int64)
		return ok
	}, func(v types.Value) types.Value { return v.(int64) + 1 })
	assert.Equal(t, int64(2), d.Get("a"))
	assert.Equal(t, int64(3), d.Get("b"))

	d.DeleteWhere(func(name string, _ types.Value) bool { return name == "c" })
	assert.False(t, d.Has("c"))
}
