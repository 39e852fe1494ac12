package filters_test

import (
	"testing"
	"time"

	"github.com/forbearing/docdb/filters"
	"github.com/forbearing/docdb/types"
	"github.com/stretchr/testify/assert"
)

func TestDatetimeRoundTrip(t *testing.T) {
	f, ok := filters.Default.Get("datetime")
	assert.True(t, ok)

	in := time.Date(2026, 7, 31, 12, 30, 0, 500_000_000, time.UTC)
	encoded, err := f.Encode(in, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, "2026-07-31 12:30:00.500", encoded)

	decoded, err := f.Decode(encoded, nil, nil)
	assert.NoError(t, err)
	assert.True(t, in.Equal(decoded.(time.Time)))
}

func TestJSONRoundTripLiftsDocs(t *testing.T) {
	f, ok := filters.Default.Get("json")
	assert.True(t, ok)

	doc := types.From(map[string]types.Value{"$id": "u1", "name": "Ada"})
	encoded, err := f.Encode(doc, nil, nil)
	assert.NoError(t, err)

	decoded, err := f.Decode(encoded, nil, nil)
	assert.NoError(t, err)
	lifted, ok := decoded.(*types.Doc)
	assert.True(t, ok)
	assert.Equal(t, "u1", lifted.ID())
}

func TestDuplicateFilterNameRejected(t *testing.T) {
	r := filters.NewRegistry()
	assert.NoError(t, r.Add(filters.Filter{Name: "x",
		Encode: func(v types.Value, _ *types.Doc, _ any) (types.Value, error) { return v, nil },
		Decode: func(v types.Value, _ *types.Doc, _ any) (types.Value, error) { return v, nil },
	}))
	err := r.Add(filters.Filter{Name: "x"})
	assert.Error(t, err)
}
