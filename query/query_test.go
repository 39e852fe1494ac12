package query_test

import (
	"testing"

	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/stretchr/testify/assert"
)

func TestBuilderRoundTrip(t *testing.T) {
	in := []*query.Query{
		{Method: query.Equal, Attribute: "name", Values: []any{"Ada"}},
		{Method: query.Limit, Values: []any{10}},
	}
	out := query.From(in).Build()
	assert.Equal(t, in, out)
}

func TestGroupByType(t *testing.T) {
	limit := 10
	offset := 5
	qs := []*query.Query{
		{Method: query.Equal, Attribute: "name", Values: []any{"Ada"}},
		{Method: query.Select, Values: []any{"name", "age"}},
		{Method: query.OrderAsc, Attribute: "age"},
		{Method: query.Limit, Values: []any{limit}},
		{Method: query.Offset, Values: []any{offset}},
		{Method: query.CursorAfter, Values: []any{"doc1"}},
	}
	g := query.GroupByType(qs)
	assert.Len(t, g.Filters, 1)
	assert.Equal(t, []string{"name", "age"}, g.Selections)
	assert.Equal(t, query.OrderAsc, g.Orders["age"])
	assert.Equal(t, limit, *g.Limit)
	assert.Equal(t, offset, *g.Offset)
	assert.Equal(t, query.CursorAfter, g.CursorDirection)
}

func usersCollection() *types.Collection {
	return &types.Collection{
		ID: "users",
		Attributes: []types.Attribute{
			{Key: "name", Type: consts.AttrString, Size: 128},
			{Key: "posts", Type: consts.AttrRelationship, Options: &types.RelationOptions{
				RelationType: consts.RelationOneToMany, Side: consts.SideParent, RelatedCollection: "posts",
			}},
		},
	}
}

func TestValidateRejectsVirtualRelationshipQuery(t *testing.T) {
	col := usersCollection()
	err := query.Validate(col, []*query.Query{
		{Method: query.Equal, Attribute: "posts", Values: []any{"p1"}},
	}, query.Options{})
	assert.Error(t, err)
}

func TestValidateBetweenRequiresTwoValues(t *testing.T) {
	col := usersCollection()
	err := query.Validate(col, []*query.Query{
		{Method: query.Between, Attribute: "name", Values: []any{"a"}},
	}, query.Options{})
	assert.Error(t, err)
}

func TestValidateSearchRequiresFulltextIndex(t *testing.T) {
	col := usersCollection()
	err := query.Validate(col, []*query.Query{
		{Method: query.Search, Attribute: "name", Values: []any{"ada"}},
	}, query.Options{RequireFulltextIndexForSearch: true})
	assert.Error(t, err)

	col.Indexes = append(col.Indexes, types.Index{ID: "idx1", Type: consts.IndexFulltext, Attributes: []string{"name"}})
	err = query.Validate(col, []*query.Query{
		{Method: query.Search, Attribute: "name", Values: []any{"ada"}},
	}, query.Options{RequireFulltextIndexForSearch: true})
	assert.NoError(t, err)
}

func TestRelationshipContextDetectsCycle(t *testing.T) {
	rc := query.NewRelationshipContext()
	assert.False(t, rc.Enter("users"))
	child := rc.Child()
	assert.True(t, child.Enter("users"))
	assert.True(t, child.Skip)
}
