package docdb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
)

func TestCreateUpdateDeleteAttribute(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)

	attr, err := e.CreateAttribute(ctx, "articles", &types.Attribute{Key: "summary", Type: consts.AttrString, Size: 512})
	require.NoError(t, err)
	require.NotEmpty(t, attr.ID)

	col, err := e.GetCollection(ctx, "articles")
	require.NoError(t, err)
	require.NotNil(t, col.Attribute("summary"))

	_, err = e.UpdateAttribute(ctx, "articles", &types.Attribute{Key: "summary", Type: consts.AttrString, Size: 1024})
	require.NoError(t, err)
	col, err = e.GetCollection(ctx, "articles")
	require.NoError(t, err)
	require.Equal(t, 1024, col.Attribute("summary").Size)

	require.NoError(t, e.DeleteAttribute(ctx, "articles", "summary"))
	col, err = e.GetCollection(ctx, "articles")
	require.NoError(t, err)
	require.Nil(t, col.Attribute("summary"))
}

func TestCreateAttributeRejectsDuplicateKey(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)

	_, err = e.CreateAttribute(ctx, "articles", &types.Attribute{Key: "title", Type: consts.AttrString, Size: 64})
	require.Error(t, err)
}

func TestDeleteAttributeRefusedWhenIndexed(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)
	_, err = e.CreateIndex(ctx, "articles", &types.Index{ID: "by_title", Type: consts.IndexKey, Attributes: []string{"title"}})
	require.NoError(t, err)

	err = e.DeleteAttribute(ctx, "articles", "title")
	require.Error(t, err)
}

func TestCreateAttributesCompensatesOnFailure(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)

	_, err = e.CreateAttributes(ctx, "articles", []*types.Attribute{
		{Key: "subtitle", Type: consts.AttrString, Size: 128},
		{Key: "title", Type: consts.AttrString, Size: 64}, // conflicts, already exists
	})
	require.Error(t, err)

	col, err := e.GetCollection(ctx, "articles")
	require.NoError(t, err)
	require.Nil(t, col.Attribute("subtitle"))
}
