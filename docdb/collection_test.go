package docdb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forbearing/docdb/types"
)

func TestCreateGetListDeleteCollection(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))

	col, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)
	require.Equal(t, "articles", col.ID)

	got, err := e.GetCollection(ctx, "articles")
	require.NoError(t, err)
	require.Equal(t, "Articles", got.Name)
	require.Len(t, got.Attributes, 4)

	// GetCollection must be served identically from cache on a second call.
	again, err := e.GetCollection(ctx, "articles")
	require.NoError(t, err)
	require.Equal(t, got.Name, again.Name)

	all, err := e.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, e.DeleteCollection(ctx, "articles"))
	_, err = e.GetCollection(ctx, "articles")
	require.Error(t, err)
}

func TestCreateCollectionRejectsInvalidKey(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))

	col := articlesCollection()
	col.ID = "$reserved"
	_, err := e.CreateCollection(ctx, col)
	require.Error(t, err)
}

func TestDeleteMetadataCollectionRefused(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	require.Error(t, e.DeleteCollection(ctx, "_metadata"))
}

func TestUpdateCollectionPreservesAttributesWhenOmitted(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)

	updated, err := e.UpdateCollection(ctx, &types.Collection{ID: "articles", Name: "Articles V2", Enabled: true})
	require.NoError(t, err)
	require.Len(t, updated.Attributes, 4)

	got, err := e.GetCollection(ctx, "articles")
	require.NoError(t, err)
	require.Equal(t, "Articles V2", got.Name)
}
