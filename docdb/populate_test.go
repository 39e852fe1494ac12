package docdb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
)

func TestPopulateNestedRelationship(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, authorsCollection())
	require.NoError(t, err)
	_, err = e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)
	_, _, err = e.CreateRelationship(ctx, "authors", "articles", consts.RelationOneToMany, "articles", true, "authorId", consts.OnDeleteSetNull)
	require.NoError(t, err)

	author, err := e.CreateDocument(ctx, "authors", types.NewDoc(map[string]types.Value{"name": "Ada"}))
	require.NoError(t, err)
	_, err = e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{"title": "A", "authorId": author.ID()}))
	require.NoError(t, err)

	got, err := e.FindOne(ctx, "articles", []*query.Query{{Method: query.Equal, Attribute: "title", Values: []any{"A"}}})
	require.NoError(t, err)

	require.NoError(t, e.Populate(ctx, "articles", got, map[string][]*query.Query{
		"authorId": {},
	}))
	authorVal, ok := got.Get("authorId").(*types.Doc)
	require.True(t, ok)
	require.Equal(t, "Ada", authorVal.Get("name"))
}

func TestPopulateCycleProtection(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, authorsCollection())
	require.NoError(t, err)
	_, err = e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)
	_, _, err = e.CreateRelationship(ctx, "authors", "articles", consts.RelationOneToMany, "articles", true, "authorId", consts.OnDeleteSetNull)
	require.NoError(t, err)

	author, err := e.CreateDocument(ctx, "authors", types.NewDoc(map[string]types.Value{"name": "Ada"}))
	require.NoError(t, err)
	_, err = e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{"title": "A", "authorId": author.ID()}))
	require.NoError(t, err)

	authorDoc, err := e.GetDocument(ctx, "authors", author.ID(), nil)
	require.NoError(t, err)

	// populate authors.articles, and for each article try to populate its
	// authorId straight back to authors: the relationship context's cycle
	// guard must skip that inner hop rather than recurse forever.
	err = e.Populate(ctx, "authors", authorDoc, map[string][]*query.Query{
		"articles": {{Method: query.Populate, Attribute: "authorId"}},
	})
	require.NoError(t, err)

	related, ok := authorDoc.Get("articles").(types.List)
	require.True(t, ok)
	require.Len(t, related, 1)
	article := related[0].(*types.Doc)
	// the cycle guard skipped the nested hop, so authorId stays a raw id.
	_, isDoc := article.Get("authorId").(*types.Doc)
	require.False(t, isDoc)
	require.Equal(t, author.ID(), article.Get("authorId"))
}
