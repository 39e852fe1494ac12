package docdb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
)

func categoriesCollection() *types.Collection {
	return &types.Collection{
		ID:      "categories",
		Name:    "Categories",
		Enabled: true,
		Attributes: []types.Attribute{
			{Key: "name", Type: consts.AttrString, Size: 128, Required: true},
		},
	}
}

func TestOneToManyRelationshipWriteAndPopulate(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, authorsCollection())
	require.NoError(t, err)
	_, err = e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)

	// authors(parent) --articles(virtual array)--> articles(child, owns authorId fk
	child, parent, err := e.CreateRelationship(ctx, "authors", "articles", consts.RelationOneToMany, "articles", true, "authorId", consts.OnDeleteSetNull)
	require.NoError(t, err)
	require.Equal(t, "authorId", child.Key)
	require.Equal(t, "articles", parent.Key)

	author, err := e.CreateDocument(ctx, "authors", types.NewDoc(map[string]types.Value{"name": "Ada"}))
	require.NoError(t, err)

	articleA, err := e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{"title": "A", "authorId": author.ID()}))
	require.NoError(t, err)
	articleB, err := e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{"title": "B"}))
	require.NoError(t, err)

	// connect B to the author through the parent's virtual side.
	_, err = e.UpdateDocument(ctx, "authors", author.ID(), types.NewDoc(map[string]types.Value{
		"articles": types.NewDoc(map[string]types.Value{"connect": types.List{articleB.ID()}}),
	}))
	require.NoError(t, err)

	gotB, err := e.GetDocument(ctx, "articles", articleB.ID(), nil)
	require.NoError(t, err)
	require.Equal(t, author.ID(), gotB.Get("authorId"))

	authorDoc, err := e.GetDocument(ctx, "authors", author.ID(), nil)
	require.NoError(t, err)
	require.NoError(t, e.Populate(ctx, "authors", authorDoc, map[string][]*query.Query{"articles": nil}))
	related, ok := authorDoc.Get("articles").(types.List)
	require.True(t, ok)
	require.Len(t, related, 2)

	var titles []string
	for _, r := range related {
		d, ok := r.(*types.Doc)
		require.True(t, ok)
		titles = append(titles, d.Get("title").(string))
	}
	require.ElementsMatch(t, []string{"A", "B"}, titles)

	// set replaces membership entirely.
	_, err = e.UpdateDocument(ctx, "authors", author.ID(), types.NewDoc(map[string]types.Value{
		"articles": types.NewDoc(map[string]types.Value{"set": types.List{articleA.ID()}}),
	}))
	require.NoError(t, err)
	gotB, err = e.GetDocument(ctx, "articles", articleB.ID(), nil)
	require.NoError(t, err)
	require.Nil(t, gotB.Get("authorId"))
}

func TestManyToManyRelationshipWriteAndPopulate(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)
	_, err = e.CreateCollection(ctx, categoriesCollection())
	require.NoError(t, err)

	_, _, err = e.CreateRelationship(ctx, "articles", "categories", consts.RelationManyToMany, "categories", true, "articles", consts.OnDeleteCascade)
	require.NoError(t, err)

	article, err := e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{"title": "A"}))
	require.NoError(t, err)
	catA, err := e.CreateDocument(ctx, "categories", types.NewDoc(map[string]types.Value{"name": "tech"}))
	require.NoError(t, err)
	catB, err := e.CreateDocument(ctx, "categories", types.NewDoc(map[string]types.Value{"name": "science"}))
	require.NoError(t, err)

	_, err = e.UpdateDocument(ctx, "articles", article.ID(), types.NewDoc(map[string]types.Value{
		"categories": types.NewDoc(map[string]types.Value{"set": types.List{catA.ID(), catB.ID()}}),
	}))
	require.NoError(t, err)

	articleDoc, err := e.GetDocument(ctx, "articles", article.ID(), nil)
	require.NoError(t, err)
	require.NoError(t, e.Populate(ctx, "articles", articleDoc, map[string][]*query.Query{"categories": nil}))
	related, ok := articleDoc.Get("categories").(types.List)
	require.True(t, ok)
	require.Len(t, related, 2)

	// disconnect drops a single member without touching the rest.
	_, err = e.UpdateDocument(ctx, "articles", article.ID(), types.NewDoc(map[string]types.Value{
		"categories": types.NewDoc(map[string]types.Value{"disconnect": types.List{catA.ID()}}),
	}))
	require.NoError(t, err)
	articleDoc, err = e.GetDocument(ctx, "articles", article.ID(), nil)
	require.NoError(t, err)
	require.NoError(t, e.Populate(ctx, "articles", articleDoc, map[string][]*query.Query{"categories": nil}))
	related, ok = articleDoc.Get("categories").(types.List)
	require.True(t, ok)
	require.Len(t, related, 1)
	remaining := related[0].(*types.Doc)
	require.Equal(t, "science", remaining.Get("name"))
}

func TestOneToOneTwoWayRelationshipSyncsInverse(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)
	_, err = e.CreateCollection(ctx, &types.Collection{
		ID: "profiles", Name: "Profiles", Enabled: true,
		Attributes: []types.Attribute{{Key: "bio", Type: consts.AttrString, Size: 1024}},
	})
	require.NoError(t, err)

	_, _, err = e.CreateRelationship(ctx, "articles", "profiles", consts.RelationOneToOne, "profile", true, "article", consts.OnDeleteSetNull)
	require.NoError(t, err)

	profile, err := e.CreateDocument(ctx, "profiles", types.NewDoc(map[string]types.Value{"bio": "hello"}))
	require.NoError(t, err)
	article, err := e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{
		"title": "A", "profile": profile.ID(),
	}))
	require.NoError(t, err)

	gotProfile, err := e.GetDocument(ctx, "profiles", profile.ID(), nil)
	require.NoError(t, err)
	require.Equal(t, article.ID(), gotProfile.Get("article"))
}

func TestDeleteDocumentCascadesOneToMany(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, authorsCollection())
	require.NoError(t, err)
	_, err = e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)

	_, _, err = e.CreateRelationship(ctx, "authors", "articles", consts.RelationOneToMany, "articles", false, "authorId", consts.OnDeleteCascade)
	require.NoError(t, err)

	author, err := e.CreateDocument(ctx, "authors", types.NewDoc(map[string]types.Value{"name": "Ada"}))
	require.NoError(t, err)
	post, err := e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{"title": "A", "authorId": author.ID()}))
	require.NoError(t, err)

	require.NoError(t, e.DeleteDocument(ctx, "authors", author.ID()))

	_, err = e.GetDocument(ctx, "articles", post.ID(), nil)
	require.Error(t, err)
}

func TestDeleteDocumentRestrictsOneToMany(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, authorsCollection())
	require.NoError(t, err)
	_, err = e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)

	_, _, err = e.CreateRelationship(ctx, "authors", "articles", consts.RelationOneToMany, "articles", false, "authorId", consts.OnDeleteRestrict)
	require.NoError(t, err)

	author, err := e.CreateDocument(ctx, "authors", types.NewDoc(map[string]types.Value{"name": "Ada"}))
	require.NoError(t, err)
	_, err = e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{"title": "A", "authorId": author.ID()}))
	require.NoError(t, err)

	err = e.DeleteDocument(ctx, "authors", author.ID())
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindDependency))

	// the author is still there since the restrict blocked the delete.
	_, err = e.GetDocument(ctx, "authors", author.ID(), nil)
	require.NoError(t, err)
}

func TestDeleteDocumentSetsNullOneToOneInverse(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)
	_, err = e.CreateCollection(ctx, &types.Collection{
		ID: "profiles", Name: "Profiles", Enabled: true,
		Attributes: []types.Attribute{{Key: "bio", Type: consts.AttrString, Size: 1024}},
	})
	require.NoError(t, err)

	_, _, err = e.CreateRelationship(ctx, "articles", "profiles", consts.RelationOneToOne, "profile", true, "article", consts.OnDeleteSetNull)
	require.NoError(t, err)

	profile, err := e.CreateDocument(ctx, "profiles", types.NewDoc(map[string]types.Value{"bio": "hello"}))
	require.NoError(t, err)
	article, err := e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{
		"title": "A", "profile": profile.ID(),
	}))
	require.NoError(t, err)

	require.NoError(t, e.DeleteDocument(ctx, "articles", article.ID()))

	gotProfile, err := e.GetDocument(ctx, "profiles", profile.ID(), nil)
	require.NoError(t, err)
	require.Nil(t, gotProfile.Get("article"))
}
