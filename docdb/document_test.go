package docdb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forbearing/docdb/authz"
	"github.com/forbearing/docdb/docdb"
	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/errs"
)

func TestCreateGetUpdateDeleteDocument(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)

	created, err := e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{
		"title": "Hello world", "views": int64(0), "published": false,
	}))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID())
	require.False(t, created.CreatedAt().IsZero())

	got, err := e.GetDocument(ctx, "articles", created.ID(), nil)
	require.NoError(t, err)
	require.Equal(t, "Hello world", got.Get("title"))

	// served from cache on the second call
	again, err := e.GetDocument(ctx, "articles", created.ID(), nil)
	require.NoError(t, err)
	require.Equal(t, got.Get("title"), again.Get("title"))

	updated, err := e.UpdateDocument(ctx, "articles", created.ID(), types.NewDoc(map[string]types.Value{
		"views": int64(5),
	}))
	require.NoError(t, err)
	require.Equal(t, "Hello world", updated.Get("title")) // untouched field survives the merge
	require.Equal(t, int64(5), updated.Get("views"))

	require.NoError(t, e.DeleteDocument(ctx, "articles", created.ID()))
	_, err = e.GetDocument(ctx, "articles", created.ID(), nil)
	require.Error(t, err)
}

func TestUpdateDocumentNotFound(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)

	_, err = e.UpdateDocument(ctx, "articles", "missing", types.NewDoc(map[string]types.Value{"views": int64(1)}))
	require.Error(t, err)
}

func TestFindFindOneCountSum(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)

	for i, title := range []string{"alpha", "beta", "gamma"} {
		_, err := e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{
			"title": title, "views": int64(i * 10), "published": i%2 == 0,
		}))
		require.NoError(t, err)
	}

	docs, err := e.Find(ctx, "articles", []*query.Query{
		{Method: query.Equal, Attribute: "published", Values: []any{true}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	one, err := e.FindOne(ctx, "articles", []*query.Query{
		{Method: query.Equal, Attribute: "title", Values: []any{"beta"}},
	})
	require.NoError(t, err)
	require.Equal(t, "beta", one.Get("title"))

	none, err := e.FindOne(ctx, "articles", []*query.Query{
		{Method: query.Equal, Attribute: "title", Values: []any{"nonexistent"}},
	})
	require.NoError(t, err)
	require.True(t, none.Empty())

	n, err := e.Count(ctx, "articles", nil)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	total, err := e.Sum(ctx, "articles", "views", nil)
	require.NoError(t, err)
	require.EqualValues(t, 30, total)
}

func TestCountSumAuthorizationScoping(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))

	col := articlesCollection()
	col.DocumentSecurity = true
	col.Permissions = []string{`create("any")`, `read("user:admin")`}
	_, err := e.CreateCollection(ctx, col)
	require.NoError(t, err)

	// one document readable by anyone, one only through the collection grant
	_, err = e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{
		"title": "open", "views": int64(3),
		"$permissions": types.List{`read("any")`},
	}))
	require.NoError(t, err)
	_, err = e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{
		"title": "locked", "views": int64(4),
	}))
	require.NoError(t, err)

	authz.Enable(ctx)
	authz.SetRole(ctx, "user:bob")

	// no collection-level read: only individually-readable rows aggregate
	n, err := e.Count(ctx, "articles", nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	total, err := e.Sum(ctx, "articles", "views", nil)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)

	// the collection grant covers every row, so the SQL aggregate runs raw
	authz.SetRole(ctx, "user:admin")
	n, err = e.Count(ctx, "articles", nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	total, err = e.Sum(ctx, "articles", "views", nil)
	require.NoError(t, err)
	require.EqualValues(t, 7, total)
}

func TestCountDeniedWithoutDocumentSecurity(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))

	col := articlesCollection()
	col.Permissions = []string{`create("any")`, `read("user:admin")`}
	_, err := e.CreateCollection(ctx, col)
	require.NoError(t, err)

	authz.Enable(ctx)
	authz.SetRole(ctx, "user:bob")
	_, err = e.Count(ctx, "articles", nil)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindAuthorization))
	_, err = e.Sum(ctx, "articles", "views", nil)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindAuthorization))
}

func TestSumRejectsNonNumericAttribute(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)

	_, err = e.Sum(ctx, "articles", "title", nil)
	require.Error(t, err)
}

func TestFindRejectsOversizedQuery(t *testing.T) {
	e, _, ctx := newTestEngine(t, docdb.WithMaxQueryValues(2))
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)

	_, err = e.Find(ctx, "articles", []*query.Query{
		{Method: query.Equal, Attribute: "title", Values: []any{"a", "b", "c"}},
	})
	require.Error(t, err)
}

func TestIncreaseDecreaseAttribute(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	_, err := e.CreateCollection(ctx, articlesCollection())
	require.NoError(t, err)

	created, err := e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{
		"title": "counter", "views": int64(0),
	}))
	require.NoError(t, err)

	require.NoError(t, e.Increase(ctx, "articles", created.ID(), "views", 5, nil))
	got, err := e.GetDocument(ctx, "articles", created.ID(), nil)
	require.NoError(t, err)
	require.EqualValues(t, 5, got.Get("views"))

	// an increase that would exceed max matches zero rows: views stays 5
	max := 6.0
	require.NoError(t, e.Increase(ctx, "articles", created.ID(), "views", 5, &max))
	got, err = e.GetDocument(ctx, "articles", created.ID(), nil)
	require.NoError(t, err)
	require.EqualValues(t, 5, got.Get("views"))

	require.NoError(t, e.Increase(ctx, "articles", created.ID(), "views", 1, &max))
	got, err = e.GetDocument(ctx, "articles", created.ID(), nil)
	require.NoError(t, err)
	require.EqualValues(t, 6, got.Get("views"))

	require.NoError(t, e.Decrease(ctx, "articles", created.ID(), "views", 2, nil))
	got, err = e.GetDocument(ctx, "articles", created.ID(), nil)
	require.NoError(t, err)
	require.EqualValues(t, 4, got.Get("views"))

	// an under-bound decrease is likewise a no-op
	min := 0.0
	require.NoError(t, e.Decrease(ctx, "articles", created.ID(), "views", 10, &min))
	got, err = e.GetDocument(ctx, "articles", created.ID(), nil)
	require.NoError(t, err)
	require.EqualValues(t, 4, got.Get("views"))
}

func TestDocumentAuthorizationDenial(t *testing.T) {
	e, _, ctx := newTestEngine(t)
	require.NoError(t, e.Create(ctx))
	authz.Enable(ctx) // this test exercises real authorization, unlike the package default

	col := articlesCollection()
	col.Permissions = []string{`create("users")`}
	_, err := e.CreateCollection(ctx, col)
	require.NoError(t, err)

	_, err = e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{"title": "secret"}))
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindAuthorization))

	authz.SetRole(ctx, "users")
	created, err := e.CreateDocument(ctx, "articles", types.NewDoc(map[string]types.Value{"title": "public"}))
	require.NoError(t, err)
	require.Equal(t, "public", created.Get("title"))
}
