package docdb_test

import (
	"github.com/forbearing/docdb/adapter"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
)

// testMeta returns a Meta scoped to a unique schema per test name so
// parallel fakeAdapter-backed engines never see each other's data.
func testMeta(schema string) adapter.Meta {
	return adapter.Meta{Database: "test", Schema: schema, Namespace: "default"}
}

func articlesCollection() *types.Collection {
	return &types.Collection{
		ID:      "articles",
		Name:    "Articles",
		Enabled: true,
		Attributes: []types.Attribute{
			{Key: "title", Type: consts.AttrString, Size: 256, Required: true},
			{Key: "views", Type: consts.AttrInteger, Size: 8},
			{Key: "tags", Type: consts.AttrString, Array: true},
			{Key: "published", Type: consts.AttrBoolean},
		},
	}
}

func authorsCollection() *types.Collection {
	return &types.Collection{
		ID:      "authors",
		Name:    "Authors",
		Enabled: true,
		Attributes: []types.Attribute{
			{Key: "name", Type: consts.AttrString, Size: 256, Required: true},
		},
	}
}
