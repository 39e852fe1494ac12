// Package adapter turns engine-level schema and document operations into
// dialect SQL. The reference implementation (Postgres) is grounded on the
// teacher's database/postgres package and database/database.go's DDL/CRUD
// generation style; column and table naming follows
// github.com/stoewer/go-strcase the same way the teacher names its own
// tables, and array columns are wrapped with github.com/lib/pq.Array.
package adapter

import (
	"context"
	"database/sql"

	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
)

// SQLClient is the slice of sqlclient.Client the adapter depends on. It is
// expressed as an interface (rather than importing the concrete type) so
// adapter tests can run against a hand-written fake without a live
// PostgreSQL connection, the same split the teacher keeps between its
// benchmark and unit test suites.
type SQLClient interface {
	Query(ctx context.Context, text string, params ...any) (*sql.Rows, error)
	Exec(ctx context.Context, text string, params ...any) (int64, error)
	Quote(literal string) string
}

// Capabilities is the union of every capability flag referenced anywhere
// in the component design (§9 Open Question 1): a flag an adapter doesn't
// support is simply left at its zero value, false.
type Capabilities struct {
	SupportsFulltext     bool
	SupportsSpatial      bool
	SupportsArrayColumns bool
	SupportsArrayIndex   bool
	SupportsCastOnRead   bool
	SupportsBatchDDL     bool
	SupportForRelationships bool

	MaxVarcharLength  int
	MaxIndexLength    int
	DocumentSizeLimit int64
}

// Meta identifies the physical namespace operations target: namespace +
// schema + tenant form the key space (§4.2 Schema identity). When
// SharedTables is true the adapter adds a `_tenant` column to every
// physical table, and Find adds an implicit `_tenant = ?` filter when
// TenantID is set. The other row-level statements (by-id reads, updates
// and deletes, Count, Sum, and the increase/decrease statements) carry no
// tenant filter.
type Meta struct {
	Database          string
	Schema            string
	Namespace         string
	SharedTables      bool
	TenantPerDocument bool
	TenantID          *int64
}

// Adapter is the dialect-specific schema DDL and row-level CRUD surface
// the engine facade drives (§4.2).
type Adapter interface {
	Capabilities() Capabilities

	CreateDatabase(ctx context.Context, meta Meta) error
	DatabaseExists(ctx context.Context, meta Meta) (bool, error)
	DeleteDatabase(ctx context.Context, meta Meta) error

	CreateCollection(ctx context.Context, meta Meta, col *types.Collection) error
	DeleteCollection(ctx context.Context, meta Meta, collectionID string) error
	AnalyzeCollection(ctx context.Context, meta Meta, collectionID string) error
	GetSizeOfCollection(ctx context.Context, meta Meta, collectionID string) (int64, error)
	GetSchemaAttributes(ctx context.Context, meta Meta, collectionID string) ([]types.Attribute, error)

	CreateColumn(ctx context.Context, meta Meta, collectionID string, attr *types.Attribute) error
	AlterColumn(ctx context.Context, meta Meta, collectionID string, attr *types.Attribute) error
	DropColumn(ctx context.Context, meta Meta, collectionID string, attrKey string) error

	CreateIndex(ctx context.Context, meta Meta, collectionID string, idx *types.Index) error
	RenameIndex(ctx context.Context, meta Meta, collectionID string, oldID, newID string) error
	DropIndex(ctx context.Context, meta Meta, collectionID string, indexID string) error

	CreateDocument(ctx context.Context, meta Meta, col *types.Collection, doc *types.Doc) error
	CreateDocuments(ctx context.Context, meta Meta, col *types.Collection, docs []*types.Doc) error
	UpdateDocument(ctx context.Context, meta Meta, col *types.Collection, doc *types.Doc) error
	DeleteDocument(ctx context.Context, meta Meta, col *types.Collection, documentID string) error

	GetDocument(ctx context.Context, meta Meta, col *types.Collection, documentID string, selections []string) (map[string]any, error)
	Find(ctx context.Context, meta Meta, col *types.Collection, group *query.Group, maxLimit int) ([]map[string]any, error)
	Count(ctx context.Context, meta Meta, col *types.Collection, filters []*query.Query) (int64, error)
	Sum(ctx context.Context, meta Meta, col *types.Collection, attribute string, filters []*query.Query) (float64, error)

	IncreaseAttribute(ctx context.Context, meta Meta, col *types.Collection, documentID, attribute string, by float64, max *float64) error
	DecreaseAttribute(ctx context.Context, meta Meta, col *types.Collection, documentID, attribute string, by float64, min *float64) error
}
