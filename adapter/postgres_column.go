package adapter

import (
	"context"
	"fmt"

	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
)

// attributeTypeOf maps a Postgres information_schema data_type back to an
// engine AttributeType, best-effort, for GetSchemaAttributes.
func attributeTypeOf(dataType string) consts.AttributeType {
	switch dataType {
	case "character varying", "text", "uuid":
		return consts.AttrString
	case "bigint", "integer", "smallint":
		return consts.AttrInteger
	case "double precision", "real", "numeric":
		return consts.AttrFloat
	case "boolean":
		return consts.AttrBoolean
	case "timestamp with time zone":
		return consts.AttrTimestamptz
	case "jsonb", "json":
		return consts.AttrJSON
	default:
		return consts.AttrString
	}
}

// CreateColumn adds a single physical column for attr. Virtual attributes
// and relationship attributes on a non-owning side have no column and this
// is a no-op (createRelationship and the engine's createAttribute flow
// already route those elsewhere).
func (p *Postgres) CreateColumn(ctx context.Context, meta Meta, collectionID string, attr *types.Attribute) error {
	if p.columnless(attr) {
		return nil
	}
	colType := ColumnType(attr.Type, attr.Size, attr.Array, p.caps)
	// A required attribute's NOT NULL constraint is deliberately not added
	// here: enforcing it against existing rows is the engine's job after
	// backfilling, the same two-phase approach the teacher uses for
	// resized columns.
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s",
		QualifiedTable(meta, collectionID), QuoteIdent(ColumnName(attr.Key)), colType)
	if _, err := p.client.Exec(ctx, stmt); err != nil {
		return errs.Database(err, "create column %q on %q", attr.Key, collectionID)
	}
	return nil
}

// AlterColumn resizes or retypes an existing column. It always issues
// ALTER COLUMN ... TYPE with a USING cast of the column to the new type;
// it does not check whether the change narrows the column, so narrowing a
// varchar casts (and so truncates) the existing values.
func (p *Postgres) AlterColumn(ctx context.Context, meta Meta, collectionID string, attr *types.Attribute) error {
	colType := ColumnType(attr.Type, attr.Size, attr.Array, p.caps)
	stmt := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s",
		QualifiedTable(meta, collectionID), QuoteIdent(ColumnName(attr.Key)), colType, QuoteIdent(ColumnName(attr.Key)), colType)
	if _, err := p.client.Exec(ctx, stmt); err != nil {
		return errs.Database(err, "alter column %q on %q", attr.Key, collectionID)
	}
	return nil
}

func (p *Postgres) DropColumn(ctx context.Context, meta Meta, collectionID string, attrKey string) error {
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s", QualifiedTable(meta, collectionID), QuoteIdent(ColumnName(attrKey)))
	if _, err := p.client.Exec(ctx, stmt); err != nil {
		return errs.Database(err, "drop column %q on %q", attrKey, collectionID)
	}
	return nil
}
