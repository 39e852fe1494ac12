package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/errs"
)

// CreateCollection issues the physical CREATE TABLE for col: the five
// fixed system columns, a `_tenant` column when meta.SharedTables is set,
// and one column per non-virtual, non-relationship-virtual attribute.
func (p *Postgres) CreateCollection(ctx context.Context, meta Meta, col *types.Collection) error {
	var cols []string
	cols = append(cols,
		fmt.Sprintf("%s bigserial PRIMARY KEY", QuoteIdent(ColID)),
		fmt.Sprintf("%s varchar(36) NOT NULL UNIQUE", QuoteIdent(ColUID)),
		fmt.Sprintf("%s timestamptz NOT NULL DEFAULT now()", QuoteIdent(ColCreatedAt)),
		fmt.Sprintf("%s timestamptz NOT NULL DEFAULT now()", QuoteIdent(ColUpdatedAt)),
		fmt.Sprintf("%s text[] NOT NULL DEFAULT '{}'", QuoteIdent(ColPermissions)),
	)
	if meta.SharedTables {
		cols = append(cols, fmt.Sprintf("%s bigint", QuoteIdent(ColTenant)))
	}
	for i := range col.Attributes {
		attr := &col.Attributes[i]
		if p.columnless(attr) {
			continue
		}
		cols = append(cols, fmt.Sprintf("%s %s", QuoteIdent(ColumnName(attr.Key)), ColumnType(attr.Type, attr.Size, attr.Array, p.caps)))
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", QualifiedTable(meta, col.ID), strings.Join(cols, ",\n\t"))
	if _, err := p.client.Exec(ctx, stmt); err != nil {
		p.log.Errorw("create collection failed", "collection", col.ID, "error", err)
		return errs.Database(err, "create collection %q", col.ID)
	}

	for i := range col.Indexes {
		if err := p.CreateIndex(ctx, meta, col.ID, &col.Indexes[i]); err != nil {
			return err
		}
	}
	return nil
}

// columnless reports whether attr's physical storage has no column of its
// own: Virtual attributes, and relationship attributes whose side doesn't
// own the foreign key.
func (p *Postgres) columnless(attr *types.Attribute) bool {
	if attr.Virtual() {
		return true
	}
	if attr.IsRelationship() {
		return attr.Options == nil || attr.Options.Virtual()
	}
	return false
}

func (p *Postgres) DeleteCollection(ctx context.Context, meta Meta, collectionID string) error {
	stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", QualifiedTable(meta, collectionID))
	if _, err := p.client.Exec(ctx, stmt); err != nil {
		p.log.Errorw("drop collection failed", "collection", collectionID, "error", err)
		return errs.Database(err, "drop collection %q", collectionID)
	}
	return nil
}

func (p *Postgres) AnalyzeCollection(ctx context.Context, meta Meta, collectionID string) error {
	stmt := fmt.Sprintf("ANALYZE %s", QualifiedTable(meta, collectionID))
	if _, err := p.client.Exec(ctx, stmt); err != nil {
		p.log.Errorw("analyze collection failed", "collection", collectionID, "error", err)
		return errs.Database(err, "analyze collection %q", collectionID)
	}
	return nil
}

// GetSizeOfCollection returns the table's total on-disk size in bytes,
// including indexes and toasted data (pg_total_relation_size).
func (p *Postgres) GetSizeOfCollection(ctx context.Context, meta Meta, collectionID string) (int64, error) {
	rows, err := p.client.Query(ctx, "SELECT pg_total_relation_size(?::regclass)", QualifiedTable(meta, collectionID))
	if err != nil {
		p.log.Errorw("size query failed", "collection", collectionID, "error", err)
		return 0, errs.Database(err, "size of collection %q", collectionID)
	}
	defer rows.Close()
	if !rows.Next() {
		return 0, errs.NotFound("collection %q not found", collectionID)
	}
	var size int64
	if err := rows.Scan(&size); err != nil {
		return 0, errs.Database(err, "scan size of collection %q", collectionID)
	}
	return size, rows.Err()
}

// GetSchemaAttributes introspects the physical table's user-defined
// columns (excluding the fixed system columns) and reports their
// best-effort Attribute shape. Type fidelity is lossy relative to the
// metadata-stored Attribute (e.g. relationship/virtual attributes have no
// physical trace), so this is a diagnostic aid, not authoritative schema
// source; _metadata remains the source of truth.
func (p *Postgres) GetSchemaAttributes(ctx context.Context, meta Meta, collectionID string) ([]types.Attribute, error) {
	rows, err := p.client.Query(ctx,
		`SELECT column_name, data_type, character_maximum_length
		 FROM information_schema.columns
		 WHERE table_schema = ? AND table_name = ?
		 ORDER BY ordinal_position`,
		meta.Schema, TableName(meta, collectionID))
	if err != nil {
		p.log.Errorw("introspection query failed", "collection", collectionID, "error", err)
		return nil, errs.Database(err, "introspect collection %q", collectionID)
	}
	defer rows.Close()

	systemCols := map[string]bool{ColID: true, ColUID: true, ColCreatedAt: true, ColUpdatedAt: true, ColPermissions: true, ColTenant: true}
	var attrs []types.Attribute
	for rows.Next() {
		var name, dataType string
		var maxLen *int
		if err := rows.Scan(&name, &dataType, &maxLen); err != nil {
			return nil, errs.Database(err, "scan introspected column")
		}
		if systemCols[name] {
			continue
		}
		attrs = append(attrs, types.Attribute{Key: name, Type: attributeTypeOf(dataType), Size: sizeOf(maxLen)})
	}
	return attrs, rows.Err()
}

func sizeOf(maxLen *int) int {
	if maxLen == nil {
		return 0
	}
	return *maxLen
}
