package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
)

// indexName renders a deterministic, collection-scoped physical index
// name so two collections never collide in the same schema.
func indexName(collectionID string, idx *types.Index) string {
	return fmt.Sprintf("idx_%s_%s", collectionID, idx.ID)
}

// CreateIndex issues CREATE INDEX/CREATE UNIQUE INDEX for idx. A fulltext
// index is built as a GIN index over to_tsvector of the covered columns
// (every covered attribute is guaranteed string-typed by
// validators.ValidateIndex before this is ever called).
func (p *Postgres) CreateIndex(ctx context.Context, meta Meta, collectionID string, idx *types.Index) error {
	name := indexName(collectionID, idx)
	table := QualifiedTable(meta, collectionID)

	switch idx.Type {
	case consts.IndexFulltext:
		exprs := make([]string, len(idx.Attributes))
		for i, a := range idx.Attributes {
			exprs[i] = fmt.Sprintf("coalesce(%s, '')", QuoteIdent(ColumnName(a)))
		}
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING gin (to_tsvector('simple', %s))",
			QuoteIdent(name), table, strings.Join(exprs, " || ' ' || "))
		if _, err := p.client.Exec(ctx, stmt); err != nil {
			return errs.Database(err, "create fulltext index %q", idx.ID)
		}
		return nil
	case consts.IndexSpatial:
		if !p.caps.SupportsSpatial {
			return errs.Validation("index %q: spatial indexes are not supported by this adapter", idx.ID)
		}
	}

	unique := ""
	if idx.Type == consts.IndexUnique {
		unique = "UNIQUE "
	}
	cols := make([]string, len(idx.Attributes))
	for i, a := range idx.Attributes {
		col := QuoteIdent(ColumnName(a))
		if i < len(idx.Orders) && idx.Orders[i] == consts.OrderDesc {
			col += " DESC"
		}
		cols[i] = col
	}
	stmt := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)", unique, QuoteIdent(name), table, strings.Join(cols, ", "))
	if _, err := p.client.Exec(ctx, stmt); err != nil {
		return errs.Database(err, "create index %q", idx.ID)
	}
	return nil
}

// RenameIndex renames the physical index backing oldID to the name
// implied by newID.
func (p *Postgres) RenameIndex(ctx context.Context, meta Meta, collectionID string, oldID, newID string) error {
	oldName := fmt.Sprintf("idx_%s_%s", collectionID, oldID)
	newName := fmt.Sprintf("idx_%s_%s", collectionID, newID)
	stmt := fmt.Sprintf("ALTER INDEX %s.%s RENAME TO %s", QuoteIdent(meta.Schema), QuoteIdent(oldName), QuoteIdent(newName))
	if _, err := p.client.Exec(ctx, stmt); err != nil {
		return errs.Database(err, "rename index %q to %q", oldID, newID)
	}
	return nil
}

func (p *Postgres) DropIndex(ctx context.Context, meta Meta, collectionID string, indexID string) error {
	name := fmt.Sprintf("idx_%s_%s", collectionID, indexID)
	stmt := fmt.Sprintf("DROP INDEX IF EXISTS %s.%s", QuoteIdent(meta.Schema), QuoteIdent(name))
	if _, err := p.client.Exec(ctx, stmt); err != nil {
		return errs.Database(err, "drop index %q", indexID)
	}
	return nil
}
