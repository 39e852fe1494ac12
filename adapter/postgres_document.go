package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/forbearing/docdb/sqlclient"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
	"github.com/lib/pq"
)

// physicalRow renders the full set of column/value pairs for doc against
// col's attribute list, in a stable order: system columns first, then
// declared attributes that own a column.
func (p *Postgres) physicalRow(meta Meta, col *types.Collection, doc *types.Doc) ([]string, []any, error) {
	cols := []string{ColUID, ColCreatedAt, ColUpdatedAt, ColPermissions}
	vals := []any{doc.ID(), doc.CreatedAt(), doc.UpdatedAt(), pq.Array(emptyIfNil(doc.Permissions()))}

	if meta.SharedTables {
		cols = append(cols, ColTenant)
		vals = append(vals, doc.Tenant())
	}

	for i := range col.Attributes {
		attr := &col.Attributes[i]
		if p.columnless(attr) {
			continue
		}
		v, err := toDBValue(attr, doc.Get(attr.Key), p.caps)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, ColumnName(attr.Key))
		vals = append(vals, v)
	}
	return cols, vals, nil
}

// CreateDocument inserts a single row for doc.
func (p *Postgres) CreateDocument(ctx context.Context, meta Meta, col *types.Collection, doc *types.Doc) error {
	cols, vals, err := p.physicalRow(meta, col, doc)
	if err != nil {
		return err
	}
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = QuoteIdent(c)
		placeholders[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QualifiedTable(meta, col.ID), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	if _, err := p.client.Exec(ctx, stmt, vals...); err != nil {
		return errs.Database(err, "create document in %q", col.ID)
	}
	return nil
}

// CreateDocuments inserts each doc in docs. The adapter issues one
// statement per document; batching multiple documents into a single
// transaction (so a failure partway rolls every one back) is the
// transaction coordinator's job, not the adapter's.
func (p *Postgres) CreateDocuments(ctx context.Context, meta Meta, col *types.Collection, docs []*types.Doc) error {
	for _, doc := range docs {
		if err := p.CreateDocument(ctx, meta, col, doc); err != nil {
			return err
		}
	}
	return nil
}

// UpdateDocument rewrites every physical column for doc's id. The engine
// is responsible for having already merged the patch into doc and bumped
// $updatedAt (or preserved it, in preserveDates mode) before calling this.
func (p *Postgres) UpdateDocument(ctx context.Context, meta Meta, col *types.Collection, doc *types.Doc) error {
	cols, vals, err := p.physicalRow(meta, col, doc)
	if err != nil {
		return err
	}
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = ?", QuoteIdent(c))
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		QualifiedTable(meta, col.ID), strings.Join(sets, ", "), QuoteIdent(ColUID))
	vals = append(vals, doc.ID())
	if _, err := p.client.Exec(ctx, stmt, vals...); err != nil {
		return errs.Database(err, "update document %q in %q", doc.ID(), col.ID)
	}
	return nil
}

func (p *Postgres) DeleteDocument(ctx context.Context, meta Meta, col *types.Collection, documentID string) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", QualifiedTable(meta, col.ID), QuoteIdent(ColUID))
	if _, err := p.client.Exec(ctx, stmt, documentID); err != nil {
		return errs.Database(err, "delete document %q in %q", documentID, col.ID)
	}
	return nil
}

// selectColumns renders the physical column list for a select projection:
// selections (logical names) if given, else every system column plus every
// attribute that owns a column.
func (p *Postgres) selectColumns(col *types.Collection, selections []string) []string {
	if len(selections) == 0 {
		cols := []string{ColUID, ColID, ColCreatedAt, ColUpdatedAt, ColPermissions, ColTenant}
		for i := range col.Attributes {
			attr := &col.Attributes[i]
			if p.columnless(attr) {
				continue
			}
			cols = append(cols, ColumnName(attr.Key))
		}
		return cols
	}
	cols := []string{ColUID}
	seen := map[string]bool{ColUID: true}
	for _, s := range selections {
		c := ColumnName(s)
		if !seen[c] {
			cols = append(cols, c)
			seen[c] = true
		}
	}
	return cols
}

// logicalKeyOf reverses ColumnName: given col's schema and a physical
// column name, it returns the logical Doc field name that column backs.
func logicalKeyOf(col *types.Collection, physical string) string {
	switch physical {
	case ColUID:
		return consts.FieldID
	case ColID:
		return consts.FieldSequence
	case ColCreatedAt:
		return consts.FieldCreatedAt
	case ColUpdatedAt:
		return consts.FieldUpdatedAt
	case ColPermissions:
		return consts.FieldPermissions
	case ColTenant:
		return consts.FieldTenant
	}
	for i := range col.Attributes {
		attr := &col.Attributes[i]
		if ColumnName(attr.Key) == physical {
			return attr.Key
		}
	}
	return physical
}

// rowToFields converts one scanned row (physical column -> raw driver
// value) into the logical field map types.From expects.
func (p *Postgres) rowToFields(col *types.Collection, row map[string]any) (map[string]types.Value, error) {
	out := make(map[string]types.Value, len(row))
	for physical, raw := range row {
		key := logicalKeyOf(col, physical)
		attr := col.Attribute(key)
		if attr == nil {
			out[key] = raw
			continue
		}
		v, err := fromDBValue(attr, raw)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	out[consts.FieldCollection] = col.ID
	return out, nil
}

// GetDocument fetches a single row by its $id (_uid). It returns nil, nil
// when no row matches. The lookup has no tenant filter; authorization
// happens above the adapter, in the engine facade.
func (p *Postgres) GetDocument(ctx context.Context, meta Meta, col *types.Collection, documentID string, selections []string) (map[string]any, error) {
	cols := p.selectColumns(col, selections)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = QuoteIdent(c)
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(quoted, ", "), QualifiedTable(meta, col.ID), QuoteIdent(ColUID))
	rows, err := p.client.Query(ctx, stmt, documentID)
	if err != nil {
		return nil, errs.Database(err, "get document %q from %q", documentID, col.ID)
	}
	scanned, err := sqlclient.Scan(rows)
	if err != nil {
		return nil, errs.Database(err, "scan document %q from %q", documentID, col.ID)
	}
	if len(scanned) == 0 {
		return nil, nil
	}
	return p.rowToFields(col, scanned[0])
}

func emptyIfNil(perms []string) []string {
	if perms == nil {
		return []string{}
	}
	return perms
}
