package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/sqlclient"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/errs"
)

// orderClause renders group's ORDER BY, defaulting to $sequence ascending
// when the caller supplied none (§4.5 Ordering & tie-breaks).
func orderClause(group *query.Group) string {
	if len(group.OrderKeys) == 0 {
		return QuoteIdent(ColID) + " ASC"
	}
	parts := make([]string, len(group.OrderKeys))
	for i, attr := range group.OrderKeys {
		dir := "ASC"
		if group.Orders[attr] == query.OrderDesc {
			dir = "DESC"
		}
		parts[i] = fmt.Sprintf("%s %s", QuoteIdent(ColumnName(attr)), dir)
	}
	return strings.Join(parts, ", ")
}

// cursorClause renders the keyset-pagination boundary for group.Cursor, if
// any: cursorAfter yields a row strictly past the cursor document's
// $sequence, cursorBefore strictly before it. Ordering by a different
// attribute still uses $sequence as the single boundary key, the common
// keyset-pagination simplification when tie-breaking isn't composite.
func (p *Postgres) cursorClause(meta Meta, col *types.Collection, group *query.Group) (string, []any, error) {
	if group.Cursor == nil {
		return "", nil, nil
	}
	id, err := query.CursorID(group.Cursor.Values[0])
	if err != nil {
		return "", nil, err
	}
	op := ">"
	if group.CursorDirection == query.CursorBefore {
		op = "<"
	}
	sub := fmt.Sprintf("(SELECT %s FROM %s WHERE %s = ?)", QuoteIdent(ColID), QualifiedTable(meta, col.ID), QuoteIdent(ColUID))
	return fmt.Sprintf("%s %s %s", QuoteIdent(ColID), op, sub), []any{id}, nil
}

// whereClause combines group's filters and cursor boundary into a single
// WHERE fragment (without the leading "WHERE"), plus a tenant scope when
// meta carries one.
func (p *Postgres) whereClause(meta Meta, col *types.Collection, group *query.Group) (string, []any, error) {
	var clauses []string
	var params []any

	if frag, p2, err := compileFilters(col, group.Filters); err != nil {
		return "", nil, err
	} else if frag != "" {
		clauses = append(clauses, frag)
		params = append(params, p2...)
	}

	if frag, p2, err := p.cursorClause(meta, col, group); err != nil {
		return "", nil, err
	} else if frag != "" {
		clauses = append(clauses, frag)
		params = append(params, p2...)
	}

	if meta.SharedTables && meta.TenantID != nil {
		clauses = append(clauses, fmt.Sprintf("%s = ?", QuoteIdent(ColTenant)))
		params = append(params, *meta.TenantID)
	}

	return strings.Join(clauses, " AND "), params, nil
}

// Find executes group against col, returning each matching row as a
// logical field map ready for types.From. maxLimit caps an unbounded or
// over-large requested limit (§4.5).
func (p *Postgres) Find(ctx context.Context, meta Meta, col *types.Collection, group *query.Group, maxLimit int) ([]map[string]any, error) {
	where, params, err := p.whereClause(meta, col, group)
	if err != nil {
		return nil, err
	}

	cols := p.selectColumns(col, group.Selections)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = QuoteIdent(c)
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), QualifiedTable(meta, col.ID))
	if where != "" {
		stmt += " WHERE " + where
	}
	stmt += " ORDER BY " + orderClause(group)

	limit := maxLimit
	if group.Limit != nil && (maxLimit <= 0 || *group.Limit < maxLimit) {
		limit = *group.Limit
	}
	if limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", limit)
	}
	if group.Offset != nil && *group.Offset > 0 {
		stmt += fmt.Sprintf(" OFFSET %d", *group.Offset)
	}

	rows, err := p.client.Query(ctx, stmt, params...)
	if err != nil {
		return nil, errs.Database(err, "find in %q", col.ID)
	}
	scanned, err := sqlclient.Scan(rows)
	if err != nil {
		return nil, errs.Database(err, "scan find results in %q", col.ID)
	}

	out := make([]map[string]any, len(scanned))
	for i, row := range scanned {
		fields, err := p.rowToFields(col, row)
		if err != nil {
			return nil, err
		}
		out[i] = fields
	}
	return out, nil
}

func (p *Postgres) Count(ctx context.Context, meta Meta, col *types.Collection, filters []*query.Query) (int64, error) {
	where, params, err := compileFilters(col, filters)
	if err != nil {
		return 0, err
	}
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s", QualifiedTable(meta, col.ID))
	if where != "" {
		stmt += " WHERE " + where
	}
	rows, err := p.client.Query(ctx, stmt, params...)
	if err != nil {
		return 0, errs.Database(err, "count in %q", col.ID)
	}
	scanned, err := sqlclient.Scan(rows)
	if err != nil {
		return 0, errs.Database(err, "scan count in %q", col.ID)
	}
	if len(scanned) == 0 {
		return 0, nil
	}
	for _, v := range scanned[0] {
		if n, ok := toInt64(v); ok {
			return n, nil
		}
	}
	return 0, nil
}

func (p *Postgres) Sum(ctx context.Context, meta Meta, col *types.Collection, attribute string, filters []*query.Query) (float64, error) {
	where, params, err := compileFilters(col, filters)
	if err != nil {
		return 0, err
	}
	stmt := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0) FROM %s", QuoteIdent(ColumnName(attribute)), QualifiedTable(meta, col.ID))
	if where != "" {
		stmt += " WHERE " + where
	}
	rows, err := p.client.Query(ctx, stmt, params...)
	if err != nil {
		return 0, errs.Database(err, "sum %q in %q", attribute, col.ID)
	}
	scanned, err := sqlclient.Scan(rows)
	if err != nil {
		return 0, errs.Database(err, "scan sum %q in %q", attribute, col.ID)
	}
	if len(scanned) == 0 {
		return 0, nil
	}
	for _, v := range scanned[0] {
		if f, ok := toFloat64(v); ok {
			return f, nil
		}
	}
	return 0, nil
}

// IncreaseAttribute atomically adds by to attribute and bumps $updatedAt
// in the same statement (§4.9 Numeric semantics). The bound is a WHERE
// gate, not a clamp: an increase that would exceed max matches zero rows
// and leaves the attribute completely unchanged.
func (p *Postgres) IncreaseAttribute(ctx context.Context, meta Meta, col *types.Collection, documentID, attribute string, by float64, max *float64) error {
	column := QuoteIdent(ColumnName(attribute))
	stmt := fmt.Sprintf("UPDATE %s SET %s = %s + ?, %s = NOW() WHERE %s = ?",
		QualifiedTable(meta, col.ID), column, column, QuoteIdent(ColUpdatedAt), QuoteIdent(ColUID))
	params := []any{by, documentID}
	if max != nil {
		stmt += fmt.Sprintf(" AND %s + ? <= ?", column)
		params = append(params, by, *max)
	}
	if _, err := p.client.Exec(ctx, stmt, params...); err != nil {
		return errs.Database(err, "increase %q on %q", attribute, documentID)
	}
	return nil
}

// DecreaseAttribute mirrors IncreaseAttribute with an optional lower
// bound.
func (p *Postgres) DecreaseAttribute(ctx context.Context, meta Meta, col *types.Collection, documentID, attribute string, by float64, min *float64) error {
	column := QuoteIdent(ColumnName(attribute))
	stmt := fmt.Sprintf("UPDATE %s SET %s = %s - ?, %s = NOW() WHERE %s = ?",
		QualifiedTable(meta, col.ID), column, column, QuoteIdent(ColUpdatedAt), QuoteIdent(ColUID))
	params := []any{by, documentID}
	if min != nil {
		stmt += fmt.Sprintf(" AND %s - ? >= ?", column)
		params = append(params, by, *min)
	}
	if _, err := p.client.Exec(ctx, stmt, params...); err != nil {
		return errs.Database(err, "decrease %q on %q", attribute, documentID)
	}
	return nil
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}
