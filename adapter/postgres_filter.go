package adapter

import (
	"fmt"
	"strings"

	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/errs"
)

// compileFilter renders a single validated query.Query filter node (or a
// nested or/and tree) into a parenthesized SQL fragment plus its bound
// parameters, in the node's declared order. coll supplies attribute shape
// (array vs. scalar) so contains can choose between ANY() and LIKE.
func compileFilter(coll *types.Collection, q *query.Query) (string, []any, error) {
	col := QuoteIdent(ColumnName(q.Attribute))
	switch q.Method {
	case query.Equal:
		return inOrEqual(col, "=", q.Values)
	case query.NotEqual:
		return inOrEqual(col, "<>", q.Values)
	case query.LessThan:
		return fmt.Sprintf("%s < ?", col), []any{q.Values[0]}, nil
	case query.LessThanEqual:
		return fmt.Sprintf("%s <= ?", col), []any{q.Values[0]}, nil
	case query.GreaterThan:
		return fmt.Sprintf("%s > ?", col), []any{q.Values[0]}, nil
	case query.GreaterThanEqual:
		return fmt.Sprintf("%s >= ?", col), []any{q.Values[0]}, nil
	case query.Between:
		return fmt.Sprintf("%s BETWEEN ? AND ?", col), []any{q.Values[0], q.Values[1]}, nil
	case query.StartsWith:
		return fmt.Sprintf("%s LIKE ?", col), []any{fmt.Sprintf("%v%%", q.Values[0])}, nil
	case query.EndsWith:
		return fmt.Sprintf("%s LIKE ?", col), []any{fmt.Sprintf("%%%v", q.Values[0])}, nil
	case query.Contains:
		attr := coll.Attribute(q.Attribute)
		if attr != nil && attr.Array {
			// "literal = ANY(array_column)": does the array column contain this value.
			return fmt.Sprintf("? = ANY(%s)", col), []any{q.Values[0]}, nil
		}
		return fmt.Sprintf("%s LIKE ?", col), []any{fmt.Sprintf("%%%v%%", q.Values[0])}, nil
	case query.Search:
		return fmt.Sprintf("to_tsvector('simple', coalesce(%s, '')) @@ plainto_tsquery('simple', ?)", col), []any{q.Values[0]}, nil
	case query.IsNull:
		return fmt.Sprintf("%s IS NULL", col), nil, nil
	case query.IsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", col), nil, nil
	case query.Or, query.And:
		return compileBoolean(coll, q)
	default:
		return "", nil, errs.Internal("unhandled filter method %q", q.Method)
	}
}

func inOrEqual(col, op string, values []any) (string, []any, error) {
	if len(values) == 1 {
		return fmt.Sprintf("%s %s ?", col, op), []any{values[0]}, nil
	}
	placeholders := make([]string, len(values))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	not := ""
	if op == "<>" {
		not = "NOT "
	}
	return fmt.Sprintf("%s %sIN (%s)", col, not, strings.Join(placeholders, ", ")), values, nil
}

func compileBoolean(coll *types.Collection, q *query.Query) (string, []any, error) {
	joiner := " OR "
	if q.Method == query.And {
		joiner = " AND "
	}
	nested := q.NestedQueries()
	parts := make([]string, len(nested))
	var params []any
	for i, child := range nested {
		frag, p, err := compileFilter(coll, child)
		if err != nil {
			return "", nil, err
		}
		parts[i] = frag
		params = append(params, p...)
	}
	return "(" + strings.Join(parts, joiner) + ")", params, nil
}

// compileFilters ANDs together every top-level filter node in filters.
func compileFilters(coll *types.Collection, filters []*query.Query) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	var clauses []string
	var params []any
	for _, f := range filters {
		frag, p, err := compileFilter(coll, f)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, frag)
		params = append(params, p...)
	}
	return strings.Join(clauses, " AND "), params, nil
}
