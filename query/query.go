// Package query implements the structured query DSL: typed nodes, the
// groupByType partition, per-method validation, relationship-side rejection
// for queries against virtual relation attributes, and populate with cycle
// protection.
package query

// Method is one of the recognized query node operators.
type Method string

const (
	Equal              Method = "equal"
	NotEqual           Method = "notEqual"
	LessThan           Method = "lessThan"
	LessThanEqual      Method = "lessThanEqual"
	GreaterThan        Method = "greaterThan"
	GreaterThanEqual   Method = "greaterThanEqual"
	Between            Method = "between"
	Contains           Method = "contains"
	Search             Method = "search"
	StartsWith         Method = "startsWith"
	EndsWith           Method = "endsWith"
	IsNull             Method = "isNull"
	IsNotNull          Method = "isNotNull"
	Or                 Method = "or"
	And                Method = "and"
	Select             Method = "select"
	OrderAsc           Method = "orderAsc"
	OrderDesc          Method = "orderDesc"
	Limit              Method = "limit"
	Offset             Method = "offset"
	CursorAfter        Method = "cursorAfter"
	CursorBefore       Method = "cursorBefore"
	Populate           Method = "populate"
)

// filterMethods are the methods that constrain rows (as opposed to
// shaping/ordering/paginating the result set).
var filterMethods = map[Method]bool{
	Equal: true, NotEqual: true, LessThan: true, LessThanEqual: true,
	GreaterThan: true, GreaterThanEqual: true, Between: true, Contains: true,
	Search: true, StartsWith: true, EndsWith: true, IsNull: true, IsNotNull: true,
	Or: true, And: true,
}

// Query is a single node of the query DSL.
type Query struct {
	Method    Method
	Attribute string
	Values    []any
}

// IsFilter reports whether q constrains rows.
func (q *Query) IsFilter() bool { return filterMethods[q.Method] }

// NestedQueries returns q.Values re-interpreted as nested Query pointers,
// valid for Or/And/Populate nodes.
func (q *Query) NestedQueries() []*Query {
	out := make([]*Query, 0, len(q.Values))
	for _, v := range q.Values {
		if nq, ok := v.(*Query); ok {
			out = append(out, nq)
		}
	}
	return out
}

// Clone returns a deep copy of q.
func (q *Query) Clone() *Query {
	c := &Query{Method: q.Method, Attribute: q.Attribute, Values: make([]any, len(q.Values))}
	for i, v := range q.Values {
		if nq, ok := v.(*Query); ok {
			c.Values[i] = nq.Clone()
		} else {
			c.Values[i] = v
		}
	}
	return c
}

// Builder accumulates Query nodes, matching the spec's
// `QueryBuilder.from(queries).build()` round-trip invariant.
type Builder struct {
	queries []*Query
}

// From seeds a Builder from an existing query list.
func From(queries []*Query) *Builder {
	b := &Builder{queries: make([]*Query, len(queries))}
	for i, q := range queries {
		b.queries[i] = q.Clone()
	}
	return b
}

// Add appends a node.
func (b *Builder) Add(q *Query) *Builder {
	b.queries = append(b.queries, q)
	return b
}

// Build returns a deep clone of the accumulated query list.
func (b *Builder) Build() []*Query {
	out := make([]*Query, len(b.queries))
	for i, q := range b.queries {
		out[i] = q.Clone()
	}
	return out
}
