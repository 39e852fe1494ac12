package query

// Group is the result of partitioning a query list by node kind.
type Group struct {
	Filters         []*Query
	Selections      []string
	Orders          map[string]Method // attribute -> OrderAsc | OrderDesc
	OrderKeys       []string          // insertion order of Orders' keys
	Limit           *int
	Offset          *int
	Cursor          *Query // the cursorAfter/cursorBefore node, nil if absent
	CursorDirection Method
	PopulateQueries map[string][]*Query
}

// GroupByType partitions queries into a Group.
func GroupByType(queries []*Query) *Group {
	g := &Group{
		Orders:          make(map[string]Method),
		PopulateQueries: make(map[string][]*Query),
	}
	for _, q := range queries {
		switch q.Method {
		case OrderAsc, OrderDesc:
			if _, exists := g.Orders[q.Attribute]; !exists {
				g.OrderKeys = append(g.OrderKeys, q.Attribute)
			}
			g.Orders[q.Attribute] = q.Method
		case Select:
			for _, v := range q.Values {
				if s, ok := v.(string); ok {
					g.Selections = append(g.Selections, s)
				}
			}
		case Limit:
			if n, ok := firstInt(q.Values); ok {
				g.Limit = &n
			}
		case Offset:
			if n, ok := firstInt(q.Values); ok {
				g.Offset = &n
			}
		case CursorAfter, CursorBefore:
			g.Cursor = q
			g.CursorDirection = q.Method
		case Populate:
			g.PopulateQueries[q.Attribute] = q.NestedQueries()
		default:
			g.Filters = append(g.Filters, q)
		}
	}
	return g
}

func firstInt(values []any) (int, bool) {
	if len(values) == 0 {
		return 0, false
	}
	switch v := values[0].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}
