package cache

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/forbearing/docdb/query"
)

// SelectionHash is the canonical resolution of the cache's "selection
// hash" open question: FNV-1a 128-bit over a deterministic serialization
// of {selections(sorted), filters, limit, offset, cursor.$id, cursorDirection}.
func SelectionHash(g *query.Group) string {
	var b strings.Builder

	selections := append([]string{}, g.Selections...)
	sort.Strings(selections)
	b.WriteString("s:")
	b.WriteString(strings.Join(selections, ","))

	b.WriteString("|f:")
	b.WriteString(serializeFilters(g.Filters))

	b.WriteString("|l:")
	if g.Limit != nil {
		fmt.Fprintf(&b, "%d", *g.Limit)
	}

	b.WriteString("|o:")
	if g.Offset != nil {
		fmt.Fprintf(&b, "%d", *g.Offset)
	}

	b.WriteString("|c:")
	if g.Cursor != nil {
		if id, err := query.CursorID(firstOrNil(g.Cursor.Values)); err == nil {
			b.WriteString(id)
		}
	}

	b.WriteString("|d:")
	b.WriteString(string(g.CursorDirection))

	return fnv128Hex(b.String())
}

func firstOrNil(values []any) any {
	if len(values) == 0 {
		return nil
	}
	return values[0]
}

// serializeFilters renders filter nodes deterministically: top-level nodes
// are sorted by their rendered "method(attribute)=values" form, with nested or/and children serialized
// recursively in their declared (not sorted) order since operator
// precedence is positional.
func serializeFilters(filters []*query.Query) string {
	rendered := make([]string, len(filters))
	for i, f := range filters {
		rendered[i] = serializeNode(f)
	}
	sort.Strings(rendered)
	return strings.Join(rendered, ";")
}

func serializeNode(q *query.Query) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s)", q.Method, q.Attribute)
	if nested := q.NestedQueries(); len(nested) > 0 {
		b.WriteByte('[')
		for i, n := range nested {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(serializeNode(n))
		}
		b.WriteByte(']')
		return b.String()
	}
	b.WriteByte('=')
	for i, v := range q.Values {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%v", v)
	}
	return b.String()
}

// fnv128Hex computes the FNV-1a 128-bit hash of s and returns it as hex.
func fnv128Hex(s string) string {
	h := fnv.New128a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%x", h.Sum(nil))
}
