package docdb_test

import (
	"context"
	"strings"
	"sync"

	"github.com/forbearing/docdb/adapter"
	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/errs"
)

// fakeAdapter satisfies adapter.Adapter entirely in memory, the same "fake
// satisfying the interface directly" split adapter/postgres_test.go keeps
// one level down against adapter.SQLClient: docdb.Engine depends on the
// full ~20-method Adapter surface rather than the narrow SQL driver slice,
// so a sqlmock-backed *sql.DB has nothing to attach to here.
type fakeAdapter struct {
	caps adapter.Capabilities

	mu          sync.Mutex
	databases   map[string]bool
	collections map[string]bool
	docs        map[string]map[string]map[string]any // collectionID -> docID -> row
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		caps: adapter.Capabilities{
			SupportsFulltext:     true,
			SupportsArrayColumns: true,
			MaxVarcharLength:     10485760,
			MaxIndexLength:       768,
		},
		databases:   make(map[string]bool),
		collections: make(map[string]bool),
		docs:        make(map[string]map[string]map[string]any),
	}
}

func (f *fakeAdapter) Capabilities() adapter.Capabilities { return f.caps }

func (f *fakeAdapter) CreateDatabase(ctx context.Context, meta adapter.Meta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.databases[meta.Schema] = true
	return nil
}

func (f *fakeAdapter) DatabaseExists(ctx context.Context, meta adapter.Meta) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.databases[meta.Schema], nil
}

func (f *fakeAdapter) DeleteDatabase(ctx context.Context, meta adapter.Meta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.databases, meta.Schema)
	f.collections = make(map[string]bool)
	f.docs = make(map[string]map[string]map[string]any)
	return nil
}

func (f *fakeAdapter) CreateCollection(ctx context.Context, meta adapter.Meta, col *types.Collection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[col.ID] = true
	if f.docs[col.ID] == nil {
		f.docs[col.ID] = make(map[string]map[string]any)
	}
	return nil
}

func (f *fakeAdapter) DeleteCollection(ctx context.Context, meta adapter.Meta, collectionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.collections, collectionID)
	delete(f.docs, collectionID)
	return nil
}

func (f *fakeAdapter) AnalyzeCollection(ctx context.Context, meta adapter.Meta, collectionID string) error {
	return nil
}

func (f *fakeAdapter) GetSizeOfCollection(ctx context.Context, meta adapter.Meta, collectionID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.docs[collectionID])), nil
}

func (f *fakeAdapter) GetSchemaAttributes(ctx context.Context, meta adapter.Meta, collectionID string) ([]types.Attribute, error) {
	return nil, nil
}

func (f *fakeAdapter) CreateColumn(ctx context.Context, meta adapter.Meta, collectionID string, attr *types.Attribute) error {
	return nil
}

func (f *fakeAdapter) AlterColumn(ctx context.Context, meta adapter.Meta, collectionID string, attr *types.Attribute) error {
	return nil
}

func (f *fakeAdapter) DropColumn(ctx context.Context, meta adapter.Meta, collectionID string, attrKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.docs[collectionID] {
		delete(row, attrKey)
	}
	return nil
}

func (f *fakeAdapter) CreateIndex(ctx context.Context, meta adapter.Meta, collectionID string, idx *types.Index) error {
	return nil
}

func (f *fakeAdapter) RenameIndex(ctx context.Context, meta adapter.Meta, collectionID string, oldID, newID string) error {
	return nil
}

func (f *fakeAdapter) DropIndex(ctx context.Context, meta adapter.Meta, collectionID string, indexID string) error {
	return nil
}

func (f *fakeAdapter) CreateDocument(ctx context.Context, meta adapter.Meta, col *types.Collection, doc *types.Doc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.docs[col.ID]
	if !ok {
		rows = make(map[string]map[string]any)
		f.docs[col.ID] = rows
	}
	if _, exists := rows[doc.ID()]; exists {
		return errs.Conflict("document %q already exists in %q", doc.ID(), col.ID)
	}
	rows[doc.ID()] = doc.ToObject(nil, nil)
	return nil
}

func (f *fakeAdapter) CreateDocuments(ctx context.Context, meta adapter.Meta, col *types.Collection, docs []*types.Doc) error {
	for _, doc := range docs {
		if err := f.CreateDocument(ctx, meta, col, doc); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeAdapter) UpdateDocument(ctx context.Context, meta adapter.Meta, col *types.Collection, doc *types.Doc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.docs[col.ID]
	if !ok {
		rows = make(map[string]map[string]any)
		f.docs[col.ID] = rows
	}
	rows[doc.ID()] = doc.ToObject(nil, nil)
	return nil
}

func (f *fakeAdapter) DeleteDocument(ctx context.Context, meta adapter.Meta, col *types.Collection, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs[col.ID], documentID)
	return nil
}

func (f *fakeAdapter) GetDocument(ctx context.Context, meta adapter.Meta, col *types.Collection, documentID string, selections []string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.docs[col.ID][documentID]
	if !ok {
		return nil, nil
	}
	return selectFields(row, selections), nil
}

func (f *fakeAdapter) Find(ctx context.Context, meta adapter.Meta, col *types.Collection, group *query.Group, maxLimit int) ([]map[string]any, error) {
	f.mu.Lock()
	rows := make([]map[string]any, 0, len(f.docs[col.ID]))
	for _, row := range f.docs[col.ID] {
		if matchAll(group.Filters, row) {
			rows = append(rows, row)
		}
	}
	f.mu.Unlock()

	limit := maxLimit
	if group.Limit != nil && *group.Limit < limit {
		limit = *group.Limit
	}
	offset := 0
	if group.Offset != nil {
		offset = *group.Offset
	}
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = selectFields(row, group.Selections)
	}
	return out, nil
}

func (f *fakeAdapter) Count(ctx context.Context, meta adapter.Meta, col *types.Collection, filters []*query.Query) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, row := range f.docs[col.ID] {
		if matchAll(filters, row) {
			n++
		}
	}
	return n, nil
}

func (f *fakeAdapter) Sum(ctx context.Context, meta adapter.Meta, col *types.Collection, attribute string, filters []*query.Query) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, row := range f.docs[col.ID] {
		if !matchAll(filters, row) {
			continue
		}
		if n, ok := toFloat(row[attribute]); ok {
			total += n
		}
	}
	return total, nil
}

func (f *fakeAdapter) IncreaseAttribute(ctx context.Context, meta adapter.Meta, col *types.Collection, documentID, attribute string, by float64, max *float64) error {
	return f.adjust(col.ID, documentID, attribute, by, max, nil)
}

func (f *fakeAdapter) DecreaseAttribute(ctx context.Context, meta adapter.Meta, col *types.Collection, documentID, attribute string, by float64, min *float64) error {
	return f.adjust(col.ID, documentID, attribute, -by, nil, min)
}

func (f *fakeAdapter) adjust(collectionID, documentID, attribute string, delta float64, max, min *float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.docs[collectionID][documentID]
	if !ok {
		return errs.NotFound("document %q not found in %q", documentID, collectionID)
	}
	cur, _ := toFloat(row[attribute])
	next := cur + delta
	// bounds gate the write, matching the adapter's WHERE clause: an
	// out-of-bound adjustment leaves the row untouched
	if max != nil && next > *max {
		return nil
	}
	if min != nil && next < *min {
		return nil
	}
	row[attribute] = next
	return nil
}

func selectFields(row map[string]any, selections []string) map[string]any {
	out := make(map[string]any, len(row))
	if len(selections) == 0 {
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	allow := make(map[string]bool, len(selections)+1)
	allow["$id"] = true
	for _, s := range selections {
		allow[s] = true
	}
	for k, v := range row {
		if allow[k] {
			out[k] = v
		}
	}
	return out
}

func matchAll(filters []*query.Query, row map[string]any) bool {
	for _, q := range filters {
		if !matchOne(q, row) {
			return false
		}
	}
	return true
}

func matchOne(q *query.Query, row map[string]any) bool {
	switch q.Method {
	case query.Or:
		for _, child := range q.NestedQueries() {
			if matchOne(child, row) {
				return true
			}
		}
		return false
	case query.And:
		for _, child := range q.NestedQueries() {
			if !matchOne(child, row) {
				return false
			}
		}
		return true
	case query.IsNull:
		return row[q.Attribute] == nil
	case query.IsNotNull:
		return row[q.Attribute] != nil
	}

	v := row[q.Attribute]
	switch q.Method {
	case query.Equal:
		for _, want := range q.Values {
			if valuesEqual(v, want) {
				return true
			}
		}
		return false
	case query.NotEqual:
		for _, want := range q.Values {
			if valuesEqual(v, want) {
				return false
			}
		}
		return true
	case query.GreaterThan, query.GreaterThanEqual, query.LessThan, query.LessThanEqual:
		a, ok1 := toFloat(v)
		b, ok2 := toFloat(firstOf(q.Values))
		if !ok1 || !ok2 {
			return false
		}
		switch q.Method {
		case query.GreaterThan:
			return a > b
		case query.GreaterThanEqual:
			return a >= b
		case query.LessThan:
			return a < b
		default:
			return a <= b
		}
	case query.Between:
		a, ok1 := toFloat(v)
		lo, ok2 := toFloat(firstOf(q.Values))
		hi, ok3 := toFloat(secondOf(q.Values))
		return ok1 && ok2 && ok3 && a >= lo && a <= hi
	case query.Contains:
		want := firstOf(q.Values)
		switch list := v.(type) {
		case []any:
			for _, e := range list {
				if valuesEqual(e, want) {
					return true
				}
			}
			return false
		case types.List:
			for _, e := range list {
				if valuesEqual(e, want) {
					return true
				}
			}
			return false
		case string:
			s, ok := want.(string)
			return ok && strings.Contains(list, s)
		default:
			return false
		}
	case query.StartsWith:
		s, ok1 := v.(string)
		prefix, ok2 := firstOf(q.Values).(string)
		return ok1 && ok2 && strings.HasPrefix(s, prefix)
	case query.EndsWith:
		s, ok1 := v.(string)
		suffix, ok2 := firstOf(q.Values).(string)
		return ok1 && ok2 && strings.HasSuffix(s, suffix)
	case query.Search:
		s, ok1 := v.(string)
		needle, ok2 := firstOf(q.Values).(string)
		return ok1 && ok2 && strings.Contains(strings.ToLower(s), strings.ToLower(needle))
	default:
		return true
	}
}

func firstOf(values []any) any {
	if len(values) == 0 {
		return nil
	}
	return values[0]
}

func secondOf(values []any) any {
	if len(values) < 2 {
		return nil
	}
	return values[1]
}

func valuesEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
