package docdb

import (
	"time"

	"context"

	"github.com/forbearing/docdb/adapter"
	"github.com/forbearing/docdb/authz"
	"github.com/forbearing/docdb/cache"
	"github.com/forbearing/docdb/event"
	"github.com/forbearing/docdb/filters"
	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
	"github.com/forbearing/docdb/validators"
)

// WriteOption tunes a single create/update call.
type WriteOption func(*writeOptions)

type writeOptions struct {
	preserveDates bool
}

// PreserveDates keeps $createdAt/$updatedAt as supplied on the input
// document instead of stamping them with the current time, used by
// restore/import flows replaying previously captured documents.
func PreserveDates() WriteOption {
	return func(o *writeOptions) { o.preserveDates = true }
}

func resolveWriteOptions(opts []WriteOption) writeOptions {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// encodeAttributes applies each attribute's declared filter chain (encode
// direction) in place on doc, in attribute declaration order.
func (e *Engine) encodeAttributes(col *types.Collection, doc *types.Doc) error {
	for i := range col.Attributes {
		attr := &col.Attributes[i]
		if len(attr.Filters) == 0 || !doc.Has(attr.Key) {
			continue
		}
		v, err := filters.EncodeChain(e.filters, attr.Filters, doc.Get(attr.Key), doc, e)
		if err != nil {
			return errs.Wrap(err, "attribute %q: encode", attr.Key)
		}
		doc.Set(attr.Key, v)
	}
	return nil
}

// decodeAttributes reverses encodeAttributes on a doc freshly built from a
// storage row.
func (e *Engine) decodeAttributes(col *types.Collection, doc *types.Doc) error {
	for i := range col.Attributes {
		attr := &col.Attributes[i]
		if len(attr.Filters) == 0 || !doc.Has(attr.Key) {
			continue
		}
		v, err := filters.DecodeChain(e.filters, attr.Filters, doc.Get(attr.Key), doc, e)
		if err != nil {
			return errs.Wrap(err, "attribute %q: decode", attr.Key)
		}
		doc.Set(attr.Key, v)
	}
	return nil
}

func (e *Engine) stampTenant(meta adapter.Meta, col *types.Collection, doc *types.Doc) {
	if !meta.SharedTables {
		return
	}
	if doc.Tenant() != nil {
		return
	}
	if meta.TenantID != nil {
		doc.Set(consts.FieldTenant, meta.TenantID)
		return
	}
	if e.defaultTenant != nil {
		doc.Set(consts.FieldTenant, e.defaultTenant)
	}
}

// prepareCreate runs the full pre-insert pipeline for one document: clone,
// id assignment, tenant stamping, permission/structure validation, create
// authorization, timestamp stamping, and relationship side writes. It
// returns the logical document (what the caller gets back) and the encoded
// one (what the adapter stores).
func (e *Engine) prepareCreate(ctx context.Context, col *types.Collection, input *types.Doc, o writeOptions) (logical, encoded *types.Doc, err error) {
	doc := input.Clone()
	if doc == nil {
		doc = types.NewDoc(nil)
	}
	if doc.ID() == "" {
		doc.SetID(newID(""))
	}
	if err := validators.ValidateKey(doc.ID(), false); err != nil {
		return nil, nil, err
	}
	doc.Set(consts.FieldCollection, col.ID)
	meta := e.currentMeta()
	e.stampTenant(meta, col, doc)

	if err := validators.ValidatePermissions(doc.Permissions(), maxPermissionStringLength); err != nil {
		return nil, nil, err
	}
	if err := validators.ValidateStructure(col, doc, true); err != nil {
		return nil, nil, err
	}
	if !authz.Check(ctx, consts.PermCreate, col, doc.Permissions()) {
		e.log.Warnw("create denied", "collection", col.ID)
		return nil, nil, errs.Authorization("create denied on collection %q", col.ID)
	}

	now := time.Now().UTC()
	if !o.preserveDates || doc.Get(consts.FieldCreatedAt) == nil {
		doc.Set(consts.FieldCreatedAt, now)
	}
	if !o.preserveDates || doc.Get(consts.FieldUpdatedAt) == nil {
		doc.Set(consts.FieldUpdatedAt, now)
	}

	if err := e.applyRelationshipWrites(ctx, col, doc, true); err != nil {
		return nil, nil, err
	}

	logical = doc.Clone()
	encoded = doc.Clone()
	if err := e.encodeAttributes(col, encoded); err != nil {
		return nil, nil, err
	}
	return logical, encoded, nil
}

// CreateDocument validates, authorizes, and inserts a document into
// collectionID, returning the stored logical document (system fields
// populated, filters applied and reversed for the returned copy).
func (e *Engine) CreateDocument(ctx context.Context, collectionID string, input *types.Doc, opts ...WriteOption) (*types.Doc, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	logical, encoded, err := e.prepareCreate(ctx, col, input, resolveWriteOptions(opts))
	if err != nil {
		return nil, err
	}
	if err := e.adapter.CreateDocument(ctx, e.currentMeta(), col, encoded); err != nil {
		return nil, err
	}
	e.invalidateCollection(collectionID)
	e.syncDocumentMirror(col, logical.ID(), logical.Permissions())
	e.events.Trigger(event.For("document", event.SuffixCreate), collectionID, logical.ID())
	return logical, nil
}

// CreateDocuments validates and authorizes every input up front, then
// hands the whole batch to the adapter in one call, returning the stored
// logical documents in input order. Any validation or authorization
// failure rejects the batch before a single row is written; adapter-level
// atomicity across the batch is the transaction coordinator's job.
func (e *Engine) CreateDocuments(ctx context.Context, collectionID string, inputs []*types.Doc, opts ...WriteOption) ([]*types.Doc, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	o := resolveWriteOptions(opts)

	logicals := make([]*types.Doc, 0, len(inputs))
	encodeds := make([]*types.Doc, 0, len(inputs))
	for _, in := range inputs {
		logical, encoded, err := e.prepareCreate(ctx, col, in, o)
		if err != nil {
			return nil, err
		}
		logicals = append(logicals, logical)
		encodeds = append(encodeds, encoded)
	}
	if err := e.adapter.CreateDocuments(ctx, e.currentMeta(), col, encodeds); err != nil {
		return nil, err
	}
	e.invalidateCollection(collectionID)
	for _, logical := range logicals {
		e.syncDocumentMirror(col, logical.ID(), logical.Permissions())
	}
	e.events.Trigger(event.DocumentsPrefix+"create", collectionID, len(logicals))
	return logicals, nil
}

// UpdateDocument merges patch into the existing document identified by
// documentID and rewrites it. Patch fields are applied with Doc.Update
// semantics: a field absent from patch leaves the stored value untouched.
func (e *Engine) UpdateDocument(ctx context.Context, collectionID, documentID string, patch *types.Doc, opts ...WriteOption) (*types.Doc, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	o := resolveWriteOptions(opts)
	meta := e.currentMeta()

	row, err := e.adapter.GetDocument(ctx, meta, col, documentID, nil)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errs.NotFound("document %q not found in %q", documentID, collectionID)
	}
	existing := types.NewDoc(row)
	if err := e.decodeAttributes(col, existing); err != nil {
		return nil, err
	}
	if !authz.Check(ctx, consts.PermUpdate, col, existing.Permissions()) {
		e.log.Warnw("update denied", "collection", collectionID, "document", documentID)
		return nil, errs.Authorization("update denied on document %q in %q", documentID, collectionID)
	}

	merged := existing.Clone()
	for _, key := range patch.Keys() {
		if key == consts.FieldID || key == consts.FieldCollection || key == consts.FieldCreatedAt {
			continue
		}
		merged.Update(key, patch.Get(key))
	}
	merged.SetID(documentID)
	merged.Set(consts.FieldCollection, collectionID)

	if err := validators.ValidatePermissions(merged.Permissions(), maxPermissionStringLength); err != nil {
		return nil, err
	}
	if err := validators.ValidateStructure(col, merged, false); err != nil {
		return nil, err
	}

	if !o.preserveDates {
		merged.Set(consts.FieldUpdatedAt, time.Now().UTC())
	}

	if err := e.applyRelationshipWrites(ctx, col, merged, false); err != nil {
		return nil, err
	}

	logical := merged.Clone()
	encoded := merged.Clone()
	if err := e.encodeAttributes(col, encoded); err != nil {
		return nil, err
	}
	if err := e.adapter.UpdateDocument(ctx, meta, col, encoded); err != nil {
		return nil, err
	}
	e.invalidateCollection(collectionID, documentID)
	e.syncDocumentMirror(col, documentID, logical.Permissions())
	e.events.Trigger(event.For("document", event.SuffixUpdate), collectionID, documentID)
	return logical, nil
}

// DeleteDocument removes a document by id, honoring delete authorization
// against its own stored permissions when the collection has
// documentSecurity enabled.
func (e *Engine) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	if err := e.requireMeta(); err != nil {
		return err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	meta := e.currentMeta()
	row, err := e.adapter.GetDocument(ctx, meta, col, documentID, nil)
	if err != nil {
		return err
	}
	if row == nil {
		return errs.NotFound("document %q not found in %q", documentID, collectionID)
	}
	doc := types.NewDoc(row)
	if !authz.Check(ctx, consts.PermDelete, col, doc.Permissions()) {
		e.log.Warnw("delete denied", "collection", collectionID, "document", documentID)
		return errs.Authorization("delete denied on document %q in %q", documentID, collectionID)
	}
	if err := e.applyOnDelete(ctx, collectionID, documentID); err != nil {
		return err
	}
	if err := e.adapter.DeleteDocument(ctx, meta, col, documentID); err != nil {
		return err
	}
	e.invalidateCollection(collectionID, documentID)
	e.clearMirror(collectionID + ":" + documentID)
	e.events.Trigger(event.For("document", event.SuffixDelete), collectionID, documentID)
	return nil
}

// GetDocument fetches a single document by id. An unauthorized read
// returns an Authorization error rather than the empty-Doc result FindOne
// returns on an unauthorized match, since a direct by-id lookup is a more
// pointed access attempt than a query scan.
func (e *Engine) GetDocument(ctx context.Context, collectionID, documentID string, selections []string) (*types.Doc, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	cacheKey := cache.DocumentKey(e.collectionKey(collectionID), documentID)
	if len(selections) == 0 {
		if v, ok := e.cache.Get(cacheKey); ok {
			if doc, ok := v.(*types.Doc); ok {
				if !authz.Check(ctx, consts.PermRead, col, doc.Permissions()) {
					e.log.Warnw("read denied", "collection", collectionID, "document", documentID)
					return nil, errs.Authorization("read denied on document %q in %q", documentID, collectionID)
				}
				return doc.Clone(), nil
			}
		}
		e.log.Debugw("cache miss, falling back to adapter", "collection", collectionID, "document", documentID)
	}

	meta := e.currentMeta()
	row, err := e.adapter.GetDocument(ctx, meta, col, documentID, selections)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errs.NotFound("document %q not found in %q", documentID, collectionID)
	}
	doc := types.NewDoc(row)
	if err := e.decodeAttributes(col, doc); err != nil {
		return nil, err
	}
	if !authz.Check(ctx, consts.PermRead, col, doc.Permissions()) {
		e.log.Warnw("read denied", "collection", collectionID, "document", documentID)
		return nil, errs.Authorization("read denied on document %q in %q", documentID, collectionID)
	}
	if len(selections) == 0 {
		e.cache.Set(cacheKey, doc.Clone(), e.cacheTTL, e.collectionKey(collectionID), cacheKey)
	}
	e.events.Trigger(event.For("document", event.SuffixRead), collectionID, documentID)
	return doc, nil
}

// Find executes queries against collectionID and returns every matching,
// authorized document. When the collection has documentSecurity enabled,
// unauthorized rows are filtered out of the result after the adapter's
// SQL-level limit has already been applied: a requested limit can
// therefore return fewer rows than asked for, the same keyset-pagination
// trade-off noted on the adapter's cursor implementation.
func (e *Engine) Find(ctx context.Context, collectionID string, queries []*query.Query) ([]*types.Doc, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	if err := e.checkQueryValueBudget(queries); err != nil {
		return nil, err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if err := query.Validate(col, queries, query.Options{RequireFulltextIndexForSearch: e.requireFulltextForSearch}); err != nil {
		return nil, err
	}
	group := query.GroupByType(queries)

	cacheKey := cache.DocumentKey(e.collectionKey(collectionID), "find:"+cache.SelectionHash(group))
	if v, ok := e.cache.Get(cacheKey); ok {
		if docs, ok := v.([]*types.Doc); ok {
			return authorizedClones(ctx, col, docs), nil
		}
	}
	e.log.Debugw("cache miss, falling back to adapter", "collection", collectionID, "cacheKey", cacheKey)

	meta := e.currentMeta()
	rows, err := e.adapter.Find(ctx, meta, col, group, e.maxLimit)
	if err != nil {
		return nil, err
	}
	docs := make([]*types.Doc, 0, len(rows))
	for _, row := range rows {
		doc := types.NewDoc(row)
		if err := e.decodeAttributes(col, doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	e.cache.Set(cacheKey, docs, e.cacheTTL, e.collectionKey(collectionID))
	e.events.Trigger(event.For("document", event.SuffixRead), collectionID)
	return authorizedClones(ctx, col, docs), nil
}

// FindOne returns the first result of Find, or an empty Doc if there were
// no matches, or the match existed but the active role set is not
// authorized to read it (the canonical findOne resolution: an
// unauthorized match is indistinguishable from no match, never an error).
func (e *Engine) FindOne(ctx context.Context, collectionID string, queries []*query.Query) (*types.Doc, error) {
	if err := e.checkQueryValueBudget(queries); err != nil {
		return nil, err
	}
	one := 1
	limited := append(append([]*query.Query{}, queries...), &query.Query{Method: query.Limit, Values: []any{one}})

	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if err := query.Validate(col, limited, query.Options{RequireFulltextIndexForSearch: e.requireFulltextForSearch}); err != nil {
		return nil, err
	}
	group := query.GroupByType(limited)

	meta := e.currentMeta()
	rows, err := e.adapter.Find(ctx, meta, col, group, e.maxLimit)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return types.NewDoc(nil), nil
	}
	doc := types.NewDoc(rows[0])
	if err := e.decodeAttributes(col, doc); err != nil {
		return nil, err
	}
	if !authz.Check(ctx, consts.PermRead, col, doc.Permissions()) {
		return types.NewDoc(nil), nil
	}
	return doc, nil
}

// Count returns the number of documents matching filters the active role
// set may read. A collection-level read grant covers every document (with
// documentSecurity, per-document permissions only widen access, never
// narrow it), so the SQL aggregate runs as-is; without it, documentSecurity
// lets individually-readable documents still be counted, and anything else
// is an authorization failure.
func (e *Engine) Count(ctx context.Context, collectionID string, filters []*query.Query) (int64, error) {
	if err := e.requireMeta(); err != nil {
		return 0, err
	}
	if err := e.checkQueryValueBudget(filters); err != nil {
		return 0, err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return 0, err
	}
	if err := query.Validate(col, filters, query.Options{RequireFulltextIndexForSearch: e.requireFulltextForSearch}); err != nil {
		return 0, err
	}
	var n int64
	if authz.Check(ctx, consts.PermRead, col, nil) {
		n, err = e.adapter.Count(ctx, e.currentMeta(), col, filters)
		if err != nil {
			return 0, err
		}
	} else {
		docs, err := e.readableRows(ctx, col, filters, collectionID)
		if err != nil {
			return 0, err
		}
		n = int64(len(docs))
	}
	e.events.Trigger(event.DocumentCount, collectionID, n)
	return n, nil
}

// Sum totals attribute across documents matching filters, under the same
// authorization scoping as Count.
func (e *Engine) Sum(ctx context.Context, collectionID, attribute string, filters []*query.Query) (float64, error) {
	if err := e.requireMeta(); err != nil {
		return 0, err
	}
	if err := e.checkQueryValueBudget(filters); err != nil {
		return 0, err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return 0, err
	}
	attr := col.Attribute(attribute)
	if attr == nil || (attr.Type != consts.AttrInteger && attr.Type != consts.AttrFloat) {
		return 0, errs.Validation("sum requires a numeric attribute, got %q", attribute)
	}
	if err := query.Validate(col, filters, query.Options{RequireFulltextIndexForSearch: e.requireFulltextForSearch}); err != nil {
		return 0, err
	}
	var total float64
	if authz.Check(ctx, consts.PermRead, col, nil) {
		total, err = e.adapter.Sum(ctx, e.currentMeta(), col, attribute, filters)
		if err != nil {
			return 0, err
		}
	} else {
		docs, err := e.readableRows(ctx, col, filters, collectionID)
		if err != nil {
			return 0, err
		}
		for _, doc := range docs {
			if f, ok := numericValue(doc.Get(attribute)); ok {
				total += f
			}
		}
	}
	e.events.Trigger(event.DocumentSum, collectionID, attribute, total)
	return total, nil
}

// readableRows fetches the rows matching filters for an aggregate whose
// caller holds no collection-level read grant: with documentSecurity,
// per-document permissions can still grant reads one row at a time, so
// the aggregate runs over those rows only. Rows come through the
// adapter's Find and are therefore capped at maxLimit, a trade-off noted
// in DESIGN.md. Without documentSecurity nothing can grant the read.
func (e *Engine) readableRows(ctx context.Context, col *types.Collection, filters []*query.Query, collectionID string) ([]*types.Doc, error) {
	if !col.DocumentSecurity {
		e.log.Warnw("aggregate denied", "collection", collectionID)
		return nil, errs.Authorization("read denied on collection %q", collectionID)
	}
	rows, err := e.adapter.Find(ctx, e.currentMeta(), col, query.GroupByType(filters), e.maxLimit)
	if err != nil {
		return nil, err
	}
	docs := make([]*types.Doc, 0, len(rows))
	for _, row := range rows {
		doc := types.NewDoc(row)
		if authz.Check(ctx, consts.PermRead, col, doc.Permissions()) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func numericValue(v types.Value) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// Increase atomically adds by to a numeric attribute. When max is given it
// gates the write: an increase that would exceed max leaves the attribute
// unchanged.
func (e *Engine) Increase(ctx context.Context, collectionID, documentID, attribute string, by float64, max *float64) error {
	return e.adjust(ctx, collectionID, documentID, attribute, by, max, true)
}

// Decrease atomically subtracts by from a numeric attribute. When min is
// given it gates the write: a decrease that would go below min leaves the
// attribute unchanged.
func (e *Engine) Decrease(ctx context.Context, collectionID, documentID, attribute string, by float64, min *float64) error {
	return e.adjust(ctx, collectionID, documentID, attribute, by, min, false)
}

func (e *Engine) adjust(ctx context.Context, collectionID, documentID, attribute string, by float64, bound *float64, increase bool) error {
	if err := e.requireMeta(); err != nil {
		return err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	attr := col.Attribute(attribute)
	if attr == nil || (attr.Type != consts.AttrInteger && attr.Type != consts.AttrFloat) {
		return errs.Validation("increase/decrease requires a numeric attribute, got %q", attribute)
	}
	meta := e.currentMeta()
	row, err := e.adapter.GetDocument(ctx, meta, col, documentID, []string{consts.FieldPermissions})
	if err != nil {
		return err
	}
	if row == nil {
		return errs.NotFound("document %q not found in %q", documentID, collectionID)
	}
	doc := types.NewDoc(row)
	if !authz.Check(ctx, consts.PermUpdate, col, doc.Permissions()) {
		e.log.Warnw("update denied", "collection", collectionID, "document", documentID, "attribute", attribute)
		return errs.Authorization("update denied on document %q in %q", documentID, collectionID)
	}

	var evt string
	if increase {
		err = e.adapter.IncreaseAttribute(ctx, meta, col, documentID, attribute, by, bound)
		evt = event.DocumentIncrease
	} else {
		err = e.adapter.DecreaseAttribute(ctx, meta, col, documentID, attribute, by, bound)
		evt = event.DocumentDecrease
	}
	if err != nil {
		return err
	}
	e.invalidateCollection(collectionID, documentID)
	e.events.Trigger(evt, collectionID, documentID, attribute, by)
	return nil
}

// checkQueryValueBudget rejects a query list carrying more total values
// (counting nested or/and children) than the engine's maxQueryValues cap,
// the same denial-of-service guard against pathologically large filter
// lists the adapter's own per-method cardinality checks don't cover.
func (e *Engine) checkQueryValueBudget(queries []*query.Query) error {
	if n := countQueryValues(queries); n > e.maxQueryValues {
		return errs.Validation("query carries %d values, exceeding the %d limit", n, e.maxQueryValues)
	}
	return nil
}

func countQueryValues(queries []*query.Query) int {
	n := 0
	for _, q := range queries {
		nested := q.NestedQueries()
		if len(nested) > 0 {
			n += countQueryValues(nested)
			continue
		}
		n += len(q.Values)
	}
	return n
}

func authorizedClones(ctx context.Context, col *types.Collection, docs []*types.Doc) []*types.Doc {
	out := make([]*types.Doc, 0, len(docs))
	for _, d := range docs {
		if authz.Check(ctx, consts.PermRead, col, d.Permissions()) {
			out = append(out, d.Clone())
		}
	}
	return out
}
