// Package docdb implements the engine facade (§4.9): the orchestration
// layer that owns the schema lifecycle, the document pipeline, and query
// execution, sitting on top of the adapter, cache, filters, validators,
// authz and event packages. It is grounded on the teacher's
// database/database.go overall lifecycle/options shape, generalized away
// from a generic Database[M]-over-static-struct design to a dynamic
// Doc-over-Collection design, since this engine's schema is itself runtime
// data rather than a compile-time Go struct.
package docdb

import (
	"context"
	"sync"
	"time"

	"github.com/forbearing/docdb/adapter"
	"github.com/forbearing/docdb/authz"
	"github.com/forbearing/docdb/cache"
	"github.com/forbearing/docdb/event"
	"github.com/forbearing/docdb/filters"
	"github.com/forbearing/docdb/logger"
	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
	"github.com/google/uuid"
)

const (
	maxPermissionStringLength = 5000
	maxRoleStringLength       = 256
	defaultMaxQueryValues     = 100
	defaultMaxLimit           = 5000
	defaultCacheTTL           = 10 * time.Minute
)

// Engine is the public API surface described in §4.9. One Engine instance
// targets a single (database, schema, namespace, tenant) key space, set
// once via SetMeta before any other method is used.
type Engine struct {
	adapter     adapter.Adapter
	cache       *cache.Cache
	filters     *filters.Registry
	events      *event.Bus
	log         logger.Logger
	authzMirror *authz.Mirror

	mu       sync.RWMutex
	meta     adapter.Meta
	metaSet  bool

	maxQueryValues int
	maxLimit       int
	cacheTTL       time.Duration
	defaultTenant  *int64

	requireFulltextForSearch bool
	eventsOverridden         bool
}

// Option configures an Engine at construction time, the same chainable-
// option shape the teacher uses for its own database options, narrowed to
// functional options since this facade is a concrete type rather than a
// generic interface the teacher returns from every With* call.
type Option func(*Engine)

// WithFilters seeds the engine's per-instance filter registry starting
// from filters.Default, then registering extra on top of it (§4.3
// per-engine-instance addFilter).
func WithFilters(extra ...filters.Filter) Option {
	return func(e *Engine) {
		e.filters = filters.Default.Clone()
		for _, f := range extra {
			e.filters.MustAdd(f)
		}
	}
}

// WithMaxQueryValues overrides the default cap (100) on the number of
// values a single query node may carry.
func WithMaxQueryValues(n int) Option {
	return func(e *Engine) { e.maxQueryValues = n }
}

// WithMaxLimit overrides the default cap Find() results are truncated to
// when no (or an over-large) limit is requested.
func WithMaxLimit(n int) Option {
	return func(e *Engine) { e.maxLimit = n }
}

// WithCacheTTL overrides the default TTL cached reads are stored with.
func WithCacheTTL(d time.Duration) Option {
	return func(e *Engine) { e.cacheTTL = d }
}

// WithDefaultTenant sets the tenant id stamped onto new documents in
// shared-tables mode when the document carries no $tenant and
// meta.TenantID is unset.
func WithDefaultTenant(tenantID int64) Option {
	return func(e *Engine) { e.defaultTenant = &tenantID }
}

// WithLogger overrides the engine's logger (default: a no-op logger) and
// propagates it as the sub-logger for the authz and query packages, so a
// single logger configured on the engine reaches authorization denials and
// query-validation rejections too.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		e.log = log
		authz.SetLogger(log)
		query.SetLogger(log)
	}
}

// WithAuthzMirror attaches a casbin RBAC mirror: every collection create/
// update and every document permission write is replicated into it so an
// operator can audit effective grants with casbin's own policy-management
// API (§11). Mirroring failures are logged and otherwise ignored — the
// mirror is an audit trail, never the authorization decision itself.
func WithAuthzMirror(mirror *authz.Mirror) Option {
	return func(e *Engine) { e.authzMirror = mirror }
}

// syncCollectionMirror replicates col's collection-level permissions into
// the authz mirror, if one is configured.
func (e *Engine) syncCollectionMirror(col *types.Collection) {
	if e.authzMirror == nil {
		return
	}
	if err := e.authzMirror.SyncCollection(col); err != nil {
		e.log.Warnw("authz mirror sync failed", "collection", col.ID, "error", err)
	}
}

// syncDocumentMirror replicates a single document's permission grants into
// the authz mirror, if one is configured.
func (e *Engine) syncDocumentMirror(col *types.Collection, documentID string, perms []string) {
	if e.authzMirror == nil {
		return
	}
	if err := e.authzMirror.SyncDocument(col, documentID, perms); err != nil {
		e.log.Warnw("authz mirror sync failed", "collection", col.ID, "document", documentID, "error", err)
	}
}

// clearMirror drops every mirrored policy for object, if a mirror is
// configured.
func (e *Engine) clearMirror(object string) {
	if e.authzMirror == nil {
		return
	}
	if err := e.authzMirror.Clear(object); err != nil {
		e.log.Warnw("authz mirror clear failed", "object", object, "error", err)
	}
}

// WithEvents overrides the engine's event bus (default: a fresh, empty Bus).
func WithEvents(bus *event.Bus) Option {
	return func(e *Engine) { e.events = bus; e.eventsOverridden = true }
}

// WithRequireFulltextForSearch toggles the "search requires a fulltext
// index" query validator rule (§4.4, enabled by default per S5).
func WithRequireFulltextForSearch(enabled bool) Option {
	return func(e *Engine) { e.requireFulltextForSearch = enabled }
}

// New constructs an Engine over adapter a and cache c. SetMeta must be
// called before any other method.
func New(a adapter.Adapter, c *cache.Cache, opts ...Option) *Engine {
	e := &Engine{
		adapter:                  a,
		cache:                    c,
		filters:                  filters.Default.Clone(),
		events:                   event.New(nil),
		log:                      logger.Nop(),
		maxQueryValues:           defaultMaxQueryValues,
		maxLimit:                 defaultMaxLimit,
		cacheTTL:                 defaultCacheTTL,
		requireFulltextForSearch: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.eventsOverridden {
		e.events = event.New(e.log)
	}
	return e
}

// SetMeta binds the engine to a physical key space (§6 Configuration):
// database, schema, sharedTables, tenantId, tenantPerDocument, namespace.
// It must be called before Create/Exists/Delete or any collection/document
// operation.
func (e *Engine) SetMeta(meta adapter.Meta) error {
	if meta.Schema == "" {
		return errs.Validation("setMeta: schema must not be empty")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.meta = meta
	e.metaSet = true
	return nil
}

func (e *Engine) requireMeta() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.metaSet {
		return errs.Internal("setMeta must be called before use")
	}
	return nil
}

func (e *Engine) currentMeta() adapter.Meta {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.meta
}

// baseKey renders the cache base key for the engine's current meta (§4.7).
func (e *Engine) baseKey() string {
	m := e.currentMeta()
	return cache.BaseKey(m.Database, m.Namespace, m.Schema, m.TenantID)
}

func (e *Engine) collectionKey(collectionID string) string {
	return cache.CollectionKey(e.baseKey(), collectionID)
}

func (e *Engine) metadataKey() string { return cache.MetadataKey(e.baseKey()) }

// invalidateCollection flushes the cache entries tagged for collectionID
// and, when documentID is non-empty, the specific document key too (§4.7
// Invalidation).
func (e *Engine) invalidateCollection(collectionID string, documentID ...string) {
	tags := []string{e.collectionKey(collectionID)}
	for _, id := range documentID {
		if id != "" {
			tags = append(tags, cache.DocumentKey(e.collectionKey(collectionID), id))
		}
	}
	e.cache.FlushByTags(tags...)
}

// Create creates the physical schema container if absent and creates the
// _metadata collection (§4.9 create(schema?)). Both operations are
// idempotent so Create can be called on every process start.
func (e *Engine) Create(ctx context.Context) error {
	if err := e.requireMeta(); err != nil {
		return err
	}
	meta := e.currentMeta()
	if err := e.adapter.CreateDatabase(ctx, meta); err != nil {
		return err
	}
	if err := e.adapter.CreateCollection(ctx, meta, metadataCollection()); err != nil {
		return err
	}
	e.events.Trigger(event.For("database", event.SuffixCreate), meta.Schema)
	return nil
}

// Exists reports whether the engine's schema container exists.
func (e *Engine) Exists(ctx context.Context) (bool, error) {
	if err := e.requireMeta(); err != nil {
		return false, err
	}
	return e.adapter.DatabaseExists(ctx, e.currentMeta())
}

// Delete drops the engine's schema container (and, by cascade, every
// physical table within it) and flushes every cache entry rooted at the
// engine's base key.
func (e *Engine) Delete(ctx context.Context) error {
	if err := e.requireMeta(); err != nil {
		return err
	}
	tags := []string{e.baseKey(), e.metadataKey()}
	if cols, err := e.ListCollections(ctx); err == nil {
		for _, col := range cols {
			tags = append(tags, e.collectionKey(col.ID))
		}
	}
	if err := e.adapter.DeleteDatabase(ctx, e.currentMeta()); err != nil {
		return err
	}
	e.cache.FlushByTags(tags...)
	e.events.Trigger(event.For("database", event.SuffixDelete), e.currentMeta().Schema)
	return nil
}

// metadataCollection is the fixed schema of the "_metadata" collection
// (§6 Persisted layout): one document per user collection holding its
// name, attributes, indexes and documentSecurity flag, plus the
// collection-level permissions and enabled flag the engine facade needs
// that the persisted-layout note doesn't spell out but collection
// lifecycle requires.
func metadataCollection() *types.Collection {
	return &types.Collection{
		ID:              consts.MetadataCollectionID,
		CollectionField: consts.MetadataCollectionID,
		Name:            "_metadata",
		Enabled:         true,
		Attributes: []types.Attribute{
			{Key: "name", Type: consts.AttrString, Size: 256, Required: true},
			{Key: "attributes", Type: consts.AttrJSON},
			{Key: "indexes", Type: consts.AttrJSON},
			{Key: "permissions", Type: consts.AttrJSON},
			{Key: "documentSecurity", Type: consts.AttrBoolean},
			{Key: "enabled", Type: consts.AttrBoolean},
		},
	}
}

// collectionToDoc renders col as the Doc stored in _metadata.
func collectionToDoc(col *types.Collection) *types.Doc {
	permJSON := make(types.List, len(col.Permissions))
	for i, p := range col.Permissions {
		permJSON[i] = p
	}
	doc := types.NewDoc(map[string]types.Value{
		consts.FieldID: col.ID,
		"name":         col.Name,
		"attributes":   attributesToValue(col.Attributes),
		"indexes":      indexesToValue(col.Indexes),
		"permissions":  permJSON,
		"documentSecurity": col.DocumentSecurity,
		"enabled":          col.Enabled,
	})
	return doc
}

// docToCollection reverses collectionToDoc.
func docToCollection(doc *types.Doc) (*types.Collection, error) {
	col := &types.Collection{
		ID:              doc.ID(),
		CollectionField: consts.MetadataCollectionID,
	}
	if name, ok := doc.Get("name").(string); ok {
		col.Name = name
	}
	if attrs, err := valueToAttributes(doc.Get("attributes")); err != nil {
		return nil, err
	} else {
		col.Attributes = attrs
	}
	if idxs, err := valueToIndexes(doc.Get("indexes")); err != nil {
		return nil, err
	} else {
		col.Indexes = idxs
	}
	if perms, ok := doc.Get("permissions").(types.List); ok {
		for _, p := range perms {
			if s, ok := p.(string); ok {
				col.Permissions = append(col.Permissions, s)
			}
		}
	}
	if ds, ok := doc.Get("documentSecurity").(bool); ok {
		col.DocumentSecurity = ds
	}
	if en, ok := doc.Get("enabled").(bool); ok {
		col.Enabled = en
	}
	return col, nil
}

// newID returns id if non-empty, else a fresh uuid, matching the engine's
// "caller may omit $id" convention across collections/attributes/indexes/
// documents.
func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
