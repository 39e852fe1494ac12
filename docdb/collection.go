package docdb

import (
	"context"

	"github.com/forbearing/docdb/cache"
	"github.com/forbearing/docdb/event"
	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
	"github.com/forbearing/docdb/validators"
)

// CreateCollection registers a new collection: validates its id,
// permissions and declared indexes, creates the physical table (and any
// declared indexes) via the adapter, then persists the schema document in
// _metadata.
func (e *Engine) CreateCollection(ctx context.Context, col *types.Collection) (*types.Collection, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	if col == nil {
		return nil, errs.Validation("collection must not be nil")
	}
	col.ID = newID(col.ID)
	if err := validators.ValidateKey(col.ID, false); err != nil {
		return nil, err
	}
	if err := validators.ValidatePermissions(col.Permissions, maxPermissionStringLength); err != nil {
		return nil, err
	}
	for i := range col.Attributes {
		if err := validators.ValidateKey(col.Attributes[i].Key, false); err != nil {
			return nil, err
		}
	}
	for i := range col.Indexes {
		if err := validators.ValidateIndex(col, &col.Indexes[i], e.adapter.Capabilities().MaxIndexLength); err != nil {
			return nil, err
		}
	}

	meta := e.currentMeta()
	if err := e.adapter.CreateCollection(ctx, meta, col); err != nil {
		return nil, err
	}
	if err := e.putMetadataDoc(ctx, col); err != nil {
		return nil, err
	}
	e.invalidateCollection(col.ID)
	e.cache.FlushByTags(e.metadataKey())
	e.syncCollectionMirror(col)
	e.events.Trigger(event.For("collection", event.SuffixCreate), col.ID)
	return col, nil
}

// UpdateCollection replaces the stored schema document for an existing
// collection. It does not itself alter physical columns; attribute/index
// lifecycle methods do that and update this document as part of their own
// work. UpdateCollection is for the collection-level fields: name,
// documentSecurity, enabled, permissions.
func (e *Engine) UpdateCollection(ctx context.Context, col *types.Collection) (*types.Collection, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	if col == nil || col.ID == "" {
		return nil, errs.Validation("collection id must not be empty")
	}
	if err := validators.ValidatePermissions(col.Permissions, maxPermissionStringLength); err != nil {
		return nil, err
	}
	existing, err := e.GetCollection(ctx, col.ID)
	if err != nil {
		return nil, err
	}
	if col.Attributes == nil {
		col.Attributes = existing.Attributes
	}
	if col.Indexes == nil {
		col.Indexes = existing.Indexes
	}
	if err := e.putMetadataDoc(ctx, col); err != nil {
		return nil, err
	}
	e.invalidateCollection(col.ID)
	e.cache.FlushByTags(e.metadataKey())
	e.syncCollectionMirror(col)
	e.events.Trigger(event.For("collection", event.SuffixUpdate), col.ID)
	return col, nil
}

// DeleteCollection drops the physical table and the schema document.
func (e *Engine) DeleteCollection(ctx context.Context, collectionID string) error {
	if err := e.requireMeta(); err != nil {
		return err
	}
	if collectionID == consts.MetadataCollectionID {
		return errs.Validation("the metadata collection cannot be deleted")
	}
	meta := e.currentMeta()
	if err := e.adapter.DeleteCollection(ctx, meta, collectionID); err != nil {
		return err
	}
	metaCol := metadataCollection()
	if err := e.adapter.DeleteDocument(ctx, meta, metaCol, collectionID); err != nil {
		return err
	}
	e.invalidateCollection(collectionID)
	e.cache.FlushByTags(e.metadataKey())
	e.clearMirror(collectionID)
	e.events.Trigger(event.For("collection", event.SuffixDelete), collectionID)
	return nil
}

// GetCollection loads a collection's schema, preferring the cache.
func (e *Engine) GetCollection(ctx context.Context, collectionID string) (*types.Collection, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	if collectionID == consts.MetadataCollectionID {
		return metadataCollection(), nil
	}
	key := cache.DocumentKey(e.metadataKey(), collectionID)
	if v, ok := e.cache.Get(key); ok {
		if col, ok := v.(*types.Collection); ok {
			return col, nil
		}
	}
	meta := e.currentMeta()
	metaCol := metadataCollection()
	row, err := e.adapter.GetDocument(ctx, meta, metaCol, collectionID, nil)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errs.NotFound("collection %q not found", collectionID)
	}
	doc := types.NewDoc(row)
	col, err := docToCollection(doc)
	if err != nil {
		return nil, err
	}
	e.cache.Set(key, col, e.cacheTTL, e.metadataKey())
	return col, nil
}

// ListCollections returns every registered collection's schema.
func (e *Engine) ListCollections(ctx context.Context) ([]*types.Collection, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	meta := e.currentMeta()
	metaCol := metadataCollection()
	rows, err := e.adapter.Find(ctx, meta, metaCol, &query.Group{}, e.maxLimit)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Collection, 0, len(rows))
	for _, row := range rows {
		doc := types.NewDoc(row)
		col, err := docToCollection(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, nil
}

func (e *Engine) putMetadataDoc(ctx context.Context, col *types.Collection) error {
	meta := e.currentMeta()
	metaCol := metadataCollection()
	doc := collectionToDoc(col)
	existing, err := e.adapter.GetDocument(ctx, meta, metaCol, col.ID, []string{consts.FieldID})
	if err != nil {
		return err
	}
	if existing == nil {
		return e.adapter.CreateDocument(ctx, meta, metaCol, doc)
	}
	return e.adapter.UpdateDocument(ctx, meta, metaCol, doc)
}
