package docdb

import (
	"context"

	"github.com/forbearing/docdb/event"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/errs"
	"github.com/forbearing/docdb/validators"
)

// CreateAttribute adds a new attribute to col: validates its key, creates
// the backing physical column when it owns one, appends it to the stored
// schema, and invalidates the collection's cache entries.
func (e *Engine) CreateAttribute(ctx context.Context, collectionID string, attr *types.Attribute) (*types.Attribute, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if err := validators.ValidateKey(attr.Key, false); err != nil {
		return nil, err
	}
	if col.Attribute(attr.Key) != nil {
		return nil, errs.Conflict("attribute %q already exists on collection %q", attr.Key, collectionID)
	}
	attr.ID = newID(attr.ID)

	meta := e.currentMeta()
	if err := e.adapter.CreateColumn(ctx, meta, collectionID, attr); err != nil {
		return nil, err
	}
	col.Attributes = append(col.Attributes, *attr)
	if err := e.putMetadataDoc(ctx, col); err != nil {
		// compensate: the column now exists physically but the schema
		// document write failed; drop it rather than leave an attribute
		// whose metadata disagrees with the physical table.
		_ = e.adapter.DropColumn(ctx, meta, collectionID, attr.Key)
		return nil, err
	}
	e.invalidateCollection(collectionID)
	e.events.Trigger(event.For("attribute", event.SuffixCreate), collectionID, attr.Key)
	return attr, nil
}

// CreateAttributes adds several attributes to col in one call. There is no
// adapter-level batch-DDL-with-rollback primitive, so each column is added
// sequentially; on a failure partway through, the attributes already added
// in this call are compensated with DropColumn before the error is
// returned, leaving the collection exactly as it was on entry.
func (e *Engine) CreateAttributes(ctx context.Context, collectionID string, attrs []*types.Attribute) ([]*types.Attribute, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	added := make([]*types.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		created, err := e.CreateAttribute(ctx, collectionID, attr)
		if err != nil {
			meta := e.currentMeta()
			for _, a := range added {
				_ = e.adapter.DropColumn(ctx, meta, collectionID, a.Key)
			}
			if col, getErr := e.GetCollection(ctx, collectionID); getErr == nil {
				col.Attributes = withoutKeys(col.Attributes, added)
				_ = e.putMetadataDoc(ctx, col)
			}
			e.invalidateCollection(collectionID)
			return nil, err
		}
		added = append(added, created)
	}
	return added, nil
}

// UpdateAttribute alters an existing attribute's physical column (size,
// type) and rewrites the stored schema entry. The attribute's key and
// relationship options are immutable once created.
func (e *Engine) UpdateAttribute(ctx context.Context, collectionID string, attr *types.Attribute) (*types.Attribute, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	existing := col.Attribute(attr.Key)
	if existing == nil {
		return nil, errs.NotFound("attribute %q not found on collection %q", attr.Key, collectionID)
	}
	attr.ID = existing.ID
	attr.Options = existing.Options

	meta := e.currentMeta()
	if err := e.adapter.AlterColumn(ctx, meta, collectionID, attr); err != nil {
		return nil, err
	}
	*existing = *attr
	if err := e.putMetadataDoc(ctx, col); err != nil {
		return nil, err
	}
	e.invalidateCollection(collectionID)
	e.events.Trigger(event.For("attribute", event.SuffixUpdate), collectionID, attr.Key)
	return attr, nil
}

// DeleteAttribute drops attrKey's physical column (if it owns one) and
// removes it from the stored schema. It refuses to delete an attribute
// still referenced by an index (validators.ValidateIndexDependency).
func (e *Engine) DeleteAttribute(ctx context.Context, collectionID, attrKey string) error {
	if err := e.requireMeta(); err != nil {
		return err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if col.Attribute(attrKey) == nil {
		return errs.NotFound("attribute %q not found on collection %q", attrKey, collectionID)
	}
	if err := validators.ValidateIndexDependency(col, attrKey); err != nil {
		return err
	}

	meta := e.currentMeta()
	if err := e.adapter.DropColumn(ctx, meta, collectionID, attrKey); err != nil {
		return err
	}
	kept := make([]types.Attribute, 0, len(col.Attributes))
	for _, a := range col.Attributes {
		if a.Key != attrKey {
			kept = append(kept, a)
		}
	}
	col.Attributes = kept
	if err := e.putMetadataDoc(ctx, col); err != nil {
		return err
	}
	e.invalidateCollection(collectionID)
	e.events.Trigger(event.For("attribute", event.SuffixDelete), collectionID, attrKey)
	return nil
}

func withoutKeys(attrs []types.Attribute, removed []*types.Attribute) []types.Attribute {
	drop := make(map[string]bool, len(removed))
	for _, a := range removed {
		drop[a.Key] = true
	}
	kept := make([]types.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if !drop[a.Key] {
			kept = append(kept, a)
		}
	}
	return kept
}
