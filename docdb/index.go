package docdb

import (
	"context"

	"github.com/forbearing/docdb/event"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/errs"
	"github.com/forbearing/docdb/validators"
)

// CreateIndex validates and creates a new index on collectionID.
func (e *Engine) CreateIndex(ctx context.Context, collectionID string, idx *types.Index) (*types.Index, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if idx.ID == "" {
		return nil, errs.Validation("index id must not be empty")
	}
	if col.Index(idx.ID) != nil {
		return nil, errs.Conflict("index %q already exists on collection %q", idx.ID, collectionID)
	}
	if err := validators.ValidateIndex(col, idx, e.adapter.Capabilities().MaxIndexLength); err != nil {
		return nil, err
	}

	meta := e.currentMeta()
	if err := e.adapter.CreateIndex(ctx, meta, collectionID, idx); err != nil {
		return nil, err
	}
	col.Indexes = append(col.Indexes, *idx)
	if err := e.putMetadataDoc(ctx, col); err != nil {
		_ = e.adapter.DropIndex(ctx, meta, collectionID, idx.ID)
		return nil, err
	}
	e.invalidateCollection(collectionID)
	e.events.Trigger(event.For("index", event.SuffixCreate), collectionID, idx.ID)
	return idx, nil
}

// RenameIndex changes idx's id without rebuilding it.
func (e *Engine) RenameIndex(ctx context.Context, collectionID, oldID, newIndexID string) error {
	if err := e.requireMeta(); err != nil {
		return err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	idx := col.Index(oldID)
	if idx == nil {
		return errs.NotFound("index %q not found on collection %q", oldID, collectionID)
	}
	if col.Index(newIndexID) != nil {
		return errs.Conflict("index %q already exists on collection %q", newIndexID, collectionID)
	}

	meta := e.currentMeta()
	if err := e.adapter.RenameIndex(ctx, meta, collectionID, oldID, newIndexID); err != nil {
		return err
	}
	idx.ID = newIndexID
	if err := e.putMetadataDoc(ctx, col); err != nil {
		return err
	}
	e.invalidateCollection(collectionID)
	e.events.Trigger(event.IndexRename, collectionID, oldID, newIndexID)
	return nil
}

// DeleteIndex drops idx from collectionID.
func (e *Engine) DeleteIndex(ctx context.Context, collectionID, indexID string) error {
	if err := e.requireMeta(); err != nil {
		return err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if col.Index(indexID) == nil {
		return errs.NotFound("index %q not found on collection %q", indexID, collectionID)
	}

	meta := e.currentMeta()
	if err := e.adapter.DropIndex(ctx, meta, collectionID, indexID); err != nil {
		return err
	}
	kept := make([]types.Index, 0, len(col.Indexes))
	for _, idx := range col.Indexes {
		if idx.ID != indexID {
			kept = append(kept, idx)
		}
	}
	col.Indexes = kept
	if err := e.putMetadataDoc(ctx, col); err != nil {
		return err
	}
	e.invalidateCollection(collectionID)
	e.events.Trigger(event.For("index", event.SuffixDelete), collectionID, indexID)
	return nil
}
