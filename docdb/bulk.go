package docdb

import (
	"context"

	"github.com/forbearing/docdb/authz"
	"github.com/forbearing/docdb/cache"
	"github.com/forbearing/docdb/event"
	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
)

// UpdateDocuments applies patch to every document matching filters,
// running each update through the full single-document pipeline (structure
// validation, relationship side writes, filter encoding, cache
// invalidation). Documents the active role set is not allowed to update
// are skipped, not failed: a bulk write affects what the caller may touch
// and leaves the rest alone. Returns the updated logical documents.
func (e *Engine) UpdateDocuments(ctx context.Context, collectionID string, patch *types.Doc, filters []*query.Query, opts ...WriteOption) ([]*types.Doc, error) {
	ids, err := e.matchingIDs(ctx, collectionID, filters, consts.PermUpdate)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Doc, 0, len(ids))
	for _, id := range ids {
		updated, err := e.UpdateDocument(ctx, collectionID, id, patch, opts...)
		if err != nil {
			return out, err
		}
		out = append(out, updated)
	}
	e.events.Trigger(event.DocumentsPrefix+"update", collectionID, len(out))
	return out, nil
}

// DeleteDocuments deletes every document matching filters the active role
// set may delete, honoring each document's relationship onDelete rules.
// Returns the number of documents deleted.
func (e *Engine) DeleteDocuments(ctx context.Context, collectionID string, filters []*query.Query) (int, error) {
	ids, err := e.matchingIDs(ctx, collectionID, filters, consts.PermDelete)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, id := range ids {
		if err := e.DeleteDocument(ctx, collectionID, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	e.events.Trigger(event.DocumentsPrefix+"delete", collectionID, deleted)
	return deleted, nil
}

// matchingIDs resolves filters to the ids of documents the active role set
// holds perm on, skipping (and logging) the rest.
func (e *Engine) matchingIDs(ctx context.Context, collectionID string, filters []*query.Query, perm consts.PermissionKind) ([]string, error) {
	if err := e.requireMeta(); err != nil {
		return nil, err
	}
	if err := e.checkQueryValueBudget(filters); err != nil {
		return nil, err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if err := query.Validate(col, filters, query.Options{RequireFulltextIndexForSearch: e.requireFulltextForSearch}); err != nil {
		return nil, err
	}
	rows, err := e.adapter.Find(ctx, e.currentMeta(), col, query.GroupByType(filters), e.maxLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		doc := types.NewDoc(row)
		if !authz.Check(ctx, perm, col, doc.Permissions()) {
			e.log.Warnw("bulk write skipping unauthorized document", "collection", collectionID, "document", doc.ID(), "permission", perm)
			continue
		}
		ids = append(ids, doc.ID())
	}
	return ids, nil
}

// PurgeCachedDocument drops the cached entry for one document without
// touching storage, for callers that mutated rows out of band (restores,
// manual SQL) and need the next read to hit the adapter.
func (e *Engine) PurgeCachedDocument(collectionID, documentID string) error {
	if err := e.requireMeta(); err != nil {
		return err
	}
	e.cache.FlushByTags(cache.DocumentKey(e.collectionKey(collectionID), documentID))
	e.events.Trigger(event.DocumentPurge, collectionID, documentID)
	return nil
}

// PurgeCachedCollection drops every cached entry tagged for collectionID.
func (e *Engine) PurgeCachedCollection(collectionID string) error {
	if err := e.requireMeta(); err != nil {
		return err
	}
	e.cache.FlushByTags(e.collectionKey(collectionID))
	e.events.Trigger(event.DocumentPurge, collectionID)
	return nil
}

// GetSizeOfCollection reports the physical size of collectionID's table in
// bytes, as the backend accounts it.
func (e *Engine) GetSizeOfCollection(ctx context.Context, collectionID string) (int64, error) {
	if err := e.requireMeta(); err != nil {
		return 0, err
	}
	if _, err := e.GetCollection(ctx, collectionID); err != nil {
		return 0, err
	}
	return e.adapter.GetSizeOfCollection(ctx, e.currentMeta(), collectionID)
}

// AnalyzeCollection refreshes the backend's planner statistics for
// collectionID's table.
func (e *Engine) AnalyzeCollection(ctx context.Context, collectionID string) error {
	if err := e.requireMeta(); err != nil {
		return err
	}
	if _, err := e.GetCollection(ctx, collectionID); err != nil {
		return err
	}
	return e.adapter.AnalyzeCollection(ctx, e.currentMeta(), collectionID)
}
