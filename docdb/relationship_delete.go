package docdb

import (
	"context"

	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
)

// applyOnDelete enforces every relationship's onDelete behavior (§3
// RelationOptions.OnDelete) against documentID before DeleteDocument
// removes it from collectionID. It walks every other collection's
// attributes for a non-virtual relationship column pointing back at
// collectionID (oneToOne's either side, oneToMany/manyToOne's owning
// "many" side — the only shapes that store a physical foreign key, per
// types.RelationOptions.Virtual), finds the rows in that collection
// referencing documentID, and applies cascade/restrict/setNull. manyToMany
// is handled separately: its join rows have no identity independent of
// their two endpoints, so they are always dropped regardless of onDelete.
func (e *Engine) applyOnDelete(ctx context.Context, collectionID, documentID string) error {
	cols, err := e.ListCollections(ctx)
	if err != nil {
		return err
	}
	deletedCol, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}

	for _, col := range cols {
		for i := range col.Attributes {
			attr := &col.Attributes[i]
			if !attr.IsRelationship() || attr.Options == nil {
				continue
			}
			opts := attr.Options
			if opts.RelationType == consts.RelationManyToMany || opts.Virtual() {
				continue
			}
			if opts.RelatedCollection != collectionID {
				continue
			}
			if err := e.applyOnDeleteColumn(ctx, col, attr, documentID); err != nil {
				return err
			}
		}
	}

	for i := range deletedCol.Attributes {
		attr := &deletedCol.Attributes[i]
		if attr.Options == nil || attr.Options.RelationType != consts.RelationManyToMany {
			continue
		}
		if err := e.cleanupJoinRows(ctx, deletedCol.ID, attr, documentID); err != nil {
			return err
		}
	}
	return nil
}

// applyOnDeleteColumn finds every row in col referencing documentID through
// attr's foreign-key column and applies attr.Options.OnDelete. An empty
// OnDelete (never set on a hand-built RelationOptions) is treated as
// restrict, the conservative default.
func (e *Engine) applyOnDeleteColumn(ctx context.Context, col *types.Collection, attr *types.Attribute, documentID string) error {
	meta := e.currentMeta()
	group := &query.Group{Filters: []*query.Query{{Method: query.Equal, Attribute: attr.Key, Values: []any{documentID}}}}
	rows, err := e.adapter.Find(ctx, meta, col, group, e.maxLimit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	switch attr.Options.OnDelete {
	case consts.OnDeleteCascade:
		for _, row := range rows {
			d := types.NewDoc(row)
			if err := e.DeleteDocument(ctx, col.ID, d.ID()); err != nil {
				return err
			}
		}
	case consts.OnDeleteSetNull:
		for _, row := range rows {
			d := types.NewDoc(row)
			if err := e.patchForeignKey(ctx, col.ID, d.ID(), attr.Key, nil); err != nil {
				return err
			}
		}
	default: // OnDeleteRestrict and unset
		e.log.Warnw("delete restricted by relationship", "document", documentID, "referencingCollection", col.ID, "via", attr.Key, "count", len(rows))
		return errs.Dependency("cannot delete %q: %d document(s) in %q still reference it via %q",
			documentID, len(rows), col.ID, attr.Key)
	}
	return nil
}

// cleanupJoinRows drops every row in attr's synthesized join collection
// that references documentID from collectionID's side.
func (e *Engine) cleanupJoinRows(ctx context.Context, collectionID string, attr *types.Attribute, documentID string) error {
	joinID := manyToManyJoinID(collectionID, attr)
	joinCol, err := e.GetCollection(ctx, joinID)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return nil
		}
		return err
	}
	thisColumn, _ := joinColumns(attr)
	meta := e.currentMeta()
	group := &query.Group{Filters: []*query.Query{{Method: query.Equal, Attribute: thisColumn, Values: []any{documentID}}}}
	rows, err := e.adapter.Find(ctx, meta, joinCol, group, e.maxLimit)
	if err != nil {
		return err
	}
	for _, row := range rows {
		d := types.NewDoc(row)
		if err := e.adapter.DeleteDocument(ctx, meta, joinCol, d.ID()); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		e.invalidateCollection(joinID)
	}
	return nil
}
