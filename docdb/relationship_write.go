package docdb

import (
	"context"
	"time"

	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
)

// applyRelationshipWrites walks col's relationship attributes present on
// doc and, for each, either leaves a non-virtual value in place (it is an
// ordinary physical column the adapter will persist) or interprets a
// virtual attribute's {set?, connect?, disconnect?} payload against the
// related side, then strips the payload from doc: virtual attributes own
// no column of their own, so nothing would persist it anyway, but leaving
// a *types.Doc command object on doc would otherwise leak into the
// returned logical document.
func (e *Engine) applyRelationshipWrites(ctx context.Context, col *types.Collection, doc *types.Doc, isCreate bool) error {
	for i := range col.Attributes {
		attr := &col.Attributes[i]
		if !attr.IsRelationship() || attr.Options == nil || !doc.Has(attr.Key) {
			continue
		}
		value := doc.Get(attr.Key)

		if !attr.Options.Virtual() {
			if attr.Options.RelationType == consts.RelationOneToOne && attr.Options.TwoWay {
				if err := e.syncOneToOneInverse(ctx, attr, doc.ID(), value); err != nil {
					return err
				}
			}
			continue
		}

		payload, ok := value.(*types.Doc)
		if value == nil {
			doc.Delete(attr.Key)
			continue
		}
		if !ok {
			return errs.Validation("relationship attribute %q must be an object with set/connect/disconnect", attr.Key)
		}

		var err error
		switch attr.Options.RelationType {
		case consts.RelationOneToMany, consts.RelationManyToOne:
			err = e.applyForeignKeySide(ctx, attr, doc.ID(), payload)
		case consts.RelationManyToMany:
			err = e.applyJoinSide(ctx, col.ID, attr, doc.ID(), payload)
		}
		if err != nil {
			return err
		}
		doc.Delete(attr.Key)
	}
	return nil
}

// syncOneToOneInverse keeps a twoWay oneToOne relationship's reverse column
// consistent: both sides own a physical column (types.RelationOptions.
// Virtual's oneToOne case), so setting one independently would otherwise
// let them drift.
func (e *Engine) syncOneToOneInverse(ctx context.Context, attr *types.Attribute, thisDocID string, value types.Value) error {
	var relatedID string
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		relatedID = v
	default:
		return errs.Validation("relationship attribute %q must be a string id or null", attr.Key)
	}
	if relatedID == "" {
		return nil
	}
	return e.patchForeignKey(ctx, attr.Options.RelatedCollection, relatedID, attr.Options.TwoWayKey, thisDocID)
}

// applyForeignKeySide applies a virtual parent-side payload for
// oneToMany/manyToOne: the child collection named by attr.Options.
// RelatedCollection owns the foreign-key column named attr.Options.
// TwoWayKey, which this method points at or clears on thisDocID's behalf.
func (e *Engine) applyForeignKeySide(ctx context.Context, attr *types.Attribute, thisDocID string, payload *types.Doc) error {
	childCollectionID := attr.Options.RelatedCollection
	fkColumn := attr.Options.TwoWayKey

	if payload.Has("set") {
		wanted := stringListValue(payload.Get("set"))
		wantedSet := make(map[string]bool, len(wanted))
		for _, id := range wanted {
			wantedSet[id] = true
		}
		col, err := e.GetCollection(ctx, childCollectionID)
		if err != nil {
			return err
		}
		meta := e.currentMeta()
		group := &query.Group{Filters: []*query.Query{{Method: query.Equal, Attribute: fkColumn, Values: []any{thisDocID}}}}
		rows, err := e.adapter.Find(ctx, meta, col, group, e.maxLimit)
		if err != nil {
			return err
		}
		for _, row := range rows {
			d := types.NewDoc(row)
			if !wantedSet[d.ID()] {
				if err := e.patchForeignKey(ctx, childCollectionID, d.ID(), fkColumn, nil); err != nil {
					return err
				}
			}
		}
		for _, id := range wanted {
			if err := e.patchForeignKey(ctx, childCollectionID, id, fkColumn, thisDocID); err != nil {
				return err
			}
		}
	}

	for _, id := range stringListValue(payload.Get("connect")) {
		if err := e.patchForeignKey(ctx, childCollectionID, id, fkColumn, thisDocID); err != nil {
			return err
		}
	}
	for _, id := range stringListValue(payload.Get("disconnect")) {
		if err := e.patchForeignKey(ctx, childCollectionID, id, fkColumn, nil); err != nil {
			return err
		}
	}
	return nil
}

// patchForeignKey rewrites a single column on an existing document,
// fetching the full row first since the adapter's UpdateDocument rewrites
// every physical column rather than patching one.
func (e *Engine) patchForeignKey(ctx context.Context, collectionID, documentID, column string, value any) error {
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
	doc.Set(column, value)
	doc.Set(consts.FieldUpdatedAt, time.Now().UTC())
	if err := e.adapter.UpdateDocument(ctx, meta, col, doc); err != nil {
		return err
	}
	e.invalidateCollection(collectionID, documentID)
	return nil
}

// applyJoinSide applies a virtual manyToMany payload by rewriting rows in
// the synthesized join collection located via manyToManyJoinID.
func (e *Engine) applyJoinSide(ctx context.Context, thisCollectionID string, attr *types.Attribute, thisDocID string, payload *types.Doc) error {
	joinID := manyToManyJoinID(thisCollectionID, attr)
	joinCol, err := e.GetCollection(ctx, joinID)
	if err != nil {
		return err
	}
	thisColumn, otherColumn := joinColumns(attr)
	meta := e.currentMeta()

	existingByOther := make(map[string]string) // otherID -> join row $id
	group := &query.Group{Filters: []*query.Query{{Method: query.Equal, Attribute: thisColumn, Values: []any{thisDocID}}}}
	rows, err := e.adapter.Find(ctx, meta, joinCol, group, e.maxLimit)
	if err != nil {
		return err
	}
	for _, row := range rows {
		d := types.NewDoc(row)
		if other, ok := d.Get(otherColumn).(string); ok {
			existingByOther[other] = d.ID()
		}
	}

	createJoinRow := func(otherID string) error {
		if _, exists := existingByOther[otherID]; exists {
			return nil
		}
		row := types.NewDoc(map[string]types.Value{
			consts.FieldID:         newID(""),
			consts.FieldCreatedAt:  time.Now().UTC(),
			consts.FieldUpdatedAt:  time.Now().UTC(),
			thisColumn:             thisDocID,
			otherColumn:            otherID,
		})
		if err := e.adapter.CreateDocument(ctx, meta, joinCol, row); err != nil {
			return err
		}
		existingByOther[otherID] = row.ID()
		return nil
	}
	deleteJoinRow := func(otherID string) error {
		rowID, exists := existingByOther[otherID]
		if !exists {
			return nil
		}
		if err := e.adapter.DeleteDocument(ctx, meta, joinCol, rowID); err != nil {
			return err
		}
		delete(existingByOther, otherID)
		return nil
	}

	if payload.Has("set") {
		wanted := stringListValue(payload.Get("set"))
		wantedSet := make(map[string]bool, len(wanted))
		for _, id := range wanted {
			wantedSet[id] = true
		}
		for other := range existingByOther {
			if !wantedSet[other] {
				if err := deleteJoinRow(other); err != nil {
					return err
				}
			}
		}
		for _, id := range wanted {
			if err := createJoinRow(id); err != nil {
				return err
			}
		}
	}
	for _, id := range stringListValue(payload.Get("connect")) {
		if err := createJoinRow(id); err != nil {
			return err
		}
	}
	for _, id := range stringListValue(payload.Get("disconnect")) {
		if err := deleteJoinRow(id); err != nil {
			return err
		}
	}
	e.invalidateCollection(joinID)
	return nil
}

// manyToManyJoinID locates the join collection createManyToMany
// synthesized for attr, derivable from either side of the relationship:
// the Side==SideParent declarer knows (thisCollectionID, RelatedCollection,
// Key) directly; the Side==SideChild/twoWay inverse reconstructs the same
// triple by swapping in RelatedCollection and TwoWayKey.
func manyToManyJoinID(thisCollectionID string, attr *types.Attribute) string {
	if attr.Options.Side == consts.SideParent {
		return joinCollectionID(thisCollectionID, attr.Options.RelatedCollection, attr.Key)
	}
	return joinCollectionID(attr.Options.RelatedCollection, thisCollectionID, attr.Options.TwoWayKey)
}

// joinColumns returns (this side's join column, other side's join column)
// for attr, matching the sourceId/targetId attributes createManyToMany
// declared on the join collection.
func joinColumns(attr *types.Attribute) (string, string) {
	if attr.Options.Side == consts.SideParent {
		return "sourceId", "targetId"
	}
	return "targetId", "sourceId"
}

// stringListValue mirrors validators.stringList for the engine's own
// relationship-write interpretation of a set/connect/disconnect value.
func stringListValue(v types.Value) []string {
	list, ok := v.(types.List)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
