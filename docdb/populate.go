package docdb

import (
	"context"

	"github.com/forbearing/docdb/query"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
)

// Populate resolves the relationship attributes named in populateQueries
// on doc, replacing each raw foreign-key id (or virtual-side payload) with
// the related Doc(s) it points at. populateQueries maps attribute name to
// the nested query list constraining (and potentially further populating)
// that relation, the shape query.GroupByType's PopulateQueries field
// produces from a populate(...) query node.
func (e *Engine) Populate(ctx context.Context, collectionID string, doc *types.Doc, populateQueries map[string][]*query.Query) error {
	if err := e.requireMeta(); err != nil {
		return err
	}
	col, err := e.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	rc := query.NewRelationshipContext()
	rc.Enter(collectionID)
	defer rc.Leave(collectionID)
	return e.populate(ctx, col, doc, populateQueries, rc)
}

func (e *Engine) populate(ctx context.Context, col *types.Collection, doc *types.Doc, populateQueries map[string][]*query.Query, rc *query.RelationshipContext) error {
	for name, nested := range populateQueries {
		attr := col.Attribute(name)
		if attr == nil || !attr.IsRelationship() || attr.Options == nil {
			return errs.Validation("populate targets unknown relationship %q", name)
		}
		if err := e.populateAttribute(ctx, col, doc, attr, nested, rc); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) populateAttribute(ctx context.Context, col *types.Collection, doc *types.Doc, attr *types.Attribute, nested []*query.Query, rc *query.RelationshipContext) error {
	opts := attr.Options
	if cycle := rc.Enter(opts.RelatedCollection); cycle {
		return nil
	}
	defer rc.Leave(opts.RelatedCollection)

	relatedCol, err := e.GetCollection(ctx, opts.RelatedCollection)
	if err != nil {
		return err
	}
	group := query.GroupByType(nested)
	childCtx := rc.Child()

	if !opts.Virtual() {
		id, ok := doc.Get(attr.Key).(string)
		if !ok || id == "" {
			return nil
		}
		related, err := e.GetDocument(ctx, opts.RelatedCollection, id, group.Selections)
		if err != nil {
			if errs.Is(err, errs.KindNotFound) || errs.Is(err, errs.KindAuthorization) {
				return nil
			}
			return err
		}
		if err := e.populate(ctx, relatedCol, related, group.PopulateQueries, childCtx); err != nil {
			return err
		}
		doc.Set(attr.Key, related)
		return nil
	}

	var related []*types.Doc
	switch attr.Options.RelationType {
	case consts.RelationOneToMany, consts.RelationManyToOne:
		filters := append(append([]*query.Query{}, nested...), &query.Query{
			Method: query.Equal, Attribute: opts.TwoWayKey, Values: []any{doc.ID()},
		})
		related, err = e.Find(ctx, opts.RelatedCollection, filters)
		if err != nil {
			return err
		}
	case consts.RelationManyToMany:
		related, err = e.populateManyToMany(ctx, col.ID, attr, doc.ID(), nested)
		if err != nil {
			return err
		}
	}
	for _, r := range related {
		if err := e.populate(ctx, relatedCol, r, group.PopulateQueries, childCtx); err != nil {
			return err
		}
	}
	doc.Set(attr.Key, toList(related))
	return nil
}

func (e *Engine) populateManyToMany(ctx context.Context, thisCollectionID string, attr *types.Attribute, thisDocID string, nested []*query.Query) ([]*types.Doc, error) {
	joinID := manyToManyJoinID(thisCollectionID, attr)
	joinCol, err := e.GetCollection(ctx, joinID)
	if err != nil {
		return nil, err
	}
	thisColumn, otherColumn := joinColumns(attr)
	meta := e.currentMeta()
	group := &query.Group{Filters: []*query.Query{{Method: query.Equal, Attribute: thisColumn, Values: []any{thisDocID}}}}
	rows, err := e.adapter.Find(ctx, meta, joinCol, group, e.maxLimit)
	if err != nil {
		return nil, err
	}

	var out []*types.Doc
	for _, row := range rows {
		joinDoc := types.NewDoc(row)
		otherID, ok := joinDoc.Get(otherColumn).(string)
		if !ok || otherID == "" {
			continue
		}
		related, err := e.GetDocument(ctx, attr.Options.RelatedCollection, otherID, nil)
		if err != nil {
			if errs.Is(err, errs.KindNotFound) || errs.Is(err, errs.KindAuthorization) {
				continue
			}
			return nil, err
		}
		out = append(out, related)
	}
	return out, nil
}

func toList(docs []*types.Doc) types.List {
	out := make(types.List, len(docs))
	for i, d := range docs {
		out[i] = d
	}
	return out
}
