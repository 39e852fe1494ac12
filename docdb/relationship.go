package docdb

import (
	"context"
	"fmt"

	"github.com/forbearing/docdb/event"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
)

const joinCollectionPrefix = "rel_"

// CreateRelationship declares a relationship between collectionID and
// relatedCollectionID under the attribute name key, mirroring
// types.RelationOptions.Virtual as the single source of truth for which
// side(s) own a physical column (see that method's doc for the full
// storage rule). twoWayKey names the attribute added to the related
// collection when twoWay is true; for oneToMany it also names the
// physical foreign-key column on relatedCollectionID (the owning "many"
// side) and so must always be supplied, independent of twoWay. For
// manyToOne the foreign-key column on collectionID is named key, and
// twoWayKey names the reverse attribute on relatedCollectionID.
// manyToMany relationships are resolved through a synthesized join
// collection rather than a column on either side.
//
// For oneToOne and manyToMany it returns the attribute created on
// collectionID and the inverse created on relatedCollectionID (nil unless
// twoWay). For oneToMany and manyToOne it returns the foreign-key
// attribute on the owning side (relatedCollectionID for oneToMany,
// collectionID for manyToOne) and the virtual reverse attribute on the
// other side (nil unless twoWay).
func (e *Engine) CreateRelationship(ctx context.Context, collectionID, relatedCollectionID string, relationType consts.RelationType, key string, twoWay bool, twoWayKey string, onDelete consts.OnDelete) (*types.Attribute, *types.Attribute, error) {
	if err := e.requireMeta(); err != nil {
		return nil, nil, err
	}
	if key == "" {
		return nil, nil, errs.Validation("relationship attribute key must not be empty")
	}

	switch relationType {
	case consts.RelationOneToOne:
		return e.createOneToOne(ctx, collectionID, relatedCollectionID, key, twoWay, twoWayKey, onDelete)
	case consts.RelationOneToMany:
		return e.createOneSided(ctx, collectionID, relatedCollectionID, consts.RelationOneToMany, key, twoWay, twoWayKey, onDelete)
	case consts.RelationManyToOne:
		// manyToOne is oneToMany with the owning ("many"/child) side
		// swapped to collectionID: collectionID always gets the physical
		// foreign-key column, relatedCollectionID gets the virtual
		// reverse view only if twoWay.
		child, parent, err := e.createOneSidedSwapped(ctx, relatedCollectionID, collectionID, consts.RelationManyToOne, twoWayKey, twoWay, key, onDelete)
		return child, parent, err
	case consts.RelationManyToMany:
		return e.createManyToMany(ctx, collectionID, relatedCollectionID, key, twoWay, twoWayKey, onDelete)
	default:
		return nil, nil, errs.Validation("unknown relation type %q", relationType)
	}
}

func (e *Engine) createOneToOne(ctx context.Context, collectionID, relatedCollectionID, key string, twoWay bool, twoWayKey string, onDelete consts.OnDelete) (*types.Attribute, *types.Attribute, error) {
	source := &types.Attribute{
		Key:  key,
		Type: consts.AttrRelationship,
		Size: maxUIDLength,
		Options: &types.RelationOptions{
			RelationType:      consts.RelationOneToOne,
			Side:              consts.SideParent,
			RelatedCollection: relatedCollectionID,
			TwoWay:            twoWay,
			TwoWayKey:         twoWayKey,
			OnDelete:          onDelete,
		},
	}
	created, err := e.CreateAttribute(ctx, collectionID, source)
	if err != nil {
		return nil, nil, err
	}

	var inverse *types.Attribute
	if twoWay {
		if twoWayKey == "" {
			_ = e.DeleteAttribute(ctx, collectionID, key)
			return nil, nil, errs.Validation("oneToOne: twoWayKey must be supplied when twoWay is true")
		}
		related := &types.Attribute{
			Key:  twoWayKey,
			Type: consts.AttrRelationship,
			Size: maxUIDLength,
			Options: &types.RelationOptions{
				RelationType:      consts.RelationOneToOne,
				Side:              consts.SideChild,
				RelatedCollection: collectionID,
				TwoWay:            true,
				TwoWayKey:         key,
				OnDelete:          onDelete,
			},
		}
		inverse, err = e.CreateAttribute(ctx, relatedCollectionID, related)
		if err != nil {
			_ = e.DeleteAttribute(ctx, collectionID, key)
			return nil, nil, err
		}
	}
	e.events.Trigger(event.For("relationship", event.SuffixCreate), collectionID, key, relatedCollectionID)
	return created, inverse, nil
}

// createOneSided implements oneToMany: parentID is the "one" side,
// childID is the "many"/owning side. childKey names the fk column on
// childID, always created; parentKey names the virtual reverse attribute
// on parentID, created only when twoWay.
func (e *Engine) createOneSided(ctx context.Context, parentID, childID string, relationType consts.RelationType, parentKey string, twoWay bool, childKey string, onDelete consts.OnDelete) (*types.Attribute, *types.Attribute, error) {
	if childKey == "" {
		return nil, nil, errs.Validation("oneToMany: the child foreign-key attribute name must be supplied")
	}
	child := &types.Attribute{
		Key:  childKey,
		Type: consts.AttrRelationship,
		Size: maxUIDLength,
		Options: &types.RelationOptions{
			RelationType:      relationType,
			Side:              consts.SideChild,
			RelatedCollection: parentID,
			TwoWay:            twoWay,
			TwoWayKey:         parentKey,
			OnDelete:          onDelete,
		},
	}
	createdChild, err := e.CreateAttribute(ctx, childID, child)
	if err != nil {
		return nil, nil, err
	}

	var createdParent *types.Attribute
	if twoWay {
		parent := &types.Attribute{
			Key:  parentKey,
			Type: consts.AttrRelationship,
			Array: true,
			Options: &types.RelationOptions{
				RelationType:      relationType,
				Side:              consts.SideParent,
				RelatedCollection: childID,
				TwoWay:            true,
				TwoWayKey:         childKey,
				OnDelete:          onDelete,
			},
		}
		createdParent, err = e.CreateAttribute(ctx, parentID, parent)
		if err != nil {
			_ = e.DeleteAttribute(ctx, childID, childKey)
			return nil, nil, err
		}
	}
	e.events.Trigger(event.For("relationship", event.SuffixCreate), childID, childKey, parentID)
	return createdChild, createdParent, nil
}

// createOneSidedSwapped runs createOneSided and returns its (child, parent)
// pair unchanged. For manyToOne the child is the original collectionID, so
// that pair is already (attribute on collectionID, attribute on
// relatedCollectionID).
func (e *Engine) createOneSidedSwapped(ctx context.Context, parentID, childID string, relationType consts.RelationType, parentKey string, twoWay bool, childKey string, onDelete consts.OnDelete) (*types.Attribute, *types.Attribute, error) {
	child, parent, err := e.createOneSided(ctx, parentID, childID, relationType, parentKey, twoWay, childKey, onDelete)
	return child, parent, err
}

func (e *Engine) createManyToMany(ctx context.Context, collectionID, relatedCollectionID, key string, twoWay bool, twoWayKey string, onDelete consts.OnDelete) (*types.Attribute, *types.Attribute, error) {
	joinID := joinCollectionID(collectionID, relatedCollectionID, key)
	join := &types.Collection{
		ID:      joinID,
		Name:    joinID,
		Enabled: true,
		Attributes: []types.Attribute{
			{Key: "sourceId", Type: consts.AttrString, Size: maxUIDLength, Required: true},
			{Key: "targetId", Type: consts.AttrString, Size: maxUIDLength, Required: true},
		},
		Indexes: []types.Index{
			{ID: "source_idx", Type: consts.IndexKey, Attributes: []string{"sourceId"}},
			{ID: "target_idx", Type: consts.IndexKey, Attributes: []string{"targetId"}},
		},
	}
	if _, err := e.CreateCollection(ctx, join); err != nil {
		return nil, nil, err
	}

	source := &types.Attribute{
		Key:  key,
		Type: consts.AttrRelationship,
		Array: true,
		Options: &types.RelationOptions{
			RelationType:      consts.RelationManyToMany,
			Side:              consts.SideParent,
			RelatedCollection: relatedCollectionID,
			TwoWay:            twoWay,
			TwoWayKey:         twoWayKey,
			OnDelete:          onDelete,
		},
	}
	createdSource, err := e.CreateAttribute(ctx, collectionID, source)
	if err != nil {
		_ = e.DeleteCollection(ctx, joinID)
		return nil, nil, err
	}

	var createdTarget *types.Attribute
	if twoWay {
		if twoWayKey == "" {
			_ = e.DeleteAttribute(ctx, collectionID, key)
			_ = e.DeleteCollection(ctx, joinID)
			return nil, nil, errs.Validation("manyToMany: twoWayKey must be supplied when twoWay is true")
		}
		target := &types.Attribute{
			Key:  twoWayKey,
			Type: consts.AttrRelationship,
			Array: true,
			Options: &types.RelationOptions{
				RelationType:      consts.RelationManyToMany,
				Side:              consts.SideChild,
				RelatedCollection: collectionID,
				TwoWay:            true,
				TwoWayKey:         key,
				OnDelete:          onDelete,
			},
		}
		createdTarget, err = e.CreateAttribute(ctx, relatedCollectionID, target)
		if err != nil {
			_ = e.DeleteAttribute(ctx, collectionID, key)
			_ = e.DeleteCollection(ctx, joinID)
			return nil, nil, err
		}
	}
	e.events.Trigger(event.For("relationship", event.SuffixCreate), collectionID, key, relatedCollectionID)
	return createdSource, createdTarget, nil
}

func joinCollectionID(a, b, key string) string {
	id := fmt.Sprintf("%s%s_%s_%s", joinCollectionPrefix, a, b, key)
	if len(id) > maxKeyLengthForJoin {
		id = id[:maxKeyLengthForJoin]
	}
	return id
}

const (
	maxUIDLength        = 36
	maxKeyLengthForJoin = 36
)
