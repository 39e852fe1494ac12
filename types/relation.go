package types

import "github.com/forbearing/docdb/types/consts"

// RelationOptions describes a relationship attribute: its cardinality,
// which side owns the physical column, the target collection, and the
// delete-cascade behavior.
type RelationOptions struct {
	RelationType     consts.RelationType `json:"relationType"`
	Side             consts.RelationSide `json:"side"`
	RelatedCollection string             `json:"relatedCollection"`
	TwoWay           bool                `json:"twoWay,omitempty"`
	TwoWayKey        string              `json:"twoWayKey,omitempty"`
	OnDelete         consts.OnDelete     `json:"onDelete,omitempty"`
}

// Virtual reports whether queries against this relationship attribute must
// be rejected because the attribute's side does not own physical storage.
//
// Storage rule (source of truth, mirrored by createRelationship):
//   - oneToOne: both sides own a column (not virtual).
//   - oneToMany parent-side: virtual (child owns the foreign key).
//   - oneToMany child-side / manyToOne child-side: owns a column.
//   - manyToOne parent-side: virtual.
//   - manyToMany: neither side owns a plain column; both are virtual,
//     resolved through a join relation.
func (r *RelationOptions) Virtual() bool {
	switch r.RelationType {
	case consts.RelationOneToOne:
		return false
	case consts.RelationOneToMany:
		return r.Side == consts.SideParent
	case consts.RelationManyToOne:
		return r.Side == consts.SideParent
	case consts.RelationManyToMany:
		return true
	default:
		return true
	}
}
