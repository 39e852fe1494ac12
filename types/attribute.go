package types

import "github.com/forbearing/docdb/types/consts"

// Attribute declares a single typed field on a collection. Creating one
// adds a physical column except for Virtual and relationship variants whose
// storage depends on RelationOptions.Side.
type Attribute struct {
	ID            string                `json:"$id"`
	Key           string                `json:"key"`
	Type          consts.AttributeType  `json:"type"`
	Size          int                   `json:"size"`
	Required      bool                  `json:"required,omitempty"`
	Array         bool                  `json:"array,omitempty"`
	Filters       []string              `json:"filters,omitempty"`
	Format        string                `json:"format,omitempty"`
	FormatOptions map[string]Value      `json:"formatOptions,omitempty"`
	Default       Value                 `json:"default,omitempty"`
	Options       *RelationOptions      `json:"options,omitempty"`
}

// IsRelationship reports whether the attribute's physical storage is
// governed by a relationship rather than a direct column.
func (a *Attribute) IsRelationship() bool {
	return a.Type == consts.AttrRelationship
}

// Virtual reports whether the attribute has no column of its own.
func (a *Attribute) Virtual() bool {
	return a.Type == consts.AttrVirtual
}
