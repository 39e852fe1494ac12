package types

import "github.com/forbearing/docdb/types/consts"

// Index declares a physical lookup structure over one or more attributes.
type Index struct {
	ID         string             `json:"$id"`
	Key        string             `json:"key,omitempty"`
	Type       consts.IndexType   `json:"type"`
	Attributes []string           `json:"attributes"`
	Orders     []consts.SortOrder `json:"orders,omitempty"`
	Lengths    []int              `json:"lengths,omitempty"`
}
