package validators

import (
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
)

// ValidateIndex checks the composite index rule set from the data model:
// attributes non-empty and duplicate-free; fulltext implies every covered
// attribute is a string; at most one array attribute, and only permitted
// when the index is of type key and declares a length for it; the combined
// attribute length must not exceed maxCombinedLength for non-fulltext
// indexes (fulltext indexes are exempt since they're not length-bounded the
// same way a btree key is).
func ValidateIndex(col *types.Collection, idx *types.Index, maxCombinedLength int) error {
	if len(idx.Attributes) == 0 {
		return errs.Validation("index %q: attributes must not be empty", idx.ID)
	}
	seen := make(map[string]bool, len(idx.Attributes))
	for _, a := range idx.Attributes {
		if seen[a] {
			return errs.Validation("index %q: duplicate attribute %q", idx.ID, a)
		}
		seen[a] = true
	}

	arrayCount := 0
	combined := 0
	for i, name := range idx.Attributes {
		attr := col.Attribute(name)
		if attr == nil {
			return errs.NotFound("index %q: attribute %q not found on collection %q", idx.ID, name, col.ID)
		}
		if idx.Type == consts.IndexFulltext && attr.Type != consts.AttrString {
			return errs.Validation("index %q: fulltext requires all attributes to be string, %q is %q", idx.ID, name, attr.Type)
		}
		if attr.Array {
			arrayCount++
			if idx.Type != consts.IndexKey {
				return errs.Validation("index %q: array attribute %q only permitted on a key index", idx.ID, name)
			}
			if i >= len(idx.Lengths) || idx.Lengths[i] <= 0 {
				return errs.Validation("index %q: array attribute %q requires a declared length", idx.ID, name)
			}
		}
		length := attr.Size
		if i < len(idx.Lengths) && idx.Lengths[i] > 0 {
			length = idx.Lengths[i]
		}
		combined += length
	}
	if arrayCount > 1 {
		return errs.Validation("index %q: at most one array attribute is permitted", idx.ID)
	}
	if idx.Type != consts.IndexFulltext && combined > maxCombinedLength {
		return errs.Validation("index %q: combined attribute length %d exceeds maximum %d", idx.ID, combined, maxCombinedLength)
	}
	return nil
}

// ValidateIndexDependency rejects deleting or renaming attrKey when it is
// still referenced by an index. It applies to array and non-array
// attributes alike and is the index check the engine's DeleteAttribute
// runs.
func ValidateIndexDependency(col *types.Collection, attrKey string) error {
	for i := range col.Indexes {
		idx := &col.Indexes[i]
		for _, a := range idx.Attributes {
			if a == attrKey {
				return errs.Dependency("attribute %q is referenced by index %q", attrKey, idx.ID)
			}
		}
	}
	return nil
}
