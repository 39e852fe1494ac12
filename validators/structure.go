package validators

import (
	"time"

	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
)

// systemAttributes are injected into the effective schema before structure
// validation, so $id/$sequence/$collection/$tenant/$createdAt/$updatedAt/
// $permissions are always legal fields regardless of what the collection
// declares.
func systemAttributes() []types.Attribute {
	return []types.Attribute{
		{Key: consts.FieldID, Type: consts.AttrString, Size: maxKeyLength},
		{Key: consts.FieldSequence, Type: consts.AttrInteger},
		{Key: consts.FieldCollection, Type: consts.AttrString, Size: maxKeyLength},
		{Key: consts.FieldTenant, Type: consts.AttrInteger},
		{Key: consts.FieldCreatedAt, Type: consts.AttrTimestamptz},
		{Key: consts.FieldUpdatedAt, Type: consts.AttrTimestamptz},
		{Key: consts.FieldPermissions, Type: consts.AttrString, Array: true, Size: 2048},
	}
}

// ValidateStructure validates doc against col's schema: all required
// attributes present on create, no unknown attributes, each value obeying
// its attribute's type/size/format, arrays validating every element, and
// relationship values obeying the side-dependent shape rules.
func ValidateStructure(col *types.Collection, doc *types.Doc, isCreate bool) error {
	effective := make(map[string]*types.Attribute, len(col.Attributes)+4)
	for _, sys := range systemAttributes() {
		a := sys
		effective[a.Key] = &a
	}
	for i := range col.Attributes {
		effective[col.Attributes[i].Key] = &col.Attributes[i]
	}

	for _, key := range doc.Keys() {
		if _, ok := effective[key]; !ok {
			return errs.Validation("unknown attribute %q", key)
		}
	}

	if isCreate {
		for _, attr := range col.Attributes {
			if attr.Required && !doc.Has(attr.Key) {
				return errs.Validation("attribute %q is required", attr.Key)
			}
		}
	}

	for _, attr := range col.Attributes {
		if !doc.Has(attr.Key) {
			continue
		}
		if err := validateAttributeValue(&attr, doc.Get(attr.Key), isCreate); err != nil {
			return errs.Wrap(err, "attribute %q", attr.Key)
		}
	}
	return nil
}

func validateAttributeValue(attr *types.Attribute, value types.Value, isCreate bool) error {
	if attr.IsRelationship() {
		return validateRelationshipValue(attr, value, isCreate)
	}
	if attr.Array {
		list, ok := value.(types.List)
		if !ok {
			return errs.Validation("expected an array")
		}
		for _, e := range list {
			if err := validateScalar(attr, e); err != nil {
				return err
			}
		}
		return nil
	}
	return validateScalar(attr, value)
}

func validateScalar(attr *types.Attribute, value types.Value) error {
	var v Validator
	switch attr.Type {
	case consts.AttrString:
		v = Text(0, max(attr.Size, 1), "")
	case consts.AttrInteger:
		v = Integer()
	case consts.AttrFloat:
		v = Float()
	case consts.AttrBoolean:
		v = Boolean()
	case consts.AttrTimestamptz:
		v = Datetime(time.Time{}, time.Time{})
	case consts.AttrJSON:
		v = JSON()
	case consts.AttrUUID:
		v = UUID()
	case consts.AttrVirtual:
		return nil
	default:
		return errs.Internal("unhandled attribute type %q", attr.Type)
	}
	if !v.Valid(value) {
		return errs.Validation("value fails %s validation", v.Description())
	}
	return nil
}

// relationPayload mirrors the `{set?, connect?, disconnect?}` object shape
// a virtual-side relationship attribute accepts.
type relationPayload struct {
	Set        []string
	Connect    []string
	Disconnect []string
}

func validateRelationshipValue(attr *types.Attribute, value types.Value, isCreate bool) error {
	opts := attr.Options
	if opts == nil {
		return errs.Internal("relationship attribute %q missing options", attr.Key)
	}
	if !opts.Virtual() {
		switch value.(type) {
		case nil, string:
			return nil
		default:
			return errs.Validation("relationship attribute %q must be a string id or null", attr.Key)
		}
	}

	doc, ok := value.(*types.Doc)
	if !ok {
		return errs.Validation("relationship attribute %q must be an object with set/connect/disconnect", attr.Key)
	}
	payload := relationPayload{
		Set:        stringList(doc.Get("set")),
		Connect:    stringList(doc.Get("connect")),
		Disconnect: stringList(doc.Get("disconnect")),
	}
	if isCreate && payload.Set == nil {
		return errs.Validation("relationship attribute %q requires \"set\" on create", attr.Key)
	}
	return nil
}

func stringList(v types.Value) []string {
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

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
