package docdb

import (
	"encoding/json"

	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/errs"
)

// attributesToValue renders attrs as the Value stored in the _metadata
// "attributes" column. The adapter's own json fallback marshals any
// non-string Value passed for a json-typed attribute, so the slice is
// passed through as-is; Attribute already carries the right json tags.
func attributesToValue(attrs []types.Attribute) types.Value {
	if attrs == nil {
		return types.List{}
	}
	return attrs
}

func indexesToValue(idxs []types.Index) types.Value {
	if idxs == nil {
		return types.List{}
	}
	return idxs
}

// valueToAttributes reverses attributesToValue. A freshly-built Doc holds
// the slice type directly; a Doc round-tripped through storage holds the
// adapter's generic map/list decoding of the stored json string (or the
// string itself, if the json filter wasn't applied). Both are normalized
// through a marshal/unmarshal round trip into the concrete type.
func valueToAttributes(v types.Value) ([]types.Attribute, error) {
	if v == nil {
		return nil, nil
	}
	if attrs, ok := v.([]types.Attribute); ok {
		return attrs, nil
	}
	raw, err := jsonRoundTripBytes(v)
	if err != nil {
		return nil, errs.Wrap(err, "decode attributes")
	}
	if raw == nil {
		return nil, nil
	}
	var attrs []types.Attribute
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, errs.Wrap(err, "unmarshal attributes")
	}
	return attrs, nil
}

func valueToIndexes(v types.Value) ([]types.Index, error) {
	if v == nil {
		return nil, nil
	}
	if idxs, ok := v.([]types.Index); ok {
		return idxs, nil
	}
	raw, err := jsonRoundTripBytes(v)
	if err != nil {
		return nil, errs.Wrap(err, "decode indexes")
	}
	if raw == nil {
		return nil, nil
	}
	var idxs []types.Index
	if err := json.Unmarshal(raw, &idxs); err != nil {
		return nil, errs.Wrap(err, "unmarshal indexes")
	}
	return idxs, nil
}

// jsonRoundTripBytes turns v (a string holding raw json, or a generic
// map/list Value produced by the adapter's json decoding) into json bytes.
func jsonRoundTripBytes(v types.Value) ([]byte, error) {
	if s, ok := v.(string); ok {
		if s == "" {
			return nil, nil
		}
		return []byte(s), nil
	}
	return json.Marshal(v)
}
