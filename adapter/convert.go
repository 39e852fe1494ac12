package adapter

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
	"github.com/lib/pq"
)

// toDBValue converts a Doc field's logical Value into the form the
// Postgres driver should bind for attr's physical column. By the time this
// runs, the engine has already applied attr's declared value filters
// (encode), so a json-typed value that arrived as a string is assumed
// already serialized; anything else is marshaled here as a fallback.
func toDBValue(attr *types.Attribute, v types.Value, caps Capabilities) (any, error) {
	if v == nil {
		return nil, nil
	}
	if attr.Array {
		list, ok := v.(types.List)
		if !ok {
			return nil, errs.Validation("attribute %q: expected an array value", attr.Key)
		}
		if caps.SupportsArrayColumns {
			elems := make([]any, len(list))
			for i, e := range list {
				conv, err := scalarDBValue(attr.Type, e)
				if err != nil {
					return nil, err
				}
				elems[i] = conv
			}
			return pq.Array(elems), nil
		}
		raw, err := json.Marshal(plainList(list))
		if err != nil {
			return nil, errs.Wrap(err, "attribute %q: marshal array fallback", attr.Key)
		}
		return string(raw), nil
	}
	return scalarDBValue(attr.Type, v)
}

func scalarDBValue(attrType consts.AttributeType, v types.Value) (any, error) {
	switch attrType {
	case consts.AttrJSON:
		if s, ok := v.(string); ok {
			return s, nil
		}
		raw, err := json.Marshal(plainValue(v))
		if err != nil {
			return nil, errs.Wrap(err, "marshal json attribute")
		}
		return string(raw), nil
	default:
		return v, nil
	}
}

func plainValue(v types.Value) any {
	switch t := v.(type) {
	case *types.Doc:
		return t.ToObject(nil, nil)
	case types.List:
		return plainList(t)
	default:
		return v
	}
}

func plainList(list types.List) []any {
	out := make([]any, len(list))
	for i, e := range list {
		out[i] = plainValue(e)
	}
	return out
}

// fromDBValue reverses toDBValue: it turns a raw value scanned off the wire
// back into the Value the engine's Doc expects for attr.
func fromDBValue(attr *types.Attribute, raw any) (types.Value, error) {
	if raw == nil {
		return nil, nil
	}
	if attr.Array {
		elems, err := parseArrayLiteral(raw)
		if err != nil {
			return nil, errs.Wrap(err, "attribute %q: parse array column", attr.Key)
		}
		list := make(types.List, len(elems))
		for i, e := range elems {
			v, err := scalarFromText(attr.Type, e)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil
	}
	switch attr.Type {
	case consts.AttrJSON:
		s, ok := raw.(string)
		if !ok {
			return raw, nil
		}
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return s, nil
		}
		return jsonToValue(v), nil
	default:
		return raw, nil
	}
}

func jsonToValue(v any) types.Value {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]types.Value, len(t))
		for k, e := range t {
			m[k] = jsonToValue(e)
		}
		return m
	case []any:
		list := make(types.List, len(t))
		for i, e := range t {
			list[i] = jsonToValue(e)
		}
		return list
	default:
		return t
	}
}

// parseArrayLiteral accepts either an already-split []string or the raw
// Postgres text array literal ("{a,b,c}") returned when a column is read
// generically.
func parseArrayLiteral(raw any) ([]string, error) {
	switch t := raw.(type) {
	case []string:
		return t, nil
	case string:
		return splitPQArray(t), nil
	default:
		return nil, errs.Internal("unrecognized array column representation %T", raw)
	}
}

// splitPQArray parses Postgres' "{a,b,c}" text array format. It does not
// handle quoted elements containing commas or braces; every attribute type
// this adapter stores as an array is scalar (string/int/float/bool), so
// that never arises here.
func splitPQArray(s string) []string {
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(p, `"`)
	}
	return parts
}

func scalarFromText(attrType consts.AttributeType, s string) (types.Value, error) {
	switch attrType {
	case consts.AttrInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.Wrap(err, "parse integer array element %q", s)
		}
		return n, nil
	case consts.AttrFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errs.Wrap(err, "parse float array element %q", s)
		}
		return f, nil
	case consts.AttrBoolean:
		return s == "t" || s == "true", nil
	default:
		return s, nil
	}
}
