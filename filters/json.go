package filters

import (
	"encoding/json"

	"github.com/forbearing/docdb/types"
)

// jsonFilter serializes on write and parses (auto-lifting $id-bearing
// objects back to Docs) on read.
func jsonFilter() Filter {
	return Filter{
		Name: "json",
		Encode: func(value types.Value, _ *types.Doc, _ any) (types.Value, error) {
			if value == nil {
				return nil, nil
			}
			raw, err := json.Marshal(toPlain(value))
			if err != nil {
				return nil, err
			}
			return string(raw), nil
		},
		Decode: func(value types.Value, _ *types.Doc, _ any) (types.Value, error) {
			s, ok := value.(string)
			if !ok || s == "" {
				return value, nil
			}
			var raw any
			if err := json.Unmarshal([]byte(s), &raw); err != nil {
				return nil, err
			}
			return liftJSON(raw), nil
		},
	}
}

func toPlain(v types.Value) any {
	switch t := v.(type) {
	case *types.Doc:
		return t.ToObject(nil, nil)
	case types.List:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toPlain(e)
		}
		return out
	default:
		return v
	}
}

func liftJSON(v any) types.Value {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]types.Value, len(t))
		for k, e := range t {
			m[k] = liftJSON(e)
		}
		if _, hasID := m["$id"]; hasID {
			return types.NewDoc(m)
		}
		if _, hasColl := m["$collection"]; hasColl {
			return types.NewDoc(m)
		}
		return m
	case []any:
		out := make(types.List, len(t))
		for i, e := range t {
			out[i] = liftJSON(e)
		}
		return out
	default:
		return t
	}
}
