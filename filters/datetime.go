package filters

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/forbearing/docdb/types"
)

// canonicalLayout is the wire form spec.md names explicitly:
// "YYYY-MM-DD HH:MM:SS.mmm" in UTC.
const canonicalLayout = "2006-01-02 15:04:05.000"

// datetimeFilter formats a native time.Time to the canonical UTC textual
// form on write, and parses that same form (falling back to
// araddon/dateparse for any other recognizable layout) back to UTC on read.
func datetimeFilter() Filter {
	return Filter{
		Name: "datetime",
		Encode: func(value types.Value, _ *types.Doc, _ any) (types.Value, error) {
			t, ok := value.(time.Time)
			if !ok {
				return value, nil
			}
			return t.UTC().Format(canonicalLayout), nil
		},
		Decode: func(value types.Value, _ *types.Doc, _ any) (types.Value, error) {
			s, ok := value.(string)
			if !ok || s == "" {
				return value, nil
			}
			if t, err := time.ParseInLocation(canonicalLayout, s, time.UTC); err == nil {
				return t, nil
			}
			t, err := dateparse.ParseIn(s, time.UTC)
			if err != nil {
				return nil, err
			}
			return t.UTC(), nil
		},
	}
}
