package sqlclient

import (
	"database/sql"
	"strconv"
	"time"
)

// Scan reads every row into an ordered slice of column->value maps. Integers
// wider than Go's safe-float range, numeric, float4 and float8 columns
// parse to native Go numeric types rather than being downcast through a
// lossy intermediate; timestamptz parses to time.Time; every other
// date/time dialect type is left as text for the filter layer to decode.
func Scan(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col.Name()] = normalize(col.DatabaseTypeName(), raw[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func normalize(dbType string, v any) any {
	if v == nil {
		return nil
	}
	switch dbType {
	case "NUMERIC", "FLOAT4", "FLOAT8":
		switch b := v.(type) {
		case []byte:
			f, err := strconv.ParseFloat(string(b), 64)
			if err == nil {
				return f
			}
			return string(b)
		case string:
			f, err := strconv.ParseFloat(b, 64)
			if err == nil {
				return f
			}
		}
	case "TIMESTAMPTZ":
		switch t := v.(type) {
		case time.Time:
			return t
		case []byte:
			if parsed, err := time.Parse(time.RFC3339Nano, string(t)); err == nil {
				return parsed
			}
			return string(t)
		}
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
