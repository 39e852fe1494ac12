// Package validators implements the composable predicate system over
// documents, attributes, indexes, and queries described in the component
// design: per-value predicates (text/integer/float/...), and the
// richer structure/index/indexDependency rule sets that need collection
// context.
package validators

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Validator exposes a single predicate over a value plus a human-readable
// description of what it checks, matching the `$valid(v) → bool` /
// `$description` shape from the component design.
type Validator interface {
	Valid(v any) bool
	Description() string
}

type funcValidator struct {
	desc string
	fn   func(v any) bool
}

func (f funcValidator) Valid(v any) bool   { return f.fn(v) }
func (f funcValidator) Description() string { return f.desc }

// Text validates a string's length and, if allowed is non-empty, that every
// rune is in the allowed set.
func Text(minLength, maxLength int, allowed string) Validator {
	var allowedSet map[rune]bool
	if allowed != "" {
		allowedSet = make(map[rune]bool, len(allowed))
		for _, r := range allowed {
			allowedSet[r] = true
		}
	}
	return funcValidator{
		desc: "text length and character set",
		fn: func(v any) bool {
			s, ok := v.(string)
			if !ok {
				return false
			}
			n := utf8.RuneCountInString(s)
			if n < minLength || n > maxLength {
				return false
			}
			if allowedSet == nil {
				return true
			}
			for _, r := range s {
				if !allowedSet[r] {
					return false
				}
			}
			return true
		},
	}
}

// Integer validates that v is an integer-kind value (int64 after adapter
// type parsing, or a string that parses cleanly to one).
func Integer() Validator {
	return funcValidator{desc: "integer", fn: func(v any) bool {
		switch t := v.(type) {
		case int, int8, int16, int32, int64:
			return true
		case string:
			_, err := strconv.ParseInt(t, 10, 64)
			return err == nil
		default:
			return false
		}
	}}
}

// Float validates that v is a float-kind value.
func Float() Validator {
	return funcValidator{desc: "float", fn: func(v any) bool {
		switch t := v.(type) {
		case float32, float64:
			return true
		case string:
			_, err := strconv.ParseFloat(t, 64)
			return err == nil
		default:
			return false
		}
	}}
}

// Numeric validates that v is either an integer or float value.
func Numeric() Validator {
	return funcValidator{desc: "numeric", fn: func(v any) bool {
		return Integer().Valid(v) || Float().Valid(v)
	}}
}

// Range validates that a numeric v falls within [min, max]; integer
// restricts acceptance to integer-shaped values, otherwise float is also
// accepted.
func Range(min, max float64, integer bool) Validator {
	return funcValidator{desc: "numeric range", fn: func(v any) bool {
		var f float64
		switch t := v.(type) {
		case int64:
			f = float64(t)
		case int:
			f = float64(t)
		case float64:
			if integer {
				return false
			}
			f = t
		default:
			return false
		}
		return f >= min && f <= max
	}}
}

// Boolean validates that v is a bool.
func Boolean() Validator {
	return funcValidator{desc: "boolean", fn: func(v any) bool {
		_, ok := v.(bool)
		return ok
	}}
}

// Datetime validates that v is a time.Time within [min, max]. A zero min or
// max disables that bound.
func Datetime(min, max time.Time) Validator {
	return funcValidator{desc: "bounded datetime", fn: func(v any) bool {
		t, ok := v.(time.Time)
		if !ok {
			return false
		}
		if !min.IsZero() && t.Before(min) {
			return false
		}
		if !max.IsZero() && t.After(max) {
			return false
		}
		return true
	}}
}

// UUID validates that v is a syntactically valid UUID string.
func UUID() Validator {
	return funcValidator{desc: "uuid", fn: func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		_, err := uuid.Parse(s)
		return err == nil
	}}
}

// JSON accepts every value: it performs no shape check, since the json
// filter already governs encode/decode shape.
func JSON() Validator {
	return funcValidator{desc: "json", fn: func(v any) bool {
		switch v.(type) {
		case nil, bool, string, int, int64, float64, map[string]any:
			return true
		default:
			return true
		}
	}}
}
