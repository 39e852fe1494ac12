package types

import "time"

// Value is the tagged union a Doc field can hold: nil, bool, int64, float64,
// string, time.Time, a list of Value, or a nested Doc. Go doesn't have sum
// types, so this is modeled as `any` with helpers that type-switch over the
// concrete kinds below; List and *Doc are the only composite members.
type Value = any

// List is a Value that is itself a sequence of Values.
type List []Value

// asTime reports whether v already holds a native time.Time.
func asTime(v Value) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}
