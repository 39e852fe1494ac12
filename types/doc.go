package types

import (
	"encoding/json"
	"time"

	"github.com/forbearing/docdb/types/consts"
)

// Doc is an ordered mapping from field name to Value. Reserved system
// fields ($id, $sequence, $collection, $tenant, $createdAt, $updatedAt,
// $permissions) carry fixed types; everything else is a user attribute.
// Nested values carrying their own $id or $collection are auto-lifted into
// child Docs at construction, recursively, including inside arrays.
type Doc struct {
	order []string
	data  map[string]Value
}

// NewDoc builds a Doc from a plain map, auto-lifting nested $id/$collection
// bearing maps (and arrays of them) into child Docs.
func NewDoc(m map[string]Value) *Doc {
	d := &Doc{data: make(map[string]Value, len(m))}
	for k, v := range m {
		d.Set(k, lift(v))
	}
	return d
}

// From is an alias of NewDoc matching the round-trip invariant
// `Doc.From(d.toObject()).toObject() == d.toObject()`.
func From(m map[string]Value) *Doc { return NewDoc(m) }

func lift(v Value) Value {
	switch t := v.(type) {
	case map[string]Value:
		if isDocLike(t) {
			return NewDoc(t)
		}
		return t
	case []Value:
		out := make(List, len(t))
		for i, e := range t {
			out[i] = lift(e)
		}
		return out
	case List:
		out := make(List, len(t))
		for i, e := range t {
			out[i] = lift(e)
		}
		return out
	default:
		return v
	}
}

func isDocLike(m map[string]Value) bool {
	_, hasID := m[consts.FieldID]
	_, hasColl := m[consts.FieldCollection]
	return hasID || hasColl
}

// Get returns the value stored at name, or def if the field is absent.
func (d *Doc) Get(name string, def ...Value) Value {
	if d == nil || d.data == nil {
		if len(def) > 0 {
			return def[0]
		}
		return nil
	}
	if v, ok := d.data[name]; ok {
		return v
	}
	if len(def) > 0 {
		return def[0]
	}
	return nil
}

// Set assigns value to name, appending name to the key order if new.
func (d *Doc) Set(name string, value Value) *Doc {
	if d.data == nil {
		d.data = make(map[string]Value)
	}
	if _, ok := d.data[name]; !ok {
		d.order = append(d.order, name)
	}
	d.data[name] = lift(value)
	return d
}

// Update assigns value to name only when value is non-nil; a nil value is a
// no-op, matching the spec's "no-op if value undefined" rule.
func (d *Doc) Update(name string, value Value) *Doc {
	if value == nil {
		return d
	}
	return d.Set(name, value)
}

// Append pushes value onto the array stored at name. Fails (returns an
// error) unless the field is already an array or is absent.
func (d *Doc) Append(name string, value Value) error {
	cur := d.Get(name)
	switch v := cur.(type) {
	case nil:
		d.Set(name, List{lift(value)})
		return nil
	case List:
		d.Set(name, append(v, lift(value)))
		return nil
	default:
		return errAppendNotArray(name)
	}
}

// Prepend inserts value at the front of the array stored at name. Fails
// unless the field is already an array or is absent.
func (d *Doc) Prepend(name string, value Value) error {
	cur := d.Get(name)
	switch v := cur.(type) {
	case nil:
		d.Set(name, List{lift(value)})
		return nil
	case List:
		d.Set(name, append(List{lift(value)}, v...))
		return nil
	default:
		return errAppendNotArray(name)
	}
}

// Delete removes name from the document.
func (d *Doc) Delete(name string) *Doc {
	if d.data == nil {
		return d
	}
	if _, ok := d.data[name]; !ok {
		return d
	}
	delete(d.data, name)
	for i, k := range d.order {
		if k == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return d
}

// Has reports whether name is present.
func (d *Doc) Has(name string) bool {
	if d == nil || d.data == nil {
		return false
	}
	_, ok := d.data[name]
	return ok
}

// Keys returns field names in declaration order.
func (d *Doc) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Empty reports whether the document has no fields at all.
func (d *Doc) Empty() bool { return d == nil || len(d.order) == 0 }

// FindWhere returns every value for which pred returns true.
func (d *Doc) FindWhere(pred func(name string, value Value) bool) []Value {
	var out []Value
	for _, k := range d.Keys() {
		v := d.data[k]
		if pred(k, v) {
			out = append(out, v)
		}
	}
	return out
}

// ReplaceWhere rewrites every field whose current value satisfies pred by
// applying fn to it.
func (d *Doc) ReplaceWhere(pred func(name string, value Value) bool, fn func(value Value) Value) {
	for _, k := range d.Keys() {
		v := d.data[k]
		if pred(k, v) {
			d.data[k] = lift(fn(v))
		}
	}
}

// DeleteWhere removes every field whose value satisfies pred.
func (d *Doc) DeleteWhere(pred func(name string, value Value) bool) {
	var toDelete []string
	for _, k := range d.Keys() {
		if pred(k, d.data[k]) {
			toDelete = append(toDelete, k)
		}
	}
	for _, k := range toDelete {
		d.Delete(k)
	}
}

// ToObject returns a plain map view, optionally filtered by an allow-list
// and/or a disallow-list of field names.
func (d *Doc) ToObject(allow, disallow []string) map[string]Value {
	allowed := func(string) bool { return true }
	if len(allow) > 0 {
		set := make(map[string]bool, len(allow))
		for _, a := range allow {
			set[a] = true
		}
		allowed = func(k string) bool { return set[k] }
	}
	blocked := map[string]bool{}
	for _, b := range disallow {
		blocked[b] = true
	}

	out := make(map[string]Value, len(d.order))
	for _, k := range d.Keys() {
		if !allowed(k) || blocked[k] {
			continue
		}
		out[k] = toObjectValue(d.data[k])
	}
	return out
}

func toObjectValue(v Value) Value {
	switch t := v.(type) {
	case *Doc:
		return t.ToObject(nil, nil)
	case List:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = toObjectValue(e)
		}
		return out
	default:
		return v
	}
}

// ToJSON marshals the document's object view to JSON.
func (d *Doc) ToJSON() ([]byte, error) { return json.Marshal(d.ToObject(nil, nil)) }

// Clone returns a deep copy of the document.
func (d *Doc) Clone() *Doc {
	if d == nil {
		return nil
	}
	c := &Doc{order: append([]string{}, d.order...), data: make(map[string]Value, len(d.data))}
	for k, v := range d.data {
		c.data[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v Value) Value {
	switch t := v.(type) {
	case *Doc:
		return t.Clone()
	case List:
		out := make(List, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// System field accessors.

func (d *Doc) ID() string           { s, _ := d.Get(consts.FieldID).(string); return s }
func (d *Doc) SetID(id string)      { d.Set(consts.FieldID, id) }
func (d *Doc) Sequence() int64      { n, _ := d.Get(consts.FieldSequence).(int64); return n }
func (d *Doc) Collection() string   { s, _ := d.Get(consts.FieldCollection).(string); return s }
func (d *Doc) Tenant() *int64       { n, _ := d.Get(consts.FieldTenant).(*int64); return n }
func (d *Doc) CreatedAt() time.Time { t, _ := asTime(d.Get(consts.FieldCreatedAt)); return t }
func (d *Doc) UpdatedAt() time.Time { t, _ := asTime(d.Get(consts.FieldUpdatedAt)); return t }

// Permissions returns the document's permission strings; never nil.
func (d *Doc) Permissions() []string {
	v := d.Get(consts.FieldPermissions)
	switch p := v.(type) {
	case []string:
		return p
	case List:
		out := make([]string, 0, len(p))
		for _, e := range p {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func (d *Doc) SetPermissions(perms []string) {
	list := make(List, len(perms))
	for i, p := range perms {
		list[i] = p
	}
	d.Set(consts.FieldPermissions, list)
}

type appendError struct{ field string }

func (e *appendError) Error() string {
	return "field " + e.field + " is not an array"
}

func errAppendNotArray(field string) error { return &appendError{field: field} }
