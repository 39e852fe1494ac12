// Package filters implements the named bidirectional value encoders applied
// on document write (encode) and read (decode): built-in json and datetime
// filters, plus a registry supporting process-wide and per-engine-instance
// registration.
package filters

import (
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/errs"
)

// Func is a single direction (encode or decode) of a named filter.
// db is the owning engine instance, typed as `any` here to avoid a package
// cycle with the engine facade; filters that need engine state type-assert
// it themselves.
type Func func(value types.Value, doc *types.Doc, db any) (types.Value, error)

// Filter is a named bidirectional transform.
type Filter struct {
	Name   string
	Encode Func
	Decode Func
}

// Registry holds named filters. The zero value is usable; NewRegistry is
// provided for clarity at call sites.
type Registry struct {
	filters map[string]Filter
}

// NewRegistry returns an empty registry pre-seeded with no filters.
func NewRegistry() *Registry {
	return &Registry{filters: make(map[string]Filter)}
}

// Default is the process-wide registry; addFilter at this level mirrors the
// spec's process-wide `addFilter`.
var Default = NewRegistry()

func init() {
	Default.MustAdd(jsonFilter())
	Default.MustAdd(datetimeFilter())
}

// Add registers a filter under f.Name; fails if the name is already taken.
func (r *Registry) Add(f Filter) error {
	if r.filters == nil {
		r.filters = make(map[string]Filter)
	}
	if _, ok := r.filters[f.Name]; ok {
		return errs.Conflict("filter %q already registered", f.Name)
	}
	r.filters[f.Name] = f
	return nil
}

// MustAdd registers a filter, panicking on a duplicate name. Used for
// built-in registration at init time only.
func (r *Registry) MustAdd(f Filter) {
	if err := r.Add(f); err != nil {
		panic(err)
	}
}

// Get returns the named filter and whether it was found.
func (r *Registry) Get(name string) (Filter, bool) {
	f, ok := r.filters[name]
	return f, ok
}

// Clone returns a new registry pre-seeded with r's filters, used to build a
// per-engine-instance registry that can add its own filters without
// mutating the process-wide Default.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	for k, v := range r.filters {
		c.filters[k] = v
	}
	return c
}

// EncodeChain applies the named filters' Encode in declared order.
func EncodeChain(r *Registry, names []string, value types.Value, doc *types.Doc, db any) (types.Value, error) {
	v := value
	for _, name := range names {
		f, ok := r.Get(name)
		if !ok {
			return nil, errs.Validation("unknown filter %q", name)
		}
		var err error
		if v, err = f.Encode(v, doc, db); err != nil {
			return nil, errs.Database(err, "filter %q encode failed", name)
		}
	}
	return v, nil
}

// DecodeChain applies the named filters' Decode in reverse declared order.
func DecodeChain(r *Registry, names []string, value types.Value, doc *types.Doc, db any) (types.Value, error) {
	v := value
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		f, ok := r.Get(name)
		if !ok {
			return nil, errs.Validation("unknown filter %q", name)
		}
		var err error
		if v, err = f.Decode(v, doc, db); err != nil {
			return nil, errs.Database(err, "filter %q decode failed", name)
		}
	}
	return v, nil
}
