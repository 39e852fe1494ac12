package query

import (
	"github.com/forbearing/docdb/logger"
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
)

// log is the package's sub-logger, silent by default. SetLogger overrides it.
var log logger.Logger = logger.Nop()

// SetLogger overrides the package's sub-logger.
func SetLogger(l logger.Logger) {
	if l == nil {
		l = logger.Nop()
	}
	log = l
}

// Options tunes validation behavior that depends on engine configuration.
type Options struct {
	// RequireFulltextIndexForSearch enables the "search requires a
	// fulltext index covering the attribute" rule (the "indexed-queries
	// validator" named in the component design).
	RequireFulltextIndexForSearch bool
}

var cardinality = map[Method]func(n int) bool{
	Equal:            func(n int) bool { return n >= 1 },
	NotEqual:         func(n int) bool { return n >= 1 },
	LessThan:         func(n int) bool { return n == 1 },
	LessThanEqual:    func(n int) bool { return n == 1 },
	GreaterThan:      func(n int) bool { return n == 1 },
	GreaterThanEqual: func(n int) bool { return n == 1 },
	Between:          func(n int) bool { return n == 2 },
	Contains:         func(n int) bool { return n >= 1 },
	Search:           func(n int) bool { return n == 1 },
	StartsWith:       func(n int) bool { return n == 1 },
	EndsWith:         func(n int) bool { return n == 1 },
	IsNull:           func(n int) bool { return n == 0 },
	IsNotNull:        func(n int) bool { return n == 0 },
}

// Validate checks every node in queries against col's schema: target
// attribute existence, per-method value cardinality, array-attribute
// method restrictions, fulltext coverage for search, and minimum child
// count for or/and. It also rejects queries (including nested or/and
// children) against a relationship attribute whose side doesn't own
// physical storage.
func Validate(col *types.Collection, queries []*Query, opts Options) error {
	for _, q := range queries {
		if err := validateOne(col, q, opts); err != nil {
			log.Warnw("query validation rejected", "collection", col.ID, "method", q.Method, "attribute", q.Attribute, "error", err)
			return err
		}
	}
	return nil
}

func validateOne(col *types.Collection, q *Query, opts Options) error {
	switch q.Method {
	case Or, And:
		nested := q.NestedQueries()
		if len(nested) < 2 {
			return errs.Validation("%s requires at least 2 child filters", q.Method)
		}
		for _, child := range nested {
			if err := validateOne(col, child, opts); err != nil {
				return err
			}
		}
		return nil
	case Select, OrderAsc, OrderDesc, Limit, Offset, CursorAfter, CursorBefore, Populate:
		return validateStructural(col, q, opts)
	}

	attr := col.Attribute(q.Attribute)
	if attr == nil {
		return errs.Validation("query targets unknown attribute %q", q.Attribute)
	}
	if attr.IsRelationship() && attr.Options != nil && attr.Options.Virtual() {
		return errs.Validation("cannot query virtual relationship attribute %q", q.Attribute)
	}

	if check, ok := cardinality[q.Method]; ok && !check(len(q.Values)) {
		return errs.Validation("%s on %q has an invalid number of values", q.Method, q.Attribute)
	}

	if attr.Array {
		switch q.Method {
		case Contains, IsNull, IsNotNull:
		default:
			return errs.Validation("%s is not permitted on array attribute %q", q.Method, q.Attribute)
		}
	}

	if q.Method == Contains {
		if !attr.Array && attr.Type != consts.AttrString {
			return errs.Validation("contains on %q requires an array attribute or a string", q.Attribute)
		}
	}

	if q.Method == Search && opts.RequireFulltextIndexForSearch {
		if !col.FulltextCovers(q.Attribute) {
			return errs.Validation("search on %q requires a fulltext index covering it", q.Attribute)
		}
	}
	return nil
}

func validateStructural(col *types.Collection, q *Query, opts Options) error {
	switch q.Method {
	case Select:
		for _, v := range q.Values {
			name, ok := v.(string)
			if !ok {
				return errs.Validation("select values must be attribute names")
			}
			if col.Attribute(name) == nil && !isSystemField(name) {
				return errs.Validation("select targets unknown attribute %q", name)
			}
		}
	case OrderAsc, OrderDesc:
		if col.Attribute(q.Attribute) == nil && !isSystemField(q.Attribute) {
			return errs.Validation("order targets unknown attribute %q", q.Attribute)
		}
	case CursorAfter, CursorBefore:
		if len(q.Values) != 1 {
			return errs.Validation("%s requires exactly one cursor value", q.Method)
		}
		if _, err := cursorID(q.Values[0]); err != nil {
			return err
		}
	case Populate:
		attr := col.Attribute(q.Attribute)
		if attr == nil || !attr.IsRelationship() {
			return errs.Validation("populate targets unknown relationship %q", q.Attribute)
		}
	}
	return nil
}

func isSystemField(name string) bool {
	switch name {
	case consts.FieldID, consts.FieldSequence, consts.FieldCollection,
		consts.FieldTenant, consts.FieldCreatedAt, consts.FieldUpdatedAt, consts.FieldPermissions:
		return true
	default:
		return false
	}
}

// cursorID extracts the $id used as a cursor boundary from either a raw
// string id or a *types.Doc.
func cursorID(v any) (string, error) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", errs.Validation("cursor id must not be empty")
		}
		return t, nil
	case *types.Doc:
		id := t.ID()
		if id == "" {
			return "", errs.Validation("cursor document has no $id")
		}
		return id, nil
	default:
		return "", errs.Validation("cursor value must be a document or an id")
	}
}

// CursorID is the exported form of cursorID, used by the engine facade to
// resolve a cursor node's boundary id.
func CursorID(v any) (string, error) { return cursorID(v) }
