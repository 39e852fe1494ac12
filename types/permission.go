package types

import (
	"fmt"
	"strings"

	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
)

// Permission is a parsed permission string: `kind("role[:id][/dim]")`.
type Permission struct {
	Kind consts.PermissionKind
	Role Role
}

// ParsePermission parses a canonical permission string such as
// `read("user:admin")` or `write("any")`.
func ParsePermission(s string) (Permission, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, "\")") || s[open+1] != '"' {
		return Permission{}, errs.Validation("permission %q: malformed", s)
	}
	kind := consts.PermissionKind(s[:open])
	switch kind {
	case consts.PermCreate, consts.PermRead, consts.PermUpdate, consts.PermDelete, consts.PermWrite:
	default:
		return Permission{}, errs.Validation("permission %q: unknown kind %q", s, kind)
	}
	roleStr := s[open+2 : len(s)-2]
	role, err := ParseRole(roleStr)
	if err != nil {
		return Permission{}, errs.Wrap(err, "permission %q", s)
	}
	return Permission{Kind: kind, Role: role}, nil
}

// String renders the permission back to its canonical textual form.
func (p Permission) String() string {
	return fmt.Sprintf("%s(%q)", p.Kind, p.Role.String())
}

// Aggregate expands every `write(<role>)` permission in perms into the
// three terminal kinds {create, update, delete}(<role>), deduplicated and
// order-insensitive with respect to the expansion (terminal kinds are
// emitted in a fixed order per role but input order across roles is
// preserved). Non-write permissions pass through unchanged.
func Aggregate(perms []Permission) []Permission {
	seen := make(map[string]bool)
	out := make([]Permission, 0, len(perms))
	add := func(p Permission) {
		key := p.String()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, p)
	}
	for _, p := range perms {
		if p.Kind != consts.PermWrite {
			add(p)
			continue
		}
		for _, k := range consts.WriteKinds {
			add(Permission{Kind: k, Role: p.Role})
		}
	}
	return out
}

// AggregateStrings is the string-level convenience wrapper around Aggregate.
func AggregateStrings(perms []string) ([]string, error) {
	parsed := make([]Permission, 0, len(perms))
	for _, s := range perms {
		p, err := ParsePermission(s)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, p)
	}
	agg := Aggregate(parsed)
	out := make([]string, len(agg))
	for i, p := range agg {
		out[i] = p.String()
	}
	return out, nil
}
