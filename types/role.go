package types

import (
	"strings"

	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/types/errs"
)

// Role is a parsed role string: "any", "guests", "users[/dim]",
// "user:<id>[/dim]", "team:<id>[/dim]", "label:<id>", "member:<id>".
// "any" and "guests" forbid an identifier and a dimension.
type Role struct {
	Kind      consts.RoleKind
	ID        string
	Dimension string
}

// ParseRole parses a canonical role string.
func ParseRole(s string) (Role, error) {
	kindPart, dim, _ := strings.Cut(s, "/")
	kind, id, hasID := strings.Cut(kindPart, ":")

	r := Role{Kind: consts.RoleKind(kind), Dimension: dim}
	if hasID {
		r.ID = id
	}

	switch r.Kind {
	case consts.RoleAny, consts.RoleGuests:
		if hasID || dim != "" {
			return Role{}, errs.Validation("role %q: %q forbids an identifier or dimension", s, kind)
		}
	case consts.RoleUsers:
		if hasID {
			return Role{}, errs.Validation("role %q: %q forbids an identifier", s, kind)
		}
	case consts.RoleUser, consts.RoleTeam, consts.RoleLabel, consts.RoleMember:
		if !hasID || id == "" {
			return Role{}, errs.Validation("role %q: %q requires an identifier", s, kind)
		}
	default:
		return Role{}, errs.Validation("role %q: unknown kind %q", s, kind)
	}
	return r, nil
}

// String renders the role back to its canonical textual form. For any valid
// parsed role, ParseRole(r.String()) round-trips to an equal Role.
func (r Role) String() string {
	var b strings.Builder
	b.WriteString(string(r.Kind))
	if r.ID != "" {
		b.WriteByte(':')
		b.WriteString(r.ID)
	}
	if r.Dimension != "" {
		b.WriteByte('/')
		b.WriteString(r.Dimension)
	}
	return b.String()
}
