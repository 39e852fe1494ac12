package authz

import (
	"context"

	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
)

// Check decides whether the active scope's role set grants kind against a
// document belonging to col, whose own (document-level) permission strings
// are documentPermissions. Disabled scopes always pass. "read" without
// documentSecurity is satisfied purely by the collection's own
// permissions; with documentSecurity, the document's permissions grant
// additionally (union, never narrowing what the collection already
// allows). Writes check the collection's create/update/delete permission
// and, when documentSecurity is set, the per-document set too.
func Check(ctx context.Context, kind consts.PermissionKind, col *types.Collection, documentPermissions []string) bool {
	if !GetStatus(ctx) {
		return true
	}

	effective := permissionsOfKind(col.Permissions, kind)
	if col.DocumentSecurity {
		effective = append(effective, permissionsOfKind(documentPermissions, kind)...)
	}

	active := GetRoles(ctx)
	for _, p := range effective {
		if roleGrants(p.Role, active) {
			return true
		}
	}
	log.Warnw("authorization denied", "kind", kind, "collection", col.ID, "documentSecurity", col.DocumentSecurity, "roles", active)
	return false
}

func permissionsOfKind(raw []string, kind consts.PermissionKind) []types.Permission {
	parsed := make([]types.Permission, 0, len(raw))
	for _, s := range raw {
		p, err := types.ParsePermission(s)
		if err != nil {
			continue
		}
		parsed = append(parsed, p)
	}
	var matching []types.Permission
	for _, p := range types.Aggregate(parsed) {
		if p.Kind == kind {
			matching = append(matching, p)
		}
	}
	return matching
}

// roleGrants reports whether a permission's role matches the active role
// set. "any" grants regardless of the active set's contents.
func roleGrants(role types.Role, active []string) bool {
	if role.Kind == consts.RoleAny {
		return true
	}
	want := role.String()
	for _, r := range active {
		if r == want {
			return true
		}
	}
	return false
}
