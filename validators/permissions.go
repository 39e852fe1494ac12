package validators

import (
	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/errs"
)

// ValidatePermissions checks structure and a length cap on a set of
// permission strings.
func ValidatePermissions(perms []string, maxLength int) error {
	for _, p := range perms {
		if len(p) > maxLength {
			return errs.Validation("permission %q exceeds %d characters", p, maxLength)
		}
		if _, err := types.ParsePermission(p); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRoles checks structure and a length cap on a set of role strings.
func ValidateRoles(roles []string, maxLength int) error {
	for _, r := range roles {
		if len(r) > maxLength {
			return errs.Validation("role %q exceeds %d characters", r, maxLength)
		}
		if _, err := types.ParseRole(r); err != nil {
			return err
		}
	}
	return nil
}
