package validators

import (
	"strings"

	"github.com/forbearing/docdb/types/errs"
)

const maxKeyLength = 36

var reservedInternalKeys = map[string]bool{
	"$id":        true,
	"$createdAt": true,
	"$updatedAt": true,
}

func isKeyChar(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '.', r == '-':
		return true
	default:
		return false
	}
}

// ValidateKey checks a user-supplied string id: at most 36 characters, only
// [A-Za-z0-9_.-], cannot start with '_', '.', or '-'. Reserved internal
// keys ($id, $createdAt, $updatedAt) are rejected unless allowInternal.
func ValidateKey(key string, allowInternal bool) error {
	if reservedInternalKeys[key] {
		if allowInternal {
			return nil
		}
		return errs.Validation("key %q is reserved", key)
	}
	if key == "" {
		return errs.Validation("key must not be empty")
	}
	if len(key) > maxKeyLength {
		return errs.Validation("key %q exceeds %d characters", key, maxKeyLength)
	}
	if strings.HasPrefix(key, "_") || strings.HasPrefix(key, ".") || strings.HasPrefix(key, "-") {
		return errs.Validation("key %q cannot start with '_', '.', or '-'", key)
	}
	for _, r := range key {
		if !isKeyChar(r) {
			return errs.Validation("key %q contains an invalid character %q", key, r)
		}
	}
	return nil
}

// ValidateLabel restricts a label key to alphanumeric characters only.
func ValidateLabel(label string) error {
	if label == "" {
		return errs.Validation("label must not be empty")
	}
	for _, r := range label {
		if !(r >= 'A' && r <= 'Z') && !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') {
			return errs.Validation("label %q must be alphanumeric", label)
		}
	}
	return nil
}
