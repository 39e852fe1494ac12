// Package authz implements the engine's role/permission authorization
// context: a process-wide default role set and enabled flag, overridable
// per request by a store carried on an ambient context.Context, plus the
// Check() decision described in the component design.
package authz

import (
	"context"
	"sync"

	"github.com/forbearing/docdb/ds/mapset"
	"github.com/forbearing/docdb/logger"
)

// log is the package's sub-logger, silent by default. SetLogger overrides
// it, the same ambient-package-logger shape query uses.
var log logger.Logger = logger.Nop()

// SetLogger overrides the package's sub-logger.
func SetLogger(l logger.Logger) {
	if l == nil {
		l = logger.Nop()
	}
	log = l
}

type ctxKey struct{}

// store holds one scope's mutable authorization state: the active role
// set and the enabled flag gating Check.
type store struct {
	mu      sync.RWMutex
	roles   *mapset.Set[string]
	enabled bool
}

func newStore() *store {
	roles, _ := mapset.New[string]()
	return &store{roles: roles, enabled: true}
}

// global is the process-wide default scope, used whenever the ambient
// context carries no request-scoped store.
var global = newStore()

// WithContext returns a child context carrying a fresh, independent
// authorization scope. Role and status mutations made through the
// returned context never affect global or any other request's scope.
func WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, newStore())
}

func scopeOf(ctx context.Context) *store {
	if s, ok := ctx.Value(ctxKey{}).(*store); ok {
		return s
	}
	return global
}

// SetRole adds roles to the active role set.
func SetRole(ctx context.Context, roles ...string) {
	s := scopeOf(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range roles {
		s.roles.Add(r)
	}
}

// UnsetRole removes roles from the active role set.
func UnsetRole(ctx context.Context, roles ...string) {
	s := scopeOf(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range roles {
		s.roles.Remove(r)
	}
}

// GetRoles returns the active role set as a slice.
func GetRoles(ctx context.Context) []string {
	s := scopeOf(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles.Slice()
}

// CleanRoles empties the active role set.
func CleanRoles(ctx context.Context) {
	s := scopeOf(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles.Clear()
}

// IsRole reports whether role is in the active role set.
func IsRole(ctx context.Context, role string) bool {
	s := scopeOf(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles.Contains(role)
}

// SetStatus sets the enabled flag for the active scope.
func SetStatus(ctx context.Context, enabled bool) {
	s := scopeOf(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// GetStatus returns the active scope's enabled flag.
func GetStatus(ctx context.Context) bool {
	s := scopeOf(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// Enable is a convenience wrapper around SetStatus(ctx, true).
func Enable(ctx context.Context) { SetStatus(ctx, true) }

// Disable is a convenience wrapper around SetStatus(ctx, false).
func Disable(ctx context.Context) { SetStatus(ctx, false) }

// Skip disables the active scope for the duration of body, restoring the
// prior enabled flag afterward even if body panics or returns an error.
func Skip(ctx context.Context, body func() error) error {
	s := scopeOf(ctx)
	s.mu.Lock()
	prev := s.enabled
	s.enabled = false
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.enabled = prev
		s.mu.Unlock()
	}()
	return body()
}
