package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/forbearing/docdb/logger"
	"github.com/forbearing/docdb/types"
	"gorm.io/gorm"
)

// rbacModel is a plain RBAC-with-roles-in-object model: subject, object,
// action. It mirrors permission grants so they can be inspected and
// audited with casbin's own tooling; it never makes the actual Check
// decision, which is hand-rolled in Check (check.go) against the spec's
// exact union semantics.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// Mirror replicates collection and document permission grants into a
// casbin enforcer backed by gorm-adapter, so an operator can list and
// audit effective grants with casbin's policy-management API instead of
// hand-parsing permission strings.
type Mirror struct {
	enforcer *casbin.Enforcer
}

// NewMirror builds a Mirror whose policy store is persisted through db.
// Casbin's own logging is routed through lg (the process logger when nil).
func NewMirror(db *gorm.DB, lg logger.Logger) (*Mirror, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("authz: casbin gorm adapter: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz: casbin model: %w", err)
	}
	if lg == nil {
		lg = log
	}
	enforcer, err := casbin.NewEnforcer(m, adapter, logger.NewCasbinAdapter(lg))
	if err != nil {
		return nil, fmt.Errorf("authz: casbin enforcer: %w", err)
	}
	return &Mirror{enforcer: enforcer}, nil
}

// SyncCollection replaces every mirrored policy for col's collection-level
// permissions with the ones currently declared on col.
func (mr *Mirror) SyncCollection(col *types.Collection) error {
	if _, err := mr.enforcer.RemoveFilteredPolicy(1, col.ID); err != nil {
		return fmt.Errorf("authz: clear policies for %s: %w", col.ID, err)
	}
	perms, err := parsePermissions(col.Permissions)
	if err != nil {
		return err
	}
	for _, p := range types.Aggregate(perms) {
		if _, err := mr.enforcer.AddPolicy(p.Role.String(), col.ID, string(p.Kind)); err != nil {
			return fmt.Errorf("authz: add policy: %w", err)
		}
	}
	return mr.enforcer.SavePolicy()
}

// SyncDocument replaces every mirrored policy for a single document's
// object id (col.ID + ":" + docID).
func (mr *Mirror) SyncDocument(col *types.Collection, docID string, perms []string) error {
	object := col.ID + ":" + docID
	if _, err := mr.enforcer.RemoveFilteredPolicy(1, object); err != nil {
		return fmt.Errorf("authz: clear policies for %s: %w", object, err)
	}
	parsed, err := parsePermissions(perms)
	if err != nil {
		return err
	}
	for _, p := range types.Aggregate(parsed) {
		if _, err := mr.enforcer.AddPolicy(p.Role.String(), object, string(p.Kind)); err != nil {
			return fmt.Errorf("authz: add policy: %w", err)
		}
	}
	return mr.enforcer.SavePolicy()
}

// Clear removes every mirrored policy for object (a collection id, or a
// collection id + ":" + document id), used when the collection or document
// itself is deleted.
func (mr *Mirror) Clear(object string) error {
	if _, err := mr.enforcer.RemoveFilteredPolicy(1, object); err != nil {
		return fmt.Errorf("authz: clear policies for %s: %w", object, err)
	}
	return mr.enforcer.SavePolicy()
}

// RolesGranted returns every subject (role string) holding act on object,
// for admin introspection.
func (mr *Mirror) RolesGranted(object, act string) ([]string, error) {
	policies, err := mr.enforcer.GetFilteredPolicy(1, object, act)
	if err != nil {
		return nil, err
	}
	roles := make([]string, 0, len(policies))
	for _, p := range policies {
		if len(p) > 0 {
			roles = append(roles, p[0])
		}
	}
	return roles, nil
}

func parsePermissions(raw []string) ([]types.Permission, error) {
	out := make([]types.Permission, 0, len(raw))
	for _, s := range raw {
		p, err := types.ParsePermission(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
