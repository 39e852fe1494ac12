package logger

import (
	casbinl "github.com/casbin/casbin/v2/log"
	"go.uber.org/zap"
)

// CasbinAdapter satisfies casbin's log.Logger interface over a Logger,
// used by the authz package's casbin introspection mirror.
type CasbinAdapter struct {
	l       Logger
	enabled bool
}

var _ casbinl.Logger = (*CasbinAdapter)(nil)

// NewCasbinAdapter wraps l for use as a casbin Enforcer's logger.
func NewCasbinAdapter(l Logger) *CasbinAdapter { return &CasbinAdapter{l: l} }

func (c *CasbinAdapter) EnableLog(enabled bool) { c.enabled = enabled }
func (c *CasbinAdapter) IsEnabled() bool        { return c.enabled }

func (c *CasbinAdapter) LogModel(model [][]string) {
	if !c.enabled {
		return
	}
	c.l.Infow("casbin model", "model", model)
}

func (c *CasbinAdapter) LogEnforce(matcher string, request []any, result bool, explains [][]string) {
	if !c.enabled {
		return
	}
	c.l.Infoz("casbin enforce", zap.String("matcher", matcher), zap.Any("request", request), zap.Bool("result", result), zap.Any("explains", explains))
}

func (c *CasbinAdapter) LogPolicy(policy map[string][][]string) {
	if !c.enabled {
		return
	}
	for k, vl := range policy {
		c.l.Infow("casbin policy", "key", k, "values", vl)
	}
}

func (c *CasbinAdapter) LogRole(roles []string) {
	if !c.enabled {
		return
	}
	c.l.Infow("casbin roles", "roles", roles)
}

func (c *CasbinAdapter) LogError(err error, msg ...string) {
	c.l.Errorw("casbin error", "msg", msg, "error", err)
}
