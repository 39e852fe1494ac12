package logger

import (
	"context"
	"time"

	"go.uber.org/zap"
	gorml "gorm.io/gorm/logger"
)

// GormAdapter satisfies gorm's logger.Interface over a Logger, the same
// role the teacher's GormLogger.Trace plays: failed statements log at
// error, slow queries above SlowThreshold at warn, everything else at
// debug.
type GormAdapter struct {
	l             Logger
	SlowThreshold time.Duration
}

var _ gorml.Interface = (*GormAdapter)(nil)

// NewGormAdapter wraps l for use as a *gorm.DB's Logger, warning on any
// statement slower than slowThreshold.
func NewGormAdapter(l Logger, slowThreshold time.Duration) *GormAdapter {
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}
	return &GormAdapter{l: l, SlowThreshold: slowThreshold}
}

func (g *GormAdapter) LogMode(gorml.LogLevel) gorml.Interface { return g }

func (g *GormAdapter) Info(_ context.Context, str string, args ...any) { g.l.Infow(str, args...) }
func (g *GormAdapter) Warn(_ context.Context, str string, args ...any) { g.l.Warnw(str, args...) }
func (g *GormAdapter) Error(_ context.Context, str string, args ...any) {
	g.l.Errorw(str, args...)
}

func (g *GormAdapter) Trace(_ context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	switch {
	case err != nil:
		g.l.Errorz("sql failed", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed), zap.Error(err))
	case elapsed > g.SlowThreshold:
		g.l.Warnz("slow sql", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed), zap.Duration("threshold", g.SlowThreshold))
	default:
		g.l.Debugz("sql executed", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
	}
}
