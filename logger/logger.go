// Package logger wraps go.uber.org/zap behind a small Logger interface so
// the rest of the engine never imports zap directly. Each subsystem
// (engine, adapter, cache, authz, query) gets its own named sub-logger, the
// same way the teacher wires logger.Database/logger.Cache/logger.Authz,
// backed by gopkg.in/natefinch/lumberjack.v2 for rotation when file output
// is configured and falling back to stdout otherwise.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the unified logging surface every package in this module
// depends on instead of *zap.Logger directly.
type Logger interface {
	With(fields ...string) Logger
	WithObject(name string, obj zapcore.ObjectMarshaler) Logger

	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)

	Debugz(msg string, fields ...zap.Field)
	Infoz(msg string, fields ...zap.Field)
	Warnz(msg string, fields ...zap.Field)
	Errorz(msg string, fields ...zap.Field)
}

// zapLogger implements Logger over a *zap.Logger.
type zapLogger struct {
	zlog *zap.Logger
}

var _ Logger = (*zapLogger)(nil)

// Wrap adapts an existing *zap.Logger.
func Wrap(zlog *zap.Logger) Logger { return &zapLogger{zlog: zlog} }

func (l *zapLogger) Debug(args ...any) { l.zlog.Sugar().Debug(args...) }
func (l *zapLogger) Info(args ...any)  { l.zlog.Sugar().Info(args...) }
func (l *zapLogger) Warn(args ...any)  { l.zlog.Sugar().Warn(args...) }
func (l *zapLogger) Error(args ...any) { l.zlog.Sugar().Error(args...) }

func (l *zapLogger) Debugf(format string, args ...any) { l.zlog.Sugar().Debugf(format, args...) }
func (l *zapLogger) Infof(format string, args ...any)  { l.zlog.Sugar().Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...any)  { l.zlog.Sugar().Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...any) { l.zlog.Sugar().Errorf(format, args...) }

func (l *zapLogger) Debugw(msg string, kv ...any) { l.zlog.Sugar().Debugw(msg, kv...) }
func (l *zapLogger) Infow(msg string, kv ...any)  { l.zlog.Sugar().Infow(msg, kv...) }
func (l *zapLogger) Warnw(msg string, kv ...any)  { l.zlog.Sugar().Warnw(msg, kv...) }
func (l *zapLogger) Errorw(msg string, kv ...any) { l.zlog.Sugar().Errorw(msg, kv...) }

func (l *zapLogger) Debugz(msg string, fields ...zap.Field) { l.zlog.Debug(msg, fields...) }
func (l *zapLogger) Infoz(msg string, fields ...zap.Field)  { l.zlog.Info(msg, fields...) }
func (l *zapLogger) Warnz(msg string, fields ...zap.Field)  { l.zlog.Warn(msg, fields...) }
func (l *zapLogger) Errorz(msg string, fields ...zap.Field) { l.zlog.Error(msg, fields...) }

// With attaches string key/value pairs, matching the teacher's odd-pair
// padding behavior so callers never have to balance their own args.
func (l *zapLogger) With(fields ...string) Logger {
	if len(fields) == 0 {
		return l
	}
	if len(fields)%2 != 0 {
		fields = append(fields, "")
	}
	zapFields := make([]zap.Field, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		if fields[i] == "" {
			continue
		}
		zapFields = append(zapFields, zap.String(fields[i], fields[i+1]))
	}
	return &zapLogger{zlog: l.zlog.With(zapFields...)}
}

func (l *zapLogger) WithObject(name string, obj zapcore.ObjectMarshaler) Logger {
	return &zapLogger{zlog: l.zlog.With(zap.Object(name, obj))}
}

// ZapLogger exposes the underlying *zap.Logger for call sites (gorm/casbin
// adapters) that need to construct fields directly.
func (l *zapLogger) ZapLogger() *zap.Logger { return l.zlog }
