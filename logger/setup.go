package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config tunes the rotation and formatting behavior shared by every
// subsystem logger built with New. The zero value logs JSON at info level
// to stdout, matching the teacher's own defaults when no log file is
// configured.
type Config struct {
	// File is a rotated log file path; "" or "/dev/stdout" logs to stdout.
	File string
	// Level is a zapcore level name ("debug", "info", "warn", "error");
	// defaults to info on an empty or unparseable value.
	Level string
	// Format is "json" or "console"; defaults to json.
	Format string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a subsystem Logger per cfg, the same shape as the teacher's
// logger.New(filename, opts...) constructors (logger.Database,
// logger.Cache, logger.Authz, ...), minus the HTTP-request-context
// variants this engine has no use for.
func New(subsystem string, cfg Config) Logger {
	core := zapcore.NewCore(encoder(cfg), writer(cfg), level(cfg))
	zlog := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	if subsystem != "" {
		zlog = zlog.With(zap.String("subsystem", subsystem))
	}
	return Wrap(zlog)
}

// Nop returns a Logger that discards everything, used in tests.
func Nop() Logger { return Wrap(zap.NewNop()) }

func writer(cfg Config) zapcore.WriteSyncer {
	switch strings.TrimSpace(cfg.File) {
	case "", "/dev/stdout":
		return zapcore.AddSync(os.Stdout)
	case "/dev/stderr":
		return zapcore.AddSync(os.Stderr)
	default:
		maxSize := cfg.MaxSizeMB
		if maxSize == 0 {
			maxSize = 100
		}
		maxAge := cfg.MaxAgeDays
		if maxAge == 0 {
			maxAge = 30
		}
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     maxAge,
			LocalTime:  true,
		})
	}
}

func level(cfg Config) zapcore.Level {
	if cfg.Level == "" {
		return zapcore.InfoLevel
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func encoder(cfg Config) zapcore.Encoder {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	if strings.ToLower(cfg.Format) == "console" {
		return zapcore.NewConsoleEncoder(enc)
	}
	return zapcore.NewJSONEncoder(enc)
}
