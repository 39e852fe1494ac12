package sqlclient

import (
	"fmt"
	"time"

	"github.com/forbearing/docdb/logger"
	"github.com/forbearing/docdb/types/errs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config is the plain struct the PostgreSQL adapter opens a connection
// from. It mirrors the teacher's config.Postgres/config.Database shape:
// connection parameters plus pool sizing, with no file/env loading layer
// of its own — the caller is responsible for populating it.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	TimeZone string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// buildDSN renders cfg into the libpq key=value DSN gorm's postgres
// driver expects, following the teacher's exact field order and
// connect_timeout default.
func buildDSN(cfg Config) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s connect_timeout=5",
		cfg.Host, cfg.User, cfg.Password, cfg.Database, cfg.Port, cfg.SSLMode, cfg.TimeZone,
	)
}

// Open dials PostgreSQL via gorm's postgres driver, applies cfg's pool
// settings to the underlying *sql.DB, and wraps the connection in a
// *Client. log receives gorm's own query/slow-query/error logging
// through a logger.GormAdapter so every SQL statement funnels through
// the same sub-logger as the rest of the engine.
func Open(cfg Config, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := gorm.Open(postgres.Open(buildDSN(cfg)), &gorm.Config{
		Logger: logger.NewGormAdapter(log, 200*time.Millisecond),
	})
	if err != nil {
		return nil, errs.Database(err, "open postgres connection")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errs.Database(err, "acquire *sql.DB from gorm connection")
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	log.Infow("connected to postgres", "host", cfg.Host, "port", cfg.Port, "database", cfg.Database, "sslmode", cfg.SSLMode)
	return New(db), nil
}
