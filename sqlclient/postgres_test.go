package sqlclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	cfg := Config{
		Host:     "db.internal",
		Port:     5432,
		User:     "docdb",
		Password: "s3cret",
		Database: "app",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}
	dsn := buildDSN(cfg)
	assert.Equal(t, "host=db.internal user=docdb password=s3cret dbname=app port=5432 sslmode=disable TimeZone=UTC connect_timeout=5", dsn)
}
