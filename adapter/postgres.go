package adapter

import (
	"context"
	"fmt"

	"github.com/forbearing/docdb/logger"
	"github.com/forbearing/docdb/types/errs"
)

// Postgres is the reference Adapter implementation. It owns no connection
// of its own; every operation is issued through the injected SQLClient, the
// same separation of concerns as the teacher's database/postgres package
// sitting on top of database/helper.go's Transaction/Exec wrappers.
type Postgres struct {
	client SQLClient
	log    logger.Logger
	caps   Capabilities
}

var _ Adapter = (*Postgres)(nil)

// NewPostgres returns a Postgres adapter over client. log may be nil, in
// which case logging is a no-op (matching the teacher's nil-safe logger
// fallback).
func NewPostgres(client SQLClient, log logger.Logger) *Postgres {
	if log == nil {
		log = logger.Nop()
	}
	return &Postgres{
		client: client,
		log:    log,
		caps: Capabilities{
			SupportsFulltext:        true,
			SupportsArrayColumns:    true,
			SupportsArrayIndex:      false,
			SupportsCastOnRead:      false,
			SupportsBatchDDL:        true,
			SupportForRelationships: true,
			MaxVarcharLength:        10485760,
			MaxIndexLength:          2730, // btree's 8191-byte limit divided across a conservative column budget
			DocumentSizeLimit:       1 << 30,
		},
	}
}

func (p *Postgres) Capabilities() Capabilities { return p.caps }

// CreateDatabase creates the schema container if it does not already
// exist. Postgres' CREATE SCHEMA IF NOT EXISTS is itself idempotent, so
// unlike DatabaseExists this never races a concurrent creator.
func (p *Postgres) CreateDatabase(ctx context.Context, meta Meta) error {
	_, err := p.client.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", QuoteIdent(meta.Schema)))
	if err != nil {
		p.log.Errorw("create schema failed", "schema", meta.Schema, "error", err)
		return errs.Database(err, "create schema %q", meta.Schema)
	}
	return nil
}

func (p *Postgres) DatabaseExists(ctx context.Context, meta Meta) (bool, error) {
	rows, err := p.client.Query(ctx, "SELECT schema_name FROM information_schema.schemata WHERE schema_name = ?", meta.Schema)
	if err != nil {
		p.log.Errorw("check schema failed", "schema", meta.Schema, "error", err)
		return false, errs.Database(err, "check schema %q", meta.Schema)
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

func (p *Postgres) DeleteDatabase(ctx context.Context, meta Meta) error {
	_, err := p.client.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", QuoteIdent(meta.Schema)))
	if err != nil {
		p.log.Errorw("drop schema failed", "schema", meta.Schema, "error", err)
		return errs.Database(err, "drop schema %q", meta.Schema)
	}
	return nil
}
