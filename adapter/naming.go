package adapter

import (
	"fmt"
	"strings"

	"github.com/forbearing/docdb/types/consts"
	"github.com/stoewer/go-strcase"
)

// Internal physical column names (§6 Persisted layout).
const (
	ColID          = "_id"
	ColUID         = "_uid"
	ColCreatedAt   = "_createdAt"
	ColUpdatedAt   = "_updatedAt"
	ColPermissions = "_permissions"
	ColTenant      = "_tenant"
)

// TableName renders the physical table name for collectionID:
// "<namespace>_<collectionId>".
func TableName(meta Meta, collectionID string) string {
	ns := meta.Namespace
	if ns == "" {
		ns = "docdb"
	}
	return strcase.SnakeCase(ns) + "_" + collectionID
}

// ColumnName renders the physical column name for a user attribute key.
// System fields map to their fixed internal column names; everything else
// is snake_cased the way the teacher names its own GORM columns.
func ColumnName(attrKey string) string {
	switch attrKey {
	case consts.FieldID:
		return ColUID
	case consts.FieldCreatedAt:
		return ColCreatedAt
	case consts.FieldUpdatedAt:
		return ColUpdatedAt
	case consts.FieldPermissions:
		return ColPermissions
	case consts.FieldSequence:
		return ColID
	case consts.FieldTenant:
		return ColTenant
	default:
		return strcase.SnakeCase(attrKey)
	}
}

// QuoteIdent double-quotes a Postgres identifier, escaping embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedTable renders schema.table, both identifiers quoted.
func QualifiedTable(meta Meta, collectionID string) string {
	return fmt.Sprintf("%s.%s", QuoteIdent(meta.Schema), QuoteIdent(TableName(meta, collectionID)))
}

// ColumnType maps an attribute to its Postgres column type per §4.2's
// column-mapping table. Arrays are native Postgres arrays when the
// adapter's capabilities allow it, else jsonb with SupportsCastOnRead set
// so the engine knows to cast on read.
func ColumnType(attrType consts.AttributeType, size int, array bool, caps Capabilities) string {
	base := scalarColumnType(attrType, size, caps)
	if !array {
		return base
	}
	if caps.SupportsArrayColumns {
		return base + "[]"
	}
	return "jsonb"
}

func scalarColumnType(attrType consts.AttributeType, size int, caps Capabilities) string {
	maxVarchar := caps.MaxVarcharLength
	if maxVarchar == 0 {
		maxVarchar = 10485760 // Postgres' own practical varchar ceiling.
	}
	switch attrType {
	case consts.AttrString, consts.AttrUUID:
		if size > 0 && size <= maxVarchar {
			return fmt.Sprintf("varchar(%d)", size)
		}
		return "text"
	case consts.AttrInteger:
		if size >= 8 {
			return "bigint"
		}
		return "int"
	case consts.AttrFloat:
		return "double precision"
	case consts.AttrBoolean:
		return "bool"
	case consts.AttrTimestamptz:
		return "timestamptz"
	case consts.AttrJSON:
		return "jsonb"
	default:
		return "text"
	}
}
