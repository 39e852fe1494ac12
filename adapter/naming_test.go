package adapter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forbearing/docdb/adapter"
	"github.com/forbearing/docdb/types/consts"
)

func TestTableNameJoinsNamespaceAndCollection(t *testing.T) {
	meta := adapter.Meta{Namespace: "acme_shop"}
	assert.Equal(t, "acme_shop_articles", adapter.TableName(meta, "articles"))
}

func TestTableNameDefaultsNamespace(t *testing.T) {
	assert.Equal(t, "docdb_articles", adapter.TableName(adapter.Meta{}, "articles"))
}

func TestColumnNameMapsSystemFields(t *testing.T) {
	assert.Equal(t, "_uid", adapter.ColumnName(consts.FieldID))
	assert.Equal(t, "_id", adapter.ColumnName(consts.FieldSequence))
	assert.Equal(t, "tag_count", adapter.ColumnName("tagCount"))
}

func TestQuoteIdentEscapesEmbeddedQuotes(t *testing.T) {
	assert.Equal(t, `"weird""name"`, adapter.QuoteIdent(`weird"name`))
}

func TestColumnTypeWidensIntegerBySize(t *testing.T) {
	caps := adapter.Capabilities{SupportsArrayColumns: true}
	assert.Equal(t, "int", adapter.ColumnType(consts.AttrInteger, 4, false, caps))
	assert.Equal(t, "bigint", adapter.ColumnType(consts.AttrInteger, 8, false, caps))
}

func TestColumnTypeFallsBackToJSONBForArraysWithoutArraySupport(t *testing.T) {
	caps := adapter.Capabilities{SupportsArrayColumns: false}
	assert.Equal(t, "jsonb", adapter.ColumnType(consts.AttrString, 64, true, caps))
}

func TestColumnTypeUsesVarcharUnderSizeCeiling(t *testing.T) {
	caps := adapter.Capabilities{MaxVarcharLength: 1000}
	assert.Equal(t, "varchar(64)", adapter.ColumnType(consts.AttrString, 64, false, caps))
	assert.Equal(t, "text", adapter.ColumnType(consts.AttrString, 0, false, caps))
}
