package validators_test

import (
	"testing"

	"github.com/forbearing/docdb/types"
	"github.com/forbearing/docdb/types/consts"
	"github.com/forbearing/docdb/validators"
	"github.com/stretchr/testify/assert"
)

func sampleCollection() *types.Collection {
	return &types.Collection{
		ID: "users",
		Attributes: []types.Attribute{
			{Key: "name", Type: consts.AttrString, Size: 128, Required: true},
			{Key: "age", Type: consts.AttrInteger},
		},
	}
}

func TestFulltextIndexRejectsNonStringAttribute(t *testing.T) {
	col := sampleCollection()
	idx := &types.Index{ID: "idx1", Type: consts.IndexFulltext, Attributes: []string{"age"}}
	err := validators.ValidateIndex(col, idx, 2048)
	assert.Error(t, err)
}

func TestFulltextIndexAcceptsStringAttribute(t *testing.T) {
	col := sampleCollection()
	idx := &types.Index{ID: "idx1", Type: consts.IndexFulltext, Attributes: []string{"name"}}
	err := validators.ValidateIndex(col, idx, 2048)
	assert.NoError(t, err)
}

func TestIndexRejectsDuplicateAttributes(t *testing.T) {
	col := sampleCollection()
	idx := &types.Index{ID: "idx1", Type: consts.IndexKey, Attributes: []string{"name", "name"}}
	err := validators.ValidateIndex(col, idx, 2048)
	assert.Error(t, err)
}

func TestStructureRejectsUnknownAttribute(t *testing.T) {
	col := sampleCollection()
	doc := types.From(map[string]types.Value{"name": "Ada", "nickname": "A"})
	err := validators.ValidateStructure(col, doc, true)
	assert.Error(t, err)
}

func TestStructureRequiresRequiredOnCreate(t *testing.T) {
	col := sampleCollection()
	doc := types.From(map[string]types.Value{"age": int64(30)})
	err := validators.ValidateStructure(col, doc, true)
	assert.Error(t, err)
}

func TestStructureAcceptsValidDocument(t *testing.T) {
	col := sampleCollection()
	doc := types.From(map[string]types.Value{"name": "Ada", "age": int64(30)})
	err := validators.ValidateStructure(col, doc, true)
	assert.NoError(t, err)
}

func TestKeyRejectsReservedUnlessAllowed(t *testing.T) {
	assert.Error(t, validators.ValidateKey("$id", false))
	assert.NoError(t, validators.ValidateKey("$id", true))
	assert.Error(t, validators.ValidateKey("_hidden", false))
	assert.NoError(t, validators.ValidateKey("a.b-c_9", false))
}
