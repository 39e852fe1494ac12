package types

// Collection is a named set of documents sharing a schema. The metadata
// collection itself has the fixed id "_metadata" (see consts.MetadataCollectionID)
// and stores every user collection's schema as a document.
type Collection struct {
	ID                string      `json:"$id"`
	CollectionField   string      `json:"$collection"`
	Name              string      `json:"name"`
	Attributes        []Attribute `json:"attributes"`
	Indexes           []Index     `json:"indexes"`
	DocumentSecurity  bool        `json:"documentSecurity,omitempty"`
	Enabled           bool        `json:"enabled"`
	Permissions       []string    `json:"permissions,omitempty"`
}

// Attribute returns the attribute named key, or nil if absent.
func (c *Collection) Attribute(key string) *Attribute {
	for i := range c.Attributes {
		if c.Attributes[i].Key == key {
			return &c.Attributes[i]
		}
	}
	return nil
}

// Index returns the index with the given id, or nil if absent.
func (c *Collection) Index(id string) *Index {
	for i := range c.Indexes {
		if c.Indexes[i].ID == id {
			return &c.Indexes[i]
		}
	}
	return nil
}

// FulltextCovers reports whether some fulltext index on the collection
// covers attribute.
func (c *Collection) FulltextCovers(attribute string) bool {
	for _, idx := range c.Indexes {
		if idx.Type != "fulltext" {
			continue
		}
		for _, a := range idx.Attributes {
			if a == attribute {
				return true
			}
		}
	}
	return false
}
