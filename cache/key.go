package cache

import "fmt"

// BaseKey is `db:<name>:<namespace|->:<schema>:<tenant|->`.
func BaseKey(dbName, namespace, schema string, tenant *int64) string {
	ns := namespace
	if ns == "" {
		ns = "-"
	}
	ten := "-"
	if tenant != nil {
		ten = fmt.Sprintf("%d", *tenant)
	}
	return fmt.Sprintf("db:%s:%s:%s:%s", dbName, ns, schema, ten)
}

// CollectionKey appends the collection id to a base key.
func CollectionKey(base, collectionID string) string {
	return base + ":" + collectionID
}

// DocumentKey appends the document id to a collection key.
func DocumentKey(collectionKey, documentID string) string {
	return collectionKey + ":" + documentID
}

// MetadataKey is the CollectionKey for the fixed "_metadata" collection.
func MetadataKey(base string) string { return CollectionKey(base, "_metadata") }
