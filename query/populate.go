package query

import "github.com/forbearing/docdb/ds/mapset"

// RelationshipContext threads cycle protection through a populate
// traversal: Visited accumulates the collection ids already entered along
// the current path, and Skip is set once a cycle is detected so the caller
// can stop descending without treating it as an error.
type RelationshipContext struct {
	Visited *mapset.Set[string]
	Skip    bool
}

// NewRelationshipContext returns a RelationshipContext with an empty
// visited set.
func NewRelationshipContext() *RelationshipContext {
	s, _ := mapset.New[string]()
	return &RelationshipContext{Visited: s}
}

// Enter marks collectionID as visited and reports whether it was already
// present (a cycle). On a cycle, rc.Skip is set so populate can bail out of
// that branch without erroring.
func (rc *RelationshipContext) Enter(collectionID string) (cycle bool) {
	if rc.Visited.Contains(collectionID) {
		rc.Skip = true
		return true
	}
	rc.Visited.Add(collectionID)
	return false
}

// Leave removes collectionID from the visited set, allowing sibling
// branches of the populate tree to re-enter it.
func (rc *RelationshipContext) Leave(collectionID string) {
	rc.Visited.Remove(collectionID)
	rc.Skip = false
}

// Child returns a context for a nested populate call that shares the same
// visited set (so cycles are detected across the whole traversal) but
// resets Skip for the new branch.
func (rc *RelationshipContext) Child() *RelationshipContext {
	return &RelationshipContext{Visited: rc.Visited}
}
