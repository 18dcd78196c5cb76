package core

// CollectionState is the content-addressed state of one collection's
// columnar storage, as recorded in a Commit (spec §3).
type CollectionState struct {
	DataHash   string `json:"dataHash"`
	SchemaHash string `json:"schemaHash"`
	RowCount   int64  `json:"rowCount"`
}

// RelationshipState is the content-addressed state of the forward/reverse
// relationship tables.
type RelationshipState struct {
	ForwardHash string `json:"forwardHash"`
	ReverseHash string `json:"reverseHash"`
}

// EventLogPosition identifies how far into the event log a commit has
// consumed.
type EventLogPosition struct {
	SegmentID string `json:"segmentId"`
	Offset    int64  `json:"offset"`
}

// DatabaseState is the full snapshot a Commit carries: every collection's
// columnar state, the relationship tables, and the event log cursor.
type DatabaseState struct {
	Collections   map[string]CollectionState `json:"collections"`
	Relationships RelationshipState          `json:"relationships"`
	EventLogPosition EventLogPosition        `json:"eventLogPosition"`
}

// Commit is an immutable, content-addressed snapshot, per spec §3. Hash
// is computed by package storeaddr over the canonical serialization of
// every other field; two commits with identical bodies share a hash.
type Commit struct {
	Hash    string        `json:"hash"`
	Parents []string      `json:"parents"`
	Message string        `json:"message"`
	Author  Identity      `json:"author"`
	TS      int64         `json:"ts"`
	State   DatabaseState `json:"state"`
}

// IsRoot reports whether this is an initial commit with no parents.
func (c Commit) IsRoot() bool { return len(c.Parents) == 0 }

// IsMerge reports whether this is a merge commit (two or more parents).
func (c Commit) IsMerge() bool { return len(c.Parents) >= 2 }
