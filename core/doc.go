// Package core provides the shared data model for ParqueDB: documents,
// events, commits, refs, merge state, and the error taxonomy every other
// package reports through.
//
// # Identity
//
// Identity identifies the author of a commit, the same way git tracks
// commit authorship:
//
//	identity := core.Identity{Name: "Jane Doe", Email: "jane@example.com"}
//
// # Events
//
// Every document mutation is recorded as an Event before it is shredded
// into columnar storage:
//
//	evt, err := core.NewEvent(core.OpUpdate, "users:u1", before, after, &core.EventMetadata{
//	    Update: &core.UpdateOp{Set: map[string]any{"email": "new@x"}},
//	})
package core
