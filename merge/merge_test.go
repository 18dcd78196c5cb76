package merge

import (
	"testing"

	"github.com/parquedb/parquedb/core"
)

func mustEvent(t *testing.T, op core.Op, target string, before, after core.Document, meta *core.EventMetadata) core.Event {
	t.Helper()
	evt, err := core.NewEvent(op, target, before, after, meta)
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}
	return evt
}

func TestMergeDisjointFieldsAutoMerges(t *testing.T) {
	base := core.Document{"name": "alice", "age": 30.0, "email": "a@x.com"}

	ourEvt := mustEvent(t, core.OpUpdate, "users:u1", base, core.Document{"name": "alice", "age": 31.0, "email": "a@x.com"},
		&core.EventMetadata{Update: &core.UpdateOp{Set: map[string]any{"age": 31.0}}})
	theirEvt := mustEvent(t, core.OpUpdate, "users:u1", base, core.Document{"name": "alice", "age": 30.0, "email": "new@x.com"},
		&core.EventMetadata{Update: &core.UpdateOp{Set: map[string]any{"email": "new@x.com"}}})

	result, err := Merge([]core.Event{ourEvt}, []core.Event{theirEvt}, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !result.Success || len(result.Conflicts) != 0 {
		t.Fatalf("expected disjoint-field update to auto-merge, got conflicts %+v", result.Conflicts)
	}
	if len(result.AutoMerged) != 1 {
		t.Fatalf("expected 1 auto-merge, got %d", len(result.AutoMerged))
	}
}

func TestMergeCommutativeIncSums(t *testing.T) {
	base := core.Document{"views": 10.0}

	ourEvt := mustEvent(t, core.OpUpdate, "posts:p1", base, core.Document{"views": 15.0},
		&core.EventMetadata{Update: &core.UpdateOp{Inc: map[string]float64{"views": 5}}})
	theirEvt := mustEvent(t, core.OpUpdate, "posts:p1", base, core.Document{"views": 13.0},
		&core.EventMetadata{Update: &core.UpdateOp{Inc: map[string]float64{"views": 3}}})

	result, err := Merge([]core.Event{ourEvt}, []core.Event{theirEvt}, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected commutative $inc to auto-merge, got conflicts %+v", result.Conflicts)
	}
	if len(result.AutoMerged) != 1 {
		t.Fatalf("expected 1 auto-merge, got %+v", result)
	}
	merged := result.AutoMerged[0]
	if merged.After["views"] != 18.0 {
		t.Fatalf("expected summed views=18, got %v", merged.After["views"])
	}
}

func TestMergeConcurrentUpdateSameFieldConflicts(t *testing.T) {
	base := core.Document{"status": "draft"}

	ourEvt := mustEvent(t, core.OpUpdate, "posts:p1", base, core.Document{"status": "published"},
		&core.EventMetadata{Update: &core.UpdateOp{Set: map[string]any{"status": "published"}}})
	theirEvt := mustEvent(t, core.OpUpdate, "posts:p1", base, core.Document{"status": "archived"},
		&core.EventMetadata{Update: &core.UpdateOp{Set: map[string]any{"status": "archived"}}})

	result, err := Merge([]core.Event{ourEvt}, []core.Event{theirEvt}, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if result.Success || len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 unresolved conflict, got %+v", result.Conflicts)
	}
	if result.Conflicts[0].Type != core.ConflictConcurrentUpdate {
		t.Fatalf("expected ConflictConcurrentUpdate, got %v", result.Conflicts[0].Type)
	}
}

func TestMergeDeleteUpdateConflicts(t *testing.T) {
	base := core.Document{"status": "draft"}

	ourEvt := mustEvent(t, core.OpDelete, "posts:p1", base, nil, nil)
	theirEvt := mustEvent(t, core.OpUpdate, "posts:p1", base, core.Document{"status": "archived"},
		&core.EventMetadata{Update: &core.UpdateOp{Set: map[string]any{"status": "archived"}}})

	result, err := Merge([]core.Event{ourEvt}, []core.Event{theirEvt}, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if result.Success || len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 unresolved conflict, got %+v", result.Conflicts)
	}
	if result.Conflicts[0].Type != core.ConflictDeleteUpdate {
		t.Fatalf("expected ConflictDeleteUpdate, got %v", result.Conflicts[0].Type)
	}
}

func TestMergeCreateCreateIdenticalAutoMerges(t *testing.T) {
	doc := core.Document{"name": "bob"}
	ourEvt := mustEvent(t, core.OpCreate, "users:u2", nil, doc, nil)
	theirEvt := mustEvent(t, core.OpCreate, "users:u2", nil, doc, nil)

	result, err := Merge([]core.Event{ourEvt}, []core.Event{theirEvt}, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected identical create/create to auto-merge, got conflicts %+v", result.Conflicts)
	}
}

func TestMergeCreateCreateDifferentConflicts(t *testing.T) {
	ourEvt := mustEvent(t, core.OpCreate, "users:u3", nil, core.Document{"name": "bob"}, nil)
	theirEvt := mustEvent(t, core.OpCreate, "users:u3", nil, core.Document{"name": "carol"}, nil)

	result, err := Merge([]core.Event{ourEvt}, []core.Event{theirEvt}, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if result.Success || result.Conflicts[0].Type != core.ConflictCreateCreate {
		t.Fatalf("expected ConflictCreateCreate, got %+v", result.Conflicts)
	}
}

func TestMergeUnilateralChangePassesThrough(t *testing.T) {
	evt := mustEvent(t, core.OpCreate, "users:u4", nil, core.Document{"name": "dan"}, nil)

	result, err := Merge([]core.Event{evt}, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !result.Success || len(result.MergedEvents) != 1 {
		t.Fatalf("expected the unilateral event to pass through untouched, got %+v", result)
	}
}

func TestMergeInfersModifiedFieldsWithoutMetadata(t *testing.T) {
	base := core.Document{"status": "draft", "views": 0.0}

	// Neither event carries metadata.update, so the merge engine must fall
	// back to diffing before/after to see that both sides touched "status".
	ourEvt := mustEvent(t, core.OpUpdate, "posts:p1", base, core.Document{"status": "published", "views": 0.0}, nil)
	theirEvt := mustEvent(t, core.OpUpdate, "posts:p1", base, core.Document{"status": "archived", "views": 0.0}, nil)

	result, err := Merge([]core.Event{ourEvt}, []core.Event{theirEvt}, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if result.Success || len(result.Conflicts) != 1 {
		t.Fatalf("expected the inferred field overlap to conflict, got %+v", result)
	}
	if result.Conflicts[0].Type != core.ConflictConcurrentUpdate || result.Conflicts[0].Fields[0] != "status" {
		t.Fatalf("expected a concurrent_update conflict on status, got %+v", result.Conflicts[0])
	}
}

func TestMergeSetVsIncOnSameFieldConflicts(t *testing.T) {
	base := core.Document{"views": 10.0}

	ourEvt := mustEvent(t, core.OpUpdate, "posts:p1", base, core.Document{"views": 99.0},
		&core.EventMetadata{Update: &core.UpdateOp{Set: map[string]any{"views": 99.0}}})
	theirEvt := mustEvent(t, core.OpUpdate, "posts:p1", base, core.Document{"views": 13.0},
		&core.EventMetadata{Update: &core.UpdateOp{Inc: map[string]float64{"views": 3}}})

	result, err := Merge([]core.Event{ourEvt}, []core.Event{theirEvt}, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if result.Success || len(result.Conflicts) != 1 {
		t.Fatalf("expected $set vs $inc on the same field to conflict, got %+v", result)
	}
	if result.Conflicts[0].Fields[0] != "views" {
		t.Fatalf("expected the conflict on views, got %+v", result.Conflicts[0])
	}
}

func TestPickNewerPrefersValueTimestampOverEventTS(t *testing.T) {
	// our event is recorded later (higher event ts) but carries an older
	// value.ts; newest resolution must prefer the value's own timestamp.
	ourEvt := mustEvent(t, core.OpCreate, "posts:p2", nil, core.Document{"status": "ours", "ts": 100.0}, nil)
	theirEvt := mustEvent(t, core.OpCreate, "posts:p2", nil, core.Document{"status": "theirs", "ts": 200.0}, nil)

	ours := collapse([]core.Event{ourEvt})["posts:p2"]
	ours.lastTS = 500
	theirs := collapse([]core.Event{theirEvt})["posts:p2"]
	theirs.lastTS = 1

	winner := pickNewer(ours, theirs)
	if winner.after["status"] != "theirs" {
		t.Fatalf("expected the higher value.ts side to win despite a lower event ts, got %+v", winner.after)
	}
}
