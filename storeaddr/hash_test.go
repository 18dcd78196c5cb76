package storeaddr

import (
	"encoding/json"
	"testing"

	"github.com/parquedb/parquedb/core"
)

func testState() core.DatabaseState {
	return core.DatabaseState{
		Collections: map[string]core.CollectionState{
			"users": {DataHash: "dh1", SchemaHash: "sh1", RowCount: 3},
			"posts": {DataHash: "dh2", SchemaHash: "sh2", RowCount: 7},
		},
		Relationships:    core.RelationshipState{ForwardHash: "f1", ReverseHash: "r1"},
		EventLogPosition: core.EventLogPosition{SegmentID: "seg0", Offset: 12},
	}
}

func TestHashCommitDeterministic(t *testing.T) {
	author := core.Identity{Name: "Test", Email: "test@test.com"}
	state := testState()

	h1 := HashCommit([]string{"parent1"}, "msg", author, 100, state)
	h2 := HashCommit([]string{"parent1"}, "msg", author, 100, state)
	if h1 != h2 {
		t.Fatalf("expected identical hashes for identical bodies, got %s != %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64-char hex sha256, got %d chars", len(h1))
	}
}

func TestHashCommitRoundTripStable(t *testing.T) {
	author := core.Identity{Name: "Test", Email: "test@test.com"}
	state := testState()

	c := NewCommit([]string{"p1", "p2"}, "merge", author, 42, state)

	raw, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded core.Commit
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	rehash := HashCommit(decoded.Parents, decoded.Message, decoded.Author, decoded.TS, decoded.State)
	if rehash != c.Hash {
		t.Fatalf("hash(C) != hash(deserialize(serialize(C))): %s != %s", c.Hash, rehash)
	}
}

func TestHashCommitDiffersOnChange(t *testing.T) {
	author := core.Identity{Name: "Test", Email: "test@test.com"}
	state := testState()

	h1 := HashCommit(nil, "msg", author, 100, state)
	h2 := HashCommit(nil, "different msg", author, 100, state)
	if h1 == h2 {
		t.Fatalf("expected different hashes for different messages")
	}
}

func TestCanonicalJSONRejectsFloat(t *testing.T) {
	_, err := CanonicalJSON(map[string]any{"x": 1.5})
	if err == nil {
		t.Fatalf("expected float64 to be rejected")
	}
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	a, err := CanonicalJSON(map[string]any{"b": "1", "a": "2"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(a) != `{"a":"2","b":"1"}` {
		t.Fatalf("expected sorted keys, got %s", a)
	}
}
