package repo

import (
	"context"
	"testing"

	"github.com/parquedb/parquedb/core"
	"github.com/parquedb/parquedb/storage"
)

func TestMergeStateStoreBeginLoad(t *testing.T) {
	ctx := context.Background()
	states := NewMergeStateStore(storage.NewMemoryBackend())

	conflicts := []core.Conflict{
		{EntityID: "p1", Collection: "posts", Type: core.ConflictConcurrentUpdate},
	}
	state, err := states.Begin(ctx, "feature", "main", "base", "c1", "c2", core.StrategyManual, conflicts)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if state.Status != core.MergeConflicted {
		t.Fatalf("expected MergeConflicted status, got %v", state.Status)
	}

	loaded, err := states.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ID != state.ID {
		t.Fatalf("loaded state does not match")
	}
}

func TestMergeStateStoreBeginRejectsDoubleBegin(t *testing.T) {
	ctx := context.Background()
	states := NewMergeStateStore(storage.NewMemoryBackend())
	states.Begin(ctx, "a", "b", "base", "c1", "c2", core.StrategyManual, nil)

	_, err := states.Begin(ctx, "a", "b", "base", "c1", "c2", core.StrategyManual, nil)
	if !core.IsCode(err, core.CodeMergeInProgress) {
		t.Fatalf("expected CodeMergeInProgress, got %v", err)
	}
}

func TestMergeStateStoreResolveByExactPattern(t *testing.T) {
	ctx := context.Background()
	states := NewMergeStateStore(storage.NewMemoryBackend())
	conflicts := []core.Conflict{
		{EntityID: "p1", Collection: "posts", Type: core.ConflictConcurrentUpdate, OurValue: "ours", TheirValue: "theirs"},
		{EntityID: "p2", Collection: "posts", Type: core.ConflictConcurrentUpdate},
	}
	states.Begin(ctx, "a", "b", "base", "c1", "c2", core.StrategyManual, conflicts)

	n, err := states.ResolveConflictsByPattern(ctx, "posts/p1", core.StrategyOurs, nil)
	if err != nil {
		t.Fatalf("ResolveConflictsByPattern failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 conflict resolved, got %d", n)
	}

	state, _ := states.Load(ctx)
	if !state.Conflicts[0].Resolved || state.Conflicts[0].ResolvedValue != "ours" {
		t.Fatalf("expected p1 resolved with our value, got %+v", state.Conflicts[0])
	}
	if state.Conflicts[1].Resolved {
		t.Fatalf("expected p2 to remain unresolved")
	}
	if state.AllResolved() {
		t.Fatalf("expected AllResolved to be false while p2 remains")
	}
}

func TestMergeStateStoreResolveByWildcard(t *testing.T) {
	ctx := context.Background()
	states := NewMergeStateStore(storage.NewMemoryBackend())
	conflicts := []core.Conflict{
		{EntityID: "p1", Collection: "posts", Type: core.ConflictConcurrentUpdate, TheirValue: "theirs1"},
		{EntityID: "p2", Collection: "posts", Type: core.ConflictConcurrentUpdate, TheirValue: "theirs2"},
	}
	states.Begin(ctx, "a", "b", "base", "c1", "c2", core.StrategyManual, conflicts)

	n, err := states.ResolveConflictsByPattern(ctx, "*", core.StrategyTheirs, nil)
	if err != nil {
		t.Fatalf("ResolveConflictsByPattern failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 conflicts resolved, got %d", n)
	}
	state, _ := states.Load(ctx)
	if !state.AllResolved() {
		t.Fatalf("expected all conflicts resolved")
	}
}

func TestMergeStateStoreClear(t *testing.T) {
	ctx := context.Background()
	states := NewMergeStateStore(storage.NewMemoryBackend())
	states.Begin(ctx, "a", "b", "base", "c1", "c2", core.StrategyManual, nil)

	if err := states.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if has, _ := states.HasInProgress(ctx); has {
		t.Fatalf("expected no merge in progress after Clear")
	}
}
