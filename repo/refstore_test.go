package repo

import (
	"context"
	"testing"

	"github.com/parquedb/parquedb/core"
	"github.com/parquedb/parquedb/storage"
)

func TestRefStoreCreateResolveUpdate(t *testing.T) {
	ctx := context.Background()
	refs := NewRefStore(storage.NewMemoryBackend())

	if err := refs.CreateRef(ctx, "main", "c1"); err != nil {
		t.Fatalf("CreateRef failed: %v", err)
	}
	hash, err := refs.ResolveRef(ctx, "main")
	if err != nil {
		t.Fatalf("ResolveRef failed: %v", err)
	}
	if hash != "c1" {
		t.Fatalf("expected c1, got %s", hash)
	}

	if err := refs.UpdateRef(ctx, "main", "c1", "c2"); err != nil {
		t.Fatalf("UpdateRef failed: %v", err)
	}
	hash, _ = refs.ResolveRef(ctx, "main")
	if hash != "c2" {
		t.Fatalf("expected c2, got %s", hash)
	}
}

func TestRefStoreUpdateRejectsStaleCAS(t *testing.T) {
	ctx := context.Background()
	refs := NewRefStore(storage.NewMemoryBackend())
	refs.CreateRef(ctx, "main", "c1")

	err := refs.UpdateRef(ctx, "main", "wrong-expected", "c2")
	if !core.IsCode(err, core.CodeETagMismatch) {
		t.Fatalf("expected CodeETagMismatch, got %v", err)
	}
}

func TestRefStoreHeadAttachedAndDetached(t *testing.T) {
	ctx := context.Background()
	refs := NewRefStore(storage.NewMemoryBackend())
	refs.CreateRef(ctx, "main", "c1")

	if err := refs.SetHead(ctx, "main"); err != nil {
		t.Fatalf("SetHead failed: %v", err)
	}
	head, err := refs.HeadCommit(ctx)
	if err != nil {
		t.Fatalf("HeadCommit failed: %v", err)
	}
	if head != "c1" {
		t.Fatalf("expected c1, got %s", head)
	}

	if err := refs.DetachHead(ctx, "c9"); err != nil {
		t.Fatalf("DetachHead failed: %v", err)
	}
	head, err = refs.HeadCommit(ctx)
	if err != nil {
		t.Fatalf("HeadCommit failed: %v", err)
	}
	if head != "c9" {
		t.Fatalf("expected detached head c9, got %s", head)
	}
}

func TestRefStoreListRefs(t *testing.T) {
	ctx := context.Background()
	refs := NewRefStore(storage.NewMemoryBackend())
	refs.CreateRef(ctx, "main", "c1")
	refs.CreateRef(ctx, "feature", "c2")

	names, err := refs.ListRefs(ctx)
	if err != nil {
		t.Fatalf("ListRefs failed: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 branches, got %d: %v", len(names), names)
	}
}
