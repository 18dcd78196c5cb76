package repo

import (
	"context"
	"testing"

	"github.com/parquedb/parquedb/core"
	"github.com/parquedb/parquedb/storage"
)

func newTestRepo() (*RefStore, *CommitStore, *BranchManager) {
	backend := storage.NewMemoryBackend()
	refs := NewRefStore(backend)
	commits := NewCommitStore(backend)
	return refs, commits, NewBranchManager(refs, commits)
}

func TestBranchCreateCheckoutCurrent(t *testing.T) {
	ctx := context.Background()
	refs, commits, branches := newTestRepo()

	root := newTestCommitT(ctx, t, commits, nil, "root")
	refs.CreateRef(ctx, "main", root.Hash)
	refs.SetHead(ctx, "main")

	if err := branches.Create(ctx, "feature", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := branches.Checkout(ctx, "feature"); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	current, err := branches.Current(ctx)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if current != "feature" {
		t.Fatalf("expected feature, got %s", current)
	}
}

func TestBranchFastForward(t *testing.T) {
	ctx := context.Background()
	refs, commits, branches := newTestRepo()

	root := newTestCommitT(ctx, t, commits, nil, "root")
	refs.CreateRef(ctx, "main", root.Hash)
	child := newTestCommitT(ctx, t, commits, []string{root.Hash}, "child")

	ok, err := branches.IsFastForward(ctx, root.Hash, child.Hash)
	if err != nil {
		t.Fatalf("IsFastForward failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected child to be a fast-forward of root")
	}

	if err := branches.FastForward(ctx, "main", child.Hash); err != nil {
		t.Fatalf("FastForward failed: %v", err)
	}
	hash, _ := refs.ResolveRef(ctx, "main")
	if hash != child.Hash {
		t.Fatalf("expected main to point at child, got %s", hash)
	}
}

func TestBranchDeleteRejectsCurrent(t *testing.T) {
	ctx := context.Background()
	refs, commits, branches := newTestRepo()

	root := newTestCommitT(ctx, t, commits, nil, "root")
	refs.CreateRef(ctx, "main", root.Hash)
	refs.SetHead(ctx, "main")

	err := branches.Delete(ctx, "main")
	if !core.IsCode(err, core.CodeInvalidArgument) {
		t.Fatalf("expected CodeInvalidArgument, got %v", err)
	}
}

func TestBranchRenameMovesHead(t *testing.T) {
	ctx := context.Background()
	refs, commits, branches := newTestRepo()

	root := newTestCommitT(ctx, t, commits, nil, "root")
	refs.CreateRef(ctx, "main", root.Hash)
	refs.SetHead(ctx, "main")

	if err := branches.Rename(ctx, "main", "trunk"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	current, err := branches.Current(ctx)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if current != "trunk" {
		t.Fatalf("expected trunk, got %s", current)
	}
}

func newTestCommitT(ctx context.Context, t *testing.T, store *CommitStore, parents []string, msg string) core.Commit {
	t.Helper()
	c := newTestCommit(t, parents, msg, int64(len(parents)+1))
	if err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return c
}
