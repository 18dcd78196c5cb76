package storage

import (
	"context"
	"testing"
)

func TestFilesystemBackendWriteRead(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryFilesystemBackend()

	if _, err := b.Write(ctx, "commits/abc", []byte("hello")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := b.Read(ctx, "commits/abc")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", data)
	}
}

func TestFilesystemBackendWriteAtomicRename(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryFilesystemBackend()

	if _, err := b.WriteAtomic(ctx, "refs/main", []byte("c1")); err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}
	data, err := b.Read(ctx, "refs/main")
	if err != nil || string(data) != "c1" {
		t.Fatalf("expected %q, got %q err %v", "c1", data, err)
	}
}

func TestFilesystemBackendListNested(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryFilesystemBackend()

	b.Write(ctx, "objects/aa/1", []byte("1"))
	b.Write(ctx, "objects/bb/2", []byte("2"))
	b.Write(ctx, "other/c", []byte("3"))

	res, err := b.List(ctx, "objects/", ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(res.Files) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(res.Files), res.Files)
	}
}

func TestFilesystemBackendMove(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryFilesystemBackend()
	b.Write(ctx, "src", []byte("data"))

	if err := b.Move(ctx, "src", "nested/dst"); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if ok, _ := b.Exists(ctx, "src"); ok {
		t.Fatalf("expected src to be gone")
	}
	data, err := b.Read(ctx, "nested/dst")
	if err != nil || string(data) != "data" {
		t.Fatalf("expected moved data, got %q err %v", data, err)
	}
}

func TestPrefixScopeRoundTrip(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryBackend()
	scoped := NewPrefixScope(inner, "repo-a")

	if _, err := scoped.Write(ctx, "refs/main", []byte("c1")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	raw, err := inner.Read(ctx, "repo-a/refs/main")
	if err != nil || string(raw) != "c1" {
		t.Fatalf("expected prefixed path on inner backend, got %q err %v", raw, err)
	}

	data, err := scoped.Read(ctx, "refs/main")
	if err != nil || string(data) != "c1" {
		t.Fatalf("expected scoped read to see unprefixed path, got %q err %v", data, err)
	}

	res, err := scoped.List(ctx, "refs/", ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0] != "refs/main" {
		t.Fatalf("expected unscoped path in List results, got %v", res.Files)
	}
}
