package storage

import (
	"context"
	"testing"

	"github.com/parquedb/parquedb/core"
)

func newTestSQLiteBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	ctx := context.Background()
	b, err := NewSQLiteBackend(ctx, "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewSQLiteBackend failed: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestSQLiteBackendWriteRead(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLiteBackend(t)

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

func TestSQLiteBackendNotFound(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLiteBackend(t)

	if _, err := b.Read(ctx, "missing"); !core.IsCode(err, core.CodeNotFound) {
		t.Fatalf("expected CodeNotFound, got %v", err)
	}
}

func TestSQLiteBackendWriteConditional(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLiteBackend(t)
	star := "*"

	if _, err := b.WriteConditional(ctx, "refs/main", []byte("c1"), WriteOptions{IfNoneMatch: &star}); err != nil {
		t.Fatalf("first create-only write should succeed: %v", err)
	}
	if _, err := b.WriteConditional(ctx, "refs/main", []byte("c2"), WriteOptions{IfNoneMatch: &star}); !core.IsCode(err, core.CodeETagMismatch) {
		t.Fatalf("expected CodeETagMismatch, got %v", err)
	}
}

func TestSQLiteBackendListAndDeletePrefix(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLiteBackend(t)

	b.Write(ctx, "objects/a", []byte("1"))
	b.Write(ctx, "objects/b", []byte("2"))
	b.Write(ctx, "other/c", []byte("3"))

	res, err := b.List(ctx, "objects/", ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(res.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(res.Files))
	}

	if err := b.DeletePrefix(ctx, "objects/"); err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	if ok, _ := b.Exists(ctx, "objects/a"); ok {
		t.Fatalf("expected objects/a to be gone")
	}
	if ok, _ := b.Exists(ctx, "other/c"); !ok {
		t.Fatalf("expected other/c to survive")
	}
}

func TestSQLiteBackendAppend(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLiteBackend(t)

	b.Append(ctx, "log", []byte("a"))
	b.Append(ctx, "log", []byte("b"))
	data, _ := b.Read(ctx, "log")
	if string(data) != "ab" {
		t.Fatalf("expected %q, got %q", "ab", data)
	}
}
