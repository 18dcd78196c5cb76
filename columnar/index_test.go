package columnar

import (
	"context"
	"testing"

	"github.com/parquedb/parquedb/core"
	"github.com/parquedb/parquedb/storage"
)

func TestSecondaryIndexInsertLookupDelete(t *testing.T) {
	idx := &SecondaryIndex{Name: "by_status", Entries: map[string][]string{}}
	if err := idx.Insert("draft", "p1"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := idx.Insert("draft", "p2"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if got := idx.Lookup("draft"); len(got) != 2 {
		t.Fatalf("expected 2 entries, got %v", got)
	}
	idx.Delete("draft", "p1")
	if got := idx.Lookup("draft"); len(got) != 1 || got[0] != "p2" {
		t.Fatalf("expected only p2 to remain, got %v", got)
	}
}

func TestSecondaryIndexUniqueRejectsDuplicate(t *testing.T) {
	idx := &SecondaryIndex{Name: "by_email", Unique: true, Entries: map[string][]string{}}
	idx.Insert("a@x.com", "u1")
	if err := idx.Insert("a@x.com", "u2"); !core.IsCode(err, core.CodeAlreadyExists) {
		t.Fatalf("expected CodeAlreadyExists, got %v", err)
	}
}

func TestSecondaryIndexLookupRange(t *testing.T) {
	idx := &SecondaryIndex{Entries: map[string][]string{
		"2019": {"a"}, "2020": {"b"}, "2021": {"c"}, "2022": {"d"},
	}}
	got := idx.LookupRange("2020", "2021")
	if len(got) != 2 {
		t.Fatalf("expected 2 results in range, got %v", got)
	}
}

func TestIndexStoreSaveLoadDrop(t *testing.T) {
	ctx := context.Background()
	store := NewIndexStore(storage.NewMemoryBackend())

	idx, err := store.Create(ctx, "by_status", "posts", "status", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	idx.Insert("draft", "p1")
	if err := store.Save(ctx, idx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "posts", "status")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Lookup("draft")) != 1 {
		t.Fatalf("expected loaded index to carry the insert")
	}

	if err := store.Drop(ctx, "posts", "status"); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if _, err := store.Load(ctx, "posts", "status"); !core.IsCode(err, core.CodeNotFound) {
		t.Fatalf("expected CodeNotFound after drop, got %v", err)
	}
}
