package columnar

import (
	"testing"

	"github.com/parquedb/parquedb/core"
)

func TestMaterializeCreateThenUpdate(t *testing.T) {
	author := core.Identity{Name: "Ada", Email: "ada@example.com"}
	create, _ := core.NewEvent(core.OpCreate, "posts:p1", nil, core.Document{"$id": "p1", "$type": "posts", "title": "Hello"}, nil)
	update, _ := core.NewEvent(core.OpUpdate, "posts:p1",
		core.Document{"$id": "p1", "$type": "posts", "title": "Hello"},
		core.Document{"$id": "p1", "$type": "posts", "title": "Hello"},
		&core.EventMetadata{Update: &core.UpdateOp{Set: map[string]any{"views": float64(1)}, Inc: map[string]float64{"likes": 1}}})

	docs := Materialize([]core.Event{create, update}, author, 100)
	doc, ok := docs["posts:p1"]
	if !ok {
		t.Fatalf("expected posts:p1 to be materialized")
	}
	if doc["title"] != "Hello" || doc["views"] != float64(1) {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc["version"] != float64(2) {
		t.Fatalf("expected version 2 after create+update, got %v", doc["version"])
	}
	if doc["createdBy"] != "ada@example.com" {
		t.Fatalf("expected createdBy to be author email, got %v", doc["createdBy"])
	}
}

func TestMaterializeDeleteSoftDeletes(t *testing.T) {
	author := core.Identity{Name: "Ada"}
	create, _ := core.NewEvent(core.OpCreate, "posts:p1", nil, core.Document{"$id": "p1", "$type": "posts"}, nil)
	del, _ := core.NewEvent(core.OpDelete, "posts:p1", core.Document{"$id": "p1", "$type": "posts"}, nil, nil)

	docs := Materialize([]core.Event{create, del}, author, 200)
	doc := docs["posts:p1"]
	if doc["deletedAt"] != float64(200) || doc["deletedBy"] != "Ada" {
		t.Fatalf("expected soft-delete stamps, got %+v", doc)
	}
}

func TestMaterializeInfersUpdateFromDiffWhenMetadataAbsent(t *testing.T) {
	author := core.Identity{Name: "Ada"}
	create, _ := core.NewEvent(core.OpCreate, "posts:p1", nil, core.Document{"$id": "p1", "$type": "posts", "status": "draft"}, nil)
	update, _ := core.NewEvent(core.OpUpdate, "posts:p1",
		core.Document{"$id": "p1", "$type": "posts", "status": "draft"},
		core.Document{"$id": "p1", "$type": "posts", "status": "published"},
		nil)

	docs := Materialize([]core.Event{create, update}, author, 300)
	if docs["posts:p1"]["status"] != "published" {
		t.Fatalf("expected diff-inferred $set to apply, got %+v", docs["posts:p1"])
	}
}
