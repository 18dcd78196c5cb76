package columnar

import (
	"testing"

	"github.com/parquedb/parquedb/core"
)

func testType() core.TypeDef {
	return core.TypeDef{
		Collection: "posts",
		Fields: []core.FieldDef{
			{Name: "title", Kind: core.KindString, Required: true},
			{Name: "views", Kind: core.KindInt},
			{Name: "rating", Kind: core.KindDouble},
			{Name: "published", Kind: core.KindBoolean},
		},
	}
}

func testDocs() []core.Document {
	return []core.Document{
		{
			"$id": "p1", "$type": "posts",
			"createdAt": float64(1000), "createdBy": "alice",
			"updatedAt": float64(1000), "updatedBy": "alice",
			"version":   float64(1),
			"title":     "Hello",
			"views":     float64(10),
			"rating":    float64(4.5),
			"published": true,
		},
		{
			"$id": "p2", "$type": "posts",
			"createdAt": float64(2000), "createdBy": "bob",
			"updatedAt": float64(2500), "updatedBy": "bob",
			"version":   float64(3),
			"title":     "World",
			"views":     float64(99),
			"rating":    float64(2.1),
			"published": false,
		},
	}
}

func TestBuildSchemaSkipsMetadataFields(t *testing.T) {
	typ := testType()
	typ.Fields = append(typ.Fields, core.FieldDef{Name: "$internal", Kind: core.KindString})

	schema, err := BuildSchema(typ)
	if err != nil {
		t.Fatalf("BuildSchema failed: %v", err)
	}
	if _, ok := schema.Field("$internal"); ok {
		t.Fatalf("expected $internal to be skipped")
	}
	if _, ok := schema.Field("title"); !ok {
		t.Fatalf("expected title to be present")
	}
}

func TestWriteFlatReadFlatRoundTrip(t *testing.T) {
	schema, err := BuildSchema(testType())
	if err != nil {
		t.Fatalf("BuildSchema failed: %v", err)
	}
	docs := testDocs()

	codec := ParquetCodec{}
	data, err := codec.WriteFlat(schema, docs)
	if err != nil {
		t.Fatalf("WriteFlat failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty parquet bytes")
	}

	back, err := codec.ReadFlat(schema, data)
	if err != nil {
		t.Fatalf("ReadFlat failed: %v", err)
	}
	if len(back) != len(docs) {
		t.Fatalf("expected %d rows, got %d", len(docs), len(back))
	}
	if back[0]["title"] != "Hello" || back[1]["title"] != "World" {
		t.Fatalf("titles did not round-trip: %+v", back)
	}
	if back[0]["views"] != float64(10) {
		t.Fatalf("views did not round-trip: %+v", back[0]["views"])
	}
}

func TestWriteShreddedReadShreddedRoundTrip(t *testing.T) {
	typ := testType()
	schema, err := BuildSchema(typ)
	if err != nil {
		t.Fatalf("BuildSchema failed: %v", err)
	}
	plan := ShreddingPlanner{}.Plan(typ, ShreddingConfig{ColumnName: "$data", Auto: true})
	if len(plan.Fields) == 0 {
		t.Fatalf("expected some fields to be auto-shredded")
	}

	codec := ParquetCodec{}
	docs := testDocs()
	data, err := codec.WriteShredded(schema, plan, docs)
	if err != nil {
		t.Fatalf("WriteShredded failed: %v", err)
	}

	meta, err := ReadShreddingMetadata(data)
	if err != nil {
		t.Fatalf("ReadShreddingMetadata failed: %v", err)
	}
	if _, ok := meta["$data"]; !ok {
		t.Fatalf("expected $data shredding metadata, got %+v", meta)
	}

	back, err := codec.ReadShredded(schema, "$data", data)
	if err != nil {
		t.Fatalf("ReadShredded failed: %v", err)
	}
	if len(back) != len(docs) {
		t.Fatalf("expected %d rows, got %d", len(docs), len(back))
	}
	if back[0]["views"] != float64(10) {
		t.Fatalf("views did not round-trip through shredding: %+v", back[0])
	}
	if back[0]["title"] != "Hello" {
		t.Fatalf("residual title did not round-trip: %+v", back[0])
	}
}
