//go:build comparative

package columnar

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
)

// TestFlatParquetReadableByDuckDB cross-validates WriteFlat's output
// against an independent reader, the same external-oracle pattern as the
// teacher's tests/comparative_benchmark_test.go (DuckDB via database/sql,
// built behind the same "comparative" tag). There's no SQL surface of our
// own to benchmark against DuckDB's, so this instead confirms DuckDB reads
// our Parquet bytes and sees the same rows and aggregates we wrote.
func TestFlatParquetReadableByDuckDB(t *testing.T) {
	schema, err := BuildSchema(testType())
	if err != nil {
		t.Fatalf("BuildSchema failed: %v", err)
	}
	docs := testDocs()

	data, err := (ParquetCodec{}).WriteFlat(schema, docs)
	if err != nil {
		t.Fatalf("WriteFlat failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "posts.parquet")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	defer db.Close()

	var count int
	var totalViews float64
	if err := db.QueryRow("SELECT count(*), sum(views) FROM read_parquet('" + path + "')").Scan(&count, &totalViews); err != nil {
		t.Fatalf("DuckDB query failed: %v", err)
	}

	if count != len(docs) {
		t.Fatalf("DuckDB saw %d rows, our writer produced %d", count, len(docs))
	}

	var wantViews float64
	for _, d := range docs {
		wantViews += d["views"].(float64)
	}
	if totalViews != wantViews {
		t.Fatalf("DuckDB summed views=%v, expected %v", totalViews, wantViews)
	}
}
