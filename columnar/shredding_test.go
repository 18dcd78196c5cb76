package columnar

import (
	"testing"

	"github.com/parquedb/parquedb/core"
)

func TestShreddingPlannerSelectsByRule(t *testing.T) {
	typ := core.TypeDef{
		Collection: "posts",
		Shred:      []string{"title"},
		Fields: []core.FieldDef{
			{Name: "title", Kind: core.KindString},
			{Name: "year", Kind: core.KindInt, Indexed: true},
			{Name: "summary", Kind: core.KindText},
			{Name: "status", Kind: core.KindEnum},
		},
	}
	cfg := ShreddingConfig{ColumnName: "$data", Always: []string{"summary"}, Auto: true}

	plan := ShreddingPlanner{}.Plan(typ, cfg)

	want := map[string]string{"title": "$shred", "year": "indexed", "summary": "always", "status": "auto"}
	if len(plan.Fields) != len(want) {
		t.Fatalf("expected %d shredded fields, got %d: %+v", len(want), len(plan.Fields), plan.Fields)
	}
	for _, f := range plan.Fields {
		if want[f.Name] != f.Reason {
			t.Fatalf("field %s: expected reason %s, got %s", f.Name, want[f.Name], f.Reason)
		}
	}
}

func TestShreddingPlannerSkipsUnselectedField(t *testing.T) {
	typ := core.TypeDef{
		Collection: "posts",
		Fields: []core.FieldDef{
			{Name: "body", Kind: core.KindMarkdown},
		},
	}
	plan := ShreddingPlanner{}.Plan(typ, ShreddingConfig{ColumnName: "$data", Auto: true})
	if len(plan.Fields) != 0 {
		t.Fatalf("expected no shredded fields, got %+v", plan.Fields)
	}
}

func TestDetectShreddedType(t *testing.T) {
	cases := []struct {
		name   string
		values []any
		want   ShreddedType
	}{
		{"booleans", []any{true, false}, ShreddedBoolean},
		{"strings", []any{"a", "b"}, ShreddedUTF8},
		{"small ints", []any{float64(1), float64(2)}, ShreddedInt32},
		{"big ints", []any{float64(int64(1) << 60)}, ShreddedInt64},
		{"floats", []any{float64(1.5)}, ShreddedDouble},
		{"empty", nil, ShreddedInt32},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := DetectShreddedType(c.values)
			if got != c.want {
				t.Fatalf("expected %s, got %s", c.want, got)
			}
		})
	}
}

func TestStatsPath(t *testing.T) {
	plan := ShreddingPlan{Root: "$data"}
	if got := plan.StatsPath("year"); got != "$data.typed_value.year.typed_value" {
		t.Fatalf("unexpected stats path: %s", got)
	}
}
