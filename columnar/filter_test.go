package columnar

import "testing"

func TestEvaluateEmptyLogicalOperators(t *testing.T) {
	ev := FilterEvaluator{}
	doc := map[string]any{"a": float64(1)}

	if !ev.Evaluate(doc, Filter{"$and": []any{}}) {
		t.Fatalf("expected $and [] to be true")
	}
	if ev.Evaluate(doc, Filter{"$or": []any{}}) {
		t.Fatalf("expected $or [] to be false")
	}
	if !ev.Evaluate(doc, Filter{"$nor": []any{}}) {
		t.Fatalf("expected $nor [] to be true")
	}
	if ev.Evaluate(doc, Filter{"$not": map[string]any{}}) {
		t.Fatalf("expected $not {} to be false")
	}
}

func TestEvaluateNilDocument(t *testing.T) {
	ev := FilterEvaluator{}
	if ev.Evaluate(nil, Filter{"a": float64(1)}) {
		t.Fatalf("expected non-trivial filter against nil document to be false")
	}
	if !ev.Evaluate(nil, Filter{}) {
		t.Fatalf("expected trivial filter against nil document to be true")
	}
}

func TestEvaluateExistsDistinguishesMissingFromNull(t *testing.T) {
	ev := FilterEvaluator{}
	present := map[string]any{"a": nil}
	missing := map[string]any{}

	if !ev.Evaluate(present, Filter{"a": map[string]any{"$exists": true}}) {
		t.Fatalf("expected $exists true to match a present null field")
	}
	if ev.Evaluate(missing, Filter{"a": map[string]any{"$exists": true}}) {
		t.Fatalf("expected $exists true to reject a missing field")
	}
}

func TestEvaluateComparisonOperators(t *testing.T) {
	ev := FilterEvaluator{}
	doc := map[string]any{"year": float64(2021), "name": "Test"}

	if !ev.Evaluate(doc, Filter{"year": map[string]any{"$gte": float64(2020)}}) {
		t.Fatalf("expected year >= 2020 to match")
	}
	if ev.Evaluate(doc, Filter{"year": map[string]any{"$lt": float64(2020)}}) {
		t.Fatalf("expected year < 2020 to reject")
	}
	if !ev.Evaluate(doc, Filter{"name": "Test"}) {
		t.Fatalf("expected implicit $eq to match")
	}
}

func TestEvaluateDotNotation(t *testing.T) {
	ev := FilterEvaluator{}
	doc := map[string]any{"data": map[string]any{"year": float64(2022)}}
	if !ev.Evaluate(doc, Filter{"data.year": map[string]any{"$eq": float64(2022)}}) {
		t.Fatalf("expected dot-notation lookup to match")
	}
}

func TestEvaluateElemMatch(t *testing.T) {
	ev := FilterEvaluator{}
	doc := map[string]any{"tags": []any{"a", "b", "c"}}
	if !ev.Evaluate(doc, Filter{"tags": map[string]any{"$elemMatch": map[string]any{"$eq": "b"}}}) {
		t.Fatalf("expected elemMatch to find b")
	}
	if ev.Evaluate(doc, Filter{"tags": map[string]any{"$elemMatch": map[string]any{"$eq": "z"}}}) {
		t.Fatalf("expected elemMatch to reject z")
	}
}

func TestEvaluateStringCaseSensitive(t *testing.T) {
	ev := FilterEvaluator{}
	doc := map[string]any{"name": "Test"}
	if ev.Evaluate(doc, Filter{"name": map[string]any{"$startsWith": "test"}}) {
		t.Fatalf("expected string ops to be case-sensitive")
	}
}
