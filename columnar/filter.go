package columnar

import (
	"regexp"
	"strings"
)

// Filter is a filter tree over documents, per spec §4.4: a JSON-shaped
// object combining $and/$or/$not/$nor with per-field comparison
// leaves. It is kept as a plain map (mirroring the wire representation
// filters arrive in) rather than a typed AST, matching how the merge
// and event packages already treat documents as core.Document maps.
type Filter map[string]any

// FilterEvaluator evaluates a Filter against a document, per spec
// §4.4's "Filter evaluator semantics": it is also what PredicatePushdown
// runs as the residual filter after shredded leaves have been pruned by
// row-group statistics.
type FilterEvaluator struct{}

// Evaluate reports whether doc matches filter. A nil doc only matches
// an empty (trivial) filter, per spec §4.4.
func (FilterEvaluator) Evaluate(doc map[string]any, filter Filter) bool {
	return evalFilter(doc, filter)
}

func evalFilter(doc map[string]any, filter map[string]any) bool {
	if doc == nil && len(filter) > 0 {
		return false
	}
	for key, value := range filter {
		switch key {
		case "$and":
			if !evalAnd(doc, value) {
				return false
			}
		case "$or":
			if !evalOr(doc, value) {
				return false
			}
		case "$nor":
			if !evalNor(doc, value) {
				return false
			}
		case "$not":
			sub, _ := value.(map[string]any)
			if evalFilter(doc, sub) {
				return false
			}
		default:
			if !evalField(doc, key, value) {
				return false
			}
		}
	}
	return true
}

func evalAnd(doc map[string]any, value any) bool {
	clauses, _ := value.([]any)
	for _, c := range clauses {
		sub, _ := c.(map[string]any)
		if !evalFilter(doc, sub) {
			return false
		}
	}
	return true
}

func evalOr(doc map[string]any, value any) bool {
	clauses, _ := value.([]any)
	if len(clauses) == 0 {
		return false
	}
	for _, c := range clauses {
		sub, _ := c.(map[string]any)
		if evalFilter(doc, sub) {
			return true
		}
	}
	return false
}

func evalNor(doc map[string]any, value any) bool {
	clauses, _ := value.([]any)
	for _, c := range clauses {
		sub, _ := c.(map[string]any)
		if evalFilter(doc, sub) {
			return false
		}
	}
	return true
}

// evalField evaluates a single "<path>: <spec>" leaf, where spec is
// either a scalar (implicit $eq) or an operator map.
func evalField(doc map[string]any, path string, spec any) bool {
	v, exists := getByPath(doc, path)
	ops, isOpMap := asOperatorMap(spec)
	if !isOpMap {
		return exists && valuesEqual(v, spec)
	}
	for op, arg := range ops {
		if !evalOp(v, exists, op, arg) {
			return false
		}
	}
	return true
}

// asOperatorMap reports whether spec is an operator map (every key
// starts with "$") rather than a literal value to $eq-compare.
func asOperatorMap(spec any) (map[string]any, bool) {
	m, ok := spec.(map[string]any)
	if !ok {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func evalOp(v any, exists bool, op string, arg any) bool {
	switch op {
	case "$exists":
		want, _ := arg.(bool)
		return exists == want
	case "$eq":
		return valuesEqual(v, arg)
	case "$ne":
		return !valuesEqual(v, arg)
	case "$gt":
		c, ok := compareValues(v, arg)
		return ok && c > 0
	case "$gte":
		c, ok := compareValues(v, arg)
		return ok && c >= 0
	case "$lt":
		c, ok := compareValues(v, arg)
		return ok && c < 0
	case "$lte":
		c, ok := compareValues(v, arg)
		return ok && c <= 0
	case "$in":
		return inSet(v, arg)
	case "$nin":
		return !inSet(v, arg)
	case "$regex":
		return evalRegex(v, arg)
	case "$startsWith":
		s, ok1 := v.(string)
		p, ok2 := arg.(string)
		return ok1 && ok2 && strings.HasPrefix(s, p)
	case "$endsWith":
		s, ok1 := v.(string)
		p, ok2 := arg.(string)
		return ok1 && ok2 && strings.HasSuffix(s, p)
	case "$contains":
		s, ok1 := v.(string)
		p, ok2 := arg.(string)
		return ok1 && ok2 && strings.Contains(s, p)
	case "$all":
		return allIn(v, arg)
	case "$elemMatch":
		return elemMatch(v, arg)
	case "$size":
		return sizeOf(v, arg)
	default:
		return false
	}
}

func evalRegex(v, arg any) bool {
	s, ok := v.(string)
	pat, ok2 := arg.(string)
	if !ok || !ok2 {
		return false
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func inSet(v, arg any) bool {
	set, ok := arg.([]any)
	if !ok {
		return false
	}
	for _, item := range set {
		if valuesEqual(v, item) {
			return true
		}
	}
	return false
}

func allIn(v, arg any) bool {
	want, ok := arg.([]any)
	arr, ok2 := v.([]any)
	if !ok || !ok2 {
		return false
	}
	for _, w := range want {
		found := false
		for _, item := range arr {
			if valuesEqual(item, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func elemMatch(v, arg any) bool {
	arr, ok := v.([]any)
	if !ok {
		return false
	}
	sub, isMap := arg.(map[string]any)
	if !isMap {
		return false
	}
	ops, isOpMap := asOperatorMap(sub)
	for _, elem := range arr {
		if isOpMap {
			if matchAllOps(elem, ops) {
				return true
			}
			continue
		}
		if nested, ok := elem.(map[string]any); ok && evalFilter(nested, sub) {
			return true
		}
	}
	return false
}

func matchAllOps(v any, ops map[string]any) bool {
	for op, arg := range ops {
		if !evalOp(v, v != nil, op, arg) {
			return false
		}
	}
	return true
}

func sizeOf(v, arg any) bool {
	arr, ok := v.([]any)
	if !ok {
		return false
	}
	n, ok := arg.(float64)
	if !ok {
		return false
	}
	return float64(len(arr)) == n
}

func valuesEqual(a, b any) bool {
	if an, aok := numeric(a); aok {
		if bn, bok := numeric(b); bok {
			return an == bn
		}
	}
	return a == b
}

// compareValues orders a against b when both are numbers or both are
// strings; any other combination is not comparable.
func compareValues(a, b any) (int, bool) {
	if an, aok := numeric(a); aok {
		if bn, bok := numeric(b); bok {
			switch {
			case an < bn:
				return -1, true
			case an > bn:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// getByPath resolves dot-notation paths ("a.b.c") against nested maps.
func getByPath(doc map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
