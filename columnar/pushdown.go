package columnar

import "strings"

// Range is a column-range predicate over a shredded statistics path,
// per spec §4.4 step 2: either a closed/open interval or a discrete
// point set (for $eq/$in).
type Range struct {
	Min          any
	MinInclusive bool
	HasMin       bool
	Max          any
	MaxInclusive bool
	HasMax       bool
	Points       []any
	HasPoints    bool
	// Empty marks an AND-intersection that produced no possible value,
	// letting row-group selection skip unconditionally.
	Empty bool
}

// PushdownEffectiveness reports how much of a filter predicate-pushdown
// could rewrite into range predicates, per spec §4.4 step 6.
type PushdownEffectiveness struct {
	TotalConditions    int
	ShreddedConditions int
	Effectiveness      float64
	IsEffective        bool
}

// PushdownPlan is the result of PredicatePushdown.Plan: the per-path
// range predicates to check row-group statistics against, plus the
// residual filter for leaves pushdown could not rewrite.
type PushdownPlan struct {
	Ranges        map[string]Range // statistics path -> Range
	Residual      Filter
	Effectiveness PushdownEffectiveness
}

// PredicatePushdown rewrites filter leaves addressing a shredded
// VARIANT root into range predicates over that root's typed_value
// statistics paths, per spec §4.4.
//
// Only top-level leaves and leaves nested directly under $and are
// rewritten: $or/$nor/$not branches can't be range-intersected without
// a full interval-algebra engine and are pushed to Residual unchanged,
// which remains correct (pushdown is an optimization, never a
// requirement for correctness) at the cost of forgoing row-group
// skipping on those branches.
type PredicatePushdown struct{}

// Plan builds a PushdownPlan for filter against the shredding described
// by plans (one ShreddingPlan per VARIANT root present in the
// collection's schema; usually just "$data").
func (PredicatePushdown) Plan(filter Filter, plans []ShreddingPlan) PushdownPlan {
	ranges := map[string]Range{}
	residual := Filter{}
	total := 0
	shredded := 0

	leaves := collectANDLeaves(filter)
	for path, spec := range leaves {
		total++
		root, field, isDotted := splitRootField(path)
		var matchedPlan *ShreddingPlan
		if isDotted {
			for i := range plans {
				if plans[i].Root == root {
					if _, ok := plans[i].Field(field); ok {
						matchedPlan = &plans[i]
						break
					}
				}
			}
		}
		if matchedPlan == nil {
			residual[path] = spec
			continue
		}
		r, ok := rangeFromSpec(spec)
		if !ok {
			residual[path] = spec
			continue
		}
		shredded++
		statsPath := matchedPlan.StatsPath(field)
		if existing, has := ranges[statsPath]; has {
			ranges[statsPath] = intersectRange(existing, r)
		} else {
			ranges[statsPath] = r
		}
	}
	clauses, _ := filter["$and"].([]any)
	for k, v := range filter {
		if k != "$and" && strings.HasPrefix(k, "$") {
			residual[k] = v
		}
	}
	for _, c := range clauses {
		sub, _ := c.(map[string]any)
		for k, v := range sub {
			if strings.HasPrefix(k, "$") {
				nested, _ := residual["$and"].([]any)
				residual["$and"] = append(nested, map[string]any{k: v})
			}
		}
	}

	eff := float64(0)
	if total > 0 {
		eff = float64(shredded) / float64(total)
	}
	return PushdownPlan{
		Ranges:   ranges,
		Residual: residual,
		Effectiveness: PushdownEffectiveness{
			TotalConditions:    total,
			ShreddedConditions: shredded,
			Effectiveness:      eff,
			IsEffective:        eff >= 0.5,
		},
	}
}

// collectANDLeaves flattens filter's top-level leaves together with any
// leaves nested one level inside an explicit $and, per the scope
// documented on PredicatePushdown.
func collectANDLeaves(filter Filter) map[string]any {
	out := map[string]any{}
	for k, v := range filter {
		if k == "$and" {
			clauses, _ := v.([]any)
			for _, c := range clauses {
				if sub, ok := c.(map[string]any); ok {
					for k2, v2 := range sub {
						if !strings.HasPrefix(k2, "$") {
							out[k2] = v2
						}
					}
				}
			}
			continue
		}
		if strings.HasPrefix(k, "$") {
			continue
		}
		out[k] = v
	}
	return out
}

func splitRootField(path string) (root, field string, ok bool) {
	i := strings.IndexByte(path, '.')
	if i < 0 {
		return "", "", false
	}
	return path[:i], path[i+1:], true
}

// rangeFromSpec converts a leaf's operator spec (or implicit $eq
// scalar) into a Range, per spec §4.4 step 2. Operators pushdown
// cannot express as a range ($ne, $regex, $exists, and so on) report
// ok=false so the caller falls back to the residual filter.
func rangeFromSpec(spec any) (Range, bool) {
	ops, isOpMap := asOperatorMap(spec)
	if !isOpMap {
		return Range{HasPoints: true, Points: []any{spec}}, true
	}
	r := Range{}
	matched := false
	for op, arg := range ops {
		switch op {
		case "$eq":
			r.HasPoints, r.Points = true, []any{arg}
			matched = true
		case "$in":
			if arr, ok := arg.([]any); ok {
				r.HasPoints, r.Points = true, arr
				matched = true
			}
		case "$gt":
			r.HasMin, r.Min, r.MinInclusive = true, arg, false
			matched = true
		case "$gte":
			r.HasMin, r.Min, r.MinInclusive = true, arg, true
			matched = true
		case "$lt":
			r.HasMax, r.Max, r.MaxInclusive = true, arg, false
			matched = true
		case "$lte":
			r.HasMax, r.Max, r.MaxInclusive = true, arg, true
			matched = true
		default:
			return Range{}, false
		}
	}
	return r, matched
}

// intersectRange combines two Range predicates over the same path under
// AND, per spec §4.4 step 3.
func intersectRange(a, b Range) Range {
	if a.Empty || b.Empty {
		return Range{Empty: true}
	}
	if a.HasPoints && b.HasPoints {
		pts := intersectPoints(a.Points, b.Points)
		if len(pts) == 0 {
			return Range{Empty: true}
		}
		return Range{HasPoints: true, Points: pts}
	}
	out := a
	if b.HasMin && (!out.HasMin || lessAny(out.Min, b.Min) || (compareAny(out.Min, b.Min) == 0 && !b.MinInclusive)) {
		out.HasMin, out.Min, out.MinInclusive = true, b.Min, b.MinInclusive
	}
	if b.HasMax && (!out.HasMax || lessAny(b.Max, out.Max) || (compareAny(out.Max, b.Max) == 0 && !b.MaxInclusive)) {
		out.HasMax, out.Max, out.MaxInclusive = true, b.Max, b.MaxInclusive
	}
	if out.HasMin && out.HasMax {
		if c, ok := compareValues(out.Min, out.Max); ok && (c > 0 || (c == 0 && !(out.MinInclusive && out.MaxInclusive))) {
			return Range{Empty: true}
		}
	}
	return out
}

func intersectPoints(a, b []any) []any {
	var out []any
	for _, x := range a {
		for _, y := range b {
			if valuesEqual(x, y) {
				out = append(out, x)
				break
			}
		}
	}
	return out
}

func lessAny(a, b any) bool {
	c, ok := compareValues(a, b)
	return ok && c < 0
}

func compareAny(a, b any) int {
	c, _ := compareValues(a, b)
	return c
}

// ColumnStats is the per-row-group statistics PredicatePushdown checks
// a Range against: the min/max spec §4.4 requires recorded on every
// leaf (and that shredded typed_value statistics anchor to).
type ColumnStats struct {
	Min       any
	Max       any
	NullCount int64
}

// SkipRowGroup reports whether a row group can be skipped entirely,
// per spec §4.4 step 4: true if any range predicate's interval has an
// empty intersection with the row group's recorded [min,max].
func (PredicatePushdown) SkipRowGroup(plan PushdownPlan, stats map[string]ColumnStats) bool {
	for path, r := range plan.Ranges {
		if r.Empty {
			return true
		}
		s, ok := stats[path]
		if !ok {
			continue // no stats recorded; cannot prove a skip, stay conservative
		}
		if r.HasPoints {
			anyInRange := false
			for _, p := range r.Points {
				if withinBounds(p, s.Min, s.Max) {
					anyInRange = true
					break
				}
			}
			if !anyInRange {
				return true
			}
			continue
		}
		if r.HasMin {
			if c, ok := compareValues(s.Max, r.Min); ok {
				if c < 0 || (c == 0 && !r.MinInclusive) {
					return true
				}
			}
		}
		if r.HasMax {
			if c, ok := compareValues(s.Min, r.Max); ok {
				if c > 0 || (c == 0 && !r.MaxInclusive) {
					return true
				}
			}
		}
	}
	return false
}

func withinBounds(v, min, max any) bool {
	if c, ok := compareValues(v, min); ok && c < 0 {
		return false
	}
	if c, ok := compareValues(v, max); ok && c > 0 {
		return false
	}
	return true
}
