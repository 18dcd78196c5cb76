package merge

import (
	"github.com/parquedb/parquedb/core"
)

// Stats summarizes how a Merge's targets were disposed of, per spec §4.3's
// output shape.
type Stats struct {
	FromOurs          int
	FromTheirs        int
	AutoMerged        int
	EntitiesProcessed int
}

// Result is what Merge produces: the events that can be applied without
// further input, split by how each came to be, and the conflicts that
// still need a resolution strategy. Per the §8 coverage invariant, every
// target appearing on either input side ends up in exactly one of
// MergedEvents, AutoMerged, Resolved, or Conflicts.
type Result struct {
	Success bool
	// MergedEvents are targets touched on only one side, or agreeing
	// CREATE/CREATE and DELETE/DELETE pairs — no decision was made.
	MergedEvents []core.Event
	// AutoMerged are synthesized updates from disjoint or commutative
	// concurrent field edits.
	AutoMerged []core.Event
	// Resolved are conflicts pre-applied by a non-manual opts.DefaultStrategy
	// rather than left for manual resolution.
	Resolved  []core.Event
	Conflicts []core.Conflict
	Stats     Stats
}

// change is one side's net effect on a single entity since the merge base.
type change struct {
	target  string
	netOp   core.Op
	set     map[string]any
	inc     map[string]float64
	before  core.Document
	after   core.Document
	lastTS  int64
	events  []core.Event
}

// collapse reduces a branch's event stream into one net change per entity,
// the same way a single branch's own history already linearizes multiple
// edits to a document: only the final classification (create/update/
// delete) and the union of $set/$inc fields matter for merging against the
// other branch.
func collapse(events []core.Event) map[string]*change {
	out := make(map[string]*change)
	for _, evt := range events {
		c, ok := out[evt.Target]
		if !ok {
			c = &change{target: evt.Target, before: evt.Before, set: map[string]any{}, inc: map[string]float64{}}
			out[evt.Target] = c
		}
		c.events = append(c.events, evt)
		c.lastTS = evt.TS
		c.after = evt.After

		switch evt.Op {
		case core.OpCreate:
			c.netOp = core.OpCreate
		case core.OpDelete:
			c.netOp = core.OpDelete
			c.set = map[string]any{}
			c.inc = map[string]float64{}
		case core.OpUpdate:
			if c.netOp != core.OpCreate {
				c.netOp = core.OpUpdate
			}
			if evt.Metadata != nil && evt.Metadata.Update != nil {
				for k, v := range evt.Metadata.Update.Set {
					c.set[k] = v
				}
				for k, v := range evt.Metadata.Update.Inc {
					c.inc[k] += v
				}
			} else {
				// No metadata.update recorded: infer the modified fields by
				// diffing before/after and treat them as a $set, per spec §9.
				for k, v := range diffFields(evt.Before, evt.After) {
					c.set[k] = v
				}
			}
		}
	}
	return out
}

// Merge classifies and auto-merges the events two branches recorded since
// their common ancestor, per spec §4.3.
func Merge(ours, theirs []core.Event, opts Options) (Result, error) {
	if opts.DefaultStrategy == core.StrategyManual {
		opts.DefaultStrategy = ""
	}
	ourChanges := collapse(ours)
	theirChanges := collapse(theirs)

	targets := make(map[string]bool, len(ourChanges)+len(theirChanges))
	for t := range ourChanges {
		targets[t] = true
	}
	for t := range theirChanges {
		targets[t] = true
	}

	var result Result
	result.Success = true

	for target := range targets {
		o, hasOurs := ourChanges[target]
		t, hasTheirs := theirChanges[target]
		result.Stats.EntitiesProcessed++

		switch {
		case hasOurs && !hasTheirs:
			result.MergedEvents = append(result.MergedEvents, o.events...)
			result.Stats.FromOurs++
		case hasTheirs && !hasOurs:
			result.MergedEvents = append(result.MergedEvents, t.events...)
			result.Stats.FromTheirs++
		default:
			events, bucket, conflict, err := mergeEntity(target, o, t, opts)
			if err != nil {
				return Result{}, err
			}
			if conflict != nil && opts.DefaultStrategy != "" {
				result.Resolved = append(result.Resolved, applyStrategy(o, t, opts.DefaultStrategy)...)
				continue
			}
			if conflict != nil {
				result.Conflicts = append(result.Conflicts, *conflict)
				result.Success = false
				continue
			}
			switch bucket {
			case bucketAutoMerged:
				result.AutoMerged = append(result.AutoMerged, events...)
				result.Stats.AutoMerged++
			case bucketResolved:
				result.Resolved = append(result.Resolved, events...)
			default:
				result.MergedEvents = append(result.MergedEvents, events...)
			}
		}
	}

	return result, nil
}

// entityBucket classifies which Result list a non-conflicting target's
// merged events belong in.
type entityBucket int

const (
	bucketMerged entityBucket = iota
	bucketAutoMerged
	bucketResolved
)

func collection(target string) string {
	coll, _, err := core.TargetParts(target)
	if err != nil {
		return ""
	}
	return coll
}

func entityID(target string) string {
	_, id, err := core.TargetParts(target)
	if err != nil {
		return ""
	}
	return id
}

// mergeEntity classifies a single entity touched on both sides, per spec
// §4.3 step 2 (classification) and step 3 (auto-merge rules).
func mergeEntity(target string, o, t *change, opts Options) ([]core.Event, entityBucket, *core.Conflict, error) {
	switch {
	case o.netOp == core.OpCreate && t.netOp == core.OpCreate:
		if documentsEqual(o.after, t.after) {
			return []core.Event{pickNewer(o, t).events[0]}, bucketMerged, nil, nil
		}
		return nil, bucketMerged, conflictFor(target, core.ConflictCreateCreate, nil, o, t), nil

	case o.netOp == core.OpDelete && t.netOp != core.OpDelete,
		t.netOp == core.OpDelete && o.netOp != core.OpDelete:
		if opts.DefaultStrategy != "" {
			return applyStrategy(o, t, opts.DefaultStrategy), bucketResolved, nil, nil
		}
		return nil, bucketMerged, conflictFor(target, core.ConflictDeleteUpdate, nil, o, t), nil

	default: // both OpUpdate (or both OpDelete, trivially compatible)
		if o.netOp == core.OpDelete && t.netOp == core.OpDelete {
			return t.events, bucketMerged, nil, nil
		}
		return mergeConcurrentUpdate(target, o, t, opts)
	}
}

// changedFields is the set of fields a change touched: $set keys union
// $inc keys (or the before/after diff, when collapse inferred them into
// set), per spec §4.3 step 2's update/update classification.
func changedFields(c *change) map[string]bool {
	out := make(map[string]bool, len(c.set)+len(c.inc))
	for f := range c.set {
		out[f] = true
	}
	for f := range c.inc {
		out[f] = true
	}
	return out
}

// fieldValue is the most meaningful value a change carries for field f: the
// explicit $set value when present, otherwise the end document's value
// (covers $inc-only fields and diff-inferred fields recorded without one).
func fieldValue(c *change, f string) any {
	if v, ok := c.set[f]; ok {
		return v
	}
	if c.after != nil {
		return c.after[f]
	}
	return nil
}

func mergeConcurrentUpdate(target string, o, t *change, opts Options) ([]core.Event, entityBucket, *core.Conflict, error) {
	overlap := fieldOverlap(changedFields(o), changedFields(t))

	if opts.AutoMergeCommutativeInc {
		for f := range overlap {
			_, oInc := o.inc[f]
			_, tInc := t.inc[f]
			if oInc && tInc {
				delete(overlap, f) // commutative on both sides, not a real collision
			}
		}
	}

	if len(overlap) == 0 && opts.AutoMergeDisjointFields {
		merged := core.Document{}
		for k, v := range o.after {
			merged[k] = v
		}
		for k, v := range t.set {
			merged[k] = v
		}
		for k, v := range t.inc {
			if base, ok := numeric(merged[k]); ok {
				merged[k] = base + v
			} else {
				merged[k] = v
			}
		}
		evt, err := core.NewEvent(core.OpUpdate, target, o.before, merged, &core.EventMetadata{
			Update: &core.UpdateOp{Set: unionSet(o.set, t.set), Inc: unionInc(o.inc, t.inc)},
		})
		if err != nil {
			return nil, bucketMerged, nil, err
		}
		return []core.Event{evt}, bucketAutoMerged, nil, nil
	}

	fields := make([]string, 0, len(overlap))
	for f := range overlap {
		fields = append(fields, f)
	}
	var ourVal, theirVal, baseVal any
	if len(fields) > 0 {
		ourVal = fieldValue(o, fields[0])
		theirVal = fieldValue(t, fields[0])
		if o.before != nil {
			baseVal = o.before[fields[0]]
		}
	}
	c := &core.Conflict{
		EntityID:   entityID(target),
		Collection: collection(target),
		Fields:     fields,
		Type:       core.ConflictConcurrentUpdate,
		OurValue:   ourVal,
		TheirValue: theirVal,
		BaseValue:  baseVal,
	}
	return nil, bucketMerged, c, nil
}

func conflictFor(target string, typ core.ConflictType, fields []string, o, t *change) *core.Conflict {
	return &core.Conflict{
		EntityID:   entityID(target),
		Collection: collection(target),
		Fields:     fields,
		Type:       typ,
		OurValue:   documentOrNil(o.after),
		TheirValue: documentOrNil(t.after),
		BaseValue:  documentOrNil(o.before),
	}
}

func documentOrNil(d core.Document) any {
	if d == nil {
		return nil
	}
	return d
}

// valueTS extracts a structured "ts" field from a document, when present,
// so "newest" resolution can compare that rather than the event's own ts.
func valueTS(d core.Document) (int64, bool) {
	if d == nil {
		return 0, false
	}
	raw, ok := d["ts"]
	if !ok {
		return 0, false
	}
	n, ok := numeric(raw)
	if !ok {
		return 0, false
	}
	return int64(n), true
}

// changeTS is the timestamp "newest" resolution compares for a side:
// value.ts when its after value carries one, the event's own ts otherwise
// (spec §9's newest-resolution timestamp source, preserving both cases).
func changeTS(c *change) int64 {
	if ts, ok := valueTS(c.after); ok {
		return ts
	}
	return c.lastTS
}

func pickNewer(o, t *change) *change {
	if changeTS(o) >= changeTS(t) {
		return o
	}
	return t
}

func applyStrategy(o, t *change, strategy core.Strategy) []core.Event {
	switch strategy {
	case core.StrategyOurs:
		return o.events
	case core.StrategyTheirs:
		return t.events
	case core.StrategyNewest:
		return pickNewer(o, t).events
	default:
		return t.events
	}
}

func fieldOverlap[V any](a, b map[string]V) map[string]bool {
	out := map[string]bool{}
	for k := range a {
		if _, ok := b[k]; ok {
			out[k] = true
		}
	}
	return out
}

func unionSet(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func unionInc(a, b map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(a)+len(b))
	for k, v := range a {
		out[k] += v
	}
	for k, v := range b {
		out[k] += v
	}
	return out
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// diffFields is the fallback modified-field inference for UPDATE events
// recorded without metadata.update: the symmetric difference between
// before and after, treated as a $set of after's values (spec §9). A field
// dropped between before and after is recorded as removed (nil).
func diffFields(before, after core.Document) map[string]any {
	out := map[string]any{}
	for k, v := range after {
		if bv, ok := before[k]; !ok || !valuesEqual(bv, v) {
			out[k] = v
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			out[k] = nil
		}
	}
	return out
}

func documentsEqual(a, b core.Document) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || !valuesEqual(v, bv) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	an, aok := numeric(a)
	bn, bok := numeric(b)
	if aok && bok {
		return an == bn
	}
	return a == b
}
