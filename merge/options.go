package merge

import "github.com/parquedb/parquedb/core"

// Options configures Merge, generalizing ps/merge.go's MergeOptions from a
// single whole-repository strategy into the finer per-conflict defaults
// spec §4.3 allows.
type Options struct {
	// DefaultStrategy resolves any conflict Merge cannot auto-merge, when
	// non-empty. An empty value leaves such conflicts unresolved for
	// manual resolution (core.StrategyManual), matching
	// ps/merge.go's MergeStrategyManual.
	DefaultStrategy core.Strategy
	// AutoMergeDisjointFields enables field-disjoint concurrent updates to
	// merge without conflict, per spec §4.3 step 3.
	AutoMergeDisjointFields bool
	// AutoMergeCommutativeInc enables concurrent $inc updates to the same
	// field to sum rather than conflict, per spec §4.3 step 3.
	AutoMergeCommutativeInc bool
}

// DefaultOptions mirrors ps/merge.go's DefaultMergeOptions: auto-merge
// everything that can be auto-merged, fall back to manual resolution for
// the rest.
func DefaultOptions() Options {
	return Options{
		AutoMergeDisjointFields: true,
		AutoMergeCommutativeInc: true,
	}
}
