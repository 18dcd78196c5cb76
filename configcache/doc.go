// Package configcache is a per-process, single-flight cache for values
// that are expensive to load but cheap to keep around for a while —
// collection TypeDefs, ShreddingPlans, branch HEAD lookups — the kind
// of thing the teacher's ps/index.go IndexManager keeps resident in an
// in-memory map guarded by a mutex rather than re-reading from storage
// on every call.
//
// Cache adds three things IndexManager didn't need: a TTL so entries
// don't go stale forever, golang.org/x/sync/singleflight so concurrent
// misses on the same key load once instead of N times, and a
// ClearForTest hook so tests don't leak state into each other.
package configcache
