// Package merge implements ParqueDB's three-way merge engine (component
// C1's classification half of §4.3): given the events two branches
// recorded since their common ancestor, it decides per-entity whether the
// changes combine automatically or need a human to pick a winner.
//
// This generalizes ps/merge.go's whole-record, last-write-wins merge
// (mergeRecordMaps/performRowLevelMerge) into spec §4.3's finer-grained
// classification: create/create, delete/update, and concurrent-update
// conflicts are distinguished, disjoint-field concurrent updates and
// commutative $inc edits auto-merge, and only genuine field collisions
// become core.Conflict records.
package merge
