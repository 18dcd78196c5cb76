// Package parquedb ties the repo, merge, columnar, and storage packages
// together into the single entry point an application opens: Open wraps
// a storage.Backend the way the teacher's CommitDB.Open wraps a
// ps.Persistence, and Repository.Merge wires BranchManager's
// fast-forward detection, the merge engine, MergeStateStore, and
// ApplyMerge into one call, matching the end-to-end merge scenarios of
// spec §8.
package parquedb
