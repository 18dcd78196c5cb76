// Package repo implements ParqueDB's commit graph and ref/branch
// management (components C1 and the RefStore/BranchManager/MergeState
// pieces of §4.2): content-addressed commits stored through a
// storage.Backend, mutable refs updated by compare-and-swap, branches as
// named refs, and the durable "merge in progress" record.
//
// This generalizes the teacher's go-git-backed ps/branch.go and
// ps/persistence.go: Branch/Checkout/Merge/ListBranches/CurrentBranch/
// DeleteBranch/RenameBranch keep their shape, but operate over our own
// commit objects and ref files instead of git's reference/object store.
package repo
