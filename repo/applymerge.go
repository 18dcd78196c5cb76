package repo

import (
	"context"
	"time"

	"github.com/parquedb/parquedb/core"
	"github.com/parquedb/parquedb/storeaddr"
)

// ApplyMerge finishes a merge once every conflict in the stored merge state
// is resolved: it creates the merge commit over the caller-supplied
// newState (two parents, target then source), advances the ref of the
// state's Target branch to it, and clears the merge state. This is
// the durable-state counterpart of ps/merge.go's CompleteMerge, generalized
// from "write files + git commit" to "compute state + content-addressed
// commit".
func ApplyMerge(ctx context.Context, commits *CommitStore, refs *RefStore, mergeStates *MergeStateStore, author core.Identity, message string, newState core.DatabaseState) (core.Commit, error) {
	state, err := mergeStates.Load(ctx)
	if err != nil {
		return core.Commit{}, err
	}
	if !state.AllResolved() {
		return core.Commit{}, core.ConflictsRemainingError("ApplyMerge", state.UnresolvedCount())
	}

	commit := storeaddr.NewCommit([]string{state.TargetCommit, state.SourceCommit}, message, author, time.Now().Unix(), newState)
	if err := commits.Save(ctx, commit); err != nil {
		return core.Commit{}, err
	}

	if err := refs.UpdateRef(ctx, state.Target, state.TargetCommit, commit.Hash); err != nil {
		return core.Commit{}, err
	}

	if err := mergeStates.Clear(ctx); err != nil {
		return core.Commit{}, err
	}

	return commit, nil
}

// AbortMerge discards the in-progress merge state without touching any ref,
// the counterpart of ps/merge.go's AbortMerge (there, a worktree hard
// reset; here, simply forgetting the pending record since no working tree
// exists to roll back).
func AbortMerge(ctx context.Context, mergeStates *MergeStateStore) error {
	if exists, err := mergeStates.HasInProgress(ctx); err != nil {
		return err
	} else if !exists {
		return core.NewErrorf(core.CodeNotFound, "AbortMerge", "", "no merge in progress")
	}
	return mergeStates.Clear(ctx)
}
