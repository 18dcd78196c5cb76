package parquedb

import (
	"context"
	"time"

	"github.com/parquedb/parquedb/core"
	"github.com/parquedb/parquedb/merge"
	"github.com/parquedb/parquedb/repo"
	"github.com/parquedb/parquedb/storage"
	"github.com/parquedb/parquedb/storeaddr"
)

// DefaultBranch is the branch Init creates and checks out, mirroring
// the teacher's implicit "main" worktree branch.
const DefaultBranch = "main"

// Repository is the top-level handle an application opens once per
// storage.Backend, generalizing the teacher's Instance (main.go), which
// wraps a ps.Persistence and hands out a db.Engine per identity.
// Repository instead hands out the repo/merge package types directly,
// since ParqueDB has no single SQL-shaped engine to construct.
type Repository struct {
	Backend    storage.Backend
	Commits    *repo.CommitStore
	Refs       *repo.RefStore
	Branches   *repo.BranchManager
	MergeState *repo.MergeStateStore
	Events     *repo.EventStore
}

// Open wraps backend as a Repository, the generalization of the
// teacher's CommitDB.Open(persistence).
func Open(backend storage.Backend) (*Repository, error) {
	commits := repo.NewCommitStore(backend)
	refs := repo.NewRefStore(backend)
	return &Repository{
		Backend:    backend,
		Commits:    commits,
		Refs:       refs,
		Branches:   repo.NewBranchManager(refs, commits),
		MergeState: repo.NewMergeStateStore(backend),
		Events:     repo.NewEventStore(backend),
	}, nil
}

// Init creates the repository's root commit and DefaultBranch, failing
// if HEAD is already set. Call this once per fresh backend before using
// the repository; Open itself performs no writes, matching the
// teacher's Open/Init split (ps.Persistence is constructed separately
// from any repository content it might already hold).
func (r *Repository) Init(ctx context.Context, author core.Identity) (core.Commit, error) {
	if _, err := r.Refs.GetHead(ctx); err == nil {
		return core.Commit{}, core.NewErrorf(core.CodeAlreadyExists, "Repository.Init", "", "repository is already initialized")
	}

	root := storeaddr.NewCommit(nil, "initial commit", author, time.Now().Unix(), core.DatabaseState{
		Collections: map[string]core.CollectionState{},
	})
	if err := r.Commits.Save(ctx, root); err != nil {
		return core.Commit{}, err
	}
	if err := r.Refs.CreateRef(ctx, DefaultBranch, root.Hash); err != nil {
		return core.Commit{}, err
	}
	if err := r.Refs.SetHead(ctx, DefaultBranch); err != nil {
		return core.Commit{}, err
	}
	return root, nil
}

// MergeOutcome is what Merge produces: either a clean result (possibly
// fast-forwarded, possibly auto-merged and committed) or one requiring
// manual conflict resolution via r.MergeState before a caller retries
// with Continue.
type MergeOutcome struct {
	// FastForwarded is true when source was simply a descendant of
	// target and target's ref was advanced with no merge commit.
	FastForwarded bool
	// Commit is the resulting commit: the fast-forwarded target's new
	// head, or the merge commit, whichever applies. Zero if conflicts
	// remain unresolved.
	Commit core.Commit
	// Conflicts lists anything the merge engine could not auto-resolve.
	// Non-empty means a repo.MergeState was recorded and the caller
	// must resolve it (via r.MergeState.ResolveConflictsByPattern) and
	// call Continue.
	Conflicts []core.Conflict
}

// Merge merges source into target, wiring BranchManager's fast-forward
// detection, package merge's classification engine, MergeStateStore,
// and ApplyMerge together the way the teacher's ps/merge.go single
// Merge method did in one function, split here across the packages that
// each concern belongs to (spec §4.3's end-to-end flow, §8 scenarios).
func (r *Repository) Merge(ctx context.Context, source, target string, author core.Identity, opts merge.Options) (MergeOutcome, error) {
	sourceHash, err := r.Refs.ResolveRef(ctx, source)
	if err != nil {
		return MergeOutcome{}, err
	}
	targetHash, err := r.Refs.ResolveRef(ctx, target)
	if err != nil {
		return MergeOutcome{}, err
	}

	if ff, err := r.Branches.IsFastForward(ctx, targetHash, sourceHash); err != nil {
		return MergeOutcome{}, err
	} else if ff {
		if err := r.Refs.UpdateRef(ctx, target, targetHash, sourceHash); err != nil {
			return MergeOutcome{}, err
		}
		commit, err := r.Commits.Load(ctx, sourceHash)
		if err != nil {
			return MergeOutcome{}, err
		}
		return MergeOutcome{FastForwarded: true, Commit: commit}, nil
	}

	base, err := r.Commits.LCA(ctx, sourceHash, targetHash)
	if err != nil {
		return MergeOutcome{}, err
	}
	baseCommit, err := r.Commits.Load(ctx, base)
	if err != nil {
		return MergeOutcome{}, err
	}

	ourEvents, err := r.Events.Since(ctx, target, baseCommit.State.EventLogPosition.Offset)
	if err != nil {
		return MergeOutcome{}, err
	}
	theirEvents, err := r.Events.Since(ctx, source, baseCommit.State.EventLogPosition.Offset)
	if err != nil {
		return MergeOutcome{}, err
	}

	result, err := merge.Merge(ourEvents, theirEvents, opts)
	if err != nil {
		return MergeOutcome{}, err
	}

	if len(result.Conflicts) > 0 {
		if _, err := r.MergeState.Begin(ctx, source, target, base, sourceHash, targetHash, opts.DefaultStrategy, result.Conflicts); err != nil {
			return MergeOutcome{}, err
		}
		return MergeOutcome{Conflicts: result.Conflicts}, nil
	}

	mergedEvents := make([]core.Event, 0, len(result.MergedEvents)+len(result.AutoMerged)+len(result.Resolved))
	mergedEvents = append(mergedEvents, result.MergedEvents...)
	mergedEvents = append(mergedEvents, result.AutoMerged...)
	mergedEvents = append(mergedEvents, result.Resolved...)
	return r.commitMerge(ctx, target, sourceHash, author, mergedEvents)
}

// Continue completes an in-progress merge after every conflict has been
// resolved via r.MergeState.ResolveConflictsByPattern, the counterpart
// of ps/merge.go's CompleteMerge once all manual resolutions are in.
func (r *Repository) Continue(ctx context.Context, author core.Identity) (MergeOutcome, error) {
	state, err := r.MergeState.Load(ctx)
	if err != nil {
		return MergeOutcome{}, err
	}
	if !state.AllResolved() {
		return MergeOutcome{}, core.ConflictsRemainingError("Repository.Continue", state.UnresolvedCount())
	}

	// Conflicts carry field-level values (one per conflicting field), not
	// whole documents, so each resolution becomes a $set update touching
	// only the fields that were in conflict.
	var events []core.Event
	for _, c := range state.Conflicts {
		if len(c.Fields) == 0 {
			continue
		}
		field := c.Fields[0]
		before := core.Document{field: c.BaseValue}
		after := core.Document{field: c.ResolvedValue}
		evt, err := core.NewEvent(core.OpUpdate, core.Target(c.Collection, c.EntityID), before, after,
			&core.EventMetadata{Update: &core.UpdateOp{Set: map[string]any{field: c.ResolvedValue}}})
		if err == nil {
			events = append(events, evt)
		}
	}

	return r.commitMerge(ctx, state.Target, state.SourceCommit, author, events)
}

// commitMerge appends mergedEvents to target's event log and records the
// resulting two-parent merge commit. When a repo.MergeState is pending
// (the merge had conflicts that needed manual resolution), it goes
// through repo.ApplyMerge so the state's preconditions and cleanup run;
// otherwise (every conflict auto-resolved, no MergeState was ever
// recorded) it commits directly with the same two parents ApplyMerge
// would have used.
func (r *Repository) commitMerge(ctx context.Context, target, sourceHash string, author core.Identity, mergedEvents []core.Event) (MergeOutcome, error) {
	targetHash, err := r.Refs.ResolveRef(ctx, target)
	if err != nil {
		return MergeOutcome{}, err
	}
	targetCommit, err := r.Commits.Load(ctx, targetHash)
	if err != nil {
		return MergeOutcome{}, err
	}

	offset, err := r.Events.Append(ctx, target, mergedEvents)
	if err != nil {
		return MergeOutcome{}, err
	}

	newState := targetCommit.State
	newState.EventLogPosition.Offset = offset

	hasState, err := r.MergeState.HasInProgress(ctx)
	if err != nil {
		return MergeOutcome{}, err
	}
	if hasState {
		commit, err := repo.ApplyMerge(ctx, r.Commits, r.Refs, r.MergeState, author, "merge into "+target, newState)
		if err != nil {
			return MergeOutcome{}, err
		}
		return MergeOutcome{Commit: commit}, nil
	}

	commit := storeaddr.NewCommit([]string{targetHash, sourceHash}, "merge into "+target, author, time.Now().Unix(), newState)
	if err := r.Commits.Save(ctx, commit); err != nil {
		return MergeOutcome{}, err
	}
	if err := r.Refs.UpdateRef(ctx, target, targetHash, commit.Hash); err != nil {
		return MergeOutcome{}, err
	}
	return MergeOutcome{Commit: commit}, nil
}
