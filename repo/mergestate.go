package repo

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/parquedb/parquedb/core"
	"github.com/parquedb/parquedb/storage"
)

const mergeStatePath = "merge/state"

// MergeStateStore persists the single in-progress core.MergeState a
// repository may have at a time, generalizing ps/merge.go's in-memory
// Persistence.pendingMerge field (PendingMerge/GetPendingMerge/
// ResolveConflict/CompleteMerge/AbortMerge) into a durable record addressed
// through a storage.Backend, so a merge survives a process restart.
type MergeStateStore struct {
	backend storage.Backend
}

// NewMergeStateStore wraps backend as a MergeStateStore.
func NewMergeStateStore(backend storage.Backend) *MergeStateStore {
	return &MergeStateStore{backend: backend}
}

// HasInProgress reports whether a merge is currently recorded.
func (s *MergeStateStore) HasInProgress(ctx context.Context) (bool, error) {
	return s.backend.Exists(ctx, mergeStatePath)
}

// Begin starts a new merge record, failing with CodeMergeInProgress if one
// already exists.
func (s *MergeStateStore) Begin(ctx context.Context, source, target, base, sourceCommit, targetCommit string, strategy core.Strategy, conflicts []core.Conflict) (core.MergeState, error) {
	if exists, err := s.HasInProgress(ctx); err != nil {
		return core.MergeState{}, err
	} else if exists {
		return core.MergeState{}, core.NewErrorf(core.CodeMergeInProgress, "MergeStateStore.Begin", "", "a merge is already in progress")
	}

	status := core.MergeResolved
	if len(conflicts) > 0 {
		status = core.MergeConflicted
	}

	state := core.MergeState{
		ID:           uuid.NewString(),
		Source:       source,
		Target:       target,
		BaseCommit:   base,
		SourceCommit: sourceCommit,
		TargetCommit: targetCommit,
		Strategy:     strategy,
		Status:       status,
		Conflicts:    conflicts,
	}
	if err := s.save(ctx, state); err != nil {
		return core.MergeState{}, err
	}
	return state, nil
}

// Load returns the current merge state.
func (s *MergeStateStore) Load(ctx context.Context) (core.MergeState, error) {
	data, err := s.backend.Read(ctx, mergeStatePath)
	if err != nil {
		return core.MergeState{}, err
	}
	var state core.MergeState
	if err := json.Unmarshal(data, &state); err != nil {
		return core.MergeState{}, core.NewError(core.CodeCorruption, "MergeStateStore.Load", mergeStatePath, err)
	}
	return state, nil
}

func (s *MergeStateStore) save(ctx context.Context, state core.MergeState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return core.NewError(core.CodeIO, "MergeStateStore.save", mergeStatePath, err)
	}
	_, err = s.backend.WriteAtomic(ctx, mergeStatePath, data)
	return err
}

// ResolveConflictsByPattern resolves every unresolved conflict matching a
// collection/entityID pattern (exact "coll/id", collection-wide "coll/*",
// or "*" for every remaining conflict — the same bounded prefix/suffix
// matcher spec §9 calls for, not full regex), recording resolution and
// resolvedValue on each.
func (s *MergeStateStore) ResolveConflictsByPattern(ctx context.Context, pattern string, resolution core.Strategy, resolvedValue any) (int, error) {
	state, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range state.Conflicts {
		c := &state.Conflicts[i]
		if c.Resolved {
			continue
		}
		if !matchesConflictPattern(pattern, c.Collection, c.EntityID) {
			continue
		}
		c.Resolved = true
		c.Resolution = resolution
		c.ResolvedValue = pickResolvedValue(resolution, resolvedValue, *c)
		n++
	}
	if n == 0 {
		return 0, core.NewErrorf(core.CodeNotFound, "MergeStateStore.ResolveConflictsByPattern", pattern, "no matching unresolved conflict")
	}
	if state.AllResolved() {
		state.Status = core.MergeResolved
	}
	return n, s.save(ctx, state)
}

func pickResolvedValue(resolution core.Strategy, explicit any, c core.Conflict) any {
	if resolution == core.StrategyManual {
		return explicit
	}
	switch resolution {
	case core.StrategyOurs:
		return c.OurValue
	case core.StrategyTheirs:
		return c.TheirValue
	default:
		return explicit
	}
}

// matchesConflictPattern implements "coll/id" exact match, "coll/*"
// collection-wide match, and "*" match-everything.
func matchesConflictPattern(pattern, collection, entityID string) bool {
	if pattern == "*" {
		return true
	}
	coll, id, ok := strings.Cut(pattern, "/")
	if !ok {
		return pattern == collection
	}
	if coll != collection {
		return false
	}
	return id == "*" || id == entityID
}

// Clear removes the merge state, used both on successful completion and on
// abort.
func (s *MergeStateStore) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, mergeStatePath)
}

// Update persists state as-is, for callers that mutate the whole record
// directly.
func (s *MergeStateStore) Update(ctx context.Context, state core.MergeState) error {
	return s.save(ctx, state)
}
