package repo

import (
	"context"
	"encoding/json"

	"github.com/parquedb/parquedb/configcache"
	"github.com/parquedb/parquedb/core"
	"github.com/parquedb/parquedb/storage"
)

// CommitStore reads and writes commits through a storage.Backend, laying
// them out as commits/<hash> per spec §6's object layout. Commits are
// content-addressed and immutable once written, so loaded commits are
// cached indefinitely (no TTL) rather than re-read on every traversal
// step in Walk/LCA/IsAncestor.
type CommitStore struct {
	backend storage.Backend
	cache   *configcache.Cache
}

// NewCommitStore wraps backend as a CommitStore.
func NewCommitStore(backend storage.Backend) *CommitStore {
	return &CommitStore{backend: backend, cache: configcache.New(0)}
}

func commitPath(hash string) string {
	return "commits/" + hash
}

// Save writes c, keyed by its own hash. Writing is idempotent: saving the
// same commit twice produces the same bytes at the same path.
func (s *CommitStore) Save(ctx context.Context, c core.Commit) error {
	data, err := json.Marshal(c)
	if err != nil {
		return core.NewError(core.CodeIO, "CommitStore.Save", c.Hash, err)
	}
	_, err = s.backend.WriteAtomic(ctx, commitPath(c.Hash), data)
	return err
}

// Load reads the commit stored at hash, serving repeated lookups of the
// same hash from CommitStore's in-process cache.
func (s *CommitStore) Load(ctx context.Context, hash string) (core.Commit, error) {
	return configcache.Get(s.cache, ctx, hash, func(ctx context.Context) (core.Commit, error) {
		data, err := s.backend.Read(ctx, commitPath(hash))
		if err != nil {
			return core.Commit{}, err
		}
		var c core.Commit
		if err := json.Unmarshal(data, &c); err != nil {
			return core.Commit{}, core.NewError(core.CodeCorruption, "CommitStore.Load", hash, err)
		}
		return c, nil
	})
}

// Exists reports whether a commit with the given hash is stored.
func (s *CommitStore) Exists(ctx context.Context, hash string) (bool, error) {
	return s.backend.Exists(ctx, commitPath(hash))
}

// Walk visits hash and every ancestor reachable from it, depth-first, each
// commit visited exactly once, stopping early if visit returns false.
func (s *CommitStore) Walk(ctx context.Context, hash string, visit func(core.Commit) bool) error {
	seen := make(map[string]bool)
	stack := []string{hash}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[h] {
			continue
		}
		seen[h] = true

		c, err := s.Load(ctx, h)
		if err != nil {
			return err
		}
		if !visit(c) {
			return nil
		}
		stack = append(stack, c.Parents...)
	}
	return nil
}

// Ancestors returns the full set of hashes reachable from (and including)
// hash.
func (s *CommitStore) Ancestors(ctx context.Context, hash string) (map[string]bool, error) {
	set := make(map[string]bool)
	err := s.Walk(ctx, hash, func(c core.Commit) bool {
		set[c.Hash] = true
		return true
	})
	return set, err
}

// LCA finds the lowest common ancestor of a and b via two-color BFS: both
// frontiers expand one generation at a time, and the first hash reached by
// both colors is the LCA. Ties (a commit reached by both colors in the
// same generation) are broken by earliest commit timestamp, then by
// lexicographically smaller hash, giving a deterministic result.
func (s *CommitStore) LCA(ctx context.Context, a, b string) (string, error) {
	type visit struct {
		fromA, fromB bool
		ts           int64
	}
	visited := make(map[string]*visit)

	var frontierA, frontierB []string
	if a != "" {
		frontierA = []string{a}
	}
	if b != "" {
		frontierB = []string{b}
	}

	for len(frontierA) > 0 || len(frontierB) > 0 {
		var candidates []string

		nextA := make([]string, 0)
		for _, h := range frontierA {
			c, err := s.Load(ctx, h)
			if err != nil {
				return "", err
			}
			v, ok := visited[h]
			if !ok {
				v = &visit{ts: c.TS}
				visited[h] = v
			}
			wasB := v.fromB
			v.fromA = true
			if wasB {
				candidates = append(candidates, h)
			}
			nextA = append(nextA, c.Parents...)
		}
		frontierA = nextA

		nextB := make([]string, 0)
		for _, h := range frontierB {
			c, err := s.Load(ctx, h)
			if err != nil {
				return "", err
			}
			v, ok := visited[h]
			if !ok {
				v = &visit{ts: c.TS}
				visited[h] = v
			}
			wasA := v.fromA
			v.fromB = true
			if wasA {
				candidates = append(candidates, h)
			}
			nextB = append(nextB, c.Parents...)
		}
		frontierB = nextB

		if len(candidates) > 0 {
			best := candidates[0]
			for _, h := range candidates[1:] {
				bv, cv := visited[best], visited[h]
				if cv.ts < bv.ts || (cv.ts == bv.ts && h < best) {
					best = h
				}
			}
			return best, nil
		}
	}
	return "", core.NewErrorf(core.CodeNotFound, "CommitStore.LCA", a+".."+b, "no common ancestor")
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (s *CommitStore) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}
	found := false
	err := s.Walk(ctx, descendant, func(c core.Commit) bool {
		if c.Hash == ancestor {
			found = true
			return false
		}
		return true
	})
	return found, err
}
