package repo

import (
	"context"

	"github.com/parquedb/parquedb/core"
)

// CommitOp wraps a single loaded commit with a chainable API, generalizing
// op/database.go's DatabaseOp (a loaded core.Database plus the persistence
// handle needed to act on it) from SQL databases to commits.
type CommitOp struct {
	Commit  core.Commit
	commits *CommitStore
}

// LoadCommit loads hash and wraps it as a CommitOp.
func LoadCommit(ctx context.Context, commits *CommitStore, hash string) (*CommitOp, error) {
	c, err := commits.Load(ctx, hash)
	if err != nil {
		return nil, err
	}
	return &CommitOp{Commit: c, commits: commits}, nil
}

// Parents loads and wraps every parent of this commit.
func (op *CommitOp) Parents(ctx context.Context) ([]*CommitOp, error) {
	out := make([]*CommitOp, 0, len(op.Commit.Parents))
	for _, h := range op.Commit.Parents {
		p, err := LoadCommit(ctx, op.commits, h)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Ancestors returns the set of hashes reachable from this commit.
func (op *CommitOp) Ancestors(ctx context.Context) (map[string]bool, error) {
	return op.commits.Ancestors(ctx, op.Commit.Hash)
}

// IsAncestorOf reports whether this commit is an ancestor of other.
func (op *CommitOp) IsAncestorOf(ctx context.Context, other string) (bool, error) {
	return op.commits.IsAncestor(ctx, op.Commit.Hash, other)
}

// BranchOp wraps a branch name with a chainable API over RefStore and
// BranchManager, generalizing op/table.go's TableOp (a loaded table plus
// the persistence handle needed to read/write/scan it) from SQL tables to
// branches.
type BranchOp struct {
	Name     string
	refs     *RefStore
	branches *BranchManager
	commits  *CommitStore
}

// OpenBranch wraps an existing branch name for chainable use, failing if
// the branch does not exist.
func OpenBranch(ctx context.Context, refs *RefStore, branches *BranchManager, commits *CommitStore, name string) (*BranchOp, error) {
	if exists, err := refs.RefExists(ctx, name); err != nil {
		return nil, err
	} else if !exists {
		return nil, core.NewErrorf(core.CodeNotFound, "OpenBranch", name, "branch not found")
	}
	return &BranchOp{Name: name, refs: refs, branches: branches, commits: commits}, nil
}

// Head returns the commit this branch currently points at, wrapped for
// chaining.
func (op *BranchOp) Head(ctx context.Context) (*CommitOp, error) {
	hash, err := op.refs.ResolveRef(ctx, op.Name)
	if err != nil {
		return nil, err
	}
	return LoadCommit(ctx, op.commits, hash)
}

// Checkout attaches HEAD to this branch.
func (op *BranchOp) Checkout(ctx context.Context) error {
	return op.branches.Checkout(ctx, op.Name)
}

// Delete removes this branch.
func (op *BranchOp) Delete(ctx context.Context) error {
	return op.branches.Delete(ctx, op.Name)
}

// Rename renames this branch in place, updating op.Name on success.
func (op *BranchOp) Rename(ctx context.Context, newName string) error {
	if err := op.branches.Rename(ctx, op.Name, newName); err != nil {
		return err
	}
	op.Name = newName
	return nil
}

// FastForwardTo advances this branch's ref to target, if target is a
// descendant of the branch's current commit.
func (op *BranchOp) FastForwardTo(ctx context.Context, target string) error {
	return op.branches.FastForward(ctx, op.Name, target)
}

// IsFastForwardableTo reports whether target is reachable as a
// fast-forward from this branch's current commit.
func (op *BranchOp) IsFastForwardableTo(ctx context.Context, target string) (bool, error) {
	head, err := op.refs.ResolveRef(ctx, op.Name)
	if err != nil {
		return false, err
	}
	return op.branches.IsFastForward(ctx, head, target)
}
