package repo

import (
	"context"

	"github.com/parquedb/parquedb/core"
)

// BranchManager orchestrates branch lifecycle operations over a RefStore
// and CommitStore, generalizing ps/branch.go's Branch/Checkout/Merge/
// ListBranches/CurrentBranch/DeleteBranch/RenameBranch from go-git
// reference objects to our own ref/commit representation.
type BranchManager struct {
	refs    *RefStore
	commits *CommitStore
}

// NewBranchManager builds a BranchManager over refs and commits.
func NewBranchManager(refs *RefStore, commits *CommitStore) *BranchManager {
	return &BranchManager{refs: refs, commits: commits}
}

// Create makes a new branch name pointing at startHash. If startHash is
// empty, it points at the current HEAD commit instead.
func (b *BranchManager) Create(ctx context.Context, name, startHash string) error {
	if startHash == "" {
		head, err := b.refs.HeadCommit(ctx)
		if err != nil {
			return err
		}
		startHash = head
	}
	return b.refs.CreateRef(ctx, name, startHash)
}

// Checkout attaches HEAD to an existing branch.
func (b *BranchManager) Checkout(ctx context.Context, name string) error {
	if exists, err := b.refs.RefExists(ctx, name); err != nil {
		return err
	} else if !exists {
		return core.NewErrorf(core.CodeNotFound, "BranchManager.Checkout", name, "branch not found")
	}
	return b.refs.SetHead(ctx, name)
}

// List returns every branch name.
func (b *BranchManager) List(ctx context.Context) ([]string, error) {
	return b.refs.ListRefs(ctx)
}

// Current returns the branch name HEAD is attached to. It fails with
// CodeInvalidArgument if HEAD is detached.
func (b *BranchManager) Current(ctx context.Context) (string, error) {
	h, err := b.refs.GetHead(ctx)
	if err != nil {
		return "", err
	}
	if h.Kind == core.HeadDetached {
		return "", core.NewErrorf(core.CodeInvalidArgument, "BranchManager.Current", h.Commit, "HEAD is detached")
	}
	return h.Name, nil
}

// Delete removes a branch. Deleting the branch HEAD is currently attached
// to is rejected.
func (b *BranchManager) Delete(ctx context.Context, name string) error {
	current, err := b.Current(ctx)
	if err == nil && current == name {
		return core.NewErrorf(core.CodeInvalidArgument, "BranchManager.Delete", name, "cannot delete the currently checked out branch")
	}
	return b.refs.DeleteRef(ctx, name)
}

// Rename moves a branch's ref from oldName to newName, preserving HEAD's
// attachment if it pointed at oldName.
func (b *BranchManager) Rename(ctx context.Context, oldName, newName string) error {
	hash, err := b.refs.ResolveRef(ctx, oldName)
	if err != nil {
		return err
	}
	if err := b.refs.CreateRef(ctx, newName, hash); err != nil {
		return err
	}
	if err := b.refs.DeleteRef(ctx, oldName); err != nil {
		return err
	}
	current, err := b.Current(ctx)
	if err == nil && current == oldName {
		return b.refs.SetHead(ctx, newName)
	}
	return nil
}

// IsFastForward reports whether advancing base to target is a
// fast-forward: target must be a descendant of base.
func (b *BranchManager) IsFastForward(ctx context.Context, base, target string) (bool, error) {
	return b.commits.IsAncestor(ctx, base, target)
}

// FastForward advances branch name's ref to target, provided target is a
// fast-forward of the branch's current commit.
func (b *BranchManager) FastForward(ctx context.Context, name, target string) error {
	current, err := b.refs.ResolveRef(ctx, name)
	if err != nil {
		return err
	}
	ok, err := b.IsFastForward(ctx, current, target)
	if err != nil {
		return err
	}
	if !ok {
		return core.NewErrorf(core.CodeInvalidArgument, "BranchManager.FastForward", name, "target is not a descendant of the branch's current commit")
	}
	return b.refs.UpdateRef(ctx, name, current, target)
}
