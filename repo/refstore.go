package repo

import (
	"context"
	"encoding/json"

	"github.com/parquedb/parquedb/core"
	"github.com/parquedb/parquedb/storage"
)

// RefStore manages mutable refs (branch pointers and HEAD) through a
// storage.Backend, laying them out as refs/heads/<name> and HEAD per spec
// §6, generalizing the teacher's go-git plumbing.Reference writes
// (ps/branch.go's Branch/DeleteBranch/RenameBranch) into plain CAS writes
// on a backend-addressed path.
type RefStore struct {
	backend storage.Backend
}

// NewRefStore wraps backend as a RefStore.
func NewRefStore(backend storage.Backend) *RefStore {
	return &RefStore{backend: backend}
}

func refPath(name string) string {
	return "refs/heads/" + name
}

const headPath = "HEAD"

// ResolveRef returns the commit hash name currently points to.
func (s *RefStore) ResolveRef(ctx context.Context, name string) (string, error) {
	data, err := s.backend.Read(ctx, refPath(name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RefExists reports whether name currently has a value.
func (s *RefStore) RefExists(ctx context.Context, name string) (bool, error) {
	return s.backend.Exists(ctx, refPath(name))
}

// CreateRef creates name pointing at hash. Fails with CodeETagMismatch (via
// WriteConditional's create-only semantics) if name already exists.
func (s *RefStore) CreateRef(ctx context.Context, name, hash string) error {
	if err := core.ValidateRefName(name); err != nil {
		return err
	}
	star := "*"
	_, err := s.backend.WriteConditional(ctx, refPath(name), []byte(hash), storage.WriteOptions{IfNoneMatch: &star})
	return err
}

// UpdateRef performs a compare-and-swap update of name: it must currently
// point at expectedOld (use "" to require the ref be absent), and is moved
// to point at newHash.
func (s *RefStore) UpdateRef(ctx context.Context, name, expectedOld, newHash string) error {
	if err := core.ValidateRefName(name); err != nil {
		return err
	}
	opts := storage.WriteOptions{IfMatch: &expectedOld}
	if expectedOld != "" {
		st, err := s.backend.Stat(ctx, refPath(name))
		if err != nil {
			return err
		}
		current, err := s.ResolveRef(ctx, name)
		if err != nil {
			return err
		}
		if current != expectedOld {
			return core.ETagMismatchError("RefStore.UpdateRef", name, expectedOld, current)
		}
		opts.IfMatch = &st.ETag
	}
	_, err := s.backend.WriteConditional(ctx, refPath(name), []byte(newHash), opts)
	return err
}

// DeleteRef removes name.
func (s *RefStore) DeleteRef(ctx context.Context, name string) error {
	return s.backend.Delete(ctx, refPath(name))
}

// ListRefs returns every branch name currently stored.
func (s *RefStore) ListRefs(ctx context.Context) ([]string, error) {
	res, err := s.backend.List(ctx, "refs/heads/", storage.ListOptions{})
	if err != nil {
		return nil, err
	}
	names := make([]string, len(res.Files))
	for i, f := range res.Files {
		names[i] = f[len("refs/heads/"):]
	}
	return names, nil
}

// GetHead returns the current HEAD pointer.
func (s *RefStore) GetHead(ctx context.Context) (core.Head, error) {
	data, err := s.backend.Read(ctx, headPath)
	if err != nil {
		return core.Head{}, err
	}
	var h core.Head
	if err := json.Unmarshal(data, &h); err != nil {
		return core.Head{}, core.NewError(core.CodeCorruption, "RefStore.GetHead", headPath, err)
	}
	return h, nil
}

// SetHead attaches HEAD to a branch name.
func (s *RefStore) SetHead(ctx context.Context, branch string) error {
	return s.writeHead(ctx, core.AttachedHead(branch))
}

// DetachHead points HEAD directly at a commit hash, bypassing any branch.
func (s *RefStore) DetachHead(ctx context.Context, commitHash string) error {
	return s.writeHead(ctx, core.DetachedHead(commitHash))
}

func (s *RefStore) writeHead(ctx context.Context, h core.Head) error {
	data, err := json.Marshal(h)
	if err != nil {
		return core.NewError(core.CodeIO, "RefStore.writeHead", headPath, err)
	}
	_, err = s.backend.WriteAtomic(ctx, headPath, data)
	return err
}

// HeadCommit resolves HEAD all the way down to a commit hash: following the
// branch ref if HEAD is attached, or returning the hash directly if
// detached.
func (s *RefStore) HeadCommit(ctx context.Context) (string, error) {
	h, err := s.GetHead(ctx)
	if err != nil {
		return "", err
	}
	if h.Kind == core.HeadDetached {
		return h.Commit, nil
	}
	return s.ResolveRef(ctx, h.Name)
}
