package storage

import (
	"context"
	"strings"
)

// PrefixScope wraps a Backend so every path is transparently rooted under
// a fixed prefix, per spec §4.1's "transparent prefix" requirement: callers
// address objects as if the backend were empty, while on the wire every
// path carries the prefix (letting several logical repositories share one
// physical backend).
type PrefixScope struct {
	inner  Backend
	prefix string
}

// NewPrefixScope roots b under prefix. An empty prefix makes PrefixScope a
// transparent pass-through.
func NewPrefixScope(b Backend, prefix string) *PrefixScope {
	prefix = strings.Trim(prefix, "/")
	return &PrefixScope{inner: b, prefix: prefix}
}

func (s *PrefixScope) scoped(p string) string {
	if s.prefix == "" {
		return p
	}
	return s.prefix + "/" + p
}

func (s *PrefixScope) unscoped(p string) string {
	if s.prefix == "" {
		return p
	}
	return strings.TrimPrefix(strings.TrimPrefix(p, s.prefix), "/")
}

func (s *PrefixScope) Read(ctx context.Context, path string) ([]byte, error) {
	return s.inner.Read(ctx, s.scoped(path))
}

func (s *PrefixScope) ReadRange(ctx context.Context, path string, start, end int64) ([]byte, error) {
	return s.inner.ReadRange(ctx, s.scoped(path), start, end)
}

func (s *PrefixScope) Write(ctx context.Context, path string, data []byte) (string, error) {
	return s.inner.Write(ctx, s.scoped(path), data)
}

func (s *PrefixScope) WriteAtomic(ctx context.Context, path string, data []byte) (string, error) {
	return s.inner.WriteAtomic(ctx, s.scoped(path), data)
}

func (s *PrefixScope) WriteConditional(ctx context.Context, path string, data []byte, opts WriteOptions) (string, error) {
	return s.inner.WriteConditional(ctx, s.scoped(path), data, opts)
}

func (s *PrefixScope) Exists(ctx context.Context, path string) (bool, error) {
	return s.inner.Exists(ctx, s.scoped(path))
}

func (s *PrefixScope) Stat(ctx context.Context, path string) (ObjectStat, error) {
	return s.inner.Stat(ctx, s.scoped(path))
}

func (s *PrefixScope) Delete(ctx context.Context, path string) error {
	return s.inner.Delete(ctx, s.scoped(path))
}

func (s *PrefixScope) DeletePrefix(ctx context.Context, prefix string) error {
	return s.inner.DeletePrefix(ctx, s.scoped(prefix))
}

func (s *PrefixScope) List(ctx context.Context, prefix string, opts ListOptions) (ListResult, error) {
	res, err := s.inner.List(ctx, s.scoped(prefix), opts)
	if err != nil {
		return ListResult{}, err
	}
	for i, f := range res.Files {
		res.Files[i] = s.unscoped(f)
	}
	if res.Cursor != nil {
		unscoped := s.unscoped(*res.Cursor)
		res.Cursor = &unscoped
	}
	return res, nil
}

func (s *PrefixScope) Copy(ctx context.Context, src, dst string) error {
	return s.inner.Copy(ctx, s.scoped(src), s.scoped(dst))
}

func (s *PrefixScope) Move(ctx context.Context, src, dst string) error {
	return s.inner.Move(ctx, s.scoped(src), s.scoped(dst))
}

func (s *PrefixScope) Append(ctx context.Context, path string, data []byte) (string, error) {
	return s.inner.Append(ctx, s.scoped(path), data)
}
