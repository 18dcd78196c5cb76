package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-billy/v6/util"

	"github.com/parquedb/parquedb/core"
)

// FilesystemBackend stores objects under a go-billy filesystem, the same
// abstraction the teacher uses (via ps/persistence.go's NewFilePersistence/
// NewMemoryPersistence) as go-git's worktree layer. Here it backs a plain
// object store directly instead of a git worktree.
type FilesystemBackend struct {
	fs billy.Filesystem
	mu sync.Mutex
}

// NewFilesystemBackend roots a FilesystemBackend at baseDir on the local
// disk, mirroring NewFilePersistence's os.MkdirAll + osfs.New pairing.
func NewFilesystemBackend(baseDir string) (*FilesystemBackend, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, core.NewError(core.CodeIO, "NewFilesystemBackend", baseDir, err)
	}
	return &FilesystemBackend{fs: osfs.New(baseDir)}, nil
}

// NewInMemoryFilesystemBackend roots a FilesystemBackend at an in-process
// billy memfs, mirroring NewMemoryPersistence's memfs.New() use for tests
// that want the go-billy code paths exercised without real disk I/O.
func NewInMemoryFilesystemBackend() *FilesystemBackend {
	return &FilesystemBackend{fs: memfs.New()}
}

func etagOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func (b *FilesystemBackend) Read(_ context.Context, p string) ([]byte, error) {
	if err := ValidatePath("Read", p); err != nil {
		return nil, err
	}
	data, err := util.ReadFile(b.fs, p)
	if err != nil {
		return nil, core.NewError(core.CodeNotFound, "Read", p, err)
	}
	return data, nil
}

func (b *FilesystemBackend) ReadRange(_ context.Context, p string, start, end int64) ([]byte, error) {
	if err := ValidatePath("ReadRange", p); err != nil {
		return nil, err
	}
	if err := ValidateRange("ReadRange", p, start, end); err != nil {
		return nil, err
	}
	f, err := b.fs.Open(p)
	if err != nil {
		return nil, core.NewError(core.CodeNotFound, "ReadRange", p, err)
	}
	defer f.Close()

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, core.NewError(core.CodeIO, "ReadRange", p, err)
	}
	buf := make([]byte, end-start)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, core.NewError(core.CodeIO, "ReadRange", p, err)
	}
	return buf[:n], nil
}

func (b *FilesystemBackend) Write(_ context.Context, p string, data []byte) (string, error) {
	if err := ValidatePath("Write", p); err != nil {
		return "", err
	}
	if err := ValidateBuffer("Write", p, data); err != nil {
		return "", err
	}
	if err := b.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return "", core.NewError(core.CodeIO, "Write", p, err)
	}
	if err := util.WriteFile(b.fs, p, data, 0644); err != nil {
		return "", core.NewError(core.CodeIO, "Write", p, err)
	}
	return etagOf(data), nil
}

// WriteAtomic writes to a temp sibling path then renames over the target,
// so concurrent readers never observe a partial write.
func (b *FilesystemBackend) WriteAtomic(_ context.Context, p string, data []byte) (string, error) {
	if err := ValidatePath("WriteAtomic", p); err != nil {
		return "", err
	}
	if err := ValidateBuffer("WriteAtomic", p, data); err != nil {
		return "", err
	}
	if err := b.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return "", core.NewError(core.CodeIO, "WriteAtomic", p, err)
	}
	tmp := p + ".tmp-" + etagOf(data)
	if err := util.WriteFile(b.fs, tmp, data, 0644); err != nil {
		return "", core.NewError(core.CodeIO, "WriteAtomic", p, err)
	}
	if err := b.fs.Rename(tmp, p); err != nil {
		return "", core.NewError(core.CodeIO, "WriteAtomic", p, err)
	}
	return etagOf(data), nil
}

func (b *FilesystemBackend) WriteConditional(ctx context.Context, p string, data []byte, opts WriteOptions) (string, error) {
	if err := ValidatePath("WriteConditional", p); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, statErr := b.Stat(ctx, p)
	exists := statErr == nil
	actual := ""
	if exists {
		actual = existing.ETag
	}

	if opts.IfNoneMatch != nil {
		if *opts.IfNoneMatch == "*" {
			if exists {
				return "", core.ETagMismatchError("WriteConditional", p, "<absent>", actual)
			}
		} else if actual == *opts.IfNoneMatch {
			return "", core.ETagMismatchError("WriteConditional", p, "!="+*opts.IfNoneMatch, actual)
		}
	}
	if opts.IfMatch != nil {
		if *opts.IfMatch == "" {
			if exists {
				return "", core.ETagMismatchError("WriteConditional", p, "<absent>", actual)
			}
		} else if !exists || actual != *opts.IfMatch {
			return "", core.ETagMismatchError("WriteConditional", p, *opts.IfMatch, actual)
		}
	}

	return b.WriteAtomic(ctx, p, data)
}

func (b *FilesystemBackend) Exists(_ context.Context, p string) (bool, error) {
	_, err := b.fs.Stat(p)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (b *FilesystemBackend) Stat(_ context.Context, p string) (ObjectStat, error) {
	info, err := b.fs.Stat(p)
	if err != nil {
		return ObjectStat{}, core.NewError(core.CodeNotFound, "Stat", p, err)
	}
	data, rerr := util.ReadFile(b.fs, p)
	etag := ""
	if rerr == nil {
		etag = etagOf(data)
	}
	return ObjectStat{Size: info.Size(), ETag: etag, IsDirectory: info.IsDir()}, nil
}

func (b *FilesystemBackend) Delete(_ context.Context, p string) error {
	if err := b.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return core.NewError(core.CodeIO, "Delete", p, err)
	}
	return nil
}

func (b *FilesystemBackend) DeletePrefix(ctx context.Context, prefix string) error {
	matches, err := b.walk(prefix)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := b.Delete(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (b *FilesystemBackend) walk(prefix string) ([]string, error) {
	var out []string
	var rec func(dir string) error
	rec = func(dir string) error {
		entries, err := b.fs.ReadDir(dir)
		if err != nil {
			return nil
		}
		for _, e := range entries {
			full := path.Join(dir, e.Name())
			if e.IsDir() {
				if err := rec(full); err != nil {
					return err
				}
				continue
			}
			if strings.HasPrefix(full, prefix) {
				out = append(out, full)
			}
		}
		return nil
	}
	if err := rec("."); err != nil {
		return nil, core.NewError(core.CodeIO, "List", prefix, err)
	}
	sort.Strings(out)
	return out, nil
}

func (b *FilesystemBackend) List(_ context.Context, prefix string, opts ListOptions) (ListResult, error) {
	matches, err := b.walk(prefix)
	if err != nil {
		return ListResult{}, err
	}

	start := 0
	if opts.Cursor != nil {
		for i, p := range matches {
			if p > *opts.Cursor {
				start = i
				break
			}
			start = i + 1
		}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = len(matches)
	}
	end := start + limit
	hasMore := end < len(matches)
	if end > len(matches) {
		end = len(matches)
	}
	page := matches[start:end]
	res := ListResult{Files: page, HasMore: hasMore}
	if hasMore && len(page) > 0 {
		cursor := page[len(page)-1]
		res.Cursor = &cursor
	}
	return res, nil
}

func (b *FilesystemBackend) Copy(ctx context.Context, src, dst string) error {
	data, err := b.Read(ctx, src)
	if err != nil {
		return err
	}
	_, err = b.Write(ctx, dst, data)
	return err
}

func (b *FilesystemBackend) Move(ctx context.Context, src, dst string) error {
	if err := b.fs.MkdirAll(path.Dir(dst), 0755); err != nil {
		return core.NewError(core.CodeIO, "Move", dst, err)
	}
	if err := b.fs.Rename(src, dst); err != nil {
		return core.NewError(core.CodeIO, "Move", src, err)
	}
	return nil
}

func (b *FilesystemBackend) Append(ctx context.Context, p string, data []byte) (string, error) {
	if err := ValidateBuffer("Append", p, data); err != nil {
		return "", err
	}
	existing, err := b.Read(ctx, p)
	if err != nil && core.CodeOf(err) != core.CodeNotFound {
		return "", err
	}
	return b.WriteAtomic(ctx, p, append(existing, data...))
}
