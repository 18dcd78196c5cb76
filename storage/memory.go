package storage

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/parquedb/parquedb/core"
)

// MemoryBackend is an in-memory Backend, the hermetic-test counterpart of
// the teacher's NewMemoryPersistence (ps/persistence.go): a mutex-guarded
// map standing in for a real object store.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string]memObject
	seq     uint64
}

type memObject struct {
	data []byte
	etag string
}

// NewMemoryBackend returns an empty, ready-to-use MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string]memObject)}
}

func (m *MemoryBackend) nextETag() string {
	m.seq++
	return strconv.FormatUint(m.seq, 10)
}

func (m *MemoryBackend) Read(_ context.Context, path string) ([]byte, error) {
	if err := ValidatePath("Read", path); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	if !ok {
		return nil, core.NewErrorf(core.CodeNotFound, "Read", path, "object not found")
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

func (m *MemoryBackend) ReadRange(_ context.Context, path string, start, end int64) ([]byte, error) {
	if err := ValidatePath("ReadRange", path); err != nil {
		return nil, err
	}
	if err := ValidateRange("ReadRange", path, start, end); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	if !ok {
		return nil, core.NewErrorf(core.CodeNotFound, "ReadRange", path, "object not found")
	}
	n := int64(len(obj.data))
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	if start >= end {
		return []byte{}, nil
	}
	out := make([]byte, end-start)
	copy(out, obj.data[start:end])
	return out, nil
}

func (m *MemoryBackend) Write(_ context.Context, path string, data []byte) (string, error) {
	if err := ValidatePath("Write", path); err != nil {
		return "", err
	}
	if err := ValidateBuffer("Write", path, data); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(path, data), nil
}

func (m *MemoryBackend) writeLocked(path string, data []byte) string {
	etag := m.nextETag()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[path] = memObject{data: buf, etag: etag}
	return etag
}

func (m *MemoryBackend) WriteAtomic(ctx context.Context, path string, data []byte) (string, error) {
	return m.Write(ctx, path, data)
}

func (m *MemoryBackend) WriteConditional(_ context.Context, path string, data []byte, opts WriteOptions) (string, error) {
	if err := ValidatePath("WriteConditional", path); err != nil {
		return "", err
	}
	if err := ValidateBuffer("WriteConditional", path, data); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.objects[path]
	actual := ""
	if exists {
		actual = existing.etag
	}

	if opts.IfNoneMatch != nil {
		if *opts.IfNoneMatch == "*" {
			if exists {
				return "", core.ETagMismatchError("WriteConditional", path, "<absent>", actual)
			}
		} else if actual == *opts.IfNoneMatch {
			return "", core.ETagMismatchError("WriteConditional", path, "!="+*opts.IfNoneMatch, actual)
		}
	}
	if opts.IfMatch != nil {
		if *opts.IfMatch == "" {
			if exists {
				return "", core.ETagMismatchError("WriteConditional", path, "<absent>", actual)
			}
		} else if !exists || actual != *opts.IfMatch {
			return "", core.ETagMismatchError("WriteConditional", path, *opts.IfMatch, actual)
		}
	}

	return m.writeLocked(path, data), nil
}

func (m *MemoryBackend) Exists(_ context.Context, path string) (bool, error) {
	if err := ValidatePath("Exists", path); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[path]
	return ok, nil
}

func (m *MemoryBackend) Stat(_ context.Context, path string) (ObjectStat, error) {
	if err := ValidatePath("Stat", path); err != nil {
		return ObjectStat{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	if !ok {
		return ObjectStat{}, core.NewErrorf(core.CodeNotFound, "Stat", path, "object not found")
	}
	return ObjectStat{Size: int64(len(obj.data)), ETag: obj.etag}, nil
}

func (m *MemoryBackend) Delete(_ context.Context, path string) error {
	if err := ValidatePath("Delete", path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

func (m *MemoryBackend) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for path := range m.objects {
		if strings.HasPrefix(path, prefix) {
			delete(m.objects, path)
		}
	}
	return nil
}

func (m *MemoryBackend) List(_ context.Context, prefix string, opts ListOptions) (ListResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []string
	for path := range m.objects {
		if strings.HasPrefix(path, prefix) {
			matches = append(matches, path)
		}
	}
	sort.Strings(matches)

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
	result := ListResult{Files: page, HasMore: hasMore}
	if hasMore && len(page) > 0 {
		cursor := page[len(page)-1]
		result.Cursor = &cursor
	}
	return result, nil
}

func (m *MemoryBackend) Copy(_ context.Context, src, dst string) error {
	if err := ValidatePath("Copy", src); err != nil {
		return err
	}
	if err := ValidatePath("Copy", dst); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[src]
	if !ok {
		return core.NewErrorf(core.CodeNotFound, "Copy", src, "object not found")
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	m.objects[dst] = memObject{data: buf, etag: m.nextETag()}
	return nil
}

func (m *MemoryBackend) Move(ctx context.Context, src, dst string) error {
	if err := m.Copy(ctx, src, dst); err != nil {
		return err
	}
	return m.Delete(ctx, src)
}

func (m *MemoryBackend) Append(_ context.Context, path string, data []byte) (string, error) {
	if err := ValidateBuffer("Append", path, data); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[path]
	var buf []byte
	if ok {
		buf = append(append([]byte(nil), obj.data...), data...)
	} else {
		buf = append([]byte(nil), data...)
	}
	etag := m.nextETag()
	m.objects[path] = memObject{data: buf, etag: etag}
	return etag, nil
}
