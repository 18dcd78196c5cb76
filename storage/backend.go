package storage

import (
	"context"
	"io"
)

// WriteOptions controls conditional-write (compare-and-swap) semantics,
// mirroring HTTP's If-Match/If-None-Match headers per spec §4.1/§6.
type WriteOptions struct {
	// IfMatch requires the object's current ETag to equal *IfMatch.
	// An empty string means "the object must not currently exist".
	IfMatch *string
	// IfNoneMatch requires the object's current ETag to NOT equal
	// *IfNoneMatch. A value of "*" means "the object must not currently
	// exist" (the common create-only case).
	IfNoneMatch *string
}

// ObjectStat describes an object's metadata without its body.
type ObjectStat struct {
	Size        int64
	ETag        string
	IsDirectory bool
	ContentType *string
	Metadata    map[string]string
}

// ListOptions paginates List/DeletePrefix calls.
type ListOptions struct {
	Cursor *string
	Limit  int
}

// ListResult is one page of a List call.
type ListResult struct {
	Files   []string
	HasMore bool
	Cursor  *string
}

// Backend is the storage contract every ParqueDB component addresses
// objects through (spec §4.1). Paths are slash-separated keys, not
// necessarily backed by a real filesystem; implementations decide how to
// lay them out internally.
type Backend interface {
	// Read returns the full contents of path.
	Read(ctx context.Context, path string) ([]byte, error)
	// ReadRange returns the half-open byte range [start, end) of path.
	ReadRange(ctx context.Context, path string, start, end int64) ([]byte, error)
	// Write stores data at path unconditionally, returning the new ETag.
	Write(ctx context.Context, path string, data []byte) (etag string, err error)
	// WriteAtomic stores data at path such that partial writes are never
	// observable: readers see either the old content or the new content,
	// never a partial one.
	WriteAtomic(ctx context.Context, path string, data []byte) (etag string, err error)
	// WriteConditional stores data at path only if opts' preconditions
	// hold, returning *core.Error with CodeETagMismatch otherwise.
	WriteConditional(ctx context.Context, path string, data []byte, opts WriteOptions) (etag string, err error)
	// Exists reports whether path currently has an object.
	Exists(ctx context.Context, path string) (bool, error)
	// Stat returns path's metadata.
	Stat(ctx context.Context, path string) (ObjectStat, error)
	// Delete removes path. Deleting a path that does not exist is not
	// an error.
	Delete(ctx context.Context, path string) error
	// DeletePrefix removes every object whose path starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// List returns objects under prefix, one page at a time.
	List(ctx context.Context, prefix string, opts ListOptions) (ListResult, error)
	// Copy duplicates src to dst without removing src.
	Copy(ctx context.Context, src, dst string) error
	// Move relocates src to dst, removing src.
	Move(ctx context.Context, src, dst string) error
	// Append adds data to the end of path, creating it if absent.
	Append(ctx context.Context, path string, data []byte) (etag string, err error)
}

// Streamer is the optional capability a Backend may implement to stream
// large objects instead of buffering them whole, per spec §4.1.
type Streamer interface {
	CreateReadStream(ctx context.Context, path string, start int64) (io.ReadCloser, error)
	CreateWriteStream(ctx context.Context, path string) (io.WriteCloser, error)
}

// SupportsStreaming reports whether b implements Streamer.
func SupportsStreaming(b Backend) bool {
	_, ok := b.(Streamer)
	return ok
}
