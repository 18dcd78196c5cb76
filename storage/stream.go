package storage

import (
	"bytes"
	"context"
	"io"
)

const streamChunkSize = 1 << 20 // 1 MiB

// streamDecorator adapts any Backend into a Streamer by driving ReadRange
// in chunks and buffering writes until Close, per spec §4.1.
type streamDecorator struct {
	Backend
}

// NewStreamDecorator wraps b so it satisfies Streamer even if it has no
// native streaming support.
func NewStreamDecorator(b Backend) Streamer {
	if s, ok := b.(Streamer); ok {
		return s
	}
	return &streamDecorator{Backend: b}
}

func (d *streamDecorator) CreateReadStream(ctx context.Context, path string, start int64) (io.ReadCloser, error) {
	return &chunkedReader{ctx: ctx, backend: d.Backend, path: path, offset: start}, nil
}

func (d *streamDecorator) CreateWriteStream(ctx context.Context, path string) (io.WriteCloser, error) {
	return &bufferedWriter{ctx: ctx, backend: d.Backend, path: path}, nil
}

type chunkedReader struct {
	ctx     context.Context
	backend Backend
	path    string
	offset  int64
	buf     []byte
	done    bool
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		if r.done {
			return 0, io.EOF
		}
		chunk, err := r.backend.ReadRange(r.ctx, r.path, r.offset, r.offset+streamChunkSize)
		if err != nil {
			return 0, err
		}
		if len(chunk) < streamChunkSize {
			r.done = true
		}
		r.offset += int64(len(chunk))
		r.buf = chunk
		if len(chunk) == 0 {
			return 0, io.EOF
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *chunkedReader) Close() error { return nil }

type bufferedWriter struct {
	ctx     context.Context
	backend Backend
	path    string
	buf     bytes.Buffer
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *bufferedWriter) Close() error {
	_, err := w.backend.WriteAtomic(w.ctx, w.path, w.buf.Bytes())
	return err
}
