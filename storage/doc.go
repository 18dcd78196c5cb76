// Package storage implements ParqueDB's StorageBackend contract (component
// C2, spec §4.1): a small object-store interface — read, ranged read,
// write, conditional write, delete, list, copy, move, append — that every
// higher package (repo, columnar) addresses objects through, regardless of
// whether the bytes live in memory, in a SQLite blocks table, on a local
// filesystem, or in S3.
//
// This generalizes the teacher's scattered I/O sites: ps/persistence.go's
// NewMemoryPersistence/NewFilePersistence pair becomes MemoryBackend and
// FilesystemBackend, and db/remote.go's one-shot S3 reader/writer becomes
// the full-contract S3Backend.
package storage
