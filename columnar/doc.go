// Package columnar implements component C3 of the storage layer: schema
// generation from a collection's type definition, the shredding planner
// that decides which fields get a typed Parquet column alongside the
// VARIANT payload, the Parquet codec that writes and reads collection
// snapshots, predicate pushdown against shredded column statistics, and
// the residual filter evaluator.
//
// It is grounded on github.com/parquet-go/parquet-go, the same library
// wired in the reference integrations package
// (other_examples/loicalleyne-arrowarc's iceberg.go) for dynamic schema
// construction out of a Group of Nodes and for reading back per-column
// statistics through a file's ColumnIndex.
package columnar
