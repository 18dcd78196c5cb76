// Package storeaddr implements ParqueDB's content addressing (component H):
// a deterministic digest over a canonically-serialized commit body, used
// both as the commit's identity and as the name objects are stored under.
//
// This replaces the teacher's reliance on go-git's own SHA-1 object
// hashing (ps/plumbing.go's createBlob/createCommitDirect): spec §3
// requires "identical bodies produce identical hashes" over our own
// DatabaseState shape, not git's tree/blob encoding, so the canonical
// serialization and the hash function are both owned here.
package storeaddr
