package storeaddr

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/parquedb/parquedb/core"
)

// HashCommit computes the content address of a commit body: sha256 over
// the canonical serialization of parents, message, author, ts, and
// state, hex-encoded. Two commits with identical bodies hash identically
// (spec §3, §8's round-trip law); the hash becomes commits/<hash> and, in
// turn, the commit's identity throughout package repo.
func HashCommit(parents []string, message string, author core.Identity, ts int64, state core.DatabaseState) string {
	body := commitBody(parents, message, author, ts, state)
	raw, err := CanonicalJSON(body)
	if err != nil {
		// Commit bodies are built exclusively from strings/ints/maps of
		// those, so canonicalization cannot fail; a panic here means a
		// caller smuggled an unsupported type into a hashed field.
		panic(err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func commitBody(parents []string, message string, author core.Identity, ts int64, state core.DatabaseState) map[string]any {
	return map[string]any{
		"parents": parents,
		"message": message,
		"author": map[string]any{
			"name":  author.Name,
			"email": author.Email,
		},
		"ts":    ts,
		"state": stateBody(state),
	}
}

func stateBody(state core.DatabaseState) map[string]any {
	collections := make(map[string]any, len(state.Collections))
	for name, cs := range state.Collections {
		collections[name] = map[string]any{
			"dataHash":   cs.DataHash,
			"schemaHash": cs.SchemaHash,
			"rowCount":   int64(cs.RowCount),
		}
	}
	return map[string]any{
		"collections": collections,
		"relationships": map[string]any{
			"forwardHash": state.Relationships.ForwardHash,
			"reverseHash": state.Relationships.ReverseHash,
		},
		"eventLogPosition": map[string]any{
			"segmentId": state.EventLogPosition.SegmentID,
			"offset":    state.EventLogPosition.Offset,
		},
	}
}

// NewCommit builds and hashes a core.Commit in one step, the way the
// teacher's createCommitDirect (ps/plumbing.go) assembles a git commit
// object before storing it.
func NewCommit(parents []string, message string, author core.Identity, ts int64, state core.DatabaseState) core.Commit {
	c := core.Commit{
		Parents: append([]string(nil), parents...),
		Message: message,
		Author:  author,
		TS:      ts,
		State:   state,
	}
	c.Hash = HashCommit(c.Parents, c.Message, c.Author, c.TS, c.State)
	return c
}
