package core

import (
	"regexp"
	"strings"
)

// refnameSegment matches one "/"-separated segment of a branch name, per
// spec §3: [A-Za-z0-9_-]+.
var refnameSegment = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateRefName checks a branch name against spec §3's invariants:
// segments of [A-Za-z0-9_-]+ separated by "/", no "..", no whitespace, no
// leading/trailing "/", not empty.
func ValidateRefName(name string) error {
	if name == "" {
		return NewErrorf(CodeInvalidArgument, "ValidateRefName", name, "ref name must not be empty")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return NewErrorf(CodeInvalidArgument, "ValidateRefName", name, "ref name must not start or end with '/'")
	}
	if strings.Contains(name, "..") {
		return NewErrorf(CodeInvalidArgument, "ValidateRefName", name, "ref name must not contain '..'")
	}
	for _, r := range name {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return NewErrorf(CodeInvalidArgument, "ValidateRefName", name, "ref name must not contain whitespace")
		}
	}
	for _, seg := range strings.Split(name, "/") {
		if !refnameSegment.MatchString(seg) {
			return NewErrorf(CodeInvalidArgument, "ValidateRefName", name, "invalid ref segment %q", seg)
		}
	}
	return nil
}

// HeadKind distinguishes an attached HEAD (points at a branch) from a
// detached one (points directly at a commit).
type HeadKind string

const (
	HeadBranch   HeadKind = "branch"
	HeadDetached HeadKind = "detached"
)

// Head is the repository's HEAD pointer, per spec §3.
type Head struct {
	Kind   HeadKind `json:"kind"`
	Name   string   `json:"name,omitempty"`   // set when Kind == HeadBranch
	Commit string   `json:"commit,omitempty"` // set when Kind == HeadDetached
}

func AttachedHead(branch string) Head { return Head{Kind: HeadBranch, Name: branch} }
func DetachedHead(commit string) Head { return Head{Kind: HeadDetached, Commit: commit} }
