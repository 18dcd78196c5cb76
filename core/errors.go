package core

import (
	"errors"
	"fmt"
)

// Code is a programmatically comparable error kind, per the taxonomy in
// spec §7. Every component-level error is wrapped in an *Error carrying
// one of these.
type Code int

const (
	CodeUnknown Code = iota
	CodeNotFound
	CodeAlreadyExists
	CodeETagMismatch
	CodeInvalidPath
	CodeInvalidRange
	CodeInvalidArgument
	CodeIO
	CodeCorruption
	CodeMergeInProgress
	CodeConflictsRemaining
	CodePermissionDenied
)

func (c Code) String() string {
	switch c {
	case CodeNotFound:
		return "NotFound"
	case CodeAlreadyExists:
		return "AlreadyExists"
	case CodeETagMismatch:
		return "ETagMismatch"
	case CodeInvalidPath:
		return "InvalidPath"
	case CodeInvalidRange:
		return "InvalidRange"
	case CodeInvalidArgument:
		return "InvalidArgument"
	case CodeIO:
		return "IO"
	case CodeCorruption:
		return "Corruption"
	case CodeMergeInProgress:
		return "MergeInProgress"
	case CodeConflictsRemaining:
		return "ConflictsRemaining"
	case CodePermissionDenied:
		return "PermissionDenied"
	default:
		return "Unknown"
	}
}

// Error is the structured error every component reports through. Op and
// Path enrich the error without translating the underlying Code, per the
// propagation policy in spec §7.
type Error struct {
	Code  Code
	Op    string
	Path  string
	Cause error

	// Fields carries kind-specific payload: {expected,actual} for
	// ETagMismatch, {count} for ConflictsRemaining, and so on.
	Fields map[string]any
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, target) report true when target is an *Error
// carrying the same Code, whatever its Op, Path or Cause.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

func NewError(code Code, op, path string, cause error) *Error {
	return &Error{Code: code, Op: op, Path: path, Cause: cause}
}

func NewErrorf(code Code, op, path string, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Path: path, Cause: fmt.Errorf(format, args...)}
}

// CodeOf extracts the Code from err, returning CodeUnknown if err does not
// carry one.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode reports whether err (or a wrapped error in its chain) carries code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// ETagMismatchError builds the ETagMismatch error §7 requires to carry
// {expected, actual}.
func ETagMismatchError(op, path, expected, actual string) *Error {
	return &Error{
		Code: CodeETagMismatch,
		Op:   op,
		Path: path,
		Fields: map[string]any{
			"expected": expected,
			"actual":   actual,
		},
	}
}

// ConflictsRemainingError builds the ConflictsRemaining error §7 requires
// to carry {count}.
func ConflictsRemainingError(op string, count int) *Error {
	return &Error{
		Code: CodeConflictsRemaining,
		Op:   op,
		Fields: map[string]any{
			"count": count,
		},
	}
}
