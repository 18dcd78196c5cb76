package core

import (
	"fmt"

	"github.com/google/uuid"
)

// Op is the kind of change an Event records.
type Op string

const (
	OpCreate Op = "CREATE"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// UpdateOp is the closed set of field-level operations an UPDATE event
// may carry, per spec §3. The set is intentionally small: its members'
// commutativity properties are what the merge engine (package merge)
// relies on to auto-resolve disjoint and commutative concurrent edits.
type UpdateOp struct {
	Set map[string]any     `json:"$set,omitempty"`
	Inc map[string]float64 `json:"$inc,omitempty"`
}

// Fields returns the set of field names this UpdateOp touches.
func (u *UpdateOp) Fields() map[string]bool {
	fields := make(map[string]bool, len(u.Set)+len(u.Inc))
	for f := range u.Set {
		fields[f] = true
	}
	for f := range u.Inc {
		fields[f] = true
	}
	return fields
}

// EventMetadata carries the update descriptor alongside an UPDATE event.
type EventMetadata struct {
	Update *UpdateOp `json:"update,omitempty"`
}

// Event is one immutable, typed per-entity change record, per spec §3.
type Event struct {
	ID       string         `json:"id"`
	TS       int64          `json:"ts"`
	Op       Op             `json:"op"`
	Target   string         `json:"target"` // "<collection>:<id>"
	Before   Document       `json:"before,omitempty"`
	After    Document       `json:"after,omitempty"`
	Metadata *EventMetadata `json:"metadata,omitempty"`
}

// NewEvent constructs and validates an Event per the CREATE/UPDATE/DELETE
// shape invariants in spec §3: CREATE has after only, DELETE has before
// only, UPDATE has both.
func NewEvent(op Op, target string, before, after Document, metadata *EventMetadata) (Event, error) {
	evt := Event{
		ID:       uuid.NewString(),
		Op:       op,
		Target:   target,
		Before:   before,
		After:    after,
		Metadata: metadata,
	}
	if err := evt.Validate(); err != nil {
		return Event{}, err
	}
	return evt, nil
}

// Validate checks the shape invariants spec §3 places on Events.
func (e Event) Validate() error {
	switch e.Op {
	case OpCreate:
		if e.After == nil {
			return NewErrorf(CodeInvalidArgument, "Event.Validate", e.Target, "CREATE event missing after")
		}
		if e.Before != nil {
			return NewErrorf(CodeInvalidArgument, "Event.Validate", e.Target, "CREATE event must not carry before")
		}
	case OpUpdate:
		if e.Before == nil || e.After == nil {
			return NewErrorf(CodeInvalidArgument, "Event.Validate", e.Target, "UPDATE event requires both before and after")
		}
	case OpDelete:
		if e.Before == nil {
			return NewErrorf(CodeInvalidArgument, "Event.Validate", e.Target, "DELETE event missing before")
		}
		if e.After != nil {
			return NewErrorf(CodeInvalidArgument, "Event.Validate", e.Target, "DELETE event must not carry after")
		}
	default:
		return NewErrorf(CodeInvalidArgument, "Event.Validate", e.Target, "unknown op %q", e.Op)
	}
	return nil
}

// TargetParts splits a "<collection>:<id>" target into its parts.
func TargetParts(target string) (collection, id string, err error) {
	for i := 0; i < len(target); i++ {
		if target[i] == ':' {
			return target[:i], target[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("invalid event target %q: expected \"<collection>:<id>\"", target)
}

// Target builds a "<collection>:<id>" event target.
func Target(collection, id string) string {
	return collection + ":" + id
}
