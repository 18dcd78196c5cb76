package repo

import (
	"context"
	"encoding/json"

	"github.com/parquedb/parquedb/core"
	"github.com/parquedb/parquedb/storage"
)

// EventStore is the per-branch append log backing core.DatabaseState's
// EventLogPosition: every document-level Event recorded against a branch
// since it was created, addressed as events/<branch>.json. Read/append
// round-trips a JSON array rather than true append-only segment files —
// a conscious single-segment simplification (the EventLogPosition.Offset
// a commit records is simply len(events) at the time it was taken).
type EventStore struct {
	backend storage.Backend
}

// NewEventStore wraps backend as an EventStore.
func NewEventStore(backend storage.Backend) *EventStore {
	return &EventStore{backend: backend}
}

func eventLogPath(branch string) string {
	return "events/" + branch + ".json"
}

// Append adds events to branch's log, returning the new log length for
// use as a commit's EventLogPosition.Offset.
func (s *EventStore) Append(ctx context.Context, branch string, events []core.Event) (int64, error) {
	existing, err := s.Load(ctx, branch)
	if err != nil && !core.IsCode(err, core.CodeNotFound) {
		return 0, err
	}
	combined := append(existing, events...)
	data, err := json.Marshal(combined)
	if err != nil {
		return 0, core.NewError(core.CodeIO, "EventStore.Append", branch, err)
	}
	if _, err := s.backend.Write(ctx, eventLogPath(branch), data); err != nil {
		return 0, err
	}
	return int64(len(combined)), nil
}

// Load returns every event ever recorded for branch, in append order.
func (s *EventStore) Load(ctx context.Context, branch string) ([]core.Event, error) {
	data, err := s.backend.Read(ctx, eventLogPath(branch))
	if err != nil {
		return nil, err
	}
	var events []core.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, core.NewError(core.CodeCorruption, "EventStore.Load", branch, err)
	}
	return events, nil
}

// Since returns the events recorded for branch at or after position
// offset, the slice Repository.Merge needs when diffing a
// branch's history back to a common ancestor's EventLogPosition.
func (s *EventStore) Since(ctx context.Context, branch string, offset int64) ([]core.Event, error) {
	events, err := s.Load(ctx, branch)
	if err != nil {
		if core.IsCode(err, core.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if offset < 0 || offset > int64(len(events)) {
		return nil, core.NewErrorf(core.CodeInvalidArgument, "EventStore.Since", branch, "offset %d out of range [0,%d]", offset, len(events))
	}
	return events[offset:], nil
}
