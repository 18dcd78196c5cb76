package columnar

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/parquedb/parquedb/core"
	"github.com/parquedb/parquedb/storage"
)

// SecondaryIndex is a value-to-id index on one field of one
// collection, adapted from the teacher's ps/index.go Index/IndexManager
// (same Entries map[value][]ids shape and Insert/Delete/Lookup/
// LookupRange behavior) and persisted through storage.Backend by
// IndexStore instead of as git-tree blobs.
type SecondaryIndex struct {
	Name       string              `json:"name"`
	Collection string              `json:"collection"`
	Field      string              `json:"field"`
	Unique     bool                `json:"unique"`
	Entries    map[string][]string `json:"entries"`
}

// Insert adds id under columnValue, rejecting duplicates on a unique
// index.
func (idx *SecondaryIndex) Insert(columnValue, id string) error {
	if idx.Unique {
		if existing := idx.Entries[columnValue]; len(existing) > 0 && existing[0] != id {
			return core.NewErrorf(core.CodeAlreadyExists, "SecondaryIndex.Insert", idx.Name, "duplicate value %q violates unique index", columnValue)
		}
	}
	for _, k := range idx.Entries[columnValue] {
		if k == id {
			return nil
		}
	}
	idx.Entries[columnValue] = append(idx.Entries[columnValue], id)
	return nil
}

// Delete removes id from columnValue's entry, pruning the entry
// entirely once empty.
func (idx *SecondaryIndex) Delete(columnValue, id string) {
	keys := idx.Entries[columnValue]
	for i, k := range keys {
		if k == id {
			idx.Entries[columnValue] = append(keys[:i], keys[i+1:]...)
			if len(idx.Entries[columnValue]) == 0 {
				delete(idx.Entries, columnValue)
			}
			return
		}
	}
}

// Lookup returns the ids indexed under columnValue.
func (idx *SecondaryIndex) Lookup(columnValue string) []string {
	return idx.Entries[columnValue]
}

// LookupRange returns ids for every indexed value in [min,max], with
// values compared as strings and visited in sorted order.
func (idx *SecondaryIndex) LookupRange(min, max string) []string {
	keys := make([]string, 0, len(idx.Entries))
	for k := range idx.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		if k >= min && k <= max {
			out = append(out, idx.Entries[k]...)
		}
	}
	return out
}

// IndexStore persists SecondaryIndex values through a storage.Backend.
type IndexStore struct {
	backend storage.Backend
}

func NewIndexStore(backend storage.Backend) *IndexStore {
	return &IndexStore{backend: backend}
}

func indexPath(collection, field string) string {
	return "indexes/" + collection + "/" + field + ".json"
}

// Create builds and persists a new, empty index.
func (s *IndexStore) Create(ctx context.Context, name, collection, field string, unique bool) (*SecondaryIndex, error) {
	idx := &SecondaryIndex{Name: name, Collection: collection, Field: field, Unique: unique, Entries: map[string][]string{}}
	if err := s.Save(ctx, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Save persists idx, overwriting any prior version.
func (s *IndexStore) Save(ctx context.Context, idx *SecondaryIndex) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return core.NewErrorf(core.CodeCorruption, "IndexStore.Save", idx.Name, "marshal: %v", err)
	}
	_, err = s.backend.WriteAtomic(ctx, indexPath(idx.Collection, idx.Field), data)
	return err
}

// Load reads back a previously saved index.
func (s *IndexStore) Load(ctx context.Context, collection, field string) (*SecondaryIndex, error) {
	data, err := s.backend.Read(ctx, indexPath(collection, field))
	if err != nil {
		return nil, err
	}
	var idx SecondaryIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, core.NewErrorf(core.CodeCorruption, "IndexStore.Load", collection+"."+field, "unmarshal: %v", err)
	}
	return &idx, nil
}

// Drop removes an index entirely.
func (s *IndexStore) Drop(ctx context.Context, collection, field string) error {
	return s.backend.Delete(ctx, indexPath(collection, field))
}

// Rebuild rebuilds an index from scratch over docs.
func (s *IndexStore) Rebuild(ctx context.Context, name, collection, field string, unique bool, docs []core.Document) (*SecondaryIndex, error) {
	idx := &SecondaryIndex{Name: name, Collection: collection, Field: field, Unique: unique, Entries: map[string][]string{}}
	for _, d := range docs {
		id, _ := d.ID()
		v, ok := d[field]
		if !ok || id == "" {
			continue
		}
		if err := idx.Insert(stringifyIndexValue(v), id); err != nil {
			return nil, err
		}
	}
	if err := s.Save(ctx, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

func stringifyIndexValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}
