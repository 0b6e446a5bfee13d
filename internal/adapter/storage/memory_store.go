// internal/adapter/storage/memory_store.go

package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"

	"agentesocial/internal/domain/store"
)

// MemoryStore implements store.Store in process memory, for local runs and tests
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[store.Collection][]store.Record
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[store.Collection][]store.Record),
	}
}

// Seed appends records to a collection
func (s *MemoryStore) Seed(collection store.Collection, records ...store.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		s.collections[collection] = append(s.collections[collection], copyRecord(r, nil))
	}
}

// Records returns a copy of every record in a collection, in insertion order
func (s *MemoryStore) Records(collection store.Collection) []store.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Record, 0, len(s.collections[collection]))
	for _, r := range s.collections[collection] {
		out = append(out, copyRecord(r, nil))
	}
	return out
}

// Query applies filters, ordering, limit and projection the way RecordStore does
func (s *MemoryStore) Query(ctx context.Context, q store.Query) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !knownCollections[q.Collection] {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownCollection, q.Collection)
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var matched []store.Record
	for _, r := range s.collections[q.Collection] {
		if matches(r, q.Filters) {
			matched = append(matched, r)
		}
	}
	s.mu.RUnlock()

	if q.OrderBy != nil {
		field, desc := q.OrderBy.Field, q.OrderBy.Desc
		sort.SliceStable(matched, func(i, j int) bool {
			c, ok := compareValues(matched[i][field], matched[j][field])
			if !ok {
				return false
			}
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]store.Record, 0, len(matched))
	for _, r := range matched {
		out = append(out, copyRecord(r, q.Columns))
	}
	return out, nil
}

// Insert appends a copy of record to a collection
func (s *MemoryStore) Insert(ctx context.Context, collection store.Collection, record store.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !knownCollections[collection] {
		return fmt.Errorf("%w: %s", store.ErrUnknownCollection, collection)
	}
	for name := range record {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("%w: %q", store.ErrInvalidField, name)
		}
	}

	s.Seed(collection, record)
	return nil
}

func validateQuery(q store.Query) error {
	names := append([]string{}, q.Columns...)
	for _, f := range q.Filters {
		names = append(names, f.Field)
		if f.Op != store.OpEq && f.Op != store.OpGte {
			return fmt.Errorf("unsupported filter operator: %s", f.Op)
		}
	}
	if q.OrderBy != nil {
		names = append(names, q.OrderBy.Field)
	}
	for _, name := range names {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("%w: %q", store.ErrInvalidField, name)
		}
	}
	return nil
}

func matches(r store.Record, filters []store.Filter) bool {
	for _, f := range filters {
		v, ok := r[f.Field]
		if !ok || v == nil {
			return false
		}
		c, ok := compareValues(v, f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case store.OpEq:
			if c != 0 {
				return false
			}
		case store.OpGte:
			if c < 0 {
				return false
			}
		}
	}
	return true
}

// compareValues orders times, numbers and strings. ok is false when a side is nil
// or cannot be read as a time.
func compareValues(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}

	ta, aIsTime := a.(time.Time)
	tb, bIsTime := b.(time.Time)
	switch {
	case aIsTime && bIsTime:
		return ta.Compare(tb), true
	case aIsTime:
		parsed, err := cast.ToTimeE(b)
		if err != nil {
			return 0, false
		}
		return ta.Compare(parsed), true
	case bIsTime:
		parsed, err := cast.ToTimeE(a)
		if err != nil {
			return 0, false
		}
		return parsed.Compare(tb), true
	}

	_, aIsString := a.(string)
	_, bIsString := b.(string)
	if !aIsString || !bIsString {
		fa, errA := cast.ToFloat64E(a)
		fb, errB := cast.ToFloat64E(b)
		if errA == nil && errB == nil {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			default:
				return 0, true
			}
		}
	}

	return strings.Compare(cast.ToString(a), cast.ToString(b)), true
}

func copyRecord(r store.Record, columns []string) store.Record {
	if len(columns) == 0 {
		out := make(store.Record, len(r))
		for k, v := range r {
			out[k] = v
		}
		return out
	}

	out := make(store.Record, len(columns))
	for _, col := range columns {
		if v, ok := r[col]; ok {
			out[col] = v
		}
	}
	return out
}
