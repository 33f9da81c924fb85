// Package memory implements store.Client against process memory. It backs
// tests and local development; semantics mirror the remote store, including
// atomic batch writes and the limited filter operators.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zzuhann/stellar/internal/store"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

func New() *Store {
	return &Store{collections: make(map[string]map[string]map[string]any)}
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return store.Document{ID: id, Data: cloneDoc(doc)}, nil
}

func (s *Store) Add(ctx context.Context, collection, id string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collections[collection]
	if coll == nil {
		coll = make(map[string]map[string]any)
		s.collections[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return store.ErrExists
	}
	coll[id] = cloneDoc(data)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyUpdate(collection, id, patch)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection][id]; !ok {
		return store.ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, filters []store.Filter, opts store.QueryOptions) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Document
	for id, data := range s.collections[collection] {
		if matchesAll(id, data, filters) {
			out = append(out, store.Document{ID: id, Data: cloneDoc(data)})
		}
	}

	if len(opts.OrderBy) > 0 {
		orderDocs(out, opts.OrderBy)
	} else {
		// Deterministic order for tests: map iteration is randomized.
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// BatchWrite validates every op before applying any, so the batch is atomic.
func (s *Store) BatchWrite(ctx context.Context, ops []store.WriteOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		switch op.Kind {
		case store.WriteSet:
			// Always applicable.
		case store.WriteUpdate, store.WriteDelete:
			if _, ok := s.collections[op.Collection][op.ID]; !ok {
				return fmt.Errorf("batch op %s/%s: %w", op.Collection, op.ID, store.ErrNotFound)
			}
		default:
			return fmt.Errorf("batch op %s/%s: unknown write kind %d", op.Collection, op.ID, op.Kind)
		}
	}

	for _, op := range ops {
		switch op.Kind {
		case store.WriteSet:
			coll := s.collections[op.Collection]
			if coll == nil {
				coll = make(map[string]map[string]any)
				s.collections[op.Collection] = coll
			}
			coll[op.ID] = cloneDoc(op.Data)
		case store.WriteUpdate:
			// Validated above; cannot fail.
			_ = s.applyUpdate(op.Collection, op.ID, op.Data)
		case store.WriteDelete:
			delete(s.collections[op.Collection], op.ID)
		}
	}
	return nil
}

// Len reports the number of documents in a collection.
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func (s *Store) applyUpdate(collection, id string, patch map[string]any) error {
	doc, ok := s.collections[collection][id]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range patch {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	return nil
}

func matchesAll(id string, data map[string]any, filters []store.Filter) bool {
	for _, f := range filters {
		if !matches(id, data, f) {
			return false
		}
	}
	return true
}

func matches(id string, data map[string]any, f store.Filter) bool {
	var actual any
	if f.Field == store.DocumentID {
		actual = id
	} else {
		actual = lookup(data, f.Field)
	}

	switch f.Op {
	case "==":
		return equal(actual, f.Value)
	case "in":
		values, ok := f.Value.([]string)
		if !ok {
			return false
		}
		s, ok := actual.(string)
		if !ok {
			return false
		}
		for _, v := range values {
			if v == s {
				return true
			}
		}
		return false
	case ">=":
		return compare(actual, f.Value) >= 0
	case "<=":
		return compare(actual, f.Value) <= 0
	}
	return false
}

// lookup resolves dotted paths into nested maps, e.g. "datetime.start".
func lookup(data map[string]any, field string) any {
	parts := strings.Split(field, ".")
	var cur any = data
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func equal(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
		return false
	}
	return a == b
}

func compare(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case int:
		if bv, ok := b.(int); ok {
			return av - bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}
	return 0
}

func orderDocs(docs []store.Document, orderBy []store.OrderBy) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, ob := range orderBy {
			c := compare(lookup(docs[i].Data, ob.Field), lookup(docs[j].Data, ob.Field))
			if c == 0 {
				continue
			}
			if ob.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func cloneDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneDoc(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = cloneDoc(item)
		}
		return out
	default:
		return v
	}
}

var _ store.Client = (*Store)(nil)
