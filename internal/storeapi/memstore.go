package storeapi

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/iliakonnov/shatterbird/internal/ids"
)

// MemStore is an in-memory Store used by the test suite so ingesters, the LSIF
// converter and the navigator can be exercised without a live MongoDB (spec
// §8's testable properties are defined over Store semantics, not over Mongo
// itself). It interprets the same bson.M query documents the Filter DSL and the
// Mongo-backed Store accept, by round-tripping each row through bson to get a
// generic map to match against — so a test written against MemStore exercises
// the same filter documents filter.Filter.Build() would hand to a real mongo.Collection.
type MemStore[T Entity[T]] struct {
	mu   sync.RWMutex
	rows map[string]T // keyed by hex id
}

func NewMemStore[T Entity[T]]() *MemStore[T] {
	return &MemStore[T]{rows: make(map[string]T)}
}

func (s *MemStore[T]) Get(ctx context.Context, id ids.Id[T]) (T, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id.String()]
	return row, ok, nil
}

func (s *MemStore[T]) GetByOID(ctx context.Context, oid ids.OID) (T, bool, error) {
	return s.FindOne(ctx, bson.M{"oid": oid})
}

func (s *MemStore[T]) FindOne(ctx context.Context, filter any) (T, bool, error) {
	rows, err := s.Find(ctx, filter)
	var zero T
	if err != nil || len(rows) == 0 {
		return zero, false, err
	}
	return rows[0], true, nil
}

func (s *MemStore[T]) Find(ctx context.Context, filter any) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.rows))
	for k := range s.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []T
	for _, k := range keys {
		row := s.rows[k]
		doc, err := toDoc(row)
		if err != nil {
			return nil, err
		}
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *MemStore[T]) FindAll(ctx context.Context, filter any) (Cursor[T], error) {
	rows, err := s.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &memCursor[T]{rows: rows, idx: -1}, nil
}

func (s *MemStore[T]) InsertOne(ctx context.Context, row T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := row.IdValue().String()
	if _, exists := s.rows[key]; exists {
		return &duplicateIDError{collection: row.CollectionName()}
	}
	s.rows[key] = row
	return nil
}

func (s *MemStore[T]) InsertMany(ctx context.Context, rows []T) error {
	for _, r := range rows {
		if err := s.InsertOne(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

type duplicateIDError struct{ collection string }

func (e *duplicateIDError) Error() string {
	return "storeapi: duplicate id in " + e.collection
}

type memCursor[T any] struct {
	rows []T
	idx  int
}

func (c *memCursor[T]) Next(ctx context.Context) bool {
	c.idx++
	return c.idx < len(c.rows)
}

func (c *memCursor[T]) Decode() (T, error) {
	return c.rows[c.idx], nil
}

func (c *memCursor[T]) Err() error { return nil }

func (c *memCursor[T]) Close(ctx context.Context) error { return nil }

func toDoc(v any) (bson.M, error) {
	b, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// matches evaluates a bson.M query document (equality, $in, $lt/$lte/$gt/$gte,
// $ne, $elemMatch, $or, dotted field paths, implicit top-level AND) against doc,
// the subset of the Store contract named in spec §6.
func matches(doc bson.M, filter any) (bool, error) {
	f, ok := filter.(bson.M)
	if !ok {
		fd, err := toDoc(filter)
		if err != nil {
			return false, err
		}
		f = fd
	}
	for field, cond := range f {
		if field == "$or" {
			clauses, _ := cond.([]bson.M)
			matchedAny := false
			for _, clause := range clauses {
				ok, err := matches(doc, clause)
				if err != nil {
					return false, err
				}
				if ok {
					matchedAny = true
					break
				}
			}
			if !matchedAny {
				return false, nil
			}
			continue
		}
		actual, present := lookupDotted(doc, field)
		if !matchField(actual, present, cond) {
			return false, nil
		}
	}
	return true, nil
}

func lookupDotted(doc bson.M, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, p := range parts {
		m, ok := cur.(bson.M)
		if !ok {
			return nil, false
		}
		v, ok := m[p]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func matchField(actual any, present bool, cond any) bool {
	switch c := cond.(type) {
	case bson.M:
		for op, val := range c {
			switch op {
			case "$in":
				if !present || !containsAny(val, actual) {
					return false
				}
			case "$ne":
				if present && equalValue(actual, val) {
					return false
				}
			case "$lt":
				if !present || compareValue(actual, val) >= 0 {
					return false
				}
			case "$lte":
				if !present || compareValue(actual, val) > 0 {
					return false
				}
			case "$gt":
				if !present || compareValue(actual, val) <= 0 {
					return false
				}
			case "$gte":
				if !present || compareValue(actual, val) < 0 {
					return false
				}
			case "$elemMatch":
				if !present || !elemMatch(actual, val) {
					return false
				}
			}
		}
		return true
	default:
		if !present {
			return false
		}
		// Mongo's bare equality against an array field matches if the field
		// itself equals cond, or if cond is an element of it ("contains"
		// semantics) — e.g. bson.M{"data.in_vs": id} against an Edge whose
		// InVs slice contains id.
		if equalValue(actual, cond) {
			return true
		}
		if items, ok := actual.(bson.A); ok {
			for _, item := range items {
				if equalValue(item, cond) {
					return true
				}
			}
		}
		return false
	}
}

func elemMatch(actual any, cond any) bool {
	items, ok := actual.(bson.A)
	if !ok {
		return false
	}
	for _, item := range items {
		if m, ok := cond.(bson.M); ok {
			for op, val := range m {
				if op == "$eq" {
					if equalValue(item, val) {
						return true
					}
				}
			}
			continue
		}
		if equalValue(item, cond) {
			return true
		}
	}
	return false
}

func containsAny(list any, v any) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if equalValue(v, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}
