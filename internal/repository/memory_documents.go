package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
)

type memRecord struct {
	data    []byte
	version int64
}

// memDocuments keeps encoded documents in memory for running without a database.
// Documents are stored as JSON so callers never share state with the store.
type memDocuments[T any, PT interface {
	*T
	document
}] struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]memRecord
}

func newMemDocuments[T any, PT interface {
	*T
	document
}]() *memDocuments[T, PT] {
	return &memDocuments[T, PT]{docs: map[string]memRecord{}}
}

func (s *memDocuments[T, PT]) create(_ context.Context, doc PT, _ time.Time) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := doc.DocumentID()
	if _, ok := s.docs[id]; ok {
		return ErrDuplicateID
	}
	s.docs[id] = memRecord{data: data, version: 1}
	s.order = append(s.order, id)
	doc.SetVersion(1)
	return nil
}

func (s *memDocuments[T, PT]) get(_ context.Context, id string) (PT, error) {
	s.mu.RLock()
	rec, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return decodeRecord[T, PT](rec)
}

func (s *memDocuments[T, PT]) list(_ context.Context, filters []fieldFilter) ([]PT, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PT, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		rec := s.docs[s.order[i]]
		ok, err := matchFilters(rec.data, filters)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		doc, err := decodeRecord[T, PT](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *memDocuments[T, PT]) save(_ context.Context, doc PT, _ time.Time) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := doc.DocumentID()
	rec, ok := s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.version != doc.CurrentVersion() {
		return ErrStaleVersion
	}
	s.docs[id] = memRecord{data: data, version: rec.version + 1}
	doc.SetVersion(rec.version + 1)
	return nil
}

func (s *memDocuments[T, PT]) delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.docs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *memDocuments[T, PT]) appendTo(_ context.Context, id string, path []string, item any, at time.Time) error {
	if len(path) == 0 {
		return fmt.Errorf("append path is empty")
	}
	encoded, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal %s item: %w", strings.Join(path, "."), err)
	}
	var value any
	if err := json.Unmarshal(encoded, &value); err != nil {
		return fmt.Errorf("failed to decode %s item: %w", strings.Join(path, "."), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	var root map[string]any
	if err := json.Unmarshal(rec.data, &root); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", id, err)
	}

	parent := root
	for _, key := range path[:len(path)-1] {
		child, ok := parent[key].(map[string]any)
		if !ok {
			child = map[string]any{}
			parent[key] = child
		}
		parent = child
	}
	leaf := path[len(path)-1]
	arr, _ := parent[leaf].([]any)
	parent[leaf] = append(arr, value)
	root["updatedAt"] = at.UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", id, err)
	}
	s.docs[id] = memRecord{data: data, version: rec.version + 1}
	return nil
}

func decodeRecord[T any, PT interface {
	*T
	document
}](rec memRecord) (PT, error) {
	doc := PT(new(T))
	if err := json.Unmarshal(rec.data, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	doc.SetVersion(rec.version)
	return doc, nil
}

// matchFilters compares top-level fields by their text form, the way
// postgres "doc->>'field'" does for strings and booleans.
func matchFilters(data []byte, filters []fieldFilter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false, fmt.Errorf("failed to decode document: %w", err)
	}
	for _, f := range filters {
		raw, ok := fields[f.field]
		if !ok {
			return false, nil
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return false, fmt.Errorf("failed to decode field %s: %w", f.field, err)
		}
		if fmt.Sprint(v) != f.value {
			return false, nil
		}
	}
	return true, nil
}
