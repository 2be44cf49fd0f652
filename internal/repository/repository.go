package repository

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateID means a document with the same id already exists.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrStaleVersion means the document changed since it was loaded.
	ErrStaleVersion = errors.New("stale version")
)

// document is implemented by every stored entity through domain.Revision.
type document interface {
	DocumentID() string
	CurrentVersion() int64
	SetVersion(v int64)
}

// fieldFilter matches a top-level JSON field by its text value.
type fieldFilter struct {
	field string
	value string
}

func appendFilter(filters []fieldFilter, field, value string) []fieldFilter {
	if value == "" {
		return filters
	}
	return append(filters, fieldFilter{field: field, value: value})
}

// documentStore is the storage contract shared by the postgres and memory backends.
// Documents are returned newest first. Sub-collection appends are atomic and
// preserve insertion order.
type documentStore[T any] interface {
	create(ctx context.Context, doc T, at time.Time) error
	get(ctx context.Context, id string) (T, error)
	list(ctx context.Context, filters []fieldFilter) ([]T, error)
	// save replaces the document if its stored version still equals the loaded one.
	save(ctx context.Context, doc T, at time.Time) error
	delete(ctx context.Context, id string) error
	appendTo(ctx context.Context, id string, path []string, item any, at time.Time) error
}
