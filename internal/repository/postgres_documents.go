package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// pgDocuments stores one entity kind as JSONB rows:
// (id TEXT PRIMARY KEY, doc JSONB, version BIGINT, created_at, updated_at).
type pgDocuments[T any, PT interface {
	*T
	document
}] struct {
	db    *sql.DB
	table string
}

func newPGDocuments[T any, PT interface {
	*T
	document
}](db *sql.DB, table string) *pgDocuments[T, PT] {
	return &pgDocuments[T, PT]{db: db, table: table}
}

func (s *pgDocuments[T, PT]) create(ctx context.Context, doc PT, at time.Time) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", s.table, err)
	}

	query := `INSERT INTO ` + s.table + ` (id, doc, version, created_at, updated_at) VALUES ($1, $2, 1, $3, $3)`
	if _, err := s.db.ExecContext(ctx, query, doc.DocumentID(), data, at); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to insert into %s: %w", s.table, err)
	}
	doc.SetVersion(1)
	return nil
}

func (s *pgDocuments[T, PT]) get(ctx context.Context, id string) (PT, error) {
	query := `SELECT doc, version FROM ` + s.table + ` WHERE id = $1`
	var (
		data    []byte
		version int64
	)
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&data, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s %s: %w", s.table, id, err)
	}
	return s.decode(data, version)
}

func (s *pgDocuments[T, PT]) list(ctx context.Context, filters []fieldFilter) ([]PT, error) {
	where, args := buildWhereClause(filters)
	query := `SELECT doc, version FROM ` + s.table + where + ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.table, err)
	}
	defer rows.Close()

	out := make([]PT, 0)
	for rows.Next() {
		var (
			data    []byte
			version int64
		)
		if err := rows.Scan(&data, &version); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", s.table, err)
		}
		doc, err := s.decode(data, version)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", s.table, err)
	}
	return out, nil
}

func (s *pgDocuments[T, PT]) save(ctx context.Context, doc PT, at time.Time) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", s.table, err)
	}

	query := `UPDATE ` + s.table + ` SET doc = $2, version = version + 1, updated_at = $3 WHERE id = $1 AND version = $4`
	res, err := s.db.ExecContext(ctx, query, doc.DocumentID(), data, at, doc.CurrentVersion())
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", s.table, doc.DocumentID(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		if err := s.exists(ctx, doc.DocumentID()); err != nil {
			return err
		}
		return ErrStaleVersion
	}
	doc.SetVersion(doc.CurrentVersion() + 1)
	return nil
}

func (s *pgDocuments[T, PT]) delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", s.table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// appendTo pushes item onto the array at path inside a single UPDATE, so
// concurrent appends to the same document never overwrite each other.
// A missing or null array is treated as empty.
func (s *pgDocuments[T, PT]) appendTo(ctx context.Context, id string, path []string, item any, at time.Time) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal %s item: %w", strings.Join(path, "."), err)
	}

	query := `UPDATE ` + s.table + ` SET doc = jsonb_set(
		jsonb_set(doc, $2::text[],
			CASE WHEN jsonb_typeof(doc #> $2::text[]) = 'array' THEN doc #> $2::text[] ELSE '[]'::jsonb END
				|| jsonb_build_array($3::jsonb), true),
		'{updatedAt}', to_jsonb($4::timestamptz)),
		version = version + 1, updated_at = $4
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, id, pq.Array(path), data, at)
	if err != nil {
		return fmt.Errorf("failed to append to %s %s: %w", s.table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *pgDocuments[T, PT]) exists(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM `+s.table+` WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check %s %s: %w", s.table, id, err)
	}
	return nil
}

func (s *pgDocuments[T, PT]) decode(data []byte, version int64) (PT, error) {
	doc := PT(new(T))
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s document: %w", s.table, err)
	}
	doc.SetVersion(version)
	return doc, nil
}

// buildWhereClause turns field filters into "doc->>'field' = $n" conditions.
// Field names are fixed by the repositories, never taken from requests.
func buildWhereClause(filters []fieldFilter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for i, f := range filters {
		conds = append(conds, "doc->>'"+f.field+"' = $"+strconv.Itoa(i+1))
		args = append(args, f.value)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
