package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
)

// SuggestionsRepository persists suggestions. Suggestions are archived, never deleted.
type SuggestionsRepository interface {
	CreateSuggestion(ctx context.Context, suggestion *domain.Suggestion) error
	GetSuggestion(ctx context.Context, suggestionID string) (*domain.Suggestion, error)
	ListSuggestions(ctx context.Context, filters SuggestionFilters) ([]*domain.Suggestion, error)
	SaveSuggestion(ctx context.Context, suggestion *domain.Suggestion, at time.Time) error
	AppendComment(ctx context.Context, suggestionID string, comment domain.Comment, at time.Time) error
	AppendReview(ctx context.Context, suggestionID string, review domain.Review, at time.Time) error
}

// SuggestionFilters narrows ListSuggestions. Archived suggestions are
// excluded unless IncludeArchived is set.
type SuggestionFilters struct {
	Category        string
	Status          string
	Department      string
	SubmittedBy     string
	IncludeArchived bool
}

func (f SuggestionFilters) fields() []fieldFilter {
	var out []fieldFilter
	out = appendFilter(out, "category", f.Category)
	out = appendFilter(out, "status", f.Status)
	out = appendFilter(out, "department", f.Department)
	out = appendFilter(out, "submittedBy", f.SubmittedBy)
	if !f.IncludeArchived {
		out = appendFilter(out, "isArchived", strconv.FormatBool(false))
	}
	return out
}

type suggestionsRepository struct {
	docs documentStore[*domain.Suggestion]
}

func NewPostgresSuggestionsRepository(db *sql.DB) SuggestionsRepository {
	return &suggestionsRepository{docs: newPGDocuments[domain.Suggestion](db, "suggestions")}
}

func NewMemorySuggestionsRepository() SuggestionsRepository {
	return &suggestionsRepository{docs: newMemDocuments[domain.Suggestion]()}
}

func (r *suggestionsRepository) CreateSuggestion(ctx context.Context, suggestion *domain.Suggestion) error {
	return r.docs.create(ctx, suggestion, suggestion.CreatedAt)
}

func (r *suggestionsRepository) GetSuggestion(ctx context.Context, suggestionID string) (*domain.Suggestion, error) {
	return r.docs.get(ctx, suggestionID)
}

func (r *suggestionsRepository) ListSuggestions(ctx context.Context, filters SuggestionFilters) ([]*domain.Suggestion, error) {
	return r.docs.list(ctx, filters.fields())
}

func (r *suggestionsRepository) SaveSuggestion(ctx context.Context, suggestion *domain.Suggestion, at time.Time) error {
	return r.docs.save(ctx, suggestion, at)
}

func (r *suggestionsRepository) AppendComment(ctx context.Context, suggestionID string, comment domain.Comment, at time.Time) error {
	return r.docs.appendTo(ctx, suggestionID, []string{"voting", "comments"}, comment, at)
}

func (r *suggestionsRepository) AppendReview(ctx context.Context, suggestionID string, review domain.Review, at time.Time) error {
	return r.docs.appendTo(ctx, suggestionID, []string{"evaluation", "reviewedBy"}, review, at)
}
