package httpapi

import (
	"net/http"

	"github.com/SaloniGupta6/Steel-Guardian/internal/clock"
	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/service"

	"go.uber.org/zap"
)

// SuggestionHandler serves /api/suggestions.
type SuggestionHandler struct {
	suggestions service.SuggestionService
	clock       clock.Clock
	logger      *zap.Logger
}

func NewSuggestionHandler(suggestions service.SuggestionService, clk clock.Clock, logger *zap.Logger) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions, clock: clk, logger: logger}
}

type voteRequest struct {
	VoteType domain.VoteType `json:"voteType"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// SubmitSuggestion handles POST /api/suggestions.
func (h *SuggestionHandler) SubmitSuggestion(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.SubmitSuggestionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sg, err := h.suggestions.SubmitSuggestion(r.Context(), actor, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(sg.View(h.clock.Now())))
}

// ListSuggestions handles GET /api/suggestions.
func (h *SuggestionHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	items, err := h.suggestions.ListSuggestions(r.Context(), service.ListSuggestionsRequest{
		Category:        queryParam(r, "category"),
		Status:          queryParam(r, "status"),
		Department:      queryParam(r, "department"),
		SubmittedBy:     queryParam(r, "submittedBy"),
		IncludeArchived: parseBool(queryParam(r, "includeArchived"), false),
		Sort:            queryParam(r, "sort"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	now := h.clock.Now()
	views := make([]domain.SuggestionView, 0, len(items))
	for _, sg := range items {
		views = append(views, sg.View(now))
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": views, "total": len(views)}))
}

// GetSuggestion handles GET /api/suggestions/{id}.
func (h *SuggestionHandler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	sg, err := h.suggestions.GetSuggestion(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sg.View(h.clock.Now())))
}

// UpdateStatus handles PUT /api/suggestions/{id}/status.
func (h *SuggestionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.UpdateSuggestionStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sg, err := h.suggestions.UpdateSuggestionStatus(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sg.View(h.clock.Now())))
}

// Vote handles POST /api/suggestions/{id}/vote.
func (h *SuggestionHandler) Vote(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req voteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.suggestions.Vote(r.Context(), actor, r.PathValue("id"), req.VoteType)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// Comment handles POST /api/suggestions/{id}/comment.
func (h *SuggestionHandler) Comment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req commentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	comment, err := h.suggestions.Comment(r.Context(), actor, r.PathValue("id"), req.Comment)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(comment))
}

// Review handles POST /api/suggestions/{id}/review.
func (h *SuggestionHandler) Review(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.ReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	review, err := h.suggestions.Review(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(review))
}

// Categorize handles POST /api/suggestions/{id}/categorize.
func (h *SuggestionHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	sg, err := h.suggestions.CategorizeSuggestion(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sg.View(h.clock.Now())))
}

// Analytics handles GET /api/suggestions/analytics/dashboard.
func (h *SuggestionHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.suggestions.Analytics(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}
