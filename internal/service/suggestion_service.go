package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const topContributorsLimit = 10

// Suggestion list orderings.
const (
	SortRecent   = "recent"
	SortPopular  = "popular"
	SortPriority = "priority"
)

// SuggestionService manages suggestions, their votes, comments and reviews.
type SuggestionService interface {
	SubmitSuggestion(ctx context.Context, actor domain.Actor, req SubmitSuggestionRequest) (*domain.Suggestion, error)
	ListSuggestions(ctx context.Context, req ListSuggestionsRequest) ([]*domain.Suggestion, error)
	GetSuggestion(ctx context.Context, suggestionID string) (*domain.Suggestion, error)
	UpdateSuggestionStatus(ctx context.Context, actor domain.Actor, suggestionID string, req UpdateSuggestionStatusRequest) (*domain.Suggestion, error)
	Vote(ctx context.Context, actor domain.Actor, suggestionID string, voteType domain.VoteType) (*VoteResult, error)
	Comment(ctx context.Context, actor domain.Actor, suggestionID, text string) (*domain.Comment, error)
	Review(ctx context.Context, actor domain.Actor, suggestionID string, req ReviewRequest) (*domain.Review, error)
	Analytics(ctx context.Context) (*SuggestionAnalytics, error)
	CategorizeSuggestion(ctx context.Context, actor domain.Actor, suggestionID string) (*domain.Suggestion, error)
}

type suggestionService struct {
	lifecycle
	repo       repository.SuggestionsRepository
	classifier Classifier
}

// NewSuggestionService creates a SuggestionService.
func NewSuggestionService(repo repository.SuggestionsRepository, deps Deps) SuggestionService {
	return &suggestionService{
		lifecycle:  newLifecycle(domain.KindSuggestion, deps),
		repo:       repo,
		classifier: deps.Classifier,
	}
}

// ============================================
// Request / Response DTOs
// ============================================

// SubmitSuggestionRequest is a new idea. Department defaults to the submitter's.
type SubmitSuggestionRequest struct {
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	Category    domain.SuggestionCategory `json:"category"`
	Subcategory string                    `json:"subcategory,omitempty"`
	Department  domain.Department         `json:"department,omitempty"`
	Priority    domain.Priority           `json:"priority,omitempty"`
	Attachments []domain.Attachment       `json:"attachments,omitempty"`
	Tags        []string                  `json:"tags,omitempty"`
}

// ListSuggestionsRequest filters and orders the suggestion list.
type ListSuggestionsRequest struct {
	Category        string
	Status          string
	Department      string
	SubmittedBy     string
	IncludeArchived bool
	Sort            string
}

// ImplementationPatch merges into Suggestion.Implementation. Nil fields are kept.
type ImplementationPatch struct {
	EstimatedCost        *float64            `json:"estimatedCost,omitempty"`
	EstimatedTimeframe   *string             `json:"estimatedTimeframe,omitempty"`
	RequiredResources    []string            `json:"requiredResources,omitempty"`
	AssignedTeam         []domain.TeamMember `json:"assignedTeam,omitempty"`
	StartDate            *time.Time          `json:"startDate,omitempty"`
	TargetCompletionDate *time.Time          `json:"targetCompletionDate,omitempty"`
	ActualCompletionDate *time.Time          `json:"actualCompletionDate,omitempty"`
	ProgressPercentage   *float64            `json:"progressPercentage,omitempty"`
	Milestones           []domain.Milestone  `json:"milestones,omitempty"`
	Notes                *string             `json:"notes,omitempty"`
}

// EvaluationPatch merges into Suggestion.Evaluation. Reviews are added with Review.
type EvaluationPatch struct {
	OverallRating  *float64   `json:"overallRating,omitempty"`
	FinalDecision  *string    `json:"finalDecision,omitempty"`
	DecisionReason *string    `json:"decisionReason,omitempty"`
	DecisionDate   *time.Time `json:"decisionDate,omitempty"`
	DecisionBy     *string    `json:"decisionBy,omitempty"`
}

// UpdateSuggestionStatusRequest carries the reviewer-side changes.
type UpdateSuggestionStatusRequest struct {
	Status         *domain.SuggestionStatus `json:"status,omitempty"`
	Priority       *domain.Priority         `json:"priority,omitempty"`
	Implementation *ImplementationPatch     `json:"implementation,omitempty"`
	Evaluation     *EvaluationPatch         `json:"evaluation,omitempty"`
	Impact         *domain.Impact           `json:"impact,omitempty"`
	IsArchived     *bool                    `json:"isArchived,omitempty"`
}

// ReviewRequest is one reviewer's assessment. The reviewer is the actor.
type ReviewRequest struct {
	Rating         *int   `json:"rating,omitempty"`
	Feedback       string `json:"feedback,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// VoteResult is the tally after a vote.
type VoteResult struct {
	VotingScore int `json:"votingScore"`
	TotalVotes  int `json:"totalVotes"`
}

// StatBucket is a group count.
type StatBucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// SuggestionAnalytics is the dashboard summary.
type SuggestionAnalytics struct {
	TotalSuggestions       int          `json:"totalSuggestions"`
	PendingSuggestions     int          `json:"pendingSuggestions"`
	ApprovedSuggestions    int          `json:"approvedSuggestions"`
	ImplementedSuggestions int          `json:"implementedSuggestions"`
	CategoryStats          []StatBucket `json:"categoryStats"`
	DepartmentStats        []StatBucket `json:"departmentStats"`
	TopContributors        []StatBucket `json:"topContributors"`
}

// ============================================
// Operations
// ============================================

// SubmitSuggestion creates a suggestion in status submitted.
func (s *suggestionService) SubmitSuggestion(ctx context.Context, actor domain.Actor, req SubmitSuggestionRequest) (*domain.Suggestion, error) {
	now := s.now()
	department := req.Department
	if own := domain.Department(actor.Department); department == "" && own.Valid() {
		department = own
	}
	suggestion := &domain.Suggestion{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		SubmittedBy: actor.UserID,
		Department:  department,
		Priority:    orDefault(req.Priority, domain.PriorityMedium),
		Status:      domain.SuggestionSubmitted,
		Evaluation:  domain.Evaluation{ReviewedBy: []domain.Review{}},
		Voting: domain.Voting{
			Upvotes:   []domain.Vote{},
			Downvotes: []domain.Vote{},
			Comments:  []domain.Comment{},
		},
		Attachments: nonNil(req.Attachments),
		Tags:        nonNil(req.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i := range suggestion.Attachments {
		if suggestion.Attachments[i].UploadedAt.IsZero() {
			suggestion.Attachments[i].UploadedAt = now
		}
	}
	if err := suggestion.Validate(); err != nil {
		return nil, err
	}

	id, err := s.createWithRetry(ctx, domain.PrefixSuggestion, func(ctx context.Context, id string) error {
		suggestion.SuggestionID = id
		return s.repo.CreateSuggestion(ctx, suggestion)
	})
	if err != nil {
		return nil, s.storeError("create", suggestion.SuggestionID, err)
	}

	s.logger.Info("Suggestion submitted",
		zap.String("suggestion_id", id),
		zap.String("category", string(suggestion.Category)),
		zap.String("submitted_by", actor.UserID),
	)
	s.publish(ctx, "submitted", id, actor, suggestion)
	return suggestion, nil
}

// ListSuggestions returns matching suggestions, newest first unless another
// ordering is requested.
func (s *suggestionService) ListSuggestions(ctx context.Context, req ListSuggestionsRequest) ([]*domain.Suggestion, error) {
	items, err := s.repo.ListSuggestions(ctx, repository.SuggestionFilters{
		Category:        req.Category,
		Status:          req.Status,
		Department:      req.Department,
		SubmittedBy:     req.SubmittedBy,
		IncludeArchived: req.IncludeArchived,
	})
	if err != nil {
		return nil, s.storeError("list", "", fmt.Errorf("failed to list suggestions: %w", err))
	}
	sortSuggestions(items, req.Sort)
	return items, nil
}

// sortSuggestions reorders a newest-first list. Ties keep that order.
func sortSuggestions(items []*domain.Suggestion, order string) {
	switch order {
	case SortPopular:
		sort.SliceStable(items, func(i, j int) bool {
			return len(items[i].Voting.Upvotes) > len(items[j].Voting.Upvotes)
		})
	case SortPriority:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Priority.Rank() > items[j].Priority.Rank()
		})
	}
}

func (s *suggestionService) GetSuggestion(ctx context.Context, suggestionID string) (*domain.Suggestion, error) {
	suggestion, err := s.repo.GetSuggestion(ctx, suggestionID)
	if err != nil {
		return nil, s.storeError("get", suggestionID, err)
	}
	return suggestion, nil
}

// UpdateSuggestionStatus applies status and priority and merges the
// implementation and evaluation patches field by field.
func (s *suggestionService) UpdateSuggestionStatus(ctx context.Context, actor domain.Actor, suggestionID string, req UpdateSuggestionStatusRequest) (*domain.Suggestion, error) {
	suggestion, err := updateWithRetry(ctx, &s.lifecycle,
		func(ctx context.Context) (*domain.Suggestion, error) { return s.repo.GetSuggestion(ctx, suggestionID) },
		func(sg *domain.Suggestion) error {
			if req.Status != nil {
				sg.Status = *req.Status
			}
			if req.Priority != nil {
				sg.Priority = *req.Priority
			}
			if req.Implementation != nil {
				req.Implementation.mergeInto(&sg.Implementation)
			}
			if req.Evaluation != nil {
				req.Evaluation.mergeInto(&sg.Evaluation)
			}
			if req.Impact != nil {
				sg.Impact = req.Impact
			}
			if req.IsArchived != nil {
				sg.IsArchived = *req.IsArchived
			}
			sg.UpdatedAt = s.now()
			return sg.Validate()
		},
		func(ctx context.Context, sg *domain.Suggestion) error {
			return s.repo.SaveSuggestion(ctx, sg, sg.UpdatedAt)
		},
	)
	if err != nil {
		return nil, s.storeError("update_status", suggestionID, err)
	}

	s.logger.Info("Suggestion status updated",
		zap.String("suggestion_id", suggestionID),
		zap.String("status", string(suggestion.Status)),
		zap.String("updated_by", actor.UserID),
	)
	s.publish(ctx, "status_updated", suggestionID, actor, req)
	return suggestion, nil
}

func (p *ImplementationPatch) mergeInto(impl *domain.Implementation) {
	if p.EstimatedCost != nil {
		impl.EstimatedCost = p.EstimatedCost
	}
	if p.EstimatedTimeframe != nil {
		impl.EstimatedTimeframe = *p.EstimatedTimeframe
	}
	if p.RequiredResources != nil {
		impl.RequiredResources = p.RequiredResources
	}
	if p.AssignedTeam != nil {
		impl.AssignedTeam = p.AssignedTeam
	}
	if p.StartDate != nil {
		impl.StartDate = p.StartDate
	}
	if p.TargetCompletionDate != nil {
		impl.TargetCompletionDate = p.TargetCompletionDate
	}
	if p.ActualCompletionDate != nil {
		impl.ActualCompletionDate = p.ActualCompletionDate
	}
	if p.ProgressPercentage != nil {
		impl.ProgressPercentage = *p.ProgressPercentage
	}
	if p.Milestones != nil {
		impl.Milestones = p.Milestones
	}
	if p.Notes != nil {
		impl.Notes = *p.Notes
	}
}

func (p *EvaluationPatch) mergeInto(ev *domain.Evaluation) {
	if p.OverallRating != nil {
		ev.OverallRating = p.OverallRating
	}
	if p.FinalDecision != nil {
		ev.FinalDecision = *p.FinalDecision
	}
	if p.DecisionReason != nil {
		ev.DecisionReason = *p.DecisionReason
	}
	if p.DecisionDate != nil {
		ev.DecisionDate = p.DecisionDate
	}
	if p.DecisionBy != nil {
		ev.DecisionBy = *p.DecisionBy
	}
}

// Vote replaces the actor's previous vote, if any, with one of voteType.
func (s *suggestionService) Vote(ctx context.Context, actor domain.Actor, suggestionID string, voteType domain.VoteType) (*VoteResult, error) {
	if !voteType.Valid() {
		return nil, domain.NewValidationError("voteType", "must be one of upvote, downvote")
	}
	suggestion, err := updateWithRetry(ctx, &s.lifecycle,
		func(ctx context.Context) (*domain.Suggestion, error) { return s.repo.GetSuggestion(ctx, suggestionID) },
		func(sg *domain.Suggestion) error {
			now := s.now()
			sg.CastVote(actor.UserID, voteType, now)
			sg.UpdatedAt = now
			return nil
		},
		func(ctx context.Context, sg *domain.Suggestion) error {
			return s.repo.SaveSuggestion(ctx, sg, sg.UpdatedAt)
		},
	)
	if err != nil {
		return nil, s.storeError("vote", suggestionID, err)
	}

	result := &VoteResult{VotingScore: suggestion.VotingScore(), TotalVotes: suggestion.TotalVotes()}
	s.logger.Info("Vote recorded",
		zap.String("suggestion_id", suggestionID),
		zap.String("vote_type", string(voteType)),
		zap.String("user_id", actor.UserID),
		zap.Int("voting_score", result.VotingScore),
	)
	s.publish(ctx, "voted", suggestionID, actor, result)
	return result, nil
}

// Comment appends a comment with no likes.
func (s *suggestionService) Comment(ctx context.Context, actor domain.Actor, suggestionID, text string) (*domain.Comment, error) {
	if text == "" {
		return nil, domain.NewValidationError("comment", "is required")
	}
	now := s.now()
	comment := domain.Comment{
		CommentID:   uuid.NewString(),
		UserID:      actor.UserID,
		Comment:     text,
		CommentedAt: now,
		Likes:       []domain.Like{},
	}
	if err := s.repo.AppendComment(ctx, suggestionID, comment, now); err != nil {
		return nil, s.storeError("comment", suggestionID, err)
	}

	s.logger.Info("Comment added",
		zap.String("suggestion_id", suggestionID),
		zap.String("comment_id", comment.CommentID),
		zap.String("user_id", actor.UserID),
	)
	s.publish(ctx, "commented", suggestionID, actor, comment)
	return &comment, nil
}

// Review appends an evaluation entry by the actor.
func (s *suggestionService) Review(ctx context.Context, actor domain.Actor, suggestionID string, req ReviewRequest) (*domain.Review, error) {
	now := s.now()
	review := domain.Review{
		UserID:         actor.UserID,
		ReviewDate:     now,
		Rating:         req.Rating,
		Feedback:       req.Feedback,
		Recommendation: req.Recommendation,
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.AppendReview(ctx, suggestionID, review, now); err != nil {
		return nil, s.storeError("review", suggestionID, err)
	}

	s.logger.Info("Review added",
		zap.String("suggestion_id", suggestionID),
		zap.String("reviewer", actor.UserID),
		zap.String("recommendation", review.Recommendation),
	)
	s.publish(ctx, "reviewed", suggestionID, actor, review)
	return &review, nil
}

// Analytics summarizes every suggestion, archived ones included.
func (s *suggestionService) Analytics(ctx context.Context) (*SuggestionAnalytics, error) {
	items, err := s.repo.ListSuggestions(ctx, repository.SuggestionFilters{IncludeArchived: true})
	if err != nil {
		return nil, s.storeError("analytics", "", fmt.Errorf("failed to list suggestions: %w", err))
	}

	out := &SuggestionAnalytics{TotalSuggestions: len(items)}
	categories := map[string]int{}
	departments := map[string]int{}
	contributors := map[string]int{}
	for _, sg := range items {
		switch sg.Status {
		case domain.SuggestionSubmitted:
			out.PendingSuggestions++
		case domain.SuggestionApproved:
			out.ApprovedSuggestions++
		case domain.SuggestionImplemented:
			out.ImplementedSuggestions++
		}
		categories[string(sg.Category)]++
		departments[string(sg.Department)]++
		contributors[sg.SubmittedBy]++
	}
	out.CategoryStats = buckets(categories, 0)
	out.DepartmentStats = buckets(departments, 0)
	out.TopContributors = buckets(contributors, topContributorsLimit)
	return out, nil
}

// buckets orders counts descending, then by key. limit <= 0 keeps all.
func buckets(counts map[string]int, limit int) []StatBucket {
	out := make([]StatBucket, 0, len(counts))
	for k, n := range counts {
		out = append(out, StatBucket{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CategorizeSuggestion asks the external classifier for a category and stores the analysis.
func (s *suggestionService) CategorizeSuggestion(ctx context.Context, actor domain.Actor, suggestionID string) (*domain.Suggestion, error) {
	if s.classifier == nil {
		return nil, fmt.Errorf("%w: classifier is not configured", domain.ErrUnavailable)
	}
	current, err := s.repo.GetSuggestion(ctx, suggestionID)
	if err != nil {
		return nil, s.storeError("get", suggestionID, err)
	}
	analysis, err := s.classifier.CategorizeSuggestion(ctx, current)
	if err != nil {
		s.logger.Warn("Suggestion categorization failed", zap.String("suggestion_id", suggestionID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	if analysis.AnalyzedAt.IsZero() {
		analysis.AnalyzedAt = s.now()
	}

	suggestion, err := updateWithRetry(ctx, &s.lifecycle,
		func(ctx context.Context) (*domain.Suggestion, error) { return s.repo.GetSuggestion(ctx, suggestionID) },
		func(sg *domain.Suggestion) error {
			sg.AIAnalysis = analysis
			sg.UpdatedAt = s.now()
			return sg.Validate()
		},
		func(ctx context.Context, sg *domain.Suggestion) error {
			return s.repo.SaveSuggestion(ctx, sg, sg.UpdatedAt)
		},
	)
	if err != nil {
		return nil, s.storeError("categorize", suggestionID, err)
	}
	s.logger.Info("Suggestion categorized",
		zap.String("suggestion_id", suggestionID),
		zap.String("category", string(analysis.Category)),
		zap.Float64("confidence", analysis.Confidence),
	)
	s.publish(ctx, "categorized", suggestionID, actor, analysis)
	return suggestion, nil
}
