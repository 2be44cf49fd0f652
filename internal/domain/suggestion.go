package domain

import (
	"math"
	"strconv"
	"time"
)

// SuggestionCategory classifies an improvement idea.
type SuggestionCategory string

const (
	SuggestionSafety        SuggestionCategory = "safety"
	SuggestionProductivity  SuggestionCategory = "productivity"
	SuggestionEnvironment   SuggestionCategory = "environment"
	SuggestionQuality       SuggestionCategory = "quality"
	SuggestionCostReduction SuggestionCategory = "cost_reduction"
	SuggestionInnovation    SuggestionCategory = "innovation"
	SuggestionOther         SuggestionCategory = "other"
)

func (c SuggestionCategory) Valid() bool {
	return oneOf(c, SuggestionSafety, SuggestionProductivity, SuggestionEnvironment, SuggestionQuality,
		SuggestionCostReduction, SuggestionInnovation, SuggestionOther)
}

// SuggestionStatus is unguarded like IncidentStatus.
type SuggestionStatus string

const (
	SuggestionSubmitted            SuggestionStatus = "submitted"
	SuggestionUnderReview          SuggestionStatus = "under_review"
	SuggestionApproved             SuggestionStatus = "approved"
	SuggestionRejected             SuggestionStatus = "rejected"
	SuggestionImplemented          SuggestionStatus = "implemented"
	SuggestionPartiallyImplemented SuggestionStatus = "partially_implemented"
)

func (s SuggestionStatus) Valid() bool {
	return oneOf(s, SuggestionSubmitted, SuggestionUnderReview, SuggestionApproved, SuggestionRejected,
		SuggestionImplemented, SuggestionPartiallyImplemented)
}

// VoteType is the direction of a vote.
type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

func (t VoteType) Valid() bool { return oneOf(t, Upvote, Downvote) }

const (
	trendingVotes  = 5
	trendingWindow = 3 * 24 * time.Hour
)

// Suggestion is a continuous-improvement idea.
type Suggestion struct {
	Revision `json:"-"`

	SuggestionID   string              `json:"suggestionId"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Category       SuggestionCategory  `json:"category"`
	Subcategory    string              `json:"subcategory,omitempty"`
	SubmittedBy    string              `json:"submittedBy"`
	Department     Department          `json:"department"`
	Priority       Priority            `json:"priority"`
	Status         SuggestionStatus    `json:"status"`
	AIAnalysis     *SuggestionAnalysis `json:"aiAnalysis,omitempty"`
	Implementation Implementation      `json:"implementation"`
	Evaluation     Evaluation          `json:"evaluation"`
	Voting         Voting              `json:"voting"`
	Impact         *Impact             `json:"impact,omitempty"`
	Attachments    []Attachment        `json:"attachments"`
	Tags           []string            `json:"tags"`
	IsArchived     bool                `json:"isArchived"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// SuggestionAnalysis is the external classifier's verdict.
type SuggestionAnalysis struct {
	Category           SuggestionCategory `json:"category,omitempty"`
	Confidence         float64            `json:"confidence"`
	Keywords           []string           `json:"keywords,omitempty"`
	Sentiment          string             `json:"sentiment,omitempty"`
	ImpactEstimation   string             `json:"impactEstimation,omitempty"`
	SimilarSuggestions []SimilarityMatch  `json:"similarSuggestions,omitempty"`
	AnalyzedAt         time.Time          `json:"analyzedAt"`
}

// SimilarityMatch links to a near-duplicate suggestion.
type SimilarityMatch struct {
	SuggestionID string  `json:"suggestionId"`
	Similarity   float64 `json:"similarity"`
}

// Implementation tracks execution of an approved suggestion.
type Implementation struct {
	EstimatedCost        *float64     `json:"estimatedCost,omitempty"`
	EstimatedTimeframe   string       `json:"estimatedTimeframe,omitempty"`
	RequiredResources    []string     `json:"requiredResources,omitempty"`
	AssignedTeam         []TeamMember `json:"assignedTeam,omitempty"`
	StartDate            *time.Time   `json:"startDate,omitempty"`
	TargetCompletionDate *time.Time   `json:"targetCompletionDate,omitempty"`
	ActualCompletionDate *time.Time   `json:"actualCompletionDate,omitempty"`
	ProgressPercentage   float64      `json:"progressPercentage"`
	Milestones           []Milestone  `json:"milestones,omitempty"`
	Notes                string       `json:"notes,omitempty"`
}

// TeamMember is a user assigned to an implementation.
type TeamMember struct {
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
}

// Milestone is a checkpoint of an implementation.
type Milestone struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
	ActualDate  *time.Time `json:"actualDate,omitempty"`
	Status      string     `json:"status,omitempty"`
}

// Evaluation holds reviews and the final decision.
type Evaluation struct {
	ReviewedBy     []Review   `json:"reviewedBy"`
	OverallRating  *float64   `json:"overallRating,omitempty"`
	FinalDecision  string     `json:"finalDecision,omitempty"`
	DecisionReason string     `json:"decisionReason,omitempty"`
	DecisionDate   *time.Time `json:"decisionDate,omitempty"`
	DecisionBy     string     `json:"decisionBy,omitempty"`
}

// Review is one reviewer's assessment.
type Review struct {
	UserID         string    `json:"userId"`
	ReviewDate     time.Time `json:"reviewDate"`
	Rating         *int      `json:"rating,omitempty"`
	Feedback       string    `json:"feedback,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
}

// Validate checks a review before append.
func (r *Review) Validate() error {
	var v validator
	v.required("userId", r.UserID)
	if r.Rating != nil {
		v.check(*r.Rating >= 1 && *r.Rating <= 5, "rating", "must be between 1 and 5")
	}
	v.check(optionalOneOf(r.Recommendation, "approve", "reject", "needs_modification", "needs_more_info"),
		"recommendation", "must be one of approve, reject, needs_modification, needs_more_info")
	return v.err()
}

// Voting holds the vote and comment sequences, in insertion order.
type Voting struct {
	Upvotes   []Vote    `json:"upvotes"`
	Downvotes []Vote    `json:"downvotes"`
	Comments  []Comment `json:"comments"`
}

// Vote is one user's vote.
type Vote struct {
	UserID  string    `json:"userId"`
	VotedAt time.Time `json:"votedAt"`
}

// Impact is the measured outcome after implementation.
type Impact struct {
	ActualBenefits       string     `json:"actualBenefits,omitempty"`
	CostSavings          *float64   `json:"costSavings,omitempty"`
	TimeReduction        *float64   `json:"timeReduction,omitempty"`
	SafetyImprovement    string     `json:"safetyImprovement,omitempty"`
	EnvironmentalBenefit string     `json:"environmentalBenefit,omitempty"`
	MeasurementDate      *time.Time `json:"measurementDate,omitempty"`
	MeasuredBy           string     `json:"measuredBy,omitempty"`
}

func (s *Suggestion) DocumentID() string { return s.SuggestionID }

// Validate checks required fields, ranges and enum membership.
func (s *Suggestion) Validate() error {
	var v validator
	v.required("title", s.Title)
	v.required("description", s.Description)
	v.check(s.Category.Valid(), "category",
		"must be one of safety, productivity, environment, quality, cost_reduction, innovation, other")
	v.required("submittedBy", s.SubmittedBy)
	v.check(s.Department.Valid(), "department",
		"must be one of production, maintenance, safety, quality, logistics, admin, all")
	v.check(s.Priority.Valid(), "priority", "must be one of low, medium, high, urgent")
	v.check(s.Status.Valid(), "status",
		"must be one of submitted, under_review, approved, rejected, implemented, partially_implemented")
	v.between("implementation.progressPercentage", s.Implementation.ProgressPercentage, 0, 100)
	if r := s.Evaluation.OverallRating; r != nil {
		v.between("evaluation.overallRating", *r, 1, 5)
	}
	v.check(optionalOneOf(s.Evaluation.FinalDecision, "approved", "rejected", "deferred"),
		"evaluation.finalDecision", "must be one of approved, rejected, deferred")
	for idx, m := range s.Implementation.Milestones {
		v.check(optionalOneOf(m.Status, "pending", "in_progress", "completed", "delayed"),
			"implementation.milestones["+strconv.Itoa(idx)+"].status",
			"must be one of pending, in_progress, completed, delayed")
	}
	if a := s.AIAnalysis; a != nil {
		v.between("aiAnalysis.confidence", a.Confidence, 0, 1)
	}
	return v.err()
}

// CastVote removes any existing vote by userID and records the new one,
// leaving the user with exactly one vote.
func (s *Suggestion) CastVote(userID string, voteType VoteType, at time.Time) {
	s.Voting.Upvotes = withoutVoter(s.Voting.Upvotes, userID)
	s.Voting.Downvotes = withoutVoter(s.Voting.Downvotes, userID)
	vote := Vote{UserID: userID, VotedAt: at}
	switch voteType {
	case Upvote:
		s.Voting.Upvotes = append(s.Voting.Upvotes, vote)
	case Downvote:
		s.Voting.Downvotes = append(s.Voting.Downvotes, vote)
	}
}

func withoutVoter(votes []Vote, userID string) []Vote {
	out := make([]Vote, 0, len(votes))
	for _, v := range votes {
		if v.UserID != userID {
			out = append(out, v)
		}
	}
	return out
}

// VotingScore is upvotes minus downvotes.
func (s *Suggestion) VotingScore() int {
	return len(s.Voting.Upvotes) - len(s.Voting.Downvotes)
}

// TotalVotes is upvotes plus downvotes.
func (s *Suggestion) TotalVotes() int {
	return len(s.Voting.Upvotes) + len(s.Voting.Downvotes)
}

// AverageRating is the mean of the ratings that are set, or 0.
func (s *Suggestion) AverageRating() float64 {
	var sum, n int
	for _, r := range s.Evaluation.ReviewedBy {
		if r.Rating != nil {
			sum += *r.Rating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// DaysOld is the number of started days since creation.
func (s *Suggestion) DaysOld(now time.Time) int {
	d := now.Sub(s.CreatedAt)
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(d.Hours() / 24))
}

// IsTrending reports at least five upvotes cast strictly within the last three days.
func (s *Suggestion) IsTrending(now time.Time) bool {
	since := now.Add(-trendingWindow)
	recent := 0
	for _, v := range s.Voting.Upvotes {
		if v.VotedAt.After(since) {
			recent++
		}
	}
	return recent >= trendingVotes
}

// SuggestionView is the serialized form with derived fields.
type SuggestionView struct {
	*Suggestion
	VotingScore   int     `json:"votingScore"`
	TotalVotes    int     `json:"totalVotes"`
	AverageRating float64 `json:"averageRating"`
	DaysOld       int     `json:"daysOld"`
	IsTrending    bool    `json:"isTrending"`
}

// View computes derived fields at now.
func (s *Suggestion) View(now time.Time) SuggestionView {
	return SuggestionView{
		Suggestion:    s,
		VotingScore:   s.VotingScore(),
		TotalVotes:    s.TotalVotes(),
		AverageRating: s.AverageRating(),
		DaysOld:       s.DaysOld(now),
		IsTrending:    s.IsTrending(now),
	}
}
