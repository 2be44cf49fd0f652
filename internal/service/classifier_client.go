package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	analyzeIncidentPath      = "/v1/incidents/analyze"
	categorizeSuggestionPath = "/v1/suggestions/categorize"
)

// classifierText is the body sent for every classification.
type classifierText struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Severity    string `json:"severity,omitempty"`
}

// classifierError is the error body returned by the classifier.
type classifierError struct {
	Error string `json:"error"`
}

// ClassifierClient calls the external text classification API.
type ClassifierClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClassifierClient creates a classifier client. apiKey may be empty.
func NewClassifierClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *ClassifierClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &ClassifierClient{httpClient: client, logger: logger}
}

// AnalyzeIncident returns a risk assessment of the incident text.
func (c *ClassifierClient) AnalyzeIncident(ctx context.Context, incident *domain.Incident) (*domain.IncidentAnalysis, error) {
	body := classifierText{
		ID:          incident.IncidentID,
		Title:       incident.Title,
		Description: incident.Description,
		Category:    string(incident.Category),
		Severity:    string(incident.Severity),
	}
	var analysis domain.IncidentAnalysis
	if err := c.post(ctx, analyzeIncidentPath, body, &analysis); err != nil {
		return nil, err
	}
	if analysis.RiskLevel != "" && !analysis.RiskLevel.Valid() {
		return nil, c.badReply(analyzeIncidentPath, fmt.Sprintf("unknown riskLevel %q", analysis.RiskLevel))
	}
	if !unitInterval(analysis.ConfidenceScore) {
		return nil, c.badReply(analyzeIncidentPath, fmt.Sprintf("confidenceScore %v outside [0,1]", analysis.ConfidenceScore))
	}
	return &analysis, nil
}

// CategorizeSuggestion returns a category guess for the suggestion text.
// An unknown category in the reply falls back to other.
func (c *ClassifierClient) CategorizeSuggestion(ctx context.Context, suggestion *domain.Suggestion) (*domain.SuggestionAnalysis, error) {
	body := classifierText{
		ID:          suggestion.SuggestionID,
		Title:       suggestion.Title,
		Description: suggestion.Description,
		Category:    string(suggestion.Category),
	}
	var analysis domain.SuggestionAnalysis
	if err := c.post(ctx, categorizeSuggestionPath, body, &analysis); err != nil {
		return nil, err
	}
	if !unitInterval(analysis.Confidence) {
		return nil, c.badReply(categorizeSuggestionPath, fmt.Sprintf("confidence %v outside [0,1]", analysis.Confidence))
	}
	if !analysis.Category.Valid() {
		analysis.Category = domain.SuggestionOther
	}
	return &analysis, nil
}

// badReply reports a well-formed response whose content cannot be stored.
func (c *ClassifierClient) badReply(path, reason string) error {
	c.logger.Error("Classifier reply rejected", zap.String("path", path), zap.String("reason", reason))
	return fmt.Errorf("%w: classifier reply rejected: %s", domain.ErrUnavailable, reason)
}

func unitInterval(v float64) bool {
	return v >= 0 && v <= 1
}

func (c *ClassifierClient) post(ctx context.Context, path string, body, result any) error {
	var apiErr classifierError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		c.logger.Error("Classifier call failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to call classifier: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("Classifier returned error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("error", apiErr.Error),
		)
		return fmt.Errorf("classifier error: %s (status: %d)", apiErr.Error, resp.StatusCode())
	}
	return nil
}
