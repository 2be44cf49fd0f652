package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/repository"

	"go.uber.org/zap"
)

// EnvironmentService records sustainability metrics per plant.
type EnvironmentService interface {
	CreateMetric(ctx context.Context, actor domain.Actor, req CreateMetricRequest) (*domain.EnvironmentMetric, error)
	ListMetrics(ctx context.Context, req ListMetricsRequest) ([]*domain.EnvironmentMetric, error)
	GetMetric(ctx context.Context, metricID string) (*domain.EnvironmentMetric, error)
	UpdateMetric(ctx context.Context, actor domain.Actor, metricID string, req UpdateMetricRequest) (*domain.EnvironmentMetric, error)
	DeleteMetric(ctx context.Context, actor domain.Actor, metricID string) error
	RaiseAlert(ctx context.Context, actor domain.Actor, metricID string, req RaiseMetricAlertRequest) (*domain.EnvironmentAlert, error)
	ResolveAlert(ctx context.Context, actor domain.Actor, metricID, alertID string) (*domain.EnvironmentAlert, error)
}

type environmentService struct {
	lifecycle
	repo repository.EnvironmentRepository
}

// NewEnvironmentService creates an EnvironmentService.
func NewEnvironmentService(repo repository.EnvironmentRepository, deps Deps) EnvironmentService {
	return &environmentService{
		lifecycle: newLifecycle(domain.KindEnvironment, deps),
		repo:      repo,
	}
}

// ============================================
// Request DTOs
// ============================================

// CreateMetricRequest records a metric. The collector is the actor; the
// collection date defaults to now.
type CreateMetricRequest struct {
	MetricName     string                 `json:"metricName"`
	Description    string                 `json:"description,omitempty"`
	Unit           string                 `json:"unit"`
	Value          float64                `json:"value"`
	Target         float64                `json:"target"`
	Category       domain.MetricCategory  `json:"category"`
	SubCategory    string                 `json:"subCategory,omitempty"`
	Department     domain.Department      `json:"department,omitempty"`
	Plant          string                 `json:"plant"`
	CollectionDate *time.Time             `json:"collectionDate,omitempty"`
	Trends         []domain.TrendPoint    `json:"trends,omitempty"`
	Analysis       *domain.MetricAnalysis `json:"analysis,omitempty"`
}

// ListMetricsRequest filters the metric list.
type ListMetricsRequest struct {
	Category           string
	Plant              string
	Department         string
	VerificationStatus string
}

// UpdateMetricRequest carries optional changes. A new Value is also appended
// to the data history with Remarks.
type UpdateMetricRequest struct {
	MetricName         *string                    `json:"metricName,omitempty"`
	Description        *string                    `json:"description,omitempty"`
	Value              *float64                   `json:"value,omitempty"`
	Target             *float64                   `json:"target,omitempty"`
	SubCategory        *string                    `json:"subCategory,omitempty"`
	VerificationStatus *domain.VerificationStatus `json:"verificationStatus,omitempty"`
	Trends             []domain.TrendPoint        `json:"trends,omitempty"`
	Analysis           *domain.MetricAnalysis     `json:"analysis,omitempty"`
	Remarks            string                     `json:"remarks,omitempty"`
}

// RaiseMetricAlertRequest appends an alert to a metric.
type RaiseMetricAlertRequest struct {
	Message  string          `json:"message"`
	Severity domain.Severity `json:"severity"`
}

// ============================================
// Operations
// ============================================

func (s *environmentService) CreateMetric(ctx context.Context, actor domain.Actor, req CreateMetricRequest) (*domain.EnvironmentMetric, error) {
	now := s.now()
	metric := &domain.EnvironmentMetric{
		MetricName:         req.MetricName,
		Description:        req.Description,
		Unit:               req.Unit,
		Value:              req.Value,
		Target:             req.Target,
		Category:           req.Category,
		SubCategory:        req.SubCategory,
		Department:         req.Department,
		Plant:              req.Plant,
		CollectedBy:        actor.UserID,
		CollectionDate:     now,
		VerificationStatus: domain.VerificationPending,
		DataHistory:        []domain.DataPoint{},
		Alerts:             []domain.EnvironmentAlert{},
		Comments:           []domain.Comment{},
		Trends:             nonNil(req.Trends),
		Analysis:           req.Analysis,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.CollectionDate != nil {
		metric.CollectionDate = req.CollectionDate.UTC()
	}
	if err := metric.Validate(); err != nil {
		return nil, err
	}

	id, err := s.createWithRetry(ctx, domain.PrefixEnvironment, func(ctx context.Context, id string) error {
		metric.MetricID = id
		return s.repo.CreateMetric(ctx, metric)
	})
	if err != nil {
		return nil, s.storeError("create", metric.MetricID, err)
	}

	s.logger.Info("Environment metric added",
		zap.String("metric_id", id),
		zap.String("category", string(metric.Category)),
		zap.String("plant", metric.Plant),
		zap.Float64("value", metric.Value),
	)
	s.publish(ctx, "created", id, actor, metric)
	return metric, nil
}

func (s *environmentService) ListMetrics(ctx context.Context, req ListMetricsRequest) ([]*domain.EnvironmentMetric, error) {
	items, err := s.repo.ListMetrics(ctx, repository.MetricFilters{
		Category:           req.Category,
		Plant:              req.Plant,
		Department:         req.Department,
		VerificationStatus: req.VerificationStatus,
	})
	if err != nil {
		return nil, s.storeError("list", "", fmt.Errorf("failed to list environment metrics: %w", err))
	}
	return items, nil
}

func (s *environmentService) GetMetric(ctx context.Context, metricID string) (*domain.EnvironmentMetric, error) {
	metric, err := s.repo.GetMetric(ctx, metricID)
	if err != nil {
		return nil, s.storeError("get", metricID, err)
	}
	return metric, nil
}

// UpdateMetric applies present fields. A value change appends a data point;
// a verification decision stamps the verifier.
func (s *environmentService) UpdateMetric(ctx context.Context, actor domain.Actor, metricID string, req UpdateMetricRequest) (*domain.EnvironmentMetric, error) {
	metric, err := updateWithRetry(ctx, &s.lifecycle,
		func(ctx context.Context) (*domain.EnvironmentMetric, error) { return s.repo.GetMetric(ctx, metricID) },
		func(e *domain.EnvironmentMetric) error {
			now := s.now()
			if req.MetricName != nil {
				e.MetricName = *req.MetricName
			}
			if req.Description != nil {
				e.Description = *req.Description
			}
			if req.Value != nil && *req.Value != e.Value {
				e.Value = *req.Value
				e.DataHistory = append(e.DataHistory, domain.DataPoint{
					UpdatedValue: *req.Value,
					UpdatedAt:    now,
					Remarks:      req.Remarks,
				})
			}
			if req.Target != nil {
				e.Target = *req.Target
			}
			if req.SubCategory != nil {
				e.SubCategory = *req.SubCategory
			}
			if req.VerificationStatus != nil && *req.VerificationStatus != e.VerificationStatus {
				e.VerificationStatus = *req.VerificationStatus
				if e.VerificationStatus != domain.VerificationPending {
					e.VerifiedBy = actor.UserID
					e.VerificationDate = &now
				}
			}
			if req.Trends != nil {
				e.Trends = req.Trends
			}
			if req.Analysis != nil {
				e.Analysis = req.Analysis
			}
			e.UpdatedAt = now
			return e.Validate()
		},
		func(ctx context.Context, e *domain.EnvironmentMetric) error { return s.repo.SaveMetric(ctx, e, e.UpdatedAt) },
	)
	if err != nil {
		return nil, s.storeError("update", metricID, err)
	}

	s.logger.Info("Environment metric updated",
		zap.String("metric_id", metricID),
		zap.Float64("value", metric.Value),
		zap.String("verification_status", string(metric.VerificationStatus)),
		zap.String("updated_by", actor.UserID),
	)
	s.publish(ctx, "updated", metricID, actor, req)
	return metric, nil
}

func (s *environmentService) DeleteMetric(ctx context.Context, actor domain.Actor, metricID string) error {
	if err := s.repo.DeleteMetric(ctx, metricID); err != nil {
		return s.storeError("delete", metricID, err)
	}
	s.logger.Info("Environment metric removed", zap.String("metric_id", metricID), zap.String("deleted_by", actor.UserID))
	s.publish(ctx, "deleted", metricID, actor, nil)
	return nil
}

func (s *environmentService) RaiseAlert(ctx context.Context, actor domain.Actor, metricID string, req RaiseMetricAlertRequest) (*domain.EnvironmentAlert, error) {
	now := s.now()
	id, err := s.newID(domain.PrefixAlert)
	if err != nil {
		return nil, err
	}
	alert := domain.EnvironmentAlert{
		AlertID:   id,
		Message:   req.Message,
		Severity:  req.Severity,
		CreatedAt: now,
	}
	if err := alert.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.AppendMetricAlert(ctx, metricID, alert, now); err != nil {
		return nil, s.storeError("raise_alert", metricID, err)
	}

	s.logger.Info("Environment alert raised",
		zap.String("metric_id", metricID),
		zap.String("alert_id", id),
		zap.String("severity", string(alert.Severity)),
	)
	s.publish(ctx, "alert_raised", metricID, actor, alert)
	return &alert, nil
}

// ResolveAlert records the resolver. Resolving twice keeps the first resolution.
func (s *environmentService) ResolveAlert(ctx context.Context, actor domain.Actor, metricID, alertID string) (*domain.EnvironmentAlert, error) {
	var result domain.EnvironmentAlert
	_, err := updateWithRetry(ctx, &s.lifecycle,
		func(ctx context.Context) (*domain.EnvironmentMetric, error) { return s.repo.GetMetric(ctx, metricID) },
		func(e *domain.EnvironmentMetric) error {
			idx := e.FindAlert(alertID)
			if idx < 0 {
				return fmt.Errorf("%w: alert %s on metric %s", domain.ErrNotFound, alertID, metricID)
			}
			now := s.now()
			if a := &e.Alerts[idx]; a.ResolvedAt == nil {
				a.ResolvedAt = &now
				a.ResolvedBy = actor.UserID
			}
			e.UpdatedAt = now
			result = e.Alerts[idx]
			return nil
		},
		func(ctx context.Context, e *domain.EnvironmentMetric) error { return s.repo.SaveMetric(ctx, e, e.UpdatedAt) },
	)
	if err != nil {
		return nil, s.storeError("resolve_alert", metricID, err)
	}

	s.logger.Info("Environment alert resolved",
		zap.String("metric_id", metricID),
		zap.String("alert_id", alertID),
		zap.String("resolved_by", result.ResolvedBy),
	)
	s.publish(ctx, "alert_resolved", metricID, actor, result)
	return &result, nil
}
