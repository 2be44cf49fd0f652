package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
)

// EnvironmentRepository persists environment metrics.
type EnvironmentRepository interface {
	CreateMetric(ctx context.Context, metric *domain.EnvironmentMetric) error
	GetMetric(ctx context.Context, metricID string) (*domain.EnvironmentMetric, error)
	ListMetrics(ctx context.Context, filters MetricFilters) ([]*domain.EnvironmentMetric, error)
	SaveMetric(ctx context.Context, metric *domain.EnvironmentMetric, at time.Time) error
	DeleteMetric(ctx context.Context, metricID string) error
	AppendMetricAlert(ctx context.Context, metricID string, alert domain.EnvironmentAlert, at time.Time) error
}

// MetricFilters narrows ListMetrics.
type MetricFilters struct {
	Category           string
	Plant              string
	Department         string
	VerificationStatus string
}

func (f MetricFilters) fields() []fieldFilter {
	var out []fieldFilter
	out = appendFilter(out, "category", f.Category)
	out = appendFilter(out, "plant", f.Plant)
	out = appendFilter(out, "department", f.Department)
	out = appendFilter(out, "verificationStatus", f.VerificationStatus)
	return out
}

type environmentRepository struct {
	docs documentStore[*domain.EnvironmentMetric]
}

func NewPostgresEnvironmentRepository(db *sql.DB) EnvironmentRepository {
	return &environmentRepository{docs: newPGDocuments[domain.EnvironmentMetric](db, "environment_metrics")}
}

func NewMemoryEnvironmentRepository() EnvironmentRepository {
	return &environmentRepository{docs: newMemDocuments[domain.EnvironmentMetric]()}
}

func (r *environmentRepository) CreateMetric(ctx context.Context, metric *domain.EnvironmentMetric) error {
	return r.docs.create(ctx, metric, metric.CreatedAt)
}

func (r *environmentRepository) GetMetric(ctx context.Context, metricID string) (*domain.EnvironmentMetric, error) {
	return r.docs.get(ctx, metricID)
}

func (r *environmentRepository) ListMetrics(ctx context.Context, filters MetricFilters) ([]*domain.EnvironmentMetric, error) {
	return r.docs.list(ctx, filters.fields())
}

func (r *environmentRepository) SaveMetric(ctx context.Context, metric *domain.EnvironmentMetric, at time.Time) error {
	return r.docs.save(ctx, metric, at)
}

func (r *environmentRepository) DeleteMetric(ctx context.Context, metricID string) error {
	return r.docs.delete(ctx, metricID)
}

func (r *environmentRepository) AppendMetricAlert(ctx context.Context, metricID string, alert domain.EnvironmentAlert, at time.Time) error {
	return r.docs.appendTo(ctx, metricID, []string{"alerts"}, alert, at)
}
