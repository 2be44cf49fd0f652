package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
)

// IncidentsRepository persists safety incidents.
type IncidentsRepository interface {
	CreateIncident(ctx context.Context, incident *domain.Incident) error
	GetIncident(ctx context.Context, incidentID string) (*domain.Incident, error)
	ListIncidents(ctx context.Context, filters IncidentFilters) ([]*domain.Incident, error)
	// SaveIncident is a compare-and-set on the loaded version; ErrStaleVersion on a lost race.
	SaveIncident(ctx context.Context, incident *domain.Incident, at time.Time) error
	DeleteIncident(ctx context.Context, incidentID string) error
	AppendEscalation(ctx context.Context, incidentID string, escalation domain.Escalation, at time.Time) error
}

// IncidentFilters narrows ListIncidents. Empty fields match everything.
type IncidentFilters struct {
	Status     string
	Severity   string
	Category   string
	ReportedBy string
}

func (f IncidentFilters) fields() []fieldFilter {
	var out []fieldFilter
	out = appendFilter(out, "status", f.Status)
	out = appendFilter(out, "severity", f.Severity)
	out = appendFilter(out, "category", f.Category)
	out = appendFilter(out, "reportedBy", f.ReportedBy)
	return out
}

type incidentsRepository struct {
	docs documentStore[*domain.Incident]
}

// NewPostgresIncidentsRepository stores incidents in the incidents table.
func NewPostgresIncidentsRepository(db *sql.DB) IncidentsRepository {
	return &incidentsRepository{docs: newPGDocuments[domain.Incident](db, "incidents")}
}

// NewMemoryIncidentsRepository keeps incidents in memory when the DB is disabled.
func NewMemoryIncidentsRepository() IncidentsRepository {
	return &incidentsRepository{docs: newMemDocuments[domain.Incident]()}
}

func (r *incidentsRepository) CreateIncident(ctx context.Context, incident *domain.Incident) error {
	return r.docs.create(ctx, incident, incident.CreatedAt)
}

func (r *incidentsRepository) GetIncident(ctx context.Context, incidentID string) (*domain.Incident, error) {
	return r.docs.get(ctx, incidentID)
}

func (r *incidentsRepository) ListIncidents(ctx context.Context, filters IncidentFilters) ([]*domain.Incident, error) {
	return r.docs.list(ctx, filters.fields())
}

func (r *incidentsRepository) SaveIncident(ctx context.Context, incident *domain.Incident, at time.Time) error {
	return r.docs.save(ctx, incident, at)
}

func (r *incidentsRepository) DeleteIncident(ctx context.Context, incidentID string) error {
	return r.docs.delete(ctx, incidentID)
}

func (r *incidentsRepository) AppendEscalation(ctx context.Context, incidentID string, escalation domain.Escalation, at time.Time) error {
	return r.docs.appendTo(ctx, incidentID, []string{"escalationHistory"}, escalation, at)
}
