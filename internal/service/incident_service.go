package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/repository"

	"go.uber.org/zap"
)

// IncidentService manages the safety incident lifecycle.
type IncidentService interface {
	ReportIncident(ctx context.Context, actor domain.Actor, req ReportIncidentRequest) (*domain.Incident, error)
	ListIncidents(ctx context.Context, req ListIncidentsRequest) ([]*domain.Incident, error)
	GetIncident(ctx context.Context, incidentID string) (*domain.Incident, error)
	UpdateIncident(ctx context.Context, actor domain.Actor, incidentID string, req UpdateIncidentRequest) (*domain.Incident, error)
	DeleteIncident(ctx context.Context, actor domain.Actor, incidentID string) error
	EscalateIncident(ctx context.Context, actor domain.Actor, incidentID string, req EscalateIncidentRequest) (*domain.Escalation, error)
	AnalyzeIncident(ctx context.Context, actor domain.Actor, incidentID string) (*domain.Incident, error)
}

type incidentService struct {
	lifecycle
	repo       repository.IncidentsRepository
	classifier Classifier
}

// NewIncidentService creates an IncidentService.
func NewIncidentService(repo repository.IncidentsRepository, deps Deps) IncidentService {
	return &incidentService{
		lifecycle:  newLifecycle(domain.KindIncident, deps),
		repo:       repo,
		classifier: deps.Classifier,
	}
}

// ============================================
// Request DTOs
// ============================================

// ReportIncidentRequest is the payload of a new report. The reporter is the actor.
type ReportIncidentRequest struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Severity    domain.Severity         `json:"severity"`
	Category    domain.IncidentCategory `json:"category"`
	Location    domain.Location         `json:"location"`
	Priority    domain.Priority         `json:"priority,omitempty"`
	Photos      []domain.Attachment     `json:"photos,omitempty"`
	AudioNote   *domain.AudioNote       `json:"audioNote,omitempty"`
}

// ListIncidentsRequest filters the incident list.
type ListIncidentsRequest struct {
	Status     string
	Severity   string
	Category   string
	ReportedBy string
}

// UpdateIncidentRequest carries optional changes. Nil fields are left unchanged.
// Severity and category are fixed at report time.
type UpdateIncidentRequest struct {
	Status           *domain.IncidentStatus   `json:"status,omitempty"`
	Priority         *domain.Priority         `json:"priority,omitempty"`
	AssignedTo       *string                  `json:"assignedTo,omitempty"`
	AIAnalysis       *domain.IncidentAnalysis `json:"aiAnalysis,omitempty"`
	Resolution       *domain.Resolution       `json:"resolution,omitempty"`
	FollowUpRequired *bool                    `json:"followUpRequired,omitempty"`
	FollowUpDate     *time.Time               `json:"followUpDate,omitempty"`
}

// EscalateIncidentRequest hands an incident to another user. It does not change status.
type EscalateIncidentRequest struct {
	EscalatedTo string `json:"escalatedTo"`
	Reason      string `json:"reason,omitempty"`
}

// ============================================
// Operations
// ============================================

// ReportIncident creates an incident in status reported.
func (s *incidentService) ReportIncident(ctx context.Context, actor domain.Actor, req ReportIncidentRequest) (*domain.Incident, error) {
	now := s.now()
	incident := &domain.Incident{
		ReportedBy:        actor.UserID,
		Title:             req.Title,
		Description:       req.Description,
		Severity:          req.Severity,
		Category:          req.Category,
		Location:          req.Location,
		Photos:            nonNil(req.Photos),
		AudioNote:         req.AudioNote,
		Status:            domain.IncidentReported,
		Priority:          orDefault(req.Priority, domain.PriorityMedium),
		EscalationHistory: []domain.Escalation{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for i := range incident.Photos {
		if incident.Photos[i].UploadedAt.IsZero() {
			incident.Photos[i].UploadedAt = now
		}
	}
	if incident.AudioNote != nil && incident.AudioNote.UploadedAt.IsZero() {
		incident.AudioNote.UploadedAt = now
	}
	if err := incident.Validate(); err != nil {
		return nil, err
	}

	id, err := s.createWithRetry(ctx, domain.PrefixIncident, func(ctx context.Context, id string) error {
		incident.IncidentID = id
		return s.repo.CreateIncident(ctx, incident)
	})
	if err != nil {
		return nil, s.storeError("create", incident.IncidentID, err)
	}

	s.logger.Info("Incident reported",
		zap.String("incident_id", id),
		zap.String("severity", string(incident.Severity)),
		zap.String("reported_by", actor.UserID),
	)
	s.publish(ctx, "reported", id, actor, incident)
	return incident, nil
}

func (s *incidentService) ListIncidents(ctx context.Context, req ListIncidentsRequest) ([]*domain.Incident, error) {
	items, err := s.repo.ListIncidents(ctx, repository.IncidentFilters{
		Status:     req.Status,
		Severity:   req.Severity,
		Category:   req.Category,
		ReportedBy: req.ReportedBy,
	})
	if err != nil {
		return nil, s.storeError("list", "", fmt.Errorf("failed to list incidents: %w", err))
	}
	return items, nil
}

func (s *incidentService) GetIncident(ctx context.Context, incidentID string) (*domain.Incident, error) {
	incident, err := s.repo.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, s.storeError("get", incidentID, err)
	}
	return incident, nil
}

// UpdateIncident applies present fields, validates the result and saves it as a whole.
// Any status may replace any other.
func (s *incidentService) UpdateIncident(ctx context.Context, actor domain.Actor, incidentID string, req UpdateIncidentRequest) (*domain.Incident, error) {
	incident, err := updateWithRetry(ctx, &s.lifecycle,
		func(ctx context.Context) (*domain.Incident, error) { return s.repo.GetIncident(ctx, incidentID) },
		func(inc *domain.Incident) error {
			if req.Status != nil {
				inc.Status = *req.Status
			}
			if req.Priority != nil {
				inc.Priority = *req.Priority
			}
			if req.AssignedTo != nil {
				inc.AssignedTo = *req.AssignedTo
			}
			if req.AIAnalysis != nil {
				inc.AIAnalysis = req.AIAnalysis
			}
			if req.Resolution != nil {
				inc.Resolution = req.Resolution
			}
			if req.FollowUpRequired != nil {
				inc.FollowUpRequired = *req.FollowUpRequired
			}
			if req.FollowUpDate != nil {
				inc.FollowUpDate = req.FollowUpDate
			}
			inc.UpdatedAt = s.now()
			return inc.Validate()
		},
		func(ctx context.Context, inc *domain.Incident) error { return s.repo.SaveIncident(ctx, inc, inc.UpdatedAt) },
	)
	if err != nil {
		return nil, s.storeError("update", incidentID, err)
	}

	s.logger.Info("Incident updated",
		zap.String("incident_id", incidentID),
		zap.String("status", string(incident.Status)),
		zap.String("updated_by", actor.UserID),
	)
	s.publish(ctx, "updated", incidentID, actor, req)
	return incident, nil
}

func (s *incidentService) DeleteIncident(ctx context.Context, actor domain.Actor, incidentID string) error {
	if err := s.repo.DeleteIncident(ctx, incidentID); err != nil {
		return s.storeError("delete", incidentID, err)
	}
	s.logger.Info("Incident deleted", zap.String("incident_id", incidentID), zap.String("deleted_by", actor.UserID))
	s.publish(ctx, "deleted", incidentID, actor, nil)
	return nil
}

// EscalateIncident appends to the escalation history. The caller sets
// status to escalated separately if wanted.
func (s *incidentService) EscalateIncident(ctx context.Context, actor domain.Actor, incidentID string, req EscalateIncidentRequest) (*domain.Escalation, error) {
	now := s.now()
	escalation := domain.Escalation{
		EscalatedTo: req.EscalatedTo,
		EscalatedBy: actor.UserID,
		EscalatedAt: now,
		Reason:      req.Reason,
	}
	if err := escalation.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.AppendEscalation(ctx, incidentID, escalation, now); err != nil {
		return nil, s.storeError("escalate", incidentID, err)
	}

	s.logger.Info("Incident escalated",
		zap.String("incident_id", incidentID),
		zap.String("escalated_to", req.EscalatedTo),
		zap.String("escalated_by", actor.UserID),
	)
	s.publish(ctx, "escalated", incidentID, actor, escalation)
	return &escalation, nil
}

// AnalyzeIncident asks the external classifier for a risk assessment and stores it.
func (s *incidentService) AnalyzeIncident(ctx context.Context, actor domain.Actor, incidentID string) (*domain.Incident, error) {
	if s.classifier == nil {
		return nil, fmt.Errorf("%w: classifier is not configured", domain.ErrUnavailable)
	}
	current, err := s.repo.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, s.storeError("get", incidentID, err)
	}
	analysis, err := s.classifier.AnalyzeIncident(ctx, current)
	if err != nil {
		s.logger.Warn("Incident analysis failed", zap.String("incident_id", incidentID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	incident, err := updateWithRetry(ctx, &s.lifecycle,
		func(ctx context.Context) (*domain.Incident, error) { return s.repo.GetIncident(ctx, incidentID) },
		func(inc *domain.Incident) error {
			inc.AIAnalysis = analysis
			inc.UpdatedAt = s.now()
			return inc.Validate()
		},
		func(ctx context.Context, inc *domain.Incident) error { return s.repo.SaveIncident(ctx, inc, inc.UpdatedAt) },
	)
	if err != nil {
		return nil, s.storeError("analyze", incidentID, err)
	}
	s.logger.Info("Incident analyzed",
		zap.String("incident_id", incidentID),
		zap.String("risk_level", string(analysis.RiskLevel)),
	)
	s.publish(ctx, "analyzed", incidentID, actor, analysis)
	return incident, nil
}
