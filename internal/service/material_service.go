package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/repository"

	"go.uber.org/zap"
)

// MaterialService tracks material flow through the plant.
type MaterialService interface {
	CreateMaterial(ctx context.Context, actor domain.Actor, req CreateMaterialRequest) (*domain.MaterialFlow, error)
	ListMaterials(ctx context.Context, req ListMaterialsRequest) ([]*domain.MaterialFlow, error)
	GetMaterial(ctx context.Context, materialID string) (*domain.MaterialFlow, error)
	UpdateMaterial(ctx context.Context, actor domain.Actor, materialID string, req UpdateMaterialRequest) (*domain.MaterialFlow, error)
	DeleteMaterial(ctx context.Context, actor domain.Actor, materialID string) error
	MoveMaterial(ctx context.Context, actor domain.Actor, materialID string, req MoveMaterialRequest) (*domain.MaterialFlow, error)
	RaiseAlert(ctx context.Context, actor domain.Actor, materialID string, req RaiseMaterialAlertRequest) (*domain.MaterialAlert, error)
	ResolveAlert(ctx context.Context, actor domain.Actor, materialID, alertID string) (*domain.MaterialAlert, error)
}

type materialService struct {
	lifecycle
	repo repository.MaterialsRepository
}

// NewMaterialService creates a MaterialService.
func NewMaterialService(repo repository.MaterialsRepository, deps Deps) MaterialService {
	return &materialService{
		lifecycle: newLifecycle(domain.KindMaterial, deps),
		repo:      repo,
	}
}

// ============================================
// Request DTOs
// ============================================

// CreateMaterialRequest registers a material. It starts in storage with a
// pending quality check.
type CreateMaterialRequest struct {
	MaterialType     domain.MaterialType           `json:"materialType"`
	Name             string                        `json:"name"`
	Description      string                        `json:"description,omitempty"`
	Quantity         domain.Quantity               `json:"quantity"`
	CurrentLocation  domain.Location               `json:"currentLocation"`
	Destination      *domain.Location              `json:"destination,omitempty"`
	Priority         domain.Priority               `json:"priority,omitempty"`
	AssignedTo       string                        `json:"assignedTo,omitempty"`
	Specifications   domain.MaterialSpecifications `json:"specifications"`
	ExpectedDelivery *time.Time                    `json:"expectedDelivery,omitempty"`
}

// ListMaterialsRequest filters the material list.
type ListMaterialsRequest struct {
	Status       string
	MaterialType string
	Priority     string
}

// UpdateMaterialRequest carries optional changes. Location changes go through MoveMaterial.
type UpdateMaterialRequest struct {
	Name             *string                        `json:"name,omitempty"`
	Description      *string                        `json:"description,omitempty"`
	Quantity         *domain.Quantity               `json:"quantity,omitempty"`
	Destination      *domain.Location               `json:"destination,omitempty"`
	Status           *domain.MaterialStatus         `json:"status,omitempty"`
	Priority         *domain.Priority               `json:"priority,omitempty"`
	AssignedTo       *string                        `json:"assignedTo,omitempty"`
	QualityStatus    *domain.QualityStatus          `json:"qualityStatus,omitempty"`
	Specifications   *domain.MaterialSpecifications `json:"specifications,omitempty"`
	ExpectedDelivery *time.Time                     `json:"expectedDelivery,omitempty"`
	ActualDelivery   *time.Time                     `json:"actualDelivery,omitempty"`
}

// MoveMaterialRequest relocates a material and optionally changes its status.
type MoveMaterialRequest struct {
	ToLocation domain.Location        `json:"toLocation"`
	Reason     string                 `json:"reason,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
	Status     *domain.MaterialStatus `json:"status,omitempty"`
}

// RaiseMaterialAlertRequest appends an alert to a material.
type RaiseMaterialAlertRequest struct {
	Type     domain.MaterialAlertType `json:"type"`
	Message  string                   `json:"message"`
	Severity domain.Severity          `json:"severity"`
}

// ============================================
// Operations
// ============================================

func (s *materialService) CreateMaterial(ctx context.Context, actor domain.Actor, req CreateMaterialRequest) (*domain.MaterialFlow, error) {
	now := s.now()
	material := &domain.MaterialFlow{
		MaterialType:     req.MaterialType,
		Name:             req.Name,
		Description:      req.Description,
		Quantity:         req.Quantity,
		CurrentLocation:  req.CurrentLocation,
		Destination:      req.Destination,
		Status:           domain.MaterialInStorage,
		Priority:         orDefault(req.Priority, domain.PriorityMedium),
		AssignedTo:       req.AssignedTo,
		MovementHistory:  []domain.MovementRecord{},
		QualityStatus:    domain.QualityStatus{Status: "pending"},
		Specifications:   req.Specifications,
		Alerts:           []domain.MaterialAlert{},
		ExpectedDelivery: req.ExpectedDelivery,
		CreatedBy:        actor.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := material.Validate(); err != nil {
		return nil, err
	}

	id, err := s.createWithRetry(ctx, domain.PrefixMaterial, func(ctx context.Context, id string) error {
		material.MaterialID = id
		return s.repo.CreateMaterial(ctx, material)
	})
	if err != nil {
		return nil, s.storeError("create", material.MaterialID, err)
	}

	s.logger.Info("Material added",
		zap.String("material_id", id),
		zap.String("material_type", string(material.MaterialType)),
		zap.String("created_by", actor.UserID),
	)
	s.publish(ctx, "created", id, actor, material)
	return material, nil
}

func (s *materialService) ListMaterials(ctx context.Context, req ListMaterialsRequest) ([]*domain.MaterialFlow, error) {
	items, err := s.repo.ListMaterials(ctx, repository.MaterialFilters{
		Status:       req.Status,
		MaterialType: req.MaterialType,
		Priority:     req.Priority,
	})
	if err != nil {
		return nil, s.storeError("list", "", fmt.Errorf("failed to list materials: %w", err))
	}
	return items, nil
}

func (s *materialService) GetMaterial(ctx context.Context, materialID string) (*domain.MaterialFlow, error) {
	material, err := s.repo.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, s.storeError("get", materialID, err)
	}
	return material, nil
}

func (s *materialService) UpdateMaterial(ctx context.Context, actor domain.Actor, materialID string, req UpdateMaterialRequest) (*domain.MaterialFlow, error) {
	material, err := updateWithRetry(ctx, &s.lifecycle,
		func(ctx context.Context) (*domain.MaterialFlow, error) { return s.repo.GetMaterial(ctx, materialID) },
		func(m *domain.MaterialFlow) error {
			if req.Name != nil {
				m.Name = *req.Name
			}
			if req.Description != nil {
				m.Description = *req.Description
			}
			if req.Quantity != nil {
				m.Quantity = *req.Quantity
			}
			if req.Destination != nil {
				m.Destination = req.Destination
			}
			if req.Status != nil {
				m.Status = *req.Status
			}
			if req.Priority != nil {
				m.Priority = *req.Priority
			}
			if req.AssignedTo != nil {
				m.AssignedTo = *req.AssignedTo
			}
			if req.QualityStatus != nil {
				m.QualityStatus = *req.QualityStatus
			}
			if req.Specifications != nil {
				m.Specifications = *req.Specifications
			}
			if req.ExpectedDelivery != nil {
				m.ExpectedDelivery = req.ExpectedDelivery
			}
			if req.ActualDelivery != nil {
				m.ActualDelivery = req.ActualDelivery
			}
			m.UpdatedAt = s.now()
			return m.Validate()
		},
		func(ctx context.Context, m *domain.MaterialFlow) error { return s.repo.SaveMaterial(ctx, m, m.UpdatedAt) },
	)
	if err != nil {
		return nil, s.storeError("update", materialID, err)
	}

	s.logger.Info("Material updated",
		zap.String("material_id", materialID),
		zap.String("status", string(material.Status)),
		zap.String("updated_by", actor.UserID),
	)
	s.publish(ctx, "updated", materialID, actor, req)
	return material, nil
}

func (s *materialService) DeleteMaterial(ctx context.Context, actor domain.Actor, materialID string) error {
	if err := s.repo.DeleteMaterial(ctx, materialID); err != nil {
		return s.storeError("delete", materialID, err)
	}
	s.logger.Info("Material removed", zap.String("material_id", materialID), zap.String("deleted_by", actor.UserID))
	s.publish(ctx, "deleted", materialID, actor, nil)
	return nil
}

// MoveMaterial shifts currentLocation to previousLocation, installs the target
// and appends a movement record in one versioned save.
func (s *materialService) MoveMaterial(ctx context.Context, actor domain.Actor, materialID string, req MoveMaterialRequest) (*domain.MaterialFlow, error) {
	if req.ToLocation.Area == "" {
		return nil, domain.NewValidationError("toLocation.area", "is required")
	}
	movementID, err := s.newID(domain.PrefixMovement)
	if err != nil {
		return nil, err
	}

	material, err := updateWithRetry(ctx, &s.lifecycle,
		func(ctx context.Context) (*domain.MaterialFlow, error) { return s.repo.GetMaterial(ctx, materialID) },
		func(m *domain.MaterialFlow) error {
			now := s.now()
			from := m.CurrentLocation
			m.PreviousLocation = &from
			m.CurrentLocation = req.ToLocation
			if req.Status != nil {
				m.Status = *req.Status
			}
			m.MovementHistory = append(m.MovementHistory, domain.MovementRecord{
				MovementID:   movementID,
				FromLocation: from,
				ToLocation:   req.ToLocation,
				MovedBy:      actor.UserID,
				MovedAt:      now,
				Reason:       req.Reason,
				Notes:        req.Notes,
			})
			m.UpdatedAt = now
			return m.Validate()
		},
		func(ctx context.Context, m *domain.MaterialFlow) error { return s.repo.SaveMaterial(ctx, m, m.UpdatedAt) },
	)
	if err != nil {
		return nil, s.storeError("move", materialID, err)
	}

	s.logger.Info("Material moved",
		zap.String("material_id", materialID),
		zap.String("movement_id", movementID),
		zap.String("to_area", req.ToLocation.Area),
		zap.String("moved_by", actor.UserID),
	)
	s.publish(ctx, "moved", materialID, actor, material.MovementHistory[len(material.MovementHistory)-1])
	return material, nil
}

func (s *materialService) RaiseAlert(ctx context.Context, actor domain.Actor, materialID string, req RaiseMaterialAlertRequest) (*domain.MaterialAlert, error) {
	now := s.now()
	id, err := s.newID(domain.PrefixAlert)
	if err != nil {
		return nil, err
	}
	alert := domain.MaterialAlert{
		AlertID:   id,
		Type:      req.Type,
		Message:   req.Message,
		Severity:  req.Severity,
		CreatedAt: now,
	}
	if err := alert.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.AppendMaterialAlert(ctx, materialID, alert, now); err != nil {
		return nil, s.storeError("raise_alert", materialID, err)
	}

	s.logger.Info("Material alert raised",
		zap.String("material_id", materialID),
		zap.String("alert_id", id),
		zap.String("type", string(alert.Type)),
	)
	s.publish(ctx, "alert_raised", materialID, actor, alert)
	return &alert, nil
}

// ResolveAlert records the resolver. Resolving twice keeps the first resolution.
func (s *materialService) ResolveAlert(ctx context.Context, actor domain.Actor, materialID, alertID string) (*domain.MaterialAlert, error) {
	var result domain.MaterialAlert
	_, err := updateWithRetry(ctx, &s.lifecycle,
		func(ctx context.Context) (*domain.MaterialFlow, error) { return s.repo.GetMaterial(ctx, materialID) },
		func(m *domain.MaterialFlow) error {
			idx := m.FindAlert(alertID)
			if idx < 0 {
				return fmt.Errorf("%w: alert %s on material %s", domain.ErrNotFound, alertID, materialID)
			}
			now := s.now()
			if a := &m.Alerts[idx]; a.ResolvedAt == nil {
				a.ResolvedAt = &now
				a.ResolvedBy = actor.UserID
			}
			m.UpdatedAt = now
			result = m.Alerts[idx]
			return nil
		},
		func(ctx context.Context, m *domain.MaterialFlow) error { return s.repo.SaveMaterial(ctx, m, m.UpdatedAt) },
	)
	if err != nil {
		return nil, s.storeError("resolve_alert", materialID, err)
	}

	s.logger.Info("Material alert resolved",
		zap.String("material_id", materialID),
		zap.String("alert_id", alertID),
		zap.String("resolved_by", result.ResolvedBy),
	)
	s.publish(ctx, "alert_resolved", materialID, actor, result)
	return &result, nil
}
