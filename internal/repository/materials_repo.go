package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
)

// MaterialsRepository persists material flows.
type MaterialsRepository interface {
	CreateMaterial(ctx context.Context, material *domain.MaterialFlow) error
	GetMaterial(ctx context.Context, materialID string) (*domain.MaterialFlow, error)
	ListMaterials(ctx context.Context, filters MaterialFilters) ([]*domain.MaterialFlow, error)
	SaveMaterial(ctx context.Context, material *domain.MaterialFlow, at time.Time) error
	DeleteMaterial(ctx context.Context, materialID string) error
	AppendMaterialAlert(ctx context.Context, materialID string, alert domain.MaterialAlert, at time.Time) error
}

// MaterialFilters narrows ListMaterials.
type MaterialFilters struct {
	Status       string
	MaterialType string
	Priority     string
}

func (f MaterialFilters) fields() []fieldFilter {
	var out []fieldFilter
	out = appendFilter(out, "status", f.Status)
	out = appendFilter(out, "materialType", f.MaterialType)
	out = appendFilter(out, "priority", f.Priority)
	return out
}

type materialsRepository struct {
	docs documentStore[*domain.MaterialFlow]
}

func NewPostgresMaterialsRepository(db *sql.DB) MaterialsRepository {
	return &materialsRepository{docs: newPGDocuments[domain.MaterialFlow](db, "materials")}
}

func NewMemoryMaterialsRepository() MaterialsRepository {
	return &materialsRepository{docs: newMemDocuments[domain.MaterialFlow]()}
}

func (r *materialsRepository) CreateMaterial(ctx context.Context, material *domain.MaterialFlow) error {
	return r.docs.create(ctx, material, material.CreatedAt)
}

func (r *materialsRepository) GetMaterial(ctx context.Context, materialID string) (*domain.MaterialFlow, error) {
	return r.docs.get(ctx, materialID)
}

func (r *materialsRepository) ListMaterials(ctx context.Context, filters MaterialFilters) ([]*domain.MaterialFlow, error) {
	return r.docs.list(ctx, filters.fields())
}

func (r *materialsRepository) SaveMaterial(ctx context.Context, material *domain.MaterialFlow, at time.Time) error {
	return r.docs.save(ctx, material, at)
}

func (r *materialsRepository) DeleteMaterial(ctx context.Context, materialID string) error {
	return r.docs.delete(ctx, materialID)
}

func (r *materialsRepository) AppendMaterialAlert(ctx context.Context, materialID string, alert domain.MaterialAlert, at time.Time) error {
	return r.docs.appendTo(ctx, materialID, []string{"alerts"}, alert, at)
}
