package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
)

// MachinesRepository persists machines. Machines are never deleted.
type MachinesRepository interface {
	CreateMachine(ctx context.Context, machine *domain.Machine) error
	GetMachine(ctx context.Context, machineID string) (*domain.Machine, error)
	ListMachines(ctx context.Context, filters MachineFilters) ([]*domain.Machine, error)
	SaveMachine(ctx context.Context, machine *domain.Machine, at time.Time) error
	AppendMaintenanceRecord(ctx context.Context, machineID string, record domain.MaintenanceRecord, at time.Time) error
	AppendPredictiveAlert(ctx context.Context, machineID string, alert domain.PredictiveAlert, at time.Time) error
	AppendCalendarTask(ctx context.Context, machineID string, task domain.CalendarTask, at time.Time) error
}

// MachineFilters narrows ListMachines.
type MachineFilters struct {
	CurrentStatus string
	MachineType   string
}

func (f MachineFilters) fields() []fieldFilter {
	var out []fieldFilter
	out = appendFilter(out, "currentStatus", f.CurrentStatus)
	out = appendFilter(out, "machineType", f.MachineType)
	return out
}

type machinesRepository struct {
	docs documentStore[*domain.Machine]
}

func NewPostgresMachinesRepository(db *sql.DB) MachinesRepository {
	return &machinesRepository{docs: newPGDocuments[domain.Machine](db, "machines")}
}

func NewMemoryMachinesRepository() MachinesRepository {
	return &machinesRepository{docs: newMemDocuments[domain.Machine]()}
}

func (r *machinesRepository) CreateMachine(ctx context.Context, machine *domain.Machine) error {
	return r.docs.create(ctx, machine, machine.CreatedAt)
}

func (r *machinesRepository) GetMachine(ctx context.Context, machineID string) (*domain.Machine, error) {
	return r.docs.get(ctx, machineID)
}

func (r *machinesRepository) ListMachines(ctx context.Context, filters MachineFilters) ([]*domain.Machine, error) {
	return r.docs.list(ctx, filters.fields())
}

func (r *machinesRepository) SaveMachine(ctx context.Context, machine *domain.Machine, at time.Time) error {
	return r.docs.save(ctx, machine, at)
}

func (r *machinesRepository) AppendMaintenanceRecord(ctx context.Context, machineID string, record domain.MaintenanceRecord, at time.Time) error {
	return r.docs.appendTo(ctx, machineID, []string{"maintenanceHistory"}, record, at)
}

func (r *machinesRepository) AppendPredictiveAlert(ctx context.Context, machineID string, alert domain.PredictiveAlert, at time.Time) error {
	return r.docs.appendTo(ctx, machineID, []string{"predictiveAlerts"}, alert, at)
}

func (r *machinesRepository) AppendCalendarTask(ctx context.Context, machineID string, task domain.CalendarTask, at time.Time) error {
	return r.docs.appendTo(ctx, machineID, []string{"maintenanceCalendar"}, task, at)
}
