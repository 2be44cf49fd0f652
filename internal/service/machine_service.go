package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/evaluator"
	"github.com/SaloniGupta6/Steel-Guardian/internal/metrics"
	"github.com/SaloniGupta6/Steel-Guardian/internal/repository"

	"go.uber.org/zap"
)

// MachineService manages machines, their sensors, maintenance log, predictive
// alerts and maintenance calendar.
type MachineService interface {
	CreateMachine(ctx context.Context, actor domain.Actor, req CreateMachineRequest) (*domain.Machine, error)
	ListMachines(ctx context.Context, req ListMachinesRequest) ([]*domain.Machine, error)
	GetMachine(ctx context.Context, machineID string) (*domain.Machine, error)
	UpdateMachine(ctx context.Context, actor domain.Actor, machineID string, req UpdateMachineRequest) (*domain.Machine, error)
	AddMaintenanceRecord(ctx context.Context, actor domain.Actor, machineID string, req AddMaintenanceRecordRequest) (*domain.MaintenanceRecord, error)
	UpdateSensors(ctx context.Context, actor domain.Actor, machineID string, readings []SensorReading) ([]domain.Sensor, error)
	RaiseAlert(ctx context.Context, actor domain.Actor, machineID string, req RaisePredictiveAlertRequest) (*domain.PredictiveAlert, error)
	AcknowledgeAlert(ctx context.Context, actor domain.Actor, machineID, alertID string) (*domain.PredictiveAlert, error)
	ResolveAlert(ctx context.Context, actor domain.Actor, machineID, alertID string) (*domain.PredictiveAlert, error)
	GetCalendar(ctx context.Context) ([]CalendarEntry, error)
	AddCalendarTask(ctx context.Context, actor domain.Actor, machineID string, req CalendarTaskInput) (*domain.CalendarTask, error)
}

type machineService struct {
	lifecycle
	repo repository.MachinesRepository
}

// NewMachineService creates a MachineService.
func NewMachineService(repo repository.MachinesRepository, deps Deps) MachineService {
	return &machineService{
		lifecycle: newLifecycle(domain.KindMachine, deps),
		repo:      repo,
	}
}

// ============================================
// Request DTOs
// ============================================

// SensorInput declares a sensor when a machine is created.
type SensorInput struct {
	SensorType     domain.SensorType `json:"sensorType"`
	CurrentValue   *float64          `json:"currentValue,omitempty"`
	Unit           string            `json:"unit,omitempty"`
	NormalRange    domain.Range      `json:"normalRange"`
	AlertThreshold domain.Range      `json:"alertThreshold"`
}

// CalendarTaskInput defines a maintenance calendar task.
// IsActive defaults to true, Status to pending and Priority to medium.
type CalendarTaskInput struct {
	TaskName          string            `json:"taskName"`
	TaskType          domain.TaskType   `json:"taskType"`
	NextDueDate       *time.Time        `json:"nextDueDate,omitempty"`
	LastCompletedDate *time.Time        `json:"lastCompletedDate,omitempty"`
	AssignedTo        string            `json:"assignedTo,omitempty"`
	Priority          domain.Priority   `json:"priority,omitempty"`
	EstimatedDuration int               `json:"estimatedDuration,omitempty"`
	Instructions      string            `json:"instructions,omitempty"`
	IsActive          *bool             `json:"isActive,omitempty"`
	Status            domain.TaskStatus `json:"status,omitempty"`
}

// CreateMachineRequest registers a machine. The creator is the actor.
type CreateMachineRequest struct {
	MachineName         string                     `json:"machineName"`
	MachineType         domain.MachineType         `json:"machineType"`
	Location            domain.Location            `json:"location"`
	HealthScore         *float64                   `json:"healthScore,omitempty"`
	Specifications      domain.Specifications      `json:"specifications"`
	PerformanceMetrics  *domain.PerformanceMetrics `json:"performanceMetrics,omitempty"`
	Sensors             []SensorInput              `json:"sensors,omitempty"`
	MaintenanceCalendar []CalendarTaskInput        `json:"maintenanceCalendar,omitempty"`
}

// ListMachinesRequest filters the machine list.
type ListMachinesRequest struct {
	CurrentStatus string
	MachineType   string
}

// UpdateMachineRequest carries optional changes. Sensors, when present,
// replaces the sensor set; sensors whose value changed are reclassified.
type UpdateMachineRequest struct {
	MachineName        *string                    `json:"machineName,omitempty"`
	MachineType        *domain.MachineType        `json:"machineType,omitempty"`
	Location           *domain.Location           `json:"location,omitempty"`
	CurrentStatus      *domain.MachineStatus      `json:"currentStatus,omitempty"`
	HealthScore        *float64                   `json:"healthScore,omitempty"`
	Sensors            []domain.Sensor            `json:"sensors,omitempty"`
	Specifications     *domain.Specifications     `json:"specifications,omitempty"`
	PerformanceMetrics *domain.PerformanceMetrics `json:"performanceMetrics,omitempty"`
}

// AddMaintenanceRecordRequest is a maintenance log entry. The performer is the actor.
type AddMaintenanceRecordRequest struct {
	Type          domain.MaintenanceType   `json:"type"`
	Description   string                   `json:"description,omitempty"`
	ScheduledDate *time.Time               `json:"scheduledDate,omitempty"`
	ActualDate    *time.Time               `json:"actualDate,omitempty"`
	Duration      int                      `json:"duration,omitempty"`
	Cost          float64                  `json:"cost,omitempty"`
	PartsReplaced []domain.ReplacedPart    `json:"partsReplaced,omitempty"`
	Notes         string                   `json:"notes,omitempty"`
	Photos        []string                 `json:"photos,omitempty"`
	Status        domain.MaintenanceStatus `json:"status,omitempty"`
}

// SensorReading is one new value for the sensor of the given type. Ranges,
// when present, replace the stored ones before classification.
type SensorReading struct {
	SensorType     domain.SensorType `json:"sensorType"`
	CurrentValue   *float64          `json:"currentValue"`
	NormalRange    *domain.Range     `json:"normalRange,omitempty"`
	AlertThreshold *domain.Range     `json:"alertThreshold,omitempty"`
}

// RaisePredictiveAlertRequest appends a predictive alert.
type RaisePredictiveAlertRequest struct {
	AlertType            domain.AlertType `json:"alertType"`
	Severity             domain.Severity  `json:"severity"`
	Message              string           `json:"message,omitempty"`
	RecommendedAction    string           `json:"recommendedAction,omitempty"`
	PredictedFailureDate *time.Time       `json:"predictedFailureDate,omitempty"`
	Confidence           float64          `json:"confidence"`
}

// CalendarEntry is an active calendar task with its machine.
type CalendarEntry struct {
	MachineID   string `json:"machineId"`
	MachineName string `json:"machineName"`
	domain.CalendarTask
}

// ============================================
// Operations
// ============================================

// CreateMachine registers a machine in status operational.
func (s *machineService) CreateMachine(ctx context.Context, actor domain.Actor, req CreateMachineRequest) (*domain.Machine, error) {
	now := s.now()
	machine := &domain.Machine{
		MachineName:         req.MachineName,
		MachineType:         req.MachineType,
		Location:            req.Location,
		CurrentStatus:       domain.MachineOperational,
		HealthScore:         100,
		Sensors:             make([]domain.Sensor, 0, len(req.Sensors)),
		MaintenanceHistory:  []domain.MaintenanceRecord{},
		PredictiveAlerts:    []domain.PredictiveAlert{},
		MaintenanceCalendar: make([]domain.CalendarTask, 0, len(req.MaintenanceCalendar)),
		Specifications:      req.Specifications,
		PerformanceMetrics:  domain.PerformanceMetrics{Availability: 100, Efficiency: 100},
		CreatedBy:           actor.UserID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if req.HealthScore != nil {
		machine.HealthScore = *req.HealthScore
	}
	if req.PerformanceMetrics != nil {
		machine.PerformanceMetrics = *req.PerformanceMetrics
	}
	for _, in := range req.Sensors {
		sensor := domain.Sensor{
			SensorType:     in.SensorType,
			CurrentValue:   in.CurrentValue,
			Unit:           in.Unit,
			NormalRange:    in.NormalRange,
			AlertThreshold: in.AlertThreshold,
			Status:         domain.SensorNormal,
		}
		if in.CurrentValue != nil {
			sensor.Status = evaluator.Classify(*in.CurrentValue, in.NormalRange, in.AlertThreshold)
			sensor.LastReadingAt = &now
		}
		machine.Sensors = append(machine.Sensors, sensor)
	}
	for _, in := range req.MaintenanceCalendar {
		task, err := s.buildTask(in)
		if err != nil {
			return nil, err
		}
		machine.MaintenanceCalendar = append(machine.MaintenanceCalendar, task)
	}
	if err := machine.Validate(); err != nil {
		return nil, err
	}

	id, err := s.createWithRetry(ctx, domain.PrefixMachine, func(ctx context.Context, id string) error {
		machine.MachineID = id
		return s.repo.CreateMachine(ctx, machine)
	})
	if err != nil {
		return nil, s.storeError("create", machine.MachineID, err)
	}

	s.logger.Info("Machine created",
		zap.String("machine_id", id),
		zap.String("machine_type", string(machine.MachineType)),
		zap.String("created_by", actor.UserID),
	)
	s.publish(ctx, "created", id, actor, machine)
	return machine, nil
}

func (s *machineService) ListMachines(ctx context.Context, req ListMachinesRequest) ([]*domain.Machine, error) {
	items, err := s.repo.ListMachines(ctx, repository.MachineFilters{
		CurrentStatus: req.CurrentStatus,
		MachineType:   req.MachineType,
	})
	if err != nil {
		return nil, s.storeError("list", "", fmt.Errorf("failed to list machines: %w", err))
	}
	return items, nil
}

func (s *machineService) GetMachine(ctx context.Context, machineID string) (*domain.Machine, error) {
	machine, err := s.repo.GetMachine(ctx, machineID)
	if err != nil {
		return nil, s.storeError("get", machineID, err)
	}
	return machine, nil
}

// UpdateMachine applies present fields, validates the result and saves it as a whole.
func (s *machineService) UpdateMachine(ctx context.Context, actor domain.Actor, machineID string, req UpdateMachineRequest) (*domain.Machine, error) {
	machine, err := updateWithRetry(ctx, &s.lifecycle,
		func(ctx context.Context) (*domain.Machine, error) { return s.repo.GetMachine(ctx, machineID) },
		func(m *domain.Machine) error {
			now := s.now()
			if req.MachineName != nil {
				m.MachineName = *req.MachineName
			}
			if req.MachineType != nil {
				m.MachineType = *req.MachineType
			}
			if req.Location != nil {
				m.Location = *req.Location
			}
			if req.CurrentStatus != nil {
				m.CurrentStatus = *req.CurrentStatus
			}
			if req.HealthScore != nil {
				m.HealthScore = *req.HealthScore
			}
			if req.Sensors != nil {
				m.Sensors = replaceSensors(m.Sensors, req.Sensors, now)
			}
			if req.Specifications != nil {
				m.Specifications = *req.Specifications
			}
			if req.PerformanceMetrics != nil {
				m.PerformanceMetrics = *req.PerformanceMetrics
			}
			m.UpdatedAt = now
			return m.Validate()
		},
		func(ctx context.Context, m *domain.Machine) error { return s.repo.SaveMachine(ctx, m, m.UpdatedAt) },
	)
	if err != nil {
		return nil, s.storeError("update", machineID, err)
	}

	s.logger.Info("Machine updated",
		zap.String("machine_id", machineID),
		zap.String("current_status", string(machine.CurrentStatus)),
		zap.String("updated_by", actor.UserID),
	)
	s.publish(ctx, "updated", machineID, actor, req)
	return machine, nil
}

// replaceSensors installs next. Status always comes from the evaluator; a
// client-supplied status is ignored. LastReadingAt moves only when the value changed.
func replaceSensors(prev, next []domain.Sensor, now time.Time) []domain.Sensor {
	old := make(map[domain.SensorType]domain.Sensor, len(prev))
	for _, s := range prev {
		old[s.SensorType] = s
	}
	out := make([]domain.Sensor, 0, len(next))
	for _, s := range next {
		if s.CurrentValue == nil {
			s.Status = domain.SensorNormal
			out = append(out, s)
			continue
		}
		s.Status = evaluator.Classify(*s.CurrentValue, s.NormalRange, s.AlertThreshold)
		before, ok := old[s.SensorType]
		if !ok || before.CurrentValue == nil || *before.CurrentValue != *s.CurrentValue {
			s.LastReadingAt = &now
			metrics.RecordSensorReading(string(s.Status))
		} else {
			s.LastReadingAt = before.LastReadingAt
		}
		out = append(out, s)
	}
	return out
}

// AddMaintenanceRecord appends a maintenance record with a fresh MAINT id.
func (s *machineService) AddMaintenanceRecord(ctx context.Context, actor domain.Actor, machineID string, req AddMaintenanceRecordRequest) (*domain.MaintenanceRecord, error) {
	now := s.now()
	id, err := s.newID(domain.PrefixMaintenance)
	if err != nil {
		return nil, err
	}
	record := domain.MaintenanceRecord{
		MaintenanceID: id,
		Type:          req.Type,
		Description:   req.Description,
		PerformedBy:   actor.UserID,
		ScheduledDate: req.ScheduledDate,
		ActualDate:    req.ActualDate,
		Duration:      req.Duration,
		Cost:          req.Cost,
		PartsReplaced: nonNil(req.PartsReplaced),
		Notes:         req.Notes,
		Photos:        nonNil(req.Photos),
		Status:        orDefault(req.Status, domain.MaintenanceScheduled),
		CreatedAt:     now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.AppendMaintenanceRecord(ctx, machineID, record, now); err != nil {
		return nil, s.storeError("append_maintenance", machineID, err)
	}

	s.logger.Info("Maintenance record added",
		zap.String("machine_id", machineID),
		zap.String("maintenance_id", id),
		zap.String("type", string(record.Type)),
		zap.String("performed_by", actor.UserID),
	)
	s.publish(ctx, "maintenance_recorded", machineID, actor, record)
	return &record, nil
}

// UpdateSensors records readings for sensors matched by type and reclassifies
// them. Readings for sensor types the machine does not have are ignored.
func (s *machineService) UpdateSensors(ctx context.Context, actor domain.Actor, machineID string, readings []SensorReading) ([]domain.Sensor, error) {
	var v []domain.FieldError
	for i, r := range readings {
		if !r.SensorType.Valid() {
			v = append(v, domain.FieldError{
				Field:  "sensorData[" + strconv.Itoa(i) + "].sensorType",
				Reason: "must be one of temperature, vibration, pressure, humidity, sound, current, voltage",
			})
		}
		if r.CurrentValue == nil {
			v = append(v, domain.FieldError{
				Field:  "sensorData[" + strconv.Itoa(i) + "].currentValue",
				Reason: "is required",
			})
		}
	}
	if len(v) > 0 {
		return nil, &domain.ValidationError{Fields: v}
	}

	var changed []domain.Sensor
	machine, err := updateWithRetry(ctx, &s.lifecycle,
		func(ctx context.Context) (*domain.Machine, error) { return s.repo.GetMachine(ctx, machineID) },
		func(m *domain.Machine) error {
			now := s.now()
			changed = changed[:0]
			for _, r := range readings {
				for i := range m.Sensors {
					sensor := &m.Sensors[i]
					if sensor.SensorType != r.SensorType {
						continue
					}
					if r.NormalRange != nil {
						sensor.NormalRange = *r.NormalRange
					}
					if r.AlertThreshold != nil {
						sensor.AlertThreshold = *r.AlertThreshold
					}
					value := *r.CurrentValue
					sensor.CurrentValue = &value
					sensor.LastReadingAt = &now
					sensor.Status = evaluator.Classify(value, sensor.NormalRange, sensor.AlertThreshold)
					changed = append(changed, *sensor)
				}
			}
			m.UpdatedAt = now
			return nil
		},
		func(ctx context.Context, m *domain.Machine) error { return s.repo.SaveMachine(ctx, m, m.UpdatedAt) },
	)
	if err != nil {
		return nil, s.storeError("update_sensors", machineID, err)
	}

	for _, c := range changed {
		metrics.RecordSensorReading(string(c.Status))
		if c.Status == domain.SensorCritical {
			s.logger.Warn("Sensor reading critical",
				zap.String("machine_id", machineID),
				zap.String("sensor_type", string(c.SensorType)),
				zap.Float64("value", *c.CurrentValue),
			)
		}
	}
	s.logger.Info("Sensor data updated",
		zap.String("machine_id", machineID),
		zap.Int("readings", len(readings)),
		zap.Int("matched", len(changed)),
		zap.String("updated_by", actor.UserID),
	)
	s.publish(ctx, "sensors_updated", machineID, actor, changed)
	return machine.Sensors, nil
}

// RaiseAlert appends an active predictive alert. Duplicates are allowed.
func (s *machineService) RaiseAlert(ctx context.Context, actor domain.Actor, machineID string, req RaisePredictiveAlertRequest) (*domain.PredictiveAlert, error) {
	now := s.now()
	id, err := s.newID(domain.PrefixAlert)
	if err != nil {
		return nil, err
	}
	alert := domain.PredictiveAlert{
		AlertID:              id,
		AlertType:            req.AlertType,
		Severity:             req.Severity,
		Message:              req.Message,
		RecommendedAction:    req.RecommendedAction,
		PredictedFailureDate: req.PredictedFailureDate,
		Confidence:           req.Confidence,
		CreatedAt:            now,
		IsActive:             true,
	}
	if err := alert.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.AppendPredictiveAlert(ctx, machineID, alert, now); err != nil {
		return nil, s.storeError("raise_alert", machineID, err)
	}

	s.logger.Info("Predictive alert raised",
		zap.String("machine_id", machineID),
		zap.String("alert_id", id),
		zap.String("severity", string(alert.Severity)),
	)
	s.publish(ctx, "alert_raised", machineID, actor, alert)
	return &alert, nil
}

// AcknowledgeAlert records who saw the alert. IsActive is unchanged.
func (s *machineService) AcknowledgeAlert(ctx context.Context, actor domain.Actor, machineID, alertID string) (*domain.PredictiveAlert, error) {
	return s.mutateAlert(ctx, actor, machineID, alertID, "alert_acknowledged", func(a *domain.PredictiveAlert, now time.Time) {
		a.AcknowledgedBy = actor.UserID
		a.AcknowledgedAt = &now
	})
}

// ResolveAlert stamps resolvedAt. IsActive is unchanged.
// Resolving twice keeps the first timestamp.
func (s *machineService) ResolveAlert(ctx context.Context, actor domain.Actor, machineID, alertID string) (*domain.PredictiveAlert, error) {
	return s.mutateAlert(ctx, actor, machineID, alertID, "alert_resolved", func(a *domain.PredictiveAlert, now time.Time) {
		if a.ResolvedAt == nil {
			a.ResolvedAt = &now
		}
	})
}

func (s *machineService) mutateAlert(ctx context.Context, actor domain.Actor, machineID, alertID, event string, fn func(a *domain.PredictiveAlert, now time.Time)) (*domain.PredictiveAlert, error) {
	var result domain.PredictiveAlert
	_, err := updateWithRetry(ctx, &s.lifecycle,
		func(ctx context.Context) (*domain.Machine, error) { return s.repo.GetMachine(ctx, machineID) },
		func(m *domain.Machine) error {
			idx := m.FindAlert(alertID)
			if idx < 0 {
				return fmt.Errorf("%w: alert %s on machine %s", domain.ErrNotFound, alertID, machineID)
			}
			now := s.now()
			fn(&m.PredictiveAlerts[idx], now)
			m.UpdatedAt = now
			result = m.PredictiveAlerts[idx]
			return nil
		},
		func(ctx context.Context, m *domain.Machine) error { return s.repo.SaveMachine(ctx, m, m.UpdatedAt) },
	)
	if err != nil {
		return nil, s.storeError(event, machineID, err)
	}

	s.logger.Info("Predictive alert changed",
		zap.String("machine_id", machineID),
		zap.String("alert_id", alertID),
		zap.String("event", event),
		zap.String("actor", actor.UserID),
	)
	s.publish(ctx, event, machineID, actor, result)
	return &result, nil
}

// GetCalendar flattens the active calendar tasks of all machines.
func (s *machineService) GetCalendar(ctx context.Context) ([]CalendarEntry, error) {
	machines, err := s.repo.ListMachines(ctx, repository.MachineFilters{})
	if err != nil {
		return nil, s.storeError("calendar", "", fmt.Errorf("failed to list machines: %w", err))
	}
	out := make([]CalendarEntry, 0)
	for _, m := range machines {
		for _, task := range m.MaintenanceCalendar {
			if !task.IsActive {
				continue
			}
			out = append(out, CalendarEntry{
				MachineID:    m.MachineID,
				MachineName:  m.MachineName,
				CalendarTask: task,
			})
		}
	}
	return out, nil
}

// AddCalendarTask appends a task with a fresh TASK id.
func (s *machineService) AddCalendarTask(ctx context.Context, actor domain.Actor, machineID string, req CalendarTaskInput) (*domain.CalendarTask, error) {
	task, err := s.buildTask(req)
	if err != nil {
		return nil, err
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.AppendCalendarTask(ctx, machineID, task, s.now()); err != nil {
		return nil, s.storeError("add_task", machineID, err)
	}

	s.logger.Info("Calendar task added",
		zap.String("machine_id", machineID),
		zap.String("task_id", task.TaskID),
		zap.String("task_type", string(task.TaskType)),
	)
	s.publish(ctx, "task_added", machineID, actor, task)
	return &task, nil
}

func (s *machineService) buildTask(in CalendarTaskInput) (domain.CalendarTask, error) {
	id, err := s.newID(domain.PrefixTask)
	if err != nil {
		return domain.CalendarTask{}, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return domain.CalendarTask{
		TaskID:            id,
		TaskName:          in.TaskName,
		TaskType:          in.TaskType,
		NextDueDate:       in.NextDueDate,
		LastCompletedDate: in.LastCompletedDate,
		AssignedTo:        in.AssignedTo,
		Priority:          orDefault(in.Priority, domain.PriorityMedium),
		EstimatedDuration: in.EstimatedDuration,
		Instructions:      in.Instructions,
		IsActive:          active,
		Status:            orDefault(in.Status, domain.TaskPending),
	}, nil
}
