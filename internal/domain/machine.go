package domain

import (
	"strconv"
	"time"
)

// MachineType is the equipment category.
type MachineType string

const (
	MachineFurnace    MachineType = "furnace"
	MachineConveyor   MachineType = "conveyor"
	MachineCrane      MachineType = "crane"
	MachinePress      MachineType = "press"
	MachineCutter     MachineType = "cutter"
	MachineCompressor MachineType = "compressor"
	MachinePump       MachineType = "pump"
	MachineGenerator  MachineType = "generator"
	MachineOther      MachineType = "other"
)

func (t MachineType) Valid() bool {
	return oneOf(t, MachineFurnace, MachineConveyor, MachineCrane, MachinePress, MachineCutter,
		MachineCompressor, MachinePump, MachineGenerator, MachineOther)
}

// MachineStatus is the operating state of a machine.
type MachineStatus string

const (
	MachineOperational          MachineStatus = "operational"
	MachineMaintenance          MachineStatus = "maintenance"
	MachineBreakdown            MachineStatus = "breakdown"
	MachineScheduledMaintenance MachineStatus = "scheduled_maintenance"
	MachineDecommissioned       MachineStatus = "decommissioned"
)

func (s MachineStatus) Valid() bool {
	return oneOf(s, MachineOperational, MachineMaintenance, MachineBreakdown,
		MachineScheduledMaintenance, MachineDecommissioned)
}

// SensorType names what a sensor measures.
type SensorType string

const (
	SensorTemperature SensorType = "temperature"
	SensorVibration   SensorType = "vibration"
	SensorPressure    SensorType = "pressure"
	SensorHumidity    SensorType = "humidity"
	SensorSound       SensorType = "sound"
	SensorCurrent     SensorType = "current"
	SensorVoltage     SensorType = "voltage"
)

func (t SensorType) Valid() bool {
	return oneOf(t, SensorTemperature, SensorVibration, SensorPressure, SensorHumidity,
		SensorSound, SensorCurrent, SensorVoltage)
}

// SensorStatus is the classification of the latest reading.
type SensorStatus string

const (
	SensorNormal   SensorStatus = "normal"
	SensorWarning  SensorStatus = "warning"
	SensorAlert    SensorStatus = "alert"
	SensorCritical SensorStatus = "critical"
)

func (s SensorStatus) Valid() bool {
	return oneOf(s, SensorNormal, SensorWarning, SensorAlert, SensorCritical)
}

// Sensor is one instrument fitted to a machine.
type Sensor struct {
	SensorType     SensorType   `json:"sensorType"`
	CurrentValue   *float64     `json:"currentValue,omitempty"`
	Unit           string       `json:"unit,omitempty"`
	NormalRange    Range        `json:"normalRange"`
	AlertThreshold Range        `json:"alertThreshold"`
	LastReadingAt  *time.Time   `json:"lastReadingAt,omitempty"`
	Status         SensorStatus `json:"status"`
}

// MaintenanceType is the kind of maintenance performed.
type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "preventive"
	MaintenanceCorrective MaintenanceType = "corrective"
	MaintenanceEmergency  MaintenanceType = "emergency"
	MaintenanceInspection MaintenanceType = "inspection"
)

// MaintenanceStatus tracks a maintenance record.
type MaintenanceStatus string

const (
	MaintenanceScheduled  MaintenanceStatus = "scheduled"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// MaintenanceRecord is an append-only maintenance log entry.
type MaintenanceRecord struct {
	MaintenanceID string            `json:"maintenanceId"`
	Type          MaintenanceType   `json:"type"`
	Description   string            `json:"description,omitempty"`
	PerformedBy   string            `json:"performedBy"`
	ScheduledDate *time.Time        `json:"scheduledDate,omitempty"`
	ActualDate    *time.Time        `json:"actualDate,omitempty"`
	Duration      int               `json:"duration,omitempty"`
	Cost          float64           `json:"cost,omitempty"`
	PartsReplaced []ReplacedPart    `json:"partsReplaced"`
	Notes         string            `json:"notes,omitempty"`
	Photos        []string          `json:"photos"`
	Status        MaintenanceStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// ReplacedPart is a part swapped during maintenance.
type ReplacedPart struct {
	PartName   string  `json:"partName"`
	PartNumber string  `json:"partNumber,omitempty"`
	Quantity   int     `json:"quantity"`
	Cost       float64 `json:"cost,omitempty"`
}

// Validate checks the record before append.
func (r *MaintenanceRecord) Validate() error {
	var v validator
	v.check(oneOf(r.Type, MaintenancePreventive, MaintenanceCorrective, MaintenanceEmergency, MaintenanceInspection),
		"type", "must be one of preventive, corrective, emergency, inspection")
	v.required("performedBy", r.PerformedBy)
	v.check(oneOf(r.Status, MaintenanceScheduled, MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled),
		"status", "must be one of scheduled, in_progress, completed, cancelled")
	v.check(r.Duration >= 0, "duration", "must not be negative")
	v.check(r.Cost >= 0, "cost", "must not be negative")
	for idx, p := range r.PartsReplaced {
		v.check(p.Quantity >= 0, "partsReplaced["+strconv.Itoa(idx)+"].quantity", "must not be negative")
	}
	return v.err()
}

// AlertType is the anomaly kind of a predictive alert.
type AlertType string

const (
	AlertVibrationAnomaly   AlertType = "vibration_anomaly"
	AlertTemperatureSpike   AlertType = "temperature_spike"
	AlertPressureDrop       AlertType = "pressure_drop"
	AlertCurrentFluctuation AlertType = "current_fluctuation"
	AlertGeneralDegradation AlertType = "general_degradation"
)

// PredictiveAlert is a forecasted-failure warning.
type PredictiveAlert struct {
	AlertID              string     `json:"alertId"`
	AlertType            AlertType  `json:"alertType"`
	Severity             Severity   `json:"severity"`
	Message              string     `json:"message,omitempty"`
	RecommendedAction    string     `json:"recommendedAction,omitempty"`
	PredictedFailureDate *time.Time `json:"predictedFailureDate,omitempty"`
	Confidence           float64    `json:"confidence"`
	CreatedAt            time.Time  `json:"createdAt"`
	AcknowledgedBy       string     `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt       *time.Time `json:"acknowledgedAt,omitempty"`
	ResolvedAt           *time.Time `json:"resolvedAt,omitempty"`
	IsActive             bool       `json:"isActive"`
}

// Validate checks the alert before append.
func (a *PredictiveAlert) Validate() error {
	var v validator
	v.check(oneOf(a.AlertType, AlertVibrationAnomaly, AlertTemperatureSpike, AlertPressureDrop,
		AlertCurrentFluctuation, AlertGeneralDegradation),
		"alertType", "must be one of vibration_anomaly, temperature_spike, pressure_drop, current_fluctuation, general_degradation")
	v.check(a.Severity.Valid(), "severity", "must be one of low, medium, high, critical")
	v.between("confidence", a.Confidence, 0, 1)
	return v.err()
}

// TaskType is the recurrence of a calendar task.
type TaskType string

const (
	TaskDaily     TaskType = "daily"
	TaskWeekly    TaskType = "weekly"
	TaskMonthly   TaskType = "monthly"
	TaskQuarterly TaskType = "quarterly"
	TaskYearly    TaskType = "yearly"
	TaskCustom    TaskType = "custom"
)

// TaskStatus is the stored status of a calendar task. It is never flipped to
// overdue automatically; see Machine.OverdueTasks.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskOverdue   TaskStatus = "overdue"
	TaskCompleted TaskStatus = "completed"
	TaskCancelled TaskStatus = "cancelled"
)

// CalendarTask is a recurring maintenance task definition.
type CalendarTask struct {
	TaskID            string     `json:"taskId"`
	TaskName          string     `json:"taskName"`
	TaskType          TaskType   `json:"taskType"`
	NextDueDate       *time.Time `json:"nextDueDate,omitempty"`
	LastCompletedDate *time.Time `json:"lastCompletedDate,omitempty"`
	AssignedTo        string     `json:"assignedTo,omitempty"`
	Priority          Priority   `json:"priority"`
	EstimatedDuration int        `json:"estimatedDuration,omitempty"`
	Instructions      string     `json:"instructions,omitempty"`
	IsActive          bool       `json:"isActive"`
	Status            TaskStatus `json:"status"`
}

// Validate checks the task fields.
func (t *CalendarTask) Validate() error {
	var v validator
	t.validate(&v, "")
	return v.err()
}

func (t *CalendarTask) validate(v *validator, prefix string) {
	v.required(prefix+"taskName", t.TaskName)
	v.check(oneOf(t.TaskType, TaskDaily, TaskWeekly, TaskMonthly, TaskQuarterly, TaskYearly, TaskCustom),
		prefix+"taskType", "must be one of daily, weekly, monthly, quarterly, yearly, custom")
	v.check(t.Priority.Valid(), prefix+"priority", "must be one of low, medium, high, urgent")
	v.check(oneOf(t.Status, TaskPending, TaskOverdue, TaskCompleted, TaskCancelled),
		prefix+"status", "must be one of pending, overdue, completed, cancelled")
	v.check(t.EstimatedDuration >= 0, prefix+"estimatedDuration", "must not be negative")
}

// IsOverdue reports whether an active pending task is past its due date at now.
func (t *CalendarTask) IsOverdue(now time.Time) bool {
	return t.IsActive && t.Status == TaskPending && t.NextDueDate != nil && t.NextDueDate.Before(now)
}

// Specifications are the manufacturer data of a machine.
type Specifications struct {
	Manufacturer         string     `json:"manufacturer,omitempty"`
	Model                string     `json:"model,omitempty"`
	SerialNumber         string     `json:"serialNumber,omitempty"`
	YearOfInstallation   int        `json:"yearOfInstallation,omitempty"`
	Capacity             string     `json:"capacity,omitempty"`
	PowerRating          string     `json:"powerRating,omitempty"`
	OperatingTemperature *Range     `json:"operatingTemperature,omitempty"`
	OperatingPressure    *Range     `json:"operatingPressure,omitempty"`
	WarrantyExpiry       *time.Time `json:"warrantyExpiry,omitempty"`
	ManualURL            string     `json:"manualUrl,omitempty"`
}

// PerformanceMetrics are reliability figures of a machine.
type PerformanceMetrics struct {
	Availability            float64    `json:"availability"`
	Efficiency              float64    `json:"efficiency"`
	MeanTimeBetweenFailures float64    `json:"meanTimeBetweenFailures,omitempty"`
	MeanTimeToRepair        float64    `json:"meanTimeToRepair,omitempty"`
	TotalOperatingHours     float64    `json:"totalOperatingHours"`
	LastMaintenanceDate     *time.Time `json:"lastMaintenanceDate,omitempty"`
	NextMaintenanceDate     *time.Time `json:"nextMaintenanceDate,omitempty"`
}

// Machine is a piece of equipment under a maintenance program.
type Machine struct {
	Revision `json:"-"`

	MachineID           string              `json:"machineId"`
	MachineName         string              `json:"machineName"`
	MachineType         MachineType         `json:"machineType"`
	Location            Location            `json:"location"`
	CurrentStatus       MachineStatus       `json:"currentStatus"`
	HealthScore         float64             `json:"healthScore"`
	Sensors             []Sensor            `json:"sensors"`
	MaintenanceHistory  []MaintenanceRecord `json:"maintenanceHistory"`
	PredictiveAlerts    []PredictiveAlert   `json:"predictiveAlerts"`
	MaintenanceCalendar []CalendarTask      `json:"maintenanceCalendar"`
	Specifications      Specifications      `json:"specifications"`
	PerformanceMetrics  PerformanceMetrics  `json:"performanceMetrics"`
	CreatedBy           string              `json:"createdBy"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

func (m *Machine) DocumentID() string { return m.MachineID }

// Validate checks required fields, ranges and enum membership.
func (m *Machine) Validate() error {
	var v validator
	v.required("machineName", m.MachineName)
	v.check(m.MachineType.Valid(), "machineType",
		"must be one of furnace, conveyor, crane, press, cutter, compressor, pump, generator, other")
	v.required("location.area", m.Location.Area)
	v.check(m.CurrentStatus.Valid(), "currentStatus",
		"must be one of operational, maintenance, breakdown, scheduled_maintenance, decommissioned")
	v.between("healthScore", m.HealthScore, 0, 100)
	v.required("createdBy", m.CreatedBy)
	for idx, s := range m.Sensors {
		p := "sensors[" + strconv.Itoa(idx) + "]."
		v.check(s.SensorType.Valid(), p+"sensorType",
			"must be one of temperature, vibration, pressure, humidity, sound, current, voltage")
		v.check(s.Status.Valid(), p+"status", "must be one of normal, warning, alert, critical")
	}
	for idx := range m.MaintenanceCalendar {
		m.MaintenanceCalendar[idx].validate(&v, "maintenanceCalendar["+strconv.Itoa(idx)+"].")
	}
	v.between("performanceMetrics.availability", m.PerformanceMetrics.Availability, 0, 100)
	v.between("performanceMetrics.efficiency", m.PerformanceMetrics.Efficiency, 0, 100)
	return v.err()
}

// HealthStatus buckets a health score.
func HealthStatus(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	case score >= 20:
		return "poor"
	default:
		return "critical"
	}
}

// OverdueTasks returns active pending tasks due before now. Stored statuses are untouched.
func (m *Machine) OverdueTasks(now time.Time) []CalendarTask {
	out := make([]CalendarTask, 0)
	for _, t := range m.MaintenanceCalendar {
		if t.IsOverdue(now) {
			out = append(out, t)
		}
	}
	return out
}

// CriticalAlerts returns alerts that are active, critical and not resolved.
// Resolution does not clear IsActive, so both conditions are checked.
func (m *Machine) CriticalAlerts() []PredictiveAlert {
	out := make([]PredictiveAlert, 0)
	for _, a := range m.PredictiveAlerts {
		if a.IsActive && a.Severity == SeverityCritical && a.ResolvedAt == nil {
			out = append(out, a)
		}
	}
	return out
}

// FindAlert returns the index of alertID, or -1.
func (m *Machine) FindAlert(alertID string) int {
	for idx := range m.PredictiveAlerts {
		if m.PredictiveAlerts[idx].AlertID == alertID {
			return idx
		}
	}
	return -1
}

// MachineView is the serialized form with derived fields.
type MachineView struct {
	*Machine
	HealthStatus   string            `json:"healthStatus"`
	OverdueTasks   []CalendarTask    `json:"overdueTasks"`
	CriticalAlerts []PredictiveAlert `json:"criticalAlerts"`
}

// View computes derived fields at now.
func (m *Machine) View(now time.Time) MachineView {
	return MachineView{
		Machine:        m,
		HealthStatus:   HealthStatus(m.HealthScore),
		OverdueTasks:   m.OverdueTasks(now),
		CriticalAlerts: m.CriticalAlerts(),
	}
}
