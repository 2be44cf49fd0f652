package domain

import (
	"fmt"
	"strconv"
	"time"
)

// MaterialType classifies a tracked material.
type MaterialType string

const (
	MaterialRaw          MaterialType = "raw_material"
	MaterialFinished     MaterialType = "finished_product"
	MaterialIntermediate MaterialType = "intermediate_product"
	MaterialWaste        MaterialType = "waste_material"
)

// MaterialStatus is the handling stage of a material.
type MaterialStatus string

const (
	MaterialInStorage        MaterialStatus = "in_storage"
	MaterialInTransit        MaterialStatus = "in_transit"
	MaterialInProcessing     MaterialStatus = "in_processing"
	MaterialQualityCheck     MaterialStatus = "quality_check"
	MaterialReadyForDispatch MaterialStatus = "ready_for_dispatch"
	MaterialDispatched       MaterialStatus = "dispatched"
)

func (s MaterialStatus) Valid() bool {
	return oneOf(s, MaterialInStorage, MaterialInTransit, MaterialInProcessing, MaterialQualityCheck,
		MaterialReadyForDispatch, MaterialDispatched)
}

// MaterialAlertType is the reason for a material alert.
type MaterialAlertType string

const (
	MaterialAlertDelay            MaterialAlertType = "delay"
	MaterialAlertQualityIssue     MaterialAlertType = "quality_issue"
	MaterialAlertLocationMismatch MaterialAlertType = "location_mismatch"
	MaterialAlertDamage           MaterialAlertType = "damage"
	MaterialAlertOther            MaterialAlertType = "other"
)

// Delivery states derived from expected and actual delivery.
const (
	DeliveryNoDeadline = "no_deadline"
	DeliveryOnTime     = "on_time"
	DeliveryDelayed    = "delayed"
	DeliveryOverdue    = "overdue"
	DeliveryOnSchedule = "on_schedule"
)

// Quantity is an amount with its unit.
type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// MovementRecord is one relocation of a material.
type MovementRecord struct {
	MovementID   string    `json:"movementId"`
	FromLocation Location  `json:"fromLocation"`
	ToLocation   Location  `json:"toLocation"`
	MovedBy      string    `json:"movedBy"`
	MovedAt      time.Time `json:"movedAt"`
	Reason       string    `json:"reason,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// QualityStatus is the inspection state of a material.
type QualityStatus struct {
	Status    string     `json:"status"`
	CheckedBy string     `json:"checkedBy,omitempty"`
	CheckedAt *time.Time `json:"checkedAt,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// MaterialSpecifications are physical properties of a material.
type MaterialSpecifications struct {
	Dimensions  *Dimensions `json:"dimensions,omitempty"`
	Weight      *Quantity   `json:"weight,omitempty"`
	Grade       string      `json:"grade,omitempty"`
	Composition string      `json:"composition,omitempty"`
	Temperature *float64    `json:"temperature,omitempty"`
	BatchNumber string      `json:"batchNumber,omitempty"`
}

// Dimensions of a piece.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

// MaterialAlert is raised against a material. Resolution sets ResolvedAt and ResolvedBy.
type MaterialAlert struct {
	AlertID    string            `json:"alertId"`
	Type       MaterialAlertType `json:"type"`
	Message    string            `json:"message"`
	Severity   Severity          `json:"severity"`
	CreatedAt  time.Time         `json:"createdAt"`
	ResolvedAt *time.Time        `json:"resolvedAt,omitempty"`
	ResolvedBy string            `json:"resolvedBy,omitempty"`
}

// Validate checks the alert before append.
func (a *MaterialAlert) Validate() error {
	var v validator
	v.check(oneOf(a.Type, MaterialAlertDelay, MaterialAlertQualityIssue, MaterialAlertLocationMismatch,
		MaterialAlertDamage, MaterialAlertOther),
		"type", "must be one of delay, quality_issue, location_mismatch, damage, other")
	v.required("message", a.Message)
	v.check(a.Severity.Valid(), "severity", "must be one of low, medium, high, critical")
	return v.err()
}

// MaterialFlow tracks a material through the plant.
type MaterialFlow struct {
	Revision `json:"-"`

	MaterialID       string                 `json:"materialId"`
	MaterialType     MaterialType           `json:"materialType"`
	Name             string                 `json:"name"`
	Description      string                 `json:"description,omitempty"`
	Quantity         Quantity               `json:"quantity"`
	CurrentLocation  Location               `json:"currentLocation"`
	PreviousLocation *Location              `json:"previousLocation,omitempty"`
	Destination      *Location              `json:"destination,omitempty"`
	Status           MaterialStatus         `json:"status"`
	Priority         Priority               `json:"priority"`
	AssignedTo       string                 `json:"assignedTo,omitempty"`
	MovementHistory  []MovementRecord       `json:"movementHistory"`
	QualityStatus    QualityStatus          `json:"qualityStatus"`
	Specifications   MaterialSpecifications `json:"specifications"`
	Alerts           []MaterialAlert        `json:"alerts"`
	ExpectedDelivery *time.Time             `json:"expectedDelivery,omitempty"`
	ActualDelivery   *time.Time             `json:"actualDelivery,omitempty"`
	CreatedBy        string                 `json:"createdBy"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

func (m *MaterialFlow) DocumentID() string { return m.MaterialID }

// Validate checks required fields, ranges and enum membership.
func (m *MaterialFlow) Validate() error {
	var v validator
	v.check(oneOf(m.MaterialType, MaterialRaw, MaterialFinished, MaterialIntermediate, MaterialWaste),
		"materialType", "must be one of raw_material, finished_product, intermediate_product, waste_material")
	v.required("name", m.Name)
	v.check(m.Quantity.Value >= 0, "quantity.value", "must not be negative")
	v.check(oneOf(m.Quantity.Unit, "kg", "ton", "piece", "meter", "liter", "cubic_meter"),
		"quantity.unit", "must be one of kg, ton, piece, meter, liter, cubic_meter")
	v.required("currentLocation.area", m.CurrentLocation.Area)
	v.check(m.Status.Valid(), "status",
		"must be one of in_storage, in_transit, in_processing, quality_check, ready_for_dispatch, dispatched")
	v.check(m.Priority.Valid(), "priority", "must be one of low, medium, high, urgent")
	v.check(oneOf(m.QualityStatus.Status, "pending", "passed", "failed", "needs_recheck"),
		"qualityStatus.status", "must be one of pending, passed, failed, needs_recheck")
	v.required("createdBy", m.CreatedBy)
	for idx, a := range m.Alerts {
		v.check(a.Severity.Valid(), "alerts["+strconv.Itoa(idx)+"].severity", "must be one of low, medium, high, critical")
	}
	return v.err()
}

// FindAlert returns the index of alertID, or -1.
func (m *MaterialFlow) FindAlert(alertID string) int {
	for idx := range m.Alerts {
		if m.Alerts[idx].AlertID == alertID {
			return idx
		}
	}
	return -1
}

// DeliveryStatus compares actual or current time against the expected delivery.
func (m *MaterialFlow) DeliveryStatus(now time.Time) string {
	if m.ExpectedDelivery == nil {
		return DeliveryNoDeadline
	}
	if m.ActualDelivery != nil {
		if !m.ActualDelivery.After(*m.ExpectedDelivery) {
			return DeliveryOnTime
		}
		return DeliveryDelayed
	}
	if now.After(*m.ExpectedDelivery) {
		return DeliveryOverdue
	}
	return DeliveryOnSchedule
}

// TimeRemaining formats the time left before expected delivery as "<h>h <m>m".
// It is nil without a deadline or once delivered.
func (m *MaterialFlow) TimeRemaining(now time.Time) *string {
	if m.ExpectedDelivery == nil || m.ActualDelivery != nil {
		return nil
	}
	diff := m.ExpectedDelivery.Sub(now)
	var s string
	if diff <= 0 {
		s = DeliveryOverdue
	} else {
		hours := int64(diff / time.Hour)
		minutes := int64((diff % time.Hour) / time.Minute)
		s = fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return &s
}

// MaterialView is the serialized form with derived fields.
type MaterialView struct {
	*MaterialFlow
	DeliveryStatus string  `json:"deliveryStatus"`
	TimeRemaining  *string `json:"timeRemaining"`
}

// View computes derived fields at now.
func (m *MaterialFlow) View(now time.Time) MaterialView {
	return MaterialView{
		MaterialFlow:   m,
		DeliveryStatus: m.DeliveryStatus(now),
		TimeRemaining:  m.TimeRemaining(now),
	}
}
