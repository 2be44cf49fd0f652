package domain

import (
	"math"
	"time"
)

// IncidentCategory classifies a safety incident.
type IncidentCategory string

const (
	IncidentCategoryEquipment     IncidentCategory = "equipment"
	IncidentCategoryEnvironmental IncidentCategory = "environmental"
	IncidentCategoryBehavioral    IncidentCategory = "behavioral"
	IncidentCategoryProcedural    IncidentCategory = "procedural"
	IncidentCategoryOther         IncidentCategory = "other"
)

func (c IncidentCategory) Valid() bool {
	return oneOf(c, IncidentCategoryEquipment, IncidentCategoryEnvironmental,
		IncidentCategoryBehavioral, IncidentCategoryProcedural, IncidentCategoryOther)
}

// IncidentStatus is not guarded by a transition table; any valid value may follow any other.
type IncidentStatus string

const (
	IncidentReported      IncidentStatus = "reported"
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentResolved      IncidentStatus = "resolved"
	IncidentEscalated     IncidentStatus = "escalated"
)

func (s IncidentStatus) Valid() bool {
	return oneOf(s, IncidentReported, IncidentInvestigating, IncidentResolved, IncidentEscalated)
}

// overdueAfter is the maximum age per severity before an incident is overdue.
var overdueAfter = map[Severity]time.Duration{
	SeverityLow:      72 * time.Hour,
	SeverityMedium:   24 * time.Hour,
	SeverityHigh:     8 * time.Hour,
	SeverityCritical: 2 * time.Hour,
}

// Incident is a reported safety event.
type Incident struct {
	Revision `json:"-"`

	IncidentID        string            `json:"incidentId"`
	ReportedBy        string            `json:"reportedBy"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Severity          Severity          `json:"severity"`
	Category          IncidentCategory  `json:"category"`
	Location          Location          `json:"location"`
	Photos            []Attachment      `json:"photos"`
	AudioNote         *AudioNote        `json:"audioNote,omitempty"`
	Status            IncidentStatus    `json:"status"`
	Priority          Priority          `json:"priority"`
	AssignedTo        string            `json:"assignedTo,omitempty"`
	AIAnalysis        *IncidentAnalysis `json:"aiAnalysis,omitempty"`
	Resolution        *Resolution       `json:"resolution,omitempty"`
	EscalationHistory []Escalation      `json:"escalationHistory"`
	FollowUpRequired  bool              `json:"followUpRequired"`
	FollowUpDate      *time.Time        `json:"followUpDate,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// AudioNote is a voice memo attached to a report.
type AudioNote struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	Duration   float64   `json:"duration,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// IncidentAnalysis is the external classifier's verdict.
type IncidentAnalysis struct {
	RiskLevel        Severity `json:"riskLevel,omitempty"`
	SuggestedActions []string `json:"suggestedActions,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	ConfidenceScore  float64  `json:"confidenceScore"`
}

// Resolution records how an incident was closed.
type Resolution struct {
	Description        string     `json:"description"`
	ResolvedBy         string     `json:"resolvedBy,omitempty"`
	ResolvedAt         *time.Time `json:"resolvedAt,omitempty"`
	PreventiveMeasures []string   `json:"preventiveMeasures,omitempty"`
}

// Escalation is one hand-off to a higher authority.
type Escalation struct {
	EscalatedTo string    `json:"escalatedTo"`
	EscalatedBy string    `json:"escalatedBy"`
	EscalatedAt time.Time `json:"escalatedAt"`
	Reason      string    `json:"reason,omitempty"`
}

func (i *Incident) DocumentID() string { return i.IncidentID }

// Validate checks required fields and enum membership.
func (i *Incident) Validate() error {
	var v validator
	v.required("reportedBy", i.ReportedBy)
	v.required("title", i.Title)
	v.required("description", i.Description)
	v.check(i.Severity.Valid(), "severity", "must be one of low, medium, high, critical")
	v.check(i.Category.Valid(), "category", "must be one of equipment, environmental, behavioral, procedural, other")
	v.required("location.area", i.Location.Area)
	v.check(i.Status.Valid(), "status", "must be one of reported, investigating, resolved, escalated")
	v.check(i.Priority.Valid(), "priority", "must be one of low, medium, high, urgent")
	if a := i.AIAnalysis; a != nil {
		v.check(optionalOneOf(a.RiskLevel, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical),
			"aiAnalysis.riskLevel", "must be one of low, medium, high, critical")
		v.between("aiAnalysis.confidenceScore", a.ConfidenceScore, 0, 1)
	}
	return v.err()
}

// Validate checks an escalation before it is appended.
func (e *Escalation) Validate() error {
	var v validator
	v.required("escalatedTo", e.EscalatedTo)
	v.required("escalatedBy", e.EscalatedBy)
	return v.err()
}

// AgeInHours is the floored number of whole hours since creation.
func (i *Incident) AgeInHours(now time.Time) int64 {
	return int64(math.Floor(now.Sub(i.CreatedAt).Hours()))
}

// IsOverdue reports whether the incident is strictly older than its severity allows.
// The exact age is compared, so a critical incident is overdue at 2h00m01s.
func (i *Incident) IsOverdue(now time.Time) bool {
	limit, ok := overdueAfter[i.Severity]
	if !ok {
		return false
	}
	return now.Sub(i.CreatedAt) > limit
}

// IncidentView is the serialized form with derived fields.
type IncidentView struct {
	*Incident
	AgeInHours int64 `json:"ageInHours"`
	IsOverdue  bool  `json:"isOverdue"`
}

// View computes derived fields at now.
func (i *Incident) View(now time.Time) IncidentView {
	return IncidentView{
		Incident:   i,
		AgeInHours: i.AgeInHours(now),
		IsOverdue:  i.IsOverdue(now),
	}
}
