package domain

import "time"

// Revision carries the optimistic concurrency token of a stored document.
// It never appears in JSON.
type Revision struct {
	Version int64
}

func (r *Revision) CurrentVersion() int64 { return r.Version }

func (r *Revision) SetVersion(v int64) { r.Version = v }

// Coordinates is a GPS position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a place inside a plant. Area is the only required part.
type Location struct {
	Area          string       `json:"area"`
	Building      string       `json:"building,omitempty"`
	Floor         string       `json:"floor,omitempty"`
	ExactPosition string       `json:"exactPosition,omitempty"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
}

// Range is an inclusive band. A nil bound is open.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// NewRange returns a Range with both bounds set.
func NewRange(min, max float64) Range {
	return Range{Min: &min, Max: &max}
}

// Outside reports whether value lies strictly below Min or strictly above Max.
func (r Range) Outside(value float64) bool {
	if r.Min != nil && value < *r.Min {
		return true
	}
	if r.Max != nil && value > *r.Max {
		return true
	}
	return false
}

// Reached reports whether value touches or passes either bound.
func (r Range) Reached(value float64) bool {
	if r.Min != nil && value <= *r.Min {
		return true
	}
	if r.Max != nil && value >= *r.Max {
		return true
	}
	return false
}

// Attachment is an uploaded file reference.
type Attachment struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName,omitempty"`
	MimeType     string    `json:"mimeType,omitempty"`
	Size         int64     `json:"size,omitempty"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Comment is a free-text remark with likes.
type Comment struct {
	CommentID   string    `json:"commentId"`
	UserID      string    `json:"userId"`
	Comment     string    `json:"comment"`
	CommentedAt time.Time `json:"commentedAt"`
	Likes       []Like    `json:"likes"`
}

// Like is one user's like on a comment.
type Like struct {
	UserID  string    `json:"userId"`
	LikedAt time.Time `json:"likedAt"`
}

// Priority is shared by incidents, tasks, suggestions and materials.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	return oneOf(p, PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent)
}

// Rank orders priorities from low (1) to urgent (4). Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 0
	}
}

// Severity grades incidents and alerts.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	return oneOf(s, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical)
}

// Department is an organisational unit.
type Department string

const (
	DepartmentProduction  Department = "production"
	DepartmentMaintenance Department = "maintenance"
	DepartmentSafety      Department = "safety"
	DepartmentQuality     Department = "quality"
	DepartmentLogistics   Department = "logistics"
	DepartmentAdmin       Department = "admin"
	DepartmentAll         Department = "all"
)

func (d Department) Valid() bool {
	return oneOf(d, DepartmentProduction, DepartmentMaintenance, DepartmentSafety,
		DepartmentQuality, DepartmentLogistics, DepartmentAdmin, DepartmentAll)
}

