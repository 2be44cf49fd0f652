package domain

import "time"

// MetricCategory is the resource an environment metric measures.
type MetricCategory string

const (
	MetricCO2Emission MetricCategory = "co2_emission"
	MetricEnergyUsage MetricCategory = "energy_usage"
	MetricWaterUsage  MetricCategory = "water_usage"
)

// VerificationStatus of a collected metric.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// DataPoint records a change of the metric value.
type DataPoint struct {
	UpdatedValue float64   `json:"updatedValue"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Remarks      string    `json:"remarks,omitempty"`
}

// TrendPoint is one sample of a metric trend line.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// MetricAnalysis is a qualitative assessment of a metric.
type MetricAnalysis struct {
	Performance     string `json:"performance,omitempty"`
	Insights        string `json:"insights,omitempty"`
	Recommendations string `json:"recommendations,omitempty"`
}

// EnvironmentAlert is raised against a metric.
type EnvironmentAlert struct {
	AlertID    string     `json:"alertId"`
	Message    string     `json:"message"`
	Severity   Severity   `json:"severity"`
	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy string     `json:"resolvedBy,omitempty"`
}

// Validate checks the alert before append.
func (a *EnvironmentAlert) Validate() error {
	var v validator
	v.required("message", a.Message)
	v.check(a.Severity.Valid(), "severity", "must be one of low, medium, high, critical")
	return v.err()
}

// EnvironmentMetric is a sustainability measurement for a plant.
type EnvironmentMetric struct {
	Revision `json:"-"`

	MetricID           string             `json:"metricId"`
	MetricName         string             `json:"metricName"`
	Description        string             `json:"description,omitempty"`
	Unit               string             `json:"unit"`
	Value              float64            `json:"value"`
	Target             float64            `json:"target"`
	Category           MetricCategory     `json:"category"`
	SubCategory        string             `json:"subCategory,omitempty"`
	Department         Department         `json:"department,omitempty"`
	Plant              string             `json:"plant"`
	CollectedBy        string             `json:"collectedBy,omitempty"`
	CollectionDate     time.Time          `json:"collectionDate"`
	VerifiedBy         string             `json:"verifiedBy,omitempty"`
	VerificationDate   *time.Time         `json:"verificationDate,omitempty"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	DataHistory        []DataPoint        `json:"dataHistory"`
	Alerts             []EnvironmentAlert `json:"alerts"`
	Comments           []Comment          `json:"comments"`
	Trends             []TrendPoint       `json:"trends"`
	Analysis           *MetricAnalysis    `json:"analysis,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

func (e *EnvironmentMetric) DocumentID() string { return e.MetricID }

// Validate checks required fields, ranges and enum membership.
func (e *EnvironmentMetric) Validate() error {
	var v validator
	v.required("metricName", e.MetricName)
	v.check(oneOf(e.Unit, "ton", "megawatt_hour", "cubic_meter"), "unit",
		"must be one of ton, megawatt_hour, cubic_meter")
	v.check(e.Value >= 0, "value", "must not be negative")
	v.check(e.Target >= 0, "target", "must not be negative")
	v.check(oneOf(e.Category, MetricCO2Emission, MetricEnergyUsage, MetricWaterUsage), "category",
		"must be one of co2_emission, energy_usage, water_usage")
	v.check(e.Department == "" || (e.Department.Valid() && e.Department != DepartmentAll), "department",
		"must be one of production, maintenance, safety, quality, logistics, admin")
	v.required("plant", e.Plant)
	v.check(oneOf(e.VerificationStatus, VerificationPending, VerificationVerified, VerificationRejected),
		"verificationStatus", "must be one of pending, verified, rejected")
	if a := e.Analysis; a != nil {
		v.check(optionalOneOf(a.Performance, "excellent", "good", "average", "below_average"),
			"analysis.performance", "must be one of excellent, good, average, below_average")
	}
	return v.err()
}

// FindAlert returns the index of alertID, or -1.
func (e *EnvironmentMetric) FindAlert(alertID string) int {
	for idx := range e.Alerts {
		if e.Alerts[idx].AlertID == alertID {
			return idx
		}
	}
	return -1
}

// DeviationPercentage is (value-target)/target*100, or 0 when target is 0.
func (e *EnvironmentMetric) DeviationPercentage() float64 {
	if e.Target == 0 {
		return 0
	}
	return (e.Value - e.Target) / e.Target * 100
}

// EnvironmentView is the serialized form with derived fields.
type EnvironmentView struct {
	*EnvironmentMetric
	DeviationPercentage float64 `json:"deviationPercentage"`
}

// View computes derived fields.
func (e *EnvironmentMetric) View() EnvironmentView {
	return EnvironmentView{
		EnvironmentMetric:   e,
		DeviationPercentage: e.DeviationPercentage(),
	}
}
