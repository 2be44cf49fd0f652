package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvironment_DeviationPercentage(t *testing.T) {
	assert.InDelta(t, 25.0, (&EnvironmentMetric{Value: 125, Target: 100}).DeviationPercentage(), 1e-9)
	assert.InDelta(t, -50.0, (&EnvironmentMetric{Value: 5, Target: 10}).DeviationPercentage(), 1e-9)
	assert.Equal(t, 0.0, (&EnvironmentMetric{Value: 5, Target: 0}).DeviationPercentage())
}

func TestEnvironment_ValidateRejectsAllDepartment(t *testing.T) {
	e := &EnvironmentMetric{
		MetricName:         "CO2 furnace line",
		Unit:               "ton",
		Category:           MetricCO2Emission,
		Plant:              "Jamshedpur",
		VerificationStatus: VerificationPending,
		Department:         DepartmentAll,
	}
	assert.Error(t, e.Validate())
	e.Department = DepartmentProduction
	assert.NoError(t, e.Validate())
}
