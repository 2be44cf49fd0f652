package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterial_DeliveryStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	expected := now.Add(time.Hour)
	late := expected.Add(time.Minute)
	early := expected.Add(-time.Minute)
	past := now.Add(-time.Minute)

	assert.Equal(t, DeliveryNoDeadline, (&MaterialFlow{}).DeliveryStatus(now))
	assert.Equal(t, DeliveryOnTime, (&MaterialFlow{ExpectedDelivery: &expected, ActualDelivery: &early}).DeliveryStatus(now))
	assert.Equal(t, DeliveryOnTime, (&MaterialFlow{ExpectedDelivery: &expected, ActualDelivery: &expected}).DeliveryStatus(now))
	assert.Equal(t, DeliveryDelayed, (&MaterialFlow{ExpectedDelivery: &expected, ActualDelivery: &late}).DeliveryStatus(now))
	assert.Equal(t, DeliveryOnSchedule, (&MaterialFlow{ExpectedDelivery: &expected}).DeliveryStatus(now))
	assert.Equal(t, DeliveryOverdue, (&MaterialFlow{ExpectedDelivery: &past}).DeliveryStatus(now))
}

func TestMaterial_TimeRemaining(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	expected := now.Add(26*time.Hour + 5*time.Minute + 30*time.Second)

	m := &MaterialFlow{ExpectedDelivery: &expected}
	got := m.TimeRemaining(now)
	require.NotNil(t, got)
	assert.Equal(t, "26h 5m", *got)

	got = m.TimeRemaining(expected)
	require.NotNil(t, got)
	assert.Equal(t, "overdue", *got)

	assert.Nil(t, (&MaterialFlow{}).TimeRemaining(now))
	m.ActualDelivery = &now
	assert.Nil(t, m.TimeRemaining(now))
}

func TestMaterial_Validate(t *testing.T) {
	m := &MaterialFlow{
		MaterialType:    MaterialRaw,
		Name:            "Iron ore",
		Quantity:        Quantity{Value: -1, Unit: "ton"},
		CurrentLocation: Location{Area: "Yard 1"},
		Status:          MaterialInStorage,
		Priority:        PriorityMedium,
		QualityStatus:   QualityStatus{Status: "pending"},
		CreatedBy:       "u-1",
	}
	assert.Error(t, m.Validate())
	m.Quantity.Value = 12
	assert.NoError(t, m.Validate())
}
