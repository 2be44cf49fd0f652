package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/clock"
	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMachineRequest() CreateMachineRequest {
	return CreateMachineRequest{
		MachineName: "Blast furnace 1",
		MachineType: domain.MachineFurnace,
		Location:    domain.Location{Area: "Melt shop"},
		Sensors: []SensorInput{{
			SensorType:     domain.SensorTemperature,
			Unit:           "C",
			NormalRange:    domain.NewRange(0, 80),
			AlertThreshold: domain.NewRange(-10, 100),
		}},
	}
}

func newTestMachineService(t *testing.T) (MachineService, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(testStart)
	return NewMachineService(repository.NewMemoryMachinesRepository(), testDeps(clk)), clk
}

func reading(value float64) []SensorReading {
	return []SensorReading{{SensorType: domain.SensorTemperature, CurrentValue: &value}}
}

func float(v float64) *float64 { return &v }

func TestCreateMachine_Defaults(t *testing.T) {
	svc, _ := newTestMachineService(t)

	req := testMachineRequest()
	req.MaintenanceCalendar = []CalendarTaskInput{{TaskName: "Lining check", TaskType: domain.TaskMonthly}}
	m, err := svc.CreateMachine(context.Background(), engineer, req)
	require.NoError(t, err)

	assert.Regexp(t, `^MCH-`, m.MachineID)
	assert.Equal(t, domain.MachineOperational, m.CurrentStatus)
	assert.Equal(t, 100.0, m.HealthScore)
	assert.Equal(t, 100.0, m.PerformanceMetrics.Availability)
	assert.Equal(t, engineer.UserID, m.CreatedBy)
	require.Len(t, m.Sensors, 1)
	assert.Equal(t, domain.SensorNormal, m.Sensors[0].Status)
	assert.Nil(t, m.Sensors[0].LastReadingAt)

	require.Len(t, m.MaintenanceCalendar, 1)
	task := m.MaintenanceCalendar[0]
	assert.Regexp(t, `^TASK-`, task.TaskID)
	assert.True(t, task.IsActive)
	assert.Equal(t, domain.TaskPending, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
}

func TestCreateMachine_ClassifiesInitialReadings(t *testing.T) {
	svc, _ := newTestMachineService(t)
	req := testMachineRequest()
	v := 101.0
	req.Sensors[0].CurrentValue = &v

	m, err := svc.CreateMachine(context.Background(), engineer, req)
	require.NoError(t, err)
	assert.Equal(t, domain.SensorCritical, m.Sensors[0].Status)
	require.NotNil(t, m.Sensors[0].LastReadingAt)
}

func TestCreateMachine_Validation(t *testing.T) {
	svc, _ := newTestMachineService(t)
	req := testMachineRequest()
	req.MachineType = "spaceship"
	score := 120.0
	req.HealthScore = &score

	_, err := svc.CreateMachine(context.Background(), engineer, req)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUpdateSensors_WarningCriticalNormal(t *testing.T) {
	svc, clk := newTestMachineService(t)
	ctx := context.Background()
	m, err := svc.CreateMachine(ctx, engineer, testMachineRequest())
	require.NoError(t, err)

	cases := []struct {
		value float64
		want  domain.SensorStatus
	}{
		{95, domain.SensorWarning},
		{105, domain.SensorCritical},
		{50, domain.SensorNormal},
	}
	for _, tc := range cases {
		clk.Advance(time.Minute)
		sensors, err := svc.UpdateSensors(ctx, engineer, m.MachineID, reading(tc.value))
		require.NoError(t, err)
		require.Len(t, sensors, 1)
		assert.Equal(t, tc.want, sensors[0].Status, "value %v", tc.value)
		assert.Equal(t, tc.value, *sensors[0].CurrentValue)
		assert.True(t, sensors[0].LastReadingAt.Equal(clk.Now()))

		stored, err := svc.GetMachine(ctx, m.MachineID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, stored.Sensors[0].Status)
	}
}

func TestUpdateSensors_AlertMaxIsCritical(t *testing.T) {
	svc, _ := newTestMachineService(t)
	ctx := context.Background()
	m, err := svc.CreateMachine(ctx, engineer, testMachineRequest())
	require.NoError(t, err)

	sensors, err := svc.UpdateSensors(ctx, engineer, m.MachineID, reading(100))
	require.NoError(t, err)
	assert.Equal(t, domain.SensorCritical, sensors[0].Status)
}

func TestUpdateSensors_ReplacesRangesAndIgnoresUnknownTypes(t *testing.T) {
	svc, _ := newTestMachineService(t)
	ctx := context.Background()
	m, err := svc.CreateMachine(ctx, engineer, testMachineRequest())
	require.NoError(t, err)

	normal := domain.NewRange(0, 100)
	alert := domain.NewRange(-20, 120)
	sensors, err := svc.UpdateSensors(ctx, engineer, m.MachineID, []SensorReading{
		{SensorType: domain.SensorTemperature, CurrentValue: float(95), NormalRange: &normal, AlertThreshold: &alert},
		{SensorType: domain.SensorVibration, CurrentValue: float(9)},
	})
	require.NoError(t, err)
	require.Len(t, sensors, 1)
	assert.Equal(t, domain.SensorNormal, sensors[0].Status)
	assert.Equal(t, 100.0, *sensors[0].NormalRange.Max)
}

func TestUpdateSensors_InvalidTypeAndMissingMachine(t *testing.T) {
	svc, _ := newTestMachineService(t)
	ctx := context.Background()

	_, err := svc.UpdateSensors(ctx, engineer, "MCH-20261015-ZZZZZZ", reading(1))
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.UpdateSensors(ctx, engineer, "MCH-20261015-ZZZZZZ", []SensorReading{{SensorType: "smell", CurrentValue: float(1)}})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUpdateMachine_ReclassifiesChangedSensors(t *testing.T) {
	svc, _ := newTestMachineService(t)
	ctx := context.Background()
	m, err := svc.CreateMachine(ctx, engineer, testMachineRequest())
	require.NoError(t, err)

	sensors := m.Sensors
	v := 90.0
	sensors[0].CurrentValue = &v
	status := domain.MachineMaintenance
	updated, err := svc.UpdateMachine(ctx, engineer, m.MachineID, UpdateMachineRequest{
		Sensors:       sensors,
		CurrentStatus: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SensorWarning, updated.Sensors[0].Status)
	assert.Equal(t, domain.MachineMaintenance, updated.CurrentStatus)
}

func TestUpdateSensors_RequiresValue(t *testing.T) {
	svc, _ := newTestMachineService(t)
	ctx := context.Background()
	m, err := svc.CreateMachine(ctx, engineer, testMachineRequest())
	require.NoError(t, err)

	_, err = svc.UpdateSensors(ctx, engineer, m.MachineID, []SensorReading{{SensorType: domain.SensorTemperature}})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "sensorData[0].currentValue", verr.Fields[0].Field)

	stored, err := svc.GetMachine(ctx, m.MachineID)
	require.NoError(t, err)
	assert.Nil(t, stored.Sensors[0].CurrentValue)
	assert.Nil(t, stored.Sensors[0].LastReadingAt)
}

func TestUpdateMachine_StatusFollowsEvaluator(t *testing.T) {
	svc, clk := newTestMachineService(t)
	ctx := context.Background()
	m, err := svc.CreateMachine(ctx, engineer, testMachineRequest())
	require.NoError(t, err)

	sensors, err := svc.UpdateSensors(ctx, engineer, m.MachineID, reading(95))
	require.NoError(t, err)
	require.Equal(t, domain.SensorWarning, sensors[0].Status)
	readAt := *sensors[0].LastReadingAt

	clk.Advance(time.Hour)
	edited := append([]domain.Sensor(nil), sensors...)
	edited[0].Status = domain.SensorNormal
	updated, err := svc.UpdateMachine(ctx, engineer, m.MachineID, UpdateMachineRequest{Sensors: edited})
	require.NoError(t, err)
	assert.Equal(t, domain.SensorWarning, updated.Sensors[0].Status)
	assert.True(t, readAt.Equal(*updated.Sensors[0].LastReadingAt))

	edited = append([]domain.Sensor(nil), updated.Sensors...)
	edited[0].AlertThreshold = domain.NewRange(-10, 90)
	edited[0].Status = domain.SensorNormal
	updated, err = svc.UpdateMachine(ctx, engineer, m.MachineID, UpdateMachineRequest{Sensors: edited})
	require.NoError(t, err)
	assert.Equal(t, domain.SensorCritical, updated.Sensors[0].Status)
	assert.True(t, readAt.Equal(*updated.Sensors[0].LastReadingAt))
}

func TestAddMaintenanceRecord(t *testing.T) {
	svc, _ := newTestMachineService(t)
	ctx := context.Background()
	m, err := svc.CreateMachine(ctx, engineer, testMachineRequest())
	require.NoError(t, err)
	tech := domain.Actor{UserID: "u-tech", Role: domain.RoleMaintenance}

	record, err := svc.AddMaintenanceRecord(ctx, tech, m.MachineID, AddMaintenanceRecordRequest{
		Type:        domain.MaintenancePreventive,
		Description: "Refractory patch",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^MAINT-`, record.MaintenanceID)
	assert.Equal(t, "u-tech", record.PerformedBy)
	assert.Equal(t, domain.MaintenanceScheduled, record.Status)

	_, err = svc.AddMaintenanceRecord(ctx, tech, m.MachineID, AddMaintenanceRecordRequest{Type: domain.MaintenanceInspection})
	require.NoError(t, err)

	stored, err := svc.GetMachine(ctx, m.MachineID)
	require.NoError(t, err)
	require.Len(t, stored.MaintenanceHistory, 2)
	assert.Equal(t, record.MaintenanceID, stored.MaintenanceHistory[0].MaintenanceID)
	assert.Equal(t, domain.MaintenanceInspection, stored.MaintenanceHistory[1].Type)

	_, err = svc.AddMaintenanceRecord(ctx, tech, m.MachineID, AddMaintenanceRecordRequest{Type: "polish"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = svc.AddMaintenanceRecord(ctx, tech, "MCH-20261015-ZZZZZZ", AddMaintenanceRecordRequest{Type: domain.MaintenancePreventive})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPredictiveAlert_Lifecycle(t *testing.T) {
	svc, clk := newTestMachineService(t)
	ctx := context.Background()
	m, err := svc.CreateMachine(ctx, engineer, testMachineRequest())
	require.NoError(t, err)

	alert, err := svc.RaiseAlert(ctx, engineer, m.MachineID, RaisePredictiveAlertRequest{
		AlertType:  domain.AlertTemperatureSpike,
		Severity:   domain.SeverityCritical,
		Message:    "Shell temperature rising",
		Confidence: 0.9,
	})
	require.NoError(t, err)
	assert.True(t, alert.IsActive)
	assert.Regexp(t, `^ALT-`, alert.AlertID)

	// duplicates are accepted
	_, err = svc.RaiseAlert(ctx, engineer, m.MachineID, RaisePredictiveAlertRequest{
		AlertType:  domain.AlertTemperatureSpike,
		Severity:   domain.SeverityCritical,
		Confidence: 0.9,
	})
	require.NoError(t, err)

	clk.Advance(time.Minute)
	acked, err := svc.AcknowledgeAlert(ctx, engineer, m.MachineID, alert.AlertID)
	require.NoError(t, err)
	assert.Equal(t, engineer.UserID, acked.AcknowledgedBy)
	assert.True(t, acked.IsActive)

	clk.Advance(time.Minute)
	resolved, err := svc.ResolveAlert(ctx, engineer, m.MachineID, alert.AlertID)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	assert.True(t, resolved.IsActive)
	firstResolution := *resolved.ResolvedAt

	clk.Advance(time.Minute)
	again, err := svc.ResolveAlert(ctx, engineer, m.MachineID, alert.AlertID)
	require.NoError(t, err)
	assert.True(t, again.ResolvedAt.Equal(firstResolution))

	stored, err := svc.GetMachine(ctx, m.MachineID)
	require.NoError(t, err)
	require.Len(t, stored.PredictiveAlerts, 2)
	critical := stored.CriticalAlerts()
	require.Len(t, critical, 1)
	assert.NotEqual(t, alert.AlertID, critical[0].AlertID)

	_, err = svc.AcknowledgeAlert(ctx, engineer, m.MachineID, "ALT-20261015-ZZZZZZ")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = svc.RaiseAlert(ctx, engineer, m.MachineID, RaisePredictiveAlertRequest{AlertType: "meltdown", Severity: domain.SeverityLow})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCalendar_FlattensActiveTasks(t *testing.T) {
	svc, clk := newTestMachineService(t)
	ctx := context.Background()

	inactive := false
	req := testMachineRequest()
	req.MaintenanceCalendar = []CalendarTaskInput{
		{TaskName: "Daily walkdown", TaskType: domain.TaskDaily},
		{TaskName: "Retired check", TaskType: domain.TaskYearly, IsActive: &inactive},
	}
	furnace, err := svc.CreateMachine(ctx, engineer, req)
	require.NoError(t, err)

	clk.Advance(time.Minute)
	crane, err := svc.CreateMachine(ctx, engineer, CreateMachineRequest{
		MachineName: "Ladle crane",
		MachineType: domain.MachineCrane,
		Location:    domain.Location{Area: "Melt shop"},
	})
	require.NoError(t, err)
	due := testStart.Add(-time.Hour)
	task, err := svc.AddCalendarTask(ctx, engineer, crane.MachineID, CalendarTaskInput{
		TaskName:    "Rope inspection",
		TaskType:    domain.TaskWeekly,
		NextDueDate: &due,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^TASK-`, task.TaskID)

	entries, err := svc.GetCalendar(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, crane.MachineID, entries[0].MachineID)
	assert.Equal(t, "Ladle crane", entries[0].MachineName)
	assert.Equal(t, "Rope inspection", entries[0].TaskName)
	assert.Equal(t, furnace.MachineID, entries[1].MachineID)

	stored, err := svc.GetMachine(ctx, crane.MachineID)
	require.NoError(t, err)
	view := stored.View(clk.Now())
	require.Len(t, view.OverdueTasks, 1)
	assert.Equal(t, domain.TaskPending, stored.MaintenanceCalendar[0].Status)
}
