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

func newTestIncidentService(t *testing.T) (IncidentService, *clock.Manual, *recordingPublisher) {
	t.Helper()
	clk := clock.NewManual(testStart)
	deps := testDeps(clk)
	pub := &recordingPublisher{}
	deps.Events = pub
	return NewIncidentService(repository.NewMemoryIncidentsRepository(), deps), clk, pub
}

func TestReportIncident_Defaults(t *testing.T) {
	svc, _, pub := newTestIncidentService(t)

	req := testIncidentRequest()
	req.Photos = []domain.Attachment{{Filename: "leak.jpg", URL: "/uploads/leak.jpg"}}
	incident, err := svc.ReportIncident(context.Background(), worker, req)
	require.NoError(t, err)

	assert.Regexp(t, `^SI-\d{8}-\d{6}$`, incident.IncidentID)
	assert.Equal(t, domain.IncidentReported, incident.Status)
	assert.Equal(t, domain.PriorityMedium, incident.Priority)
	assert.Equal(t, worker.UserID, incident.ReportedBy)
	assert.NotNil(t, incident.EscalationHistory)
	assert.True(t, incident.CreatedAt.Equal(testStart))
	assert.True(t, incident.Photos[0].UploadedAt.Equal(testStart))
	assert.Equal(t, []string{"incident.reported"}, pub.types())
}

func TestReportIncident_ValidationListsAllFields(t *testing.T) {
	svc, _, _ := newTestIncidentService(t)

	_, err := svc.ReportIncident(context.Background(), worker, ReportIncidentRequest{Severity: "extreme"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "description")
	assert.Contains(t, fields, "severity")
	assert.Contains(t, fields, "category")
	assert.Contains(t, fields, "location.area")
}

func TestUpdateIncident_PartialAndAllOrNothing(t *testing.T) {
	svc, clk, _ := newTestIncidentService(t)
	ctx := context.Background()
	incident, err := svc.ReportIncident(ctx, worker, testIncidentRequest())
	require.NoError(t, err)

	clk.Advance(time.Hour)
	status := domain.IncidentInvestigating
	assignee := "u-officer"
	updated, err := svc.UpdateIncident(ctx, engineer, incident.IncidentID, UpdateIncidentRequest{
		Status:     &status,
		AssignedTo: &assignee,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentInvestigating, updated.Status)
	assert.Equal(t, "u-officer", updated.AssignedTo)
	assert.Equal(t, domain.PriorityMedium, updated.Priority)
	assert.True(t, updated.UpdatedAt.Equal(testStart.Add(time.Hour)))

	// a bad priority aborts the whole update, including the valid status
	resolved := domain.IncidentResolved
	bad := domain.Priority("whenever")
	_, err = svc.UpdateIncident(ctx, engineer, incident.IncidentID, UpdateIncidentRequest{
		Status:   &resolved,
		Priority: &bad,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	stored, err := svc.GetIncident(ctx, incident.IncidentID)
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentInvestigating, stored.Status)
}

func TestUpdateIncident_AnyStatusTransitionAllowed(t *testing.T) {
	svc, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	incident, err := svc.ReportIncident(ctx, worker, testIncidentRequest())
	require.NoError(t, err)

	for _, st := range []domain.IncidentStatus{domain.IncidentResolved, domain.IncidentReported, domain.IncidentEscalated} {
		st := st
		updated, err := svc.UpdateIncident(ctx, engineer, incident.IncidentID, UpdateIncidentRequest{Status: &st})
		require.NoError(t, err)
		assert.Equal(t, st, updated.Status)
	}
}

func TestUpdateIncident_NotFound(t *testing.T) {
	svc, _, _ := newTestIncidentService(t)
	status := domain.IncidentResolved
	_, err := svc.UpdateIncident(context.Background(), engineer, "SI-20261015-ZZZZZZ", UpdateIncidentRequest{Status: &status})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestEscalateIncident_AppendsWithoutStatusChange(t *testing.T) {
	svc, clk, _ := newTestIncidentService(t)
	ctx := context.Background()
	incident, err := svc.ReportIncident(ctx, worker, testIncidentRequest())
	require.NoError(t, err)

	clk.Advance(30 * time.Minute)
	_, err = svc.EscalateIncident(ctx, engineer, incident.IncidentID, EscalateIncidentRequest{EscalatedTo: "u-plant-head", Reason: "repeat leak"})
	require.NoError(t, err)
	_, err = svc.EscalateIncident(ctx, engineer, incident.IncidentID, EscalateIncidentRequest{EscalatedTo: "u-director"})
	require.NoError(t, err)

	stored, err := svc.GetIncident(ctx, incident.IncidentID)
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentReported, stored.Status)
	require.Len(t, stored.EscalationHistory, 2)
	assert.Equal(t, "u-plant-head", stored.EscalationHistory[0].EscalatedTo)
	assert.Equal(t, engineer.UserID, stored.EscalationHistory[0].EscalatedBy)
	assert.Equal(t, "u-director", stored.EscalationHistory[1].EscalatedTo)

	_, err = svc.EscalateIncident(ctx, engineer, incident.IncidentID, EscalateIncidentRequest{})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.EscalateIncident(ctx, engineer, "SI-20261015-ZZZZZZ", EscalateIncidentRequest{EscalatedTo: "x"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReportIncident_CriticalOverdueBoundary(t *testing.T) {
	svc, clk, _ := newTestIncidentService(t)
	req := testIncidentRequest()
	req.Severity = domain.SeverityCritical
	incident, err := svc.ReportIncident(context.Background(), worker, req)
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	view := incident.View(clk.Now())
	assert.EqualValues(t, 2, view.AgeInHours)
	assert.False(t, view.IsOverdue)

	clk.Advance(time.Minute)
	assert.True(t, incident.View(clk.Now()).IsOverdue)
}

func TestListIncidents_Filters(t *testing.T) {
	svc, clk, _ := newTestIncidentService(t)
	ctx := context.Background()

	_, err := svc.ReportIncident(ctx, worker, testIncidentRequest())
	require.NoError(t, err)
	clk.Advance(time.Minute)
	req := testIncidentRequest()
	req.Severity = domain.SeverityLow
	low, err := svc.ReportIncident(ctx, engineer, req)
	require.NoError(t, err)

	all, err := svc.ListIncidents(ctx, ListIncidentsRequest{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, low.IncidentID, all[0].IncidentID)

	lows, err := svc.ListIncidents(ctx, ListIncidentsRequest{Severity: "low"})
	require.NoError(t, err)
	require.Len(t, lows, 1)

	mine, err := svc.ListIncidents(ctx, ListIncidentsRequest{ReportedBy: worker.UserID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.SeverityHigh, mine[0].Severity)
}

func TestDeleteIncident(t *testing.T) {
	svc, _, pub := newTestIncidentService(t)
	ctx := context.Background()
	incident, err := svc.ReportIncident(ctx, worker, testIncidentRequest())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteIncident(ctx, engineer, incident.IncidentID))
	_, err = svc.GetIncident(ctx, incident.IncidentID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(svc.DeleteIncident(ctx, engineer, incident.IncidentID), domain.ErrNotFound))
	assert.Equal(t, []string{"incident.reported", "incident.deleted"}, pub.types())
}

func TestAnalyzeIncident(t *testing.T) {
	clk := clock.NewManual(testStart)
	deps := testDeps(clk)
	deps.Classifier = &fakeClassifier{incident: &domain.IncidentAnalysis{
		RiskLevel:        domain.SeverityHigh,
		SuggestedActions: []string{"isolate press"},
		ConfidenceScore:  0.82,
	}}
	svc := NewIncidentService(repository.NewMemoryIncidentsRepository(), deps)
	ctx := context.Background()

	incident, err := svc.ReportIncident(ctx, worker, testIncidentRequest())
	require.NoError(t, err)

	analyzed, err := svc.AnalyzeIncident(ctx, engineer, incident.IncidentID)
	require.NoError(t, err)
	require.NotNil(t, analyzed.AIAnalysis)
	assert.Equal(t, domain.SeverityHigh, analyzed.AIAnalysis.RiskLevel)
	assert.Equal(t, []string{"isolate press"}, analyzed.AIAnalysis.SuggestedActions)
}

func TestAnalyzeIncident_Unavailable(t *testing.T) {
	svc, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	incident, err := svc.ReportIncident(ctx, worker, testIncidentRequest())
	require.NoError(t, err)

	_, err = svc.AnalyzeIncident(ctx, engineer, incident.IncidentID)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))

	clk := clock.NewManual(testStart)
	deps := testDeps(clk)
	deps.Classifier = &fakeClassifier{err: errors.New("timeout")}
	failing := NewIncidentService(repository.NewMemoryIncidentsRepository(), deps)
	incident, err = failing.ReportIncident(ctx, worker, testIncidentRequest())
	require.NoError(t, err)
	_, err = failing.AnalyzeIncident(ctx, engineer, incident.IncidentID)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}
