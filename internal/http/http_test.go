package httpapi

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/clock"
	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/idgen"
	"github.com/SaloniGupta6/Steel-Guardian/internal/repository"
	"github.com/SaloniGupta6/Steel-Guardian/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/heptiolabs/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

var testStart = time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

type testAPI struct {
	router *Router
	clock  *clock.Manual
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	clk := clock.NewManual(testStart)
	deps := service.Deps{Clock: clk, IDs: idgen.New(clk, rand.Reader), Logger: logger}

	router := NewRouter(NewAuthenticator(testSecret, logger), logger)
	router.RegisterSafetyRoutes(NewSafetyHandler(
		service.NewIncidentService(repository.NewMemoryIncidentsRepository(), deps), clk, logger))
	router.RegisterMaintenanceRoutes(NewMaintenanceHandler(
		service.NewMachineService(repository.NewMemoryMachinesRepository(), deps), clk, logger))
	router.RegisterSuggestionRoutes(NewSuggestionHandler(
		service.NewSuggestionService(repository.NewMemorySuggestionsRepository(), deps), clk, logger))
	router.RegisterMaterialRoutes(NewMaterialHandler(
		service.NewMaterialService(repository.NewMemoryMaterialsRepository(), deps), clk, logger))
	router.RegisterEnvironmentRoutes(NewEnvironmentHandler(
		service.NewEnvironmentService(repository.NewMemoryEnvironmentRepository(), deps), logger))
	router.RegisterOpsRoutes(healthcheck.NewHandler())
	return &testAPI{router: router, clock: clk}
}

func signToken(t *testing.T, userID string, role domain.Role, department string, expires time.Time) string {
	t.Helper()
	claims := UserClaims{
		UserID:     userID,
		Role:       string(role),
		Department: department,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func tokenFor(t *testing.T, userID string, role domain.Role, department string) string {
	return signToken(t, userID, role, department, time.Now().Add(time.Hour))
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// envelope decodes the response and returns its result.
func envelope(t *testing.T, rec *httptest.ResponseRecorder) (Result[json.RawMessage], map[string]any) {
	t.Helper()
	var res Result[json.RawMessage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	var out map[string]any
	if len(res.Result) > 0 && res.Result[0] == '{' {
		require.NoError(t, json.Unmarshal(res.Result, &out))
	}
	return res, out
}

var incidentBody = map[string]any{
	"title":       "Oil leak near press",
	"description": "Hydraulic oil pooling under press 3",
	"severity":    "critical",
	"category":    "equipment",
	"location":    map[string]any{"area": "Rolling mill"},
}

func TestAuth_MissingToken(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/material", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	res, _ := envelope(t, rec)
	assert.Equal(t, ResultError, res.Code)
	assert.Equal(t, "error", res.Type)
}

func TestAuth_InvalidAndExpiredTokens(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/material", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired := signToken(t, "u1", domain.RoleAdmin, "admin", time.Now().Add(-time.Hour))
	rec = api.do(t, http.MethodGet, "/api/material", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, UserClaims{UserID: "u1", Role: "admin"}).
		SignedString([]byte("other-secret"))
	require.NoError(t, err)
	rec = api.do(t, http.MethodGet, "/api/material", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestParseToken_Claims(t *testing.T) {
	auth := NewAuthenticator(testSecret, zap.NewNop())
	actor, err := auth.ParseToken(tokenFor(t, "u-42", domain.RoleEngineer, "maintenance"))
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{UserID: "u-42", Role: domain.RoleEngineer, Department: "maintenance"}, actor)

	_, err = auth.ParseToken("garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuth_RoleGate(t *testing.T) {
	api := newTestAPI(t)
	worker := tokenFor(t, "w1", domain.RoleWorker, "production")

	rec := api.do(t, http.MethodGet, "/api/safety", worker, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/safety/report", worker, incidentBody)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSafety_ReportAndGet(t *testing.T) {
	api := newTestAPI(t)
	worker := tokenFor(t, "w1", domain.RoleWorker, "production")
	officer := tokenFor(t, "s1", domain.RoleSafetyOfficer, "safety")

	rec := api.do(t, http.MethodPost, "/api/safety/report", worker, incidentBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	res, created := envelope(t, rec)
	assert.Equal(t, ResultSuccess, res.Code)
	assert.Equal(t, "reported", created["status"])
	assert.Equal(t, "w1", created["reportedBy"])
	id := created["incidentId"].(string)
	assert.Regexp(t, `^SI-20261015-[A-Z0-9]{6}$`, id)

	api.clock.Advance(2*time.Hour + time.Second)
	rec = api.do(t, http.MethodGet, "/api/safety/"+id, officer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, got := envelope(t, rec)
	assert.Equal(t, float64(2), got["ageInHours"])
	assert.Equal(t, true, got["isOverdue"])

	rec = api.do(t, http.MethodGet, "/api/safety?severity=critical", officer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, list := envelope(t, rec)
	assert.Equal(t, float64(1), list["total"])
}

func TestSafety_ValidationError(t *testing.T) {
	api := newTestAPI(t)
	worker := tokenFor(t, "w1", domain.RoleWorker, "production")

	rec := api.do(t, http.MethodPost, "/api/safety/report", worker, map[string]any{"title": "no details"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	res, _ := envelope(t, rec)
	var fields []domain.FieldError
	require.NoError(t, json.Unmarshal(res.Result, &fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	assert.Contains(t, names, "description")
	assert.Contains(t, names, "severity")
}

func TestSafety_MalformedBody(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/safety/report", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "w1", domain.RoleWorker, ""))
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSafety_NotFound(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/safety/SI-20261015-XXXXXX", tokenFor(t, "a1", domain.RoleAdmin, ""), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSafety_AnalyzeWithoutClassifier(t *testing.T) {
	api := newTestAPI(t)
	admin := tokenFor(t, "a1", domain.RoleAdmin, "admin")
	rec := api.do(t, http.MethodPost, "/api/safety/report", admin, incidentBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	_, created := envelope(t, rec)

	rec = api.do(t, http.MethodPost, "/api/safety/"+created["incidentId"].(string)+"/analyze", admin, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSafety_Export(t *testing.T) {
	api := newTestAPI(t)
	admin := tokenFor(t, "a1", domain.RoleAdmin, "admin")
	api.do(t, http.MethodPost, "/api/safety/report", admin, incidentBody)

	rec := api.do(t, http.MethodGet, "/api/safety/export", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, excelContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "incidents.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestMaintenance_SensorFlow(t *testing.T) {
	api := newTestAPI(t)
	engineer := tokenFor(t, "e1", domain.RoleEngineer, "maintenance")

	rec := api.do(t, http.MethodPost, "/api/maintenance/machine", engineer, map[string]any{
		"machineName": "Blast furnace 1",
		"machineType": "furnace",
		"location":    map[string]any{"area": "Melt shop"},
		"sensors": []map[string]any{{
			"sensorType":     "temperature",
			"unit":           "C",
			"normalRange":    map[string]any{"min": 0, "max": 80},
			"alertThreshold": map[string]any{"min": -10, "max": 100},
		}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	_, machine := envelope(t, rec)
	id := machine["machineId"].(string)

	rec = api.do(t, http.MethodPut, "/api/maintenance/sensor/"+id, engineer, map[string]any{
		"sensorData": []map[string]any{{"sensorType": "temperature", "currentValue": 105}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	_, out := envelope(t, rec)
	sensors := out["sensors"].([]any)
	require.Len(t, sensors, 1)
	assert.Equal(t, "critical", sensors[0].(map[string]any)["status"])

	rec = api.do(t, http.MethodPut, "/api/maintenance/sensor/"+id, engineer, map[string]any{
		"sensorData": []map[string]any{{"sensorType": "temperature"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	worker := tokenFor(t, "w1", domain.RoleWorker, "production")
	rec = api.do(t, http.MethodPut, "/api/maintenance/sensor/"+id, worker, map[string]any{
		"sensorData": []map[string]any{{"sensorType": "temperature", "currentValue": 50}},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/maintenance/machines", worker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, list := envelope(t, rec)
	assert.Equal(t, float64(1), list["total"])
}

func TestMaintenance_CalendarAndExport(t *testing.T) {
	api := newTestAPI(t)
	engineer := tokenFor(t, "e1", domain.RoleEngineer, "maintenance")

	rec := api.do(t, http.MethodPost, "/api/maintenance/machine", engineer, map[string]any{
		"machineName": "Press 3",
		"machineType": "press",
		"location":    map[string]any{"area": "Rolling mill"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	_, machine := envelope(t, rec)
	id := machine["machineId"].(string)

	due := testStart.Add(48 * time.Hour)
	rec = api.do(t, http.MethodPost, "/api/maintenance/calendar/"+id, engineer, map[string]any{
		"taskName":    "Hydraulic check",
		"taskType":    "weekly",
		"nextDueDate": due,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/maintenance/calendar", engineer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, cal := envelope(t, rec)
	require.Equal(t, float64(1), cal["total"])
	entry := cal["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "Press 3", entry["machineName"])
	assert.Equal(t, "Hydraulic check", entry["taskName"])

	rec = api.do(t, http.MethodGet, "/api/maintenance/calendar/export", engineer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "maintenance-calendar.xlsx")
}

func TestSuggestions_VoteAndComment(t *testing.T) {
	api := newTestAPI(t)
	author := tokenFor(t, "w1", domain.RoleWorker, "production")
	voter := tokenFor(t, "w2", domain.RoleWorker, "production")

	rec := api.do(t, http.MethodPost, "/api/suggestions", author, map[string]any{
		"title":       "Reuse cooling water",
		"description": "Route quench water back to the cooling tower",
		"category":    "environment",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	_, sg := envelope(t, rec)
	id := sg["suggestionId"].(string)
	assert.Equal(t, "production", sg["department"])

	rec = api.do(t, http.MethodPost, "/api/suggestions/"+id+"/vote", voter, map[string]any{"voteType": "upvote"})
	require.Equal(t, http.StatusOK, rec.Code)
	_, vote := envelope(t, rec)
	assert.Equal(t, float64(1), vote["votingScore"])
	assert.Equal(t, float64(1), vote["totalVotes"])

	rec = api.do(t, http.MethodPost, "/api/suggestions/"+id+"/vote", voter, map[string]any{"voteType": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/suggestions/"+id+"/comment", voter, map[string]any{"comment": "Good idea"})
	require.Equal(t, http.StatusCreated, rec.Code)
	_, comment := envelope(t, rec)
	assert.Equal(t, "w2", comment["userId"])

	rec = api.do(t, http.MethodGet, "/api/suggestions/analytics/dashboard", author, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/suggestions/analytics/dashboard", tokenFor(t, "s1", domain.RoleSupervisor, ""), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMaterial_MoveAndDeleteGate(t *testing.T) {
	api := newTestAPI(t)
	logistics := tokenFor(t, "l1", domain.RoleLogistics, "logistics")

	rec := api.do(t, http.MethodPost, "/api/material/add", logistics, map[string]any{
		"materialType":    "raw_material",
		"name":            "Iron ore lot 7",
		"quantity":        map[string]any{"value": 40, "unit": "ton"},
		"currentLocation": map[string]any{"area": "Ore yard"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	_, m := envelope(t, rec)
	id := m["materialId"].(string)
	assert.Equal(t, "in_storage", m["status"])

	rec = api.do(t, http.MethodPost, "/api/material/"+id+"/move", logistics, map[string]any{
		"toLocation": map[string]any{"area": "Blast furnace feed"},
		"status":     "in_transit",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	_, moved := envelope(t, rec)
	assert.Equal(t, "Blast furnace feed", moved["currentLocation"].(map[string]any)["area"])
	assert.Equal(t, "Ore yard", moved["previousLocation"].(map[string]any)["area"])
	assert.Len(t, moved["movementHistory"], 1)

	rec = api.do(t, http.MethodDelete, "/api/material/"+id, logistics, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/material/"+id, tokenFor(t, "a1", domain.RoleAdmin, ""), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/material/"+id, logistics, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnvironment_CreateAndDeviation(t *testing.T) {
	api := newTestAPI(t)
	officer := tokenFor(t, "env1", domain.RoleEnvironment, "production")

	rec := api.do(t, http.MethodPost, "/api/environment", officer, map[string]any{
		"metricName": "Plant CO2",
		"unit":       "ton",
		"value":      120,
		"target":     100,
		"category":   "co2_emission",
		"plant":      "Plant A",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	_, metric := envelope(t, rec)
	assert.InDelta(t, 20.0, metric["deviationPercentage"], 1e-9)
	assert.Equal(t, "env1", metric["collectedBy"])

	rec = api.do(t, http.MethodPost, "/api/environment", tokenFor(t, "w1", domain.RoleWorker, ""), map[string]any{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOpsRoutes(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
