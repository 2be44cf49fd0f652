package httpapi

import (
	"net/http"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router wraps http.ServeMux with method-qualified patterns.
type Router struct {
	mux    *http.ServeMux
	auth   *Authenticator
	logger *zap.Logger
}

func NewRouter(auth *Authenticator, logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		auth:   auth,
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler registers a plain http.Handler (metrics, health).
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// secured registers h behind authentication and the given role gate.
func (r *Router) secured(pattern string, h http.HandlerFunc, roles ...domain.Role) {
	r.Handle(pattern, r.auth.Require(roles...)(h))
}

var (
	safetyReviewers   = []domain.Role{domain.RoleSafetyOfficer, domain.RoleSupervisor, domain.RoleEngineer, domain.RoleAdmin}
	machineCreators   = []domain.Role{domain.RoleEngineer, domain.RoleAdmin}
	machineOperators  = []domain.Role{domain.RoleEngineer, domain.RoleAdmin, domain.RoleMaintenance}
	suggestionManager = []domain.Role{domain.RoleSupervisor, domain.RoleEngineer, domain.RoleAdmin}
	materialCreators  = []domain.Role{domain.RoleAdmin, domain.RoleLogistics}
	materialHandlers  = []domain.Role{domain.RoleAdmin, domain.RoleLogistics, domain.RoleProduction}
	environmentStaff  = []domain.Role{domain.RoleAdmin, domain.RoleEnvironment}
	adminsOnly        = []domain.Role{domain.RoleAdmin}
)

// RegisterSafetyRoutes mounts /api/safety. Reporting is open to every role.
func (r *Router) RegisterSafetyRoutes(h *SafetyHandler) {
	r.secured("POST /api/safety/report", h.ReportIncident)
	r.secured("GET /api/safety", h.ListIncidents, safetyReviewers...)
	r.secured("GET /api/safety/export", h.ExportIncidents, safetyReviewers...)
	r.secured("GET /api/safety/{id}", h.GetIncident, safetyReviewers...)
	r.secured("PUT /api/safety/{id}", h.UpdateIncident, safetyReviewers...)
	r.secured("DELETE /api/safety/{id}", h.DeleteIncident, safetyReviewers...)
	r.secured("POST /api/safety/{id}/escalate", h.EscalateIncident, safetyReviewers...)
	r.secured("POST /api/safety/{id}/analyze", h.AnalyzeIncident, safetyReviewers...)
}

// RegisterMaintenanceRoutes mounts /api/maintenance.
func (r *Router) RegisterMaintenanceRoutes(h *MaintenanceHandler) {
	r.secured("POST /api/maintenance/machine", h.CreateMachine, machineCreators...)
	r.secured("GET /api/maintenance/machines", h.ListMachines)
	r.secured("GET /api/maintenance/machine/{id}", h.GetMachine)
	r.secured("PUT /api/maintenance/machine/{id}", h.UpdateMachine, machineOperators...)
	r.secured("POST /api/maintenance/record/{id}", h.AddMaintenanceRecord,
		domain.RoleMaintenance, domain.RoleEngineer, domain.RoleAdmin)
	r.secured("PUT /api/maintenance/sensor/{id}", h.UpdateSensors, machineOperators...)
	r.secured("POST /api/maintenance/alert/{id}", h.RaiseAlert, machineOperators...)
	r.secured("PUT /api/maintenance/alert/{id}/{alertId}/acknowledge", h.AcknowledgeAlert, machineOperators...)
	r.secured("PUT /api/maintenance/alert/{id}/{alertId}/resolve", h.ResolveAlert, machineOperators...)
	r.secured("GET /api/maintenance/calendar", h.GetCalendar)
	r.secured("GET /api/maintenance/calendar/export", h.ExportCalendar)
	r.secured("POST /api/maintenance/calendar/{id}", h.AddCalendarTask, machineOperators...)
}

// RegisterSuggestionRoutes mounts /api/suggestions.
func (r *Router) RegisterSuggestionRoutes(h *SuggestionHandler) {
	r.secured("POST /api/suggestions", h.SubmitSuggestion)
	r.secured("GET /api/suggestions", h.ListSuggestions)
	r.secured("GET /api/suggestions/analytics/dashboard", h.Analytics, suggestionManager...)
	r.secured("GET /api/suggestions/{id}", h.GetSuggestion)
	r.secured("PUT /api/suggestions/{id}/status", h.UpdateStatus, suggestionManager...)
	r.secured("POST /api/suggestions/{id}/vote", h.Vote)
	r.secured("POST /api/suggestions/{id}/comment", h.Comment)
	r.secured("POST /api/suggestions/{id}/review", h.Review, suggestionManager...)
	r.secured("POST /api/suggestions/{id}/categorize", h.Categorize, suggestionManager...)
}

// RegisterMaterialRoutes mounts /api/material.
func (r *Router) RegisterMaterialRoutes(h *MaterialHandler) {
	r.secured("POST /api/material/add", h.CreateMaterial, materialCreators...)
	r.secured("GET /api/material", h.ListMaterials)
	r.secured("GET /api/material/{id}", h.GetMaterial)
	r.secured("PUT /api/material/{id}", h.UpdateMaterial, materialHandlers...)
	r.secured("DELETE /api/material/{id}", h.DeleteMaterial, adminsOnly...)
	r.secured("POST /api/material/{id}/move", h.MoveMaterial, materialHandlers...)
	r.secured("POST /api/material/{id}/alert", h.RaiseAlert, materialHandlers...)
	r.secured("PUT /api/material/{id}/alert/{alertId}/resolve", h.ResolveAlert, materialHandlers...)
}

// RegisterEnvironmentRoutes mounts /api/environment.
func (r *Router) RegisterEnvironmentRoutes(h *EnvironmentHandler) {
	r.secured("POST /api/environment", h.CreateMetric, environmentStaff...)
	r.secured("GET /api/environment", h.ListMetrics)
	r.secured("GET /api/environment/{id}", h.GetMetric)
	r.secured("PUT /api/environment/{id}", h.UpdateMetric, environmentStaff...)
	r.secured("DELETE /api/environment/{id}", h.DeleteMetric, adminsOnly...)
	r.secured("POST /api/environment/{id}/alert", h.RaiseAlert, environmentStaff...)
	r.secured("PUT /api/environment/{id}/alert/{alertId}/resolve", h.ResolveAlert, environmentStaff...)
}

// RegisterOpsRoutes mounts the unauthenticated /metrics, /live and /ready endpoints.
func (r *Router) RegisterOpsRoutes(health healthcheck.Handler) {
	r.HandleHandler("GET /metrics", promhttp.Handler())
	r.HandleHandler("GET /live", health)
	r.HandleHandler("GET /ready", health)
}
