package httpapi

import (
	"net/http"

	"github.com/SaloniGupta6/Steel-Guardian/internal/clock"
	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/service"

	"go.uber.org/zap"
)

// SafetyHandler serves /api/safety.
type SafetyHandler struct {
	incidents service.IncidentService
	clock     clock.Clock
	logger    *zap.Logger
}

func NewSafetyHandler(incidents service.IncidentService, clk clock.Clock, logger *zap.Logger) *SafetyHandler {
	return &SafetyHandler{incidents: incidents, clock: clk, logger: logger}
}

func (h *SafetyHandler) views(items []*domain.Incident) []domain.IncidentView {
	now := h.clock.Now()
	out := make([]domain.IncidentView, 0, len(items))
	for _, it := range items {
		out = append(out, it.View(now))
	}
	return out
}

// ReportIncident handles POST /api/safety/report.
func (h *SafetyHandler) ReportIncident(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.ReportIncidentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	incident, err := h.incidents.ReportIncident(r.Context(), actor, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(incident.View(h.clock.Now())))
}

// ListIncidents handles GET /api/safety.
func (h *SafetyHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	items, err := h.incidents.ListIncidents(r.Context(), service.ListIncidentsRequest{
		Status:     queryParam(r, "status"),
		Severity:   queryParam(r, "severity"),
		Category:   queryParam(r, "category"),
		ReportedBy: queryParam(r, "reportedBy"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": h.views(items), "total": len(items)}))
}

// GetIncident handles GET /api/safety/{id}.
func (h *SafetyHandler) GetIncident(w http.ResponseWriter, r *http.Request) {
	incident, err := h.incidents.GetIncident(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(incident.View(h.clock.Now())))
}

// UpdateIncident handles PUT /api/safety/{id}.
func (h *SafetyHandler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.UpdateIncidentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	incident, err := h.incidents.UpdateIncident(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(incident.View(h.clock.Now())))
}

// DeleteIncident handles DELETE /api/safety/{id}.
func (h *SafetyHandler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id := r.PathValue("id")
	if err := h.incidents.DeleteIncident(r.Context(), actor, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"incidentId": id}))
}

// EscalateIncident handles POST /api/safety/{id}/escalate.
func (h *SafetyHandler) EscalateIncident(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.EscalateIncidentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	escalation, err := h.incidents.EscalateIncident(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(escalation))
}

// AnalyzeIncident handles POST /api/safety/{id}/analyze.
func (h *SafetyHandler) AnalyzeIncident(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	incident, err := h.incidents.AnalyzeIncident(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(incident.View(h.clock.Now())))
}

// ExportIncidents handles GET /api/safety/export with the list filters.
func (h *SafetyHandler) ExportIncidents(w http.ResponseWriter, r *http.Request) {
	items, err := h.incidents.ListIncidents(r.Context(), service.ListIncidentsRequest{
		Status:     queryParam(r, "status"),
		Severity:   queryParam(r, "severity"),
		Category:   queryParam(r, "category"),
		ReportedBy: queryParam(r, "reportedBy"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	data, err := GenerateIncidentExport(h.views(items))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeExcel(w, "incidents.xlsx", data)
}
