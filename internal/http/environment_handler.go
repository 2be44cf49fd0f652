package httpapi

import (
	"net/http"

	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/service"

	"go.uber.org/zap"
)

// EnvironmentHandler serves /api/environment.
type EnvironmentHandler struct {
	metrics service.EnvironmentService
	logger  *zap.Logger
}

func NewEnvironmentHandler(metrics service.EnvironmentService, logger *zap.Logger) *EnvironmentHandler {
	return &EnvironmentHandler{metrics: metrics, logger: logger}
}

// CreateMetric handles POST /api/environment.
func (h *EnvironmentHandler) CreateMetric(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.CreateMetricRequest
	if !decodeBody(w, r, &req) {
		return
	}
	metric, err := h.metrics.CreateMetric(r.Context(), actor, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(metric.View()))
}

// ListMetrics handles GET /api/environment.
func (h *EnvironmentHandler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	items, err := h.metrics.ListMetrics(r.Context(), service.ListMetricsRequest{
		Category:           queryParam(r, "category"),
		Plant:              queryParam(r, "plant"),
		Department:         queryParam(r, "department"),
		VerificationStatus: queryParam(r, "verificationStatus"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	views := make([]domain.EnvironmentView, 0, len(items))
	for _, m := range items {
		views = append(views, m.View())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": views, "total": len(views)}))
}

// GetMetric handles GET /api/environment/{id}.
func (h *EnvironmentHandler) GetMetric(w http.ResponseWriter, r *http.Request) {
	metric, err := h.metrics.GetMetric(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(metric.View()))
}

// UpdateMetric handles PUT /api/environment/{id}.
func (h *EnvironmentHandler) UpdateMetric(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.UpdateMetricRequest
	if !decodeBody(w, r, &req) {
		return
	}
	metric, err := h.metrics.UpdateMetric(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(metric.View()))
}

// DeleteMetric handles DELETE /api/environment/{id}.
func (h *EnvironmentHandler) DeleteMetric(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id := r.PathValue("id")
	if err := h.metrics.DeleteMetric(r.Context(), actor, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"metricId": id}))
}

// RaiseAlert handles POST /api/environment/{id}/alert.
func (h *EnvironmentHandler) RaiseAlert(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.RaiseMetricAlertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	alert, err := h.metrics.RaiseAlert(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(alert))
}

// ResolveAlert handles PUT /api/environment/{id}/alert/{alertId}/resolve.
func (h *EnvironmentHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	alert, err := h.metrics.ResolveAlert(r.Context(), actor, r.PathValue("id"), r.PathValue("alertId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(alert))
}
