package httpapi

import (
	"net/http"

	"github.com/SaloniGupta6/Steel-Guardian/internal/clock"
	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/service"

	"go.uber.org/zap"
)

// MaterialHandler serves /api/material.
type MaterialHandler struct {
	materials service.MaterialService
	clock     clock.Clock
	logger    *zap.Logger
}

func NewMaterialHandler(materials service.MaterialService, clk clock.Clock, logger *zap.Logger) *MaterialHandler {
	return &MaterialHandler{materials: materials, clock: clk, logger: logger}
}

// CreateMaterial handles POST /api/material/add.
func (h *MaterialHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.CreateMaterialRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := h.materials.CreateMaterial(r.Context(), actor, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(m.View(h.clock.Now())))
}

// ListMaterials handles GET /api/material.
func (h *MaterialHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	items, err := h.materials.ListMaterials(r.Context(), service.ListMaterialsRequest{
		Status:       queryParam(r, "status"),
		MaterialType: queryParam(r, "materialType"),
		Priority:     queryParam(r, "priority"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	now := h.clock.Now()
	views := make([]domain.MaterialView, 0, len(items))
	for _, m := range items {
		views = append(views, m.View(now))
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": views, "total": len(views)}))
}

// GetMaterial handles GET /api/material/{id}.
func (h *MaterialHandler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	m, err := h.materials.GetMaterial(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m.View(h.clock.Now())))
}

// UpdateMaterial handles PUT /api/material/{id}.
func (h *MaterialHandler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.UpdateMaterialRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := h.materials.UpdateMaterial(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m.View(h.clock.Now())))
}

// DeleteMaterial handles DELETE /api/material/{id}.
func (h *MaterialHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id := r.PathValue("id")
	if err := h.materials.DeleteMaterial(r.Context(), actor, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"materialId": id}))
}

// MoveMaterial handles POST /api/material/{id}/move.
func (h *MaterialHandler) MoveMaterial(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.MoveMaterialRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := h.materials.MoveMaterial(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(m.View(h.clock.Now())))
}

// RaiseAlert handles POST /api/material/{id}/alert.
func (h *MaterialHandler) RaiseAlert(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.RaiseMaterialAlertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	alert, err := h.materials.RaiseAlert(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(alert))
}

// ResolveAlert handles PUT /api/material/{id}/alert/{alertId}/resolve.
func (h *MaterialHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	alert, err := h.materials.ResolveAlert(r.Context(), actor, r.PathValue("id"), r.PathValue("alertId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(alert))
}
