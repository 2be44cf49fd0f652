package httpapi

import (
	"net/http"

	"github.com/SaloniGupta6/Steel-Guardian/internal/clock"
	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/service"

	"go.uber.org/zap"
)

// MaintenanceHandler serves /api/maintenance.
type MaintenanceHandler struct {
	machines service.MachineService
	clock    clock.Clock
	logger   *zap.Logger
}

func NewMaintenanceHandler(machines service.MachineService, clk clock.Clock, logger *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{machines: machines, clock: clk, logger: logger}
}

// sensorUpdateRequest is the body of PUT /api/maintenance/sensor/{id}.
type sensorUpdateRequest struct {
	SensorData []service.SensorReading `json:"sensorData"`
}

// CreateMachine handles POST /api/maintenance/machine.
func (h *MaintenanceHandler) CreateMachine(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.CreateMachineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	machine, err := h.machines.CreateMachine(r.Context(), actor, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(machine.View(h.clock.Now())))
}

// ListMachines handles GET /api/maintenance/machines.
func (h *MaintenanceHandler) ListMachines(w http.ResponseWriter, r *http.Request) {
	items, err := h.machines.ListMachines(r.Context(), service.ListMachinesRequest{
		CurrentStatus: queryParam(r, "status"),
		MachineType:   queryParam(r, "machineType"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	now := h.clock.Now()
	views := make([]domain.MachineView, 0, len(items))
	for _, m := range items {
		views = append(views, m.View(now))
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": views, "total": len(views)}))
}

// GetMachine handles GET /api/maintenance/machine/{id}.
func (h *MaintenanceHandler) GetMachine(w http.ResponseWriter, r *http.Request) {
	machine, err := h.machines.GetMachine(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(machine.View(h.clock.Now())))
}

// UpdateMachine handles PUT /api/maintenance/machine/{id}.
func (h *MaintenanceHandler) UpdateMachine(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.UpdateMachineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	machine, err := h.machines.UpdateMachine(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(machine.View(h.clock.Now())))
}

// AddMaintenanceRecord handles POST /api/maintenance/record/{id}.
func (h *MaintenanceHandler) AddMaintenanceRecord(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.AddMaintenanceRecordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	record, err := h.machines.AddMaintenanceRecord(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(record))
}

// UpdateSensors handles PUT /api/maintenance/sensor/{id}.
func (h *MaintenanceHandler) UpdateSensors(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req sensorUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sensors, err := h.machines.UpdateSensors(r.Context(), actor, r.PathValue("id"), req.SensorData)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"sensors": sensors}))
}

// RaiseAlert handles POST /api/maintenance/alert/{id}.
func (h *MaintenanceHandler) RaiseAlert(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.RaisePredictiveAlertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	alert, err := h.machines.RaiseAlert(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(alert))
}

// AcknowledgeAlert handles PUT /api/maintenance/alert/{id}/{alertId}/acknowledge.
func (h *MaintenanceHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	alert, err := h.machines.AcknowledgeAlert(r.Context(), actor, r.PathValue("id"), r.PathValue("alertId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(alert))
}

// ResolveAlert handles PUT /api/maintenance/alert/{id}/{alertId}/resolve.
func (h *MaintenanceHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	alert, err := h.machines.ResolveAlert(r.Context(), actor, r.PathValue("id"), r.PathValue("alertId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(alert))
}

// GetCalendar handles GET /api/maintenance/calendar.
func (h *MaintenanceHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	entries, err := h.machines.GetCalendar(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": entries, "total": len(entries)}))
}

// AddCalendarTask handles POST /api/maintenance/calendar/{id}.
func (h *MaintenanceHandler) AddCalendarTask(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req service.CalendarTaskInput
	if !decodeBody(w, r, &req) {
		return
	}
	task, err := h.machines.AddCalendarTask(r.Context(), actor, r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(task))
}

// ExportCalendar handles GET /api/maintenance/calendar/export.
func (h *MaintenanceHandler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	entries, err := h.machines.GetCalendar(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	data, err := GenerateCalendarExport(entries, h.clock.Now())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeExcel(w, "maintenance-calendar.xlsx", data)
}
