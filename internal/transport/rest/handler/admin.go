package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"velvethour/internal/model"
	"velvethour/internal/pairing"
	"velvethour/internal/service"
)

// AdminHandler handles the event control panel endpoints
type AdminHandler struct {
	sessionSvc *service.SessionService
}

func NewAdminHandler(sessionSvc *service.SessionService) *AdminHandler {
	return &AdminHandler{sessionSvc: sessionSvc}
}

// StartSession handles POST /v1/admin/events/{eventId}/session/start
func (h *AdminHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]

	session, err := h.sessionSvc.StartSession(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// StartRoundRequest optionally carries a manual zone assignment; with no
// zones the pairing engine computes the round.
type StartRoundRequest struct {
	Zones [][]string `json:"zones,omitempty"`
}

// StartRound handles POST /v1/admin/events/{eventId}/rounds/start
func (h *AdminHandler) StartRound(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]

	var req StartRoundRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var manual *pairing.ManualAssignment
	if len(req.Zones) > 0 {
		manual = &pairing.ManualAssignment{Zones: req.Zones}
	}

	session, err := h.sessionSvc.StartRound(r.Context(), eventID, manual)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ValidateRound handles POST /v1/admin/events/{eventId}/rounds/validate
func (h *AdminHandler) ValidateRound(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]

	var req StartRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.sessionSvc.ValidateRound(r.Context(), eventID, pairing.ManualAssignment{Zones: req.Zones})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CloseRound handles POST /v1/admin/events/{eventId}/rounds/close
func (h *AdminHandler) CloseRound(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]

	session, err := h.sessionSvc.CloseRound(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// EndSession handles POST /v1/admin/events/{eventId}/session/end
func (h *AdminHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]

	session, err := h.sessionSvc.EndSession(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ResetSession handles POST /v1/admin/events/{eventId}/session/reset
func (h *AdminHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]

	if err := h.sessionSvc.ResetSession(r.Context(), eventID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// UpdateConfig handles PUT /v1/admin/events/{eventId}/config
func (h *AdminHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]

	var cfg model.SessionConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessionSvc.UpdateConfig(r.Context(), eventID, cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Attendance handles GET /v1/admin/events/{eventId}/attendance
func (h *AdminHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]

	stats, err := h.sessionSvc.AttendanceStats(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ClearConnections handles POST /v1/admin/events/{eventId}/connections/clear
func (h *AdminHandler) ClearConnections(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]

	if err := h.sessionSvc.ClearConnections(r.Context(), eventID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
