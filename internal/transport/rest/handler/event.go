package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"velvethour/internal/model"
	"velvethour/internal/service"
	"velvethour/internal/transport/rest/middleware"
)

// EventHandler handles participant-facing event endpoints
type EventHandler struct {
	sessionSvc *service.SessionService
	authSvc    *service.AuthService
}

func NewEventHandler(sessionSvc *service.SessionService, authSvc *service.AuthService) *EventHandler {
	return &EventHandler{
		sessionSvc: sessionSvc,
		authSvc:    authSvc,
	}
}

// JoinRequest is the request body for joining an event
type JoinRequest struct {
	DisplayName string `json:"displayName"`
}

// Join handles POST /v1/events/{eventId}/join. Sending an earlier participant
// token in the Authorization header resumes that identity instead of minting
// a new one, so a page reload never duplicates the participant.
func (h *EventHandler) Join(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "displayName is required")
		return
	}

	userID := h.resumedUserID(r, eventID)
	if userID == "" {
		userID = "u_" + uuid.New().String()[:8]
	}

	participant, err := h.sessionSvc.Join(r.Context(), eventID, userID, req.DisplayName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := h.authSvc.GenerateParticipantToken(eventID, userID, req.DisplayName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	status, err := h.sessionSvc.GetStatus(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.JoinResponse{
		UserID:      userID,
		Token:       token,
		Participant: participant,
		Status:      status,
	})
}

func (h *EventHandler) resumedUserID(r *http.Request, eventID string) string {
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	claims, err := h.authSvc.ValidateParticipantToken(parts[1])
	if err != nil || claims.EventID != eventID {
		return ""
	}
	return claims.UserID
}

// Status handles GET /v1/events/{eventId}/status
func (h *EventHandler) Status(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]
	if middleware.GetEventID(r.Context()) != eventID {
		writeError(w, http.StatusForbidden, "token not valid for this event")
		return
	}

	status, err := h.sessionSvc.GetStatus(r.Context(), eventID, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// AttendanceRequest is the request body for the attendance toggle
type AttendanceRequest struct {
	Attending bool `json:"attending"`
}

// Attendance handles POST /v1/events/{eventId}/attendance
func (h *EventHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]
	if middleware.GetEventID(r.Context()) != eventID {
		writeError(w, http.StatusForbidden, "token not valid for this event")
		return
	}

	var req AttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.sessionSvc.SetAttendance(r.Context(), eventID, userID, req.Attending); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"attending": req.Attending})
}
