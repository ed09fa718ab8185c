package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"velvethour/internal/service"
	"velvethour/internal/transport/rest/middleware"
)

// MatchHandler handles participant match endpoints
type MatchHandler struct {
	sessionSvc  *service.SessionService
	feedbackSvc *service.FeedbackService
}

func NewMatchHandler(sessionSvc *service.SessionService, feedbackSvc *service.FeedbackService) *MatchHandler {
	return &MatchHandler{
		sessionSvc:  sessionSvc,
		feedbackSvc: feedbackSvc,
	}
}

// Confirm handles POST /v1/matches/{matchId}/confirm
func (h *MatchHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	userID := middleware.GetUserID(r.Context())

	match, err := h.sessionSvc.ConfirmMatch(r.Context(), matchID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

// FeedbackRequest is the request body for match feedback
type FeedbackRequest struct {
	WantToConnect bool   `json:"wantToConnect"`
	ReasonCode    string `json:"reasonCode,omitempty"`
}

// Feedback handles POST /v1/matches/{matchId}/feedback
func (h *MatchHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	userID := middleware.GetUserID(r.Context())

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	feedback, complete, err := h.feedbackSvc.Submit(r.Context(), matchID, userID, req.WantToConnect, req.ReasonCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"feedback":         feedback,
		"feedbackComplete": complete,
	})
}
