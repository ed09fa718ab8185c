package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"velvethour/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps service sentinels to HTTP statuses. Manual pairing
// rejections carry the full violation list so the admin UI can render them.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ManualValidationError
	if errors.As(err, &verr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":      verr.Error(),
			"validation": verr.Result,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrNoSession),
		errors.Is(err, service.ErrMatchNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionInProgress),
		errors.Is(err, service.ErrAlreadyRun),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrRoundLimit),
		errors.Is(err, service.ErrNotEnoughPresent),
		errors.Is(err, service.ErrDuplicateSubmission):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNothingToStart),
		errors.Is(err, service.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotInMatch):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
