package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	studyassistant "automindmap/agents/study-assistant"
	"automindmap/shared/ai"
	"automindmap/shared/storage"
)

// Error codes returned in the "error" field.
const (
	errInvalidRequest   = "invalid_request"
	errUnauthorized     = "unauthorized"
	errNotFound         = "not_found"
	errConflict         = "conflict"
	errRateLimited      = "rate_limited"
	errGenerationFailed = "generation_failed"
	errEmailDisabled    = "email_disabled"
	errInternal         = "internal_error"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeServiceError maps errors from the assistant and the store onto HTTP
// statuses. Anything unrecognized is logged and reported as a 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, studyassistant.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, errInvalidRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, errNotFound, "Resource not found")
	case errors.Is(err, storage.ErrDuplicate):
		writeError(w, http.StatusConflict, errConflict, "Resource already exists")
	case errors.Is(err, ai.ErrGenerationFailed):
		s.logger.Warn("generation failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, errGenerationFailed, "The AI service is temporarily unavailable, please try again")
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, errInternal, "Internal server error")
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", studyassistant.ErrInvalidInput, err)
	}
	return nil
}
