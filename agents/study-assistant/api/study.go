package api

import (
	"net/http"

	"automindmap/internal/models"
)

type explainRequest struct {
	Text     string `json:"text"`
	Mode     string `json:"mode"`
	Style    string `json:"style"`
	Duration string `json:"duration"`
	Coverage string `json:"coverage"`
}

type explainResponse struct {
	Explanation string `json:"explanation"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	text, err := s.assistant.ExplainText(r.Context(), models.ExplanationRequest{
		Text:         req.Text,
		Mode:         models.Mode(req.Mode),
		Style:        models.Style(req.Style),
		DurationHint: req.Duration,
		CoverageHint: req.Coverage,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, explainResponse{Explanation: text})
}

type analyzeTopicRequest struct {
	Topic   string `json:"topic"`
	Context string `json:"context"`
}

type analyzeTopicResponse struct {
	Analysis string `json:"analysis"`
}

func (s *Server) handleAnalyzeTopic(w http.ResponseWriter, r *http.Request) {
	var req analyzeTopicRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	analysis, err := s.assistant.AnalyzeTopic(r.Context(), req.Topic, req.Context)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeTopicResponse{Analysis: analysis})
}
