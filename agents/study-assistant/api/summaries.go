package api

import (
	"net/http"
	"strings"

	"automindmap/agents/study-assistant/youtube"
	"automindmap/internal/models"
)

type createSummaryRequest struct {
	VideoURL string `json:"videoUrl"`
}

func (s *Server) handleCreateSummary(w http.ResponseWriter, r *http.Request) {
	var req createSummaryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	sum, err := s.assistant.CreateSummary(r.Context(), currentUser(r).ID, req.VideoURL)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, withThumbnail(*sum))
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListSummaries(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryList(list))
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.store.Summary(r.Context(), currentUser(r).ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withThumbnail(*sum))
}

func (s *Server) handleDeleteSummary(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSummary(r.Context(), currentUser(r).ID, r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, errInvalidRequest, "Search query is required")
		return
	}

	list, err := s.store.SearchSummaries(r.Context(), currentUser(r).ID, q)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryList(list))
}

type bookmarkRequest struct {
	SummaryID string `json:"summaryId"`
}

func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if req.SummaryID == "" {
		writeError(w, http.StatusBadRequest, errInvalidRequest, "summaryId is required")
		return
	}

	bookmark, err := s.store.AddBookmark(r.Context(), currentUser(r).ID, req.SummaryID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookmark)
}

func (s *Server) handleRemoveBookmark(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveBookmark(r.Context(), currentUser(r).ID, r.PathValue("summaryId")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListBookmarks(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryList(list))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func withThumbnail(sum models.Summary) models.Summary {
	if sum.VideoID != "" {
		sum.ThumbnailURL = youtube.ThumbnailURL(sum.VideoID)
	}
	return sum
}

// summaryList adds thumbnails and keeps empty lists encoding as [] rather
// than null.
func summaryList(list []models.Summary) []models.Summary {
	out := make([]models.Summary, 0, len(list))
	for _, sum := range list {
		out = append(out, withThumbnail(sum))
	}
	return out
}
