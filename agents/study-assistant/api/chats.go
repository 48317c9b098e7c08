package api

import (
	"net/http"
	"strings"

	"automindmap/internal/models"
)

type createChatRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.store.ListChats(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}

	chat, err := s.store.CreateChat(r.Context(), currentUser(r).ID, strings.TrimSpace(req.Title))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	chat, err := s.store.Chat(r.Context(), currentUser(r).ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteChat(r.Context(), currentUser(r).ID, r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// handleSendMessage accepts either a JSON body or a multipart form with a
// "content" field and up to MaxFiles "files".
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var (
		content     string
		attachments []models.Attachment
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var err error
		content, attachments, err = s.receiveUploads(w, r)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	} else {
		var req sendMessageRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		content = req.Content
	}

	msg, err := s.assistant.SendMessage(r.Context(), currentUser(r).ID, r.PathValue("id"), content, attachments)
	if err != nil {
		s.discardUploads(attachments)
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleGenerateResponse(w http.ResponseWriter, r *http.Request) {
	reply, err := s.assistant.GenerateResponse(r.Context(), currentUser(r).ID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type chatTitleRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleUpdateChatTitle(w http.ResponseWriter, r *http.Request) {
	var req chatTitleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, errInvalidRequest, "Title is required")
		return
	}

	if err := s.store.UpdateChatTitle(r.Context(), currentUser(r).ID, r.PathValue("id"), title); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatTitleRequest{Title: title})
}

type starResponse struct {
	Starred bool `json:"starred"`
}

func (s *Server) handleStarChat(starred bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.SetChatStarred(r.Context(), currentUser(r).ID, r.PathValue("id"), starred); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, starResponse{Starred: starred})
	}
}
