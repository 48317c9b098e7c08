package api

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	studyassistant "automindmap/agents/study-assistant"
	"automindmap/internal/models"

	"github.com/google/uuid"
)

const multipartMemory = 8 << 20

var allowedUploadTypes = []string{
	"application/pdf",
	"text/plain",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

// receiveUploads parses a multipart message and stores its files under the
// upload directory. Only file metadata is returned; contents stay on disk.
func (s *Server) receiveUploads(w http.ResponseWriter, r *http.Request) (string, []models.Attachment, error) {
	maxFileSize := int64(s.cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.Server.MaxFiles)*maxFileSize+maxJSONBodySize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return "", nil, fmt.Errorf("%w: invalid upload: %v", studyassistant.ErrInvalidInput, err)
	}
	defer r.MultipartForm.RemoveAll()

	content := r.FormValue("content")
	files := r.MultipartForm.File["files"]
	if len(files) > s.cfg.Server.MaxFiles {
		return "", nil, fmt.Errorf("%w: at most %d files per message", studyassistant.ErrInvalidInput, s.cfg.Server.MaxFiles)
	}

	for _, fh := range files {
		if fh.Size > maxFileSize {
			return "", nil, fmt.Errorf("%w: %s exceeds %d MB", studyassistant.ErrInvalidInput, fh.Filename, s.cfg.Server.MaxUploadMB)
		}
		if !slices.Contains(allowedUploadTypes, mediaType(fh)) {
			return "", nil, fmt.Errorf("%w: file type not allowed for %s; upload PDF, text, Word documents or images",
				studyassistant.ErrInvalidInput, fh.Filename)
		}
	}

	if err := os.MkdirAll(s.cfg.Server.UploadDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	attachments := make([]models.Attachment, 0, len(files))
	for _, fh := range files {
		a, err := s.saveUpload(fh)
		if err != nil {
			s.discardUploads(attachments)
			return "", nil, err
		}
		attachments = append(attachments, a)
	}
	return content, attachments, nil
}

func (s *Server) saveUpload(fh *multipart.FileHeader) (models.Attachment, error) {
	src, err := fh.Open()
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.Create(filepath.Join(s.cfg.Server.UploadDir, name))
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to store upload %s: %w", fh.Filename, err)
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst.Name())
		return models.Attachment{}, fmt.Errorf("failed to store upload %s: %w", fh.Filename, err)
	}

	return models.Attachment{
		FileName: filepath.Base(fh.Filename),
		FileType: mediaType(fh),
		FileSize: n,
		FileURL:  "/uploads/" + name,
	}, nil
}

// handleDownloadUpload serves a stored file only to the owner of a chat whose
// messages reference it. Anything else, directory paths included, is a 404.
func (s *Server) handleDownloadUpload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusNotFound, errNotFound, "File not found")
		return
	}

	a, err := s.store.UserAttachment(r.Context(), currentUser(r).ID, "/uploads/"+name)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	f, err := os.Open(filepath.Join(s.cfg.Server.UploadDir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("failed to open upload", "name", name, "error", err)
		}
		writeError(w, http.StatusNotFound, errNotFound, "File not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, errNotFound, "File not found")
		return
	}

	if a.FileType != "" {
		w.Header().Set("Content-Type", a.FileType)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.FileName}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// discardUploads removes files saved for a message that was not stored.
func (s *Server) discardUploads(attachments []models.Attachment) {
	for _, a := range attachments {
		path := filepath.Join(s.cfg.Server.UploadDir, strings.TrimPrefix(a.FileURL, "/uploads/"))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove upload", "path", path, "error", err)
		}
	}
}

func mediaType(fh *multipart.FileHeader) string {
	mt, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}
