package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"automindmap/internal/models"
	"automindmap/shared/email"
	"automindmap/shared/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidRequest, "A valid email address is required")
		return
	}
	if msg := s.checkPassword(req.Password); msg != "" {
		writeError(w, http.StatusBadRequest, errInvalidRequest, msg)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, errConflict, "User already exists")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}

	s.startSession(w, r, user, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	user, err := s.store.UserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.writeServiceError(w, r, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, errUnauthorized, "Invalid credentials")
		return
	}

	s.startSession(w, r, user, http.StatusOK)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token := uuid.NewString()
	expires, err := s.store.CreateSession(r.Context(), token, user.ID, s.cfg.Auth.SessionTTL())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.logger.Info("session started", "user_id", user.ID)
	writeJSON(w, status, authResponse{Token: token, ExpiresAt: expires, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSession(r.Context(), currentToken(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

const forgotPasswordReply = "If an account exists for that email, a reset link has been sent"

// handleForgotPassword answers the same way whether or not the account
// exists.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if s.mailer == nil || !s.mailer.Enabled() {
		writeError(w, http.StatusServiceUnavailable, errEmailDisabled, "Password reset by email is not configured")
		return
	}

	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, errInvalidRequest, "Email is required")
		return
	}

	user, err := s.store.UserByEmail(r.Context(), req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusOK, messageResponse{Message: forgotPasswordReply})
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	token := uuid.NewString()
	ttl := s.cfg.Auth.ResetTTL()
	if err := s.store.CreatePasswordReset(r.Context(), token, user.ID, ttl); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	reset := email.PasswordReset{
		FirstName: user.FirstName,
		ResetURL:  strings.TrimRight(s.cfg.Auth.PublicURL, "/") + "/reset-password?token=" + url.QueryEscape(token),
		ExpiresIn: ttl,
	}
	if err := s.mailer.SendPasswordReset(user.Email, reset); err != nil {
		s.logger.Error("failed to send password reset email", "user_id", user.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: forgotPasswordReply})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, errInvalidRequest, "Reset token is required")
		return
	}
	if msg := s.checkPassword(req.Password); msg != "" {
		writeError(w, http.StatusBadRequest, errInvalidRequest, msg)
		return
	}

	userID, err := s.store.ConsumePasswordReset(r.Context(), req.Token)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusBadRequest, errInvalidRequest, "Invalid or expired reset token")
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.store.UpdatePassword(r.Context(), userID, string(hash)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info("password reset", "user_id", userID)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password has been reset"})
}

func (s *Server) checkPassword(password string) string {
	if minChars := s.cfg.Auth.MinPasswordChars; len([]rune(password)) < minChars {
		return fmt.Sprintf("Password must be at least %d characters", minChars)
	}
	return ""
}
