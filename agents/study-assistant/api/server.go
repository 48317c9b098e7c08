package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	studyassistant "automindmap/agents/study-assistant"
	"automindmap/shared/config"
	"automindmap/shared/email"
	"automindmap/shared/monitoring"
	"automindmap/shared/storage"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxJSONBodySize   = 1 << 20
	serverReadTimeout = 30 * time.Second

	// Summaries and chat replies can sit through several model retries.
	serverWriteTimeout = 5 * time.Minute
	serverIdleTimeout  = 60 * time.Second
)

// Mailer sends password reset mail. *email.Sender satisfies it.
type Mailer interface {
	Enabled() bool
	SendPasswordReset(to string, reset email.PasswordReset) error
}

// Server is the JSON API in front of the assistant and the store.
type Server struct {
	cfg        *config.Config
	store      *storage.Store
	assistant  *studyassistant.Assistant
	mailer     Mailer
	health     *monitoring.HealthHandler
	limiter    *ipRateLimiter
	trustProxy bool
	logger     *slog.Logger
	bcryptCost int
}

func NewServer(cfg *config.Config, store *storage.Store, assistant *studyassistant.Assistant, mailer Mailer, monitor *monitoring.Monitor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:        cfg,
		store:      store,
		assistant:  assistant,
		mailer:     mailer,
		health:     monitoring.NewHealthHandler(monitor, store),
		limiter:    newIPRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
		trustProxy: cfg.Server.TrustProxy,
		logger:     logger.With("component", "api"),
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Handler returns the routed API with logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health.ServeHealth)
	mux.HandleFunc("GET /status", s.health.ServeStatus)

	public := func(h http.HandlerFunc) http.HandlerFunc { return s.rateLimit(h) }
	private := func(h http.HandlerFunc) http.HandlerFunc { return s.rateLimit(s.requireAuth(h)) }

	mux.HandleFunc("POST /api/auth/register", public(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", public(s.handleLogin))
	mux.HandleFunc("POST /api/auth/forgot-password", public(s.handleForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", public(s.handleResetPassword))
	mux.HandleFunc("POST /api/auth/logout", private(s.handleLogout))
	mux.HandleFunc("GET /api/auth/user", private(s.handleCurrentUser))

	mux.HandleFunc("POST /api/summaries", private(s.handleCreateSummary))
	mux.HandleFunc("GET /api/summaries", private(s.handleListSummaries))
	mux.HandleFunc("GET /api/summaries/{id}", private(s.handleGetSummary))
	mux.HandleFunc("DELETE /api/summaries/{id}", private(s.handleDeleteSummary))
	mux.HandleFunc("GET /api/search", private(s.handleSearch))

	mux.HandleFunc("POST /api/bookmarks", private(s.handleAddBookmark))
	mux.HandleFunc("GET /api/bookmarks", private(s.handleListBookmarks))
	mux.HandleFunc("DELETE /api/bookmarks/{summaryId}", private(s.handleRemoveBookmark))
	mux.HandleFunc("GET /api/stats", private(s.handleStats))

	mux.HandleFunc("POST /api/explain", private(s.handleExplain))
	mux.HandleFunc("POST /api/analyze-topic", private(s.handleAnalyzeTopic))

	mux.HandleFunc("GET /api/chats", private(s.handleListChats))
	mux.HandleFunc("POST /api/chats", private(s.handleCreateChat))
	mux.HandleFunc("GET /api/chats/{id}", private(s.handleGetChat))
	mux.HandleFunc("DELETE /api/chats/{id}", private(s.handleDeleteChat))
	mux.HandleFunc("POST /api/chats/{id}/messages", private(s.handleSendMessage))
	mux.HandleFunc("POST /api/chats/{id}/generate-response", private(s.handleGenerateResponse))
	mux.HandleFunc("PUT /api/chats/{id}/title", private(s.handleUpdateChatTitle))
	mux.HandleFunc("PATCH /api/chats/{id}/star", private(s.handleStarChat(true)))
	mux.HandleFunc("PATCH /api/chats/{id}/unstar", private(s.handleStarChat(false)))

	mux.HandleFunc("GET /uploads/{name}", private(s.handleDownloadUpload))

	return s.logRequests(mux)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go s.limiter.cleanup(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received, gracefully stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
