package studyassistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"automindmap/agents/study-assistant/youtube"
	"automindmap/internal/models"
	"automindmap/shared/monitoring"
)

// ErrInvalidInput is returned before any external call when a request
// cannot be served as given.
var ErrInvalidInput = errors.New("invalid input")

// Store is the persistence the assistant needs. *storage.Store satisfies it.
type Store interface {
	CreateSummary(ctx context.Context, sum *models.Summary) error
	Chat(ctx context.Context, userID, chatID string) (*models.Chat, error)
	AddMessage(ctx context.Context, userID, chatID string, role models.Role, content string, attachments []models.Attachment) (*models.Message, error)
	UpdateChatTitle(ctx context.Context, userID, chatID, title string) error
}

type VideoResolver interface {
	Resolve(ctx context.Context, videoID string) models.VideoDetails
}

// Tutor is satisfied by *ai.Tutor.
type Tutor interface {
	SummarizeVideo(ctx context.Context, videoURL string, video models.VideoDetails) (string, error)
	Explain(ctx context.Context, req models.ExplanationRequest) (string, error)
	Reply(ctx context.Context, history []models.Message, userMessage string, attachments []models.Attachment) (string, error)
	ChatTitle(ctx context.Context, firstMessage string) string
	TopicAnalysis(ctx context.Context, topic, topicContext string) (string, error)
}

// Assistant orchestrates the study use cases: it validates input, gathers
// context, calls the tutor and persists the results.
type Assistant struct {
	store    Store
	resolver VideoResolver
	tutor    Tutor
	monitor  *monitoring.Monitor
	logger   *slog.Logger
}

func New(store Store, resolver VideoResolver, tutor Tutor, monitor *monitoring.Monitor, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		store:    store,
		resolver: resolver,
		tutor:    tutor,
		monitor:  monitor,
		logger:   logger.With("component", "assistant"),
	}
}

// CreateSummary resolves the video behind videoURL, generates a study
// summary and stores it for userID.
func (a *Assistant) CreateSummary(ctx context.Context, userID, videoURL string) (*models.Summary, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return nil, fmt.Errorf("%w: video URL is required", ErrInvalidInput)
	}
	videoID, ok := youtube.ExtractVideoID(videoURL)
	if !ok {
		return nil, fmt.Errorf("%w: not a YouTube video URL: %q", ErrInvalidInput, videoURL)
	}

	// Resolve metadata; this never fails and may fall back to a placeholder
	logger := a.logger.With("video_id", videoID)
	video := a.resolver.Resolve(ctx, videoID)
	logger.Info("video resolved",
		"title", video.Title,
		"duration", video.Duration,
		"has_transcript", video.HasTranscript())

	// Generate the summary
	start := time.Now()
	text, err := a.tutor.SummarizeVideo(ctx, videoURL, video)
	a.record("summary", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	sum := &models.Summary{
		UserID:        userID,
		Title:         video.Title,
		VideoURL:      videoURL,
		VideoID:       videoID,
		VideoDuration: video.Duration,
		Summary:       text,
	}
	if userID == "" {
		return sum, nil // CLI summaries are not persisted
	}
	if err := a.store.CreateSummary(ctx, sum); err != nil {
		return nil, fmt.Errorf("failed to save summary: %w", err)
	}
	logger.Info("summary created", "summary_id", sum.ID, "user_id", userID)
	return sum, nil
}

// ExplainText simplifies req.Text. Mode and style must already be members
// of their closed sets; empty values take the defaults.
func (a *Assistant) ExplainText(ctx context.Context, req models.ExplanationRequest) (string, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return "", fmt.Errorf("%w: text is required", ErrInvalidInput)
	}

	mode, err := models.ParseMode(string(req.Mode))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	style, err := models.ParseStyle(string(req.Style))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	req.Mode, req.Style = mode, style

	start := time.Now()
	text, err := a.tutor.Explain(ctx, req)
	a.record("explain", err, time.Since(start))
	if err != nil {
		return "", err
	}
	return text, nil
}

// SendMessage stores a user message. A message must carry text, files or
// both.
func (a *Assistant) SendMessage(ctx context.Context, userID, chatID, content string, attachments []models.Attachment) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(attachments) == 0 {
		return nil, fmt.Errorf("%w: message content or files are required", ErrInvalidInput)
	}
	msg, err := a.store.AddMessage(ctx, userID, chatID, models.RoleUser, content, attachments)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

// ChatReply is the assistant's answer plus the chat's current title.
type ChatReply struct {
	Message   *models.Message `json:"message"`
	ChatTitle string          `json:"chatTitle"`
}

// GenerateResponse answers the latest user message in a chat. The first
// reply in a chat that still has the default title also names the chat.
func (a *Assistant) GenerateResponse(ctx context.Context, userID, chatID string) (*ChatReply, error) {
	chat, err := a.store.Chat(ctx, userID, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	// Only a trailing user message can be answered
	n := len(chat.Messages)
	if n == 0 || chat.Messages[n-1].Role != models.RoleUser {
		return nil, fmt.Errorf("%w: no user message to respond to", ErrInvalidInput)
	}
	last := chat.Messages[n-1]
	history := chat.Messages[:n-1]

	// File-only messages still need a turn for the model to respond to
	prompt := last.Content
	if prompt == "" {
		prompt = "I've uploaded some files for you to review."
	}

	start := time.Now()
	text, err := a.tutor.Reply(ctx, history, prompt, last.Attachments)
	a.record("chat", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	msg, err := a.store.AddMessage(ctx, userID, chatID, models.RoleAssistant, text, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}

	// Name the chat on its first reply; a failed title keeps the default
	title := chat.Title
	if title == models.DefaultChatTitle {
		if generated := a.tutor.ChatTitle(ctx, firstUserMessage(chat.Messages, prompt)); generated != title {
			if err := a.store.UpdateChatTitle(ctx, userID, chatID, generated); err != nil {
				a.logger.Warn("failed to save chat title", "chat_id", chatID, "error", err)
			} else {
				title = generated
			}
		}
	}

	return &ChatReply{Message: msg, ChatTitle: title}, nil
}

func firstUserMessage(messages []models.Message, fallback string) string {
	for _, m := range messages {
		if m.Role == models.RoleUser && m.Content != "" {
			return m.Content
		}
	}
	return fallback
}

// AnalyzeTopic produces a structured study analysis of topic.
func (a *Assistant) AnalyzeTopic(ctx context.Context, topic, topicContext string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}

	start := time.Now()
	text, err := a.tutor.TopicAnalysis(ctx, topic, strings.TrimSpace(topicContext))
	a.record("topic", err, time.Since(start))
	return text, err
}

func (a *Assistant) record(kind string, err error, d time.Duration) {
	if a.monitor == nil || errors.Is(err, context.Canceled) {
		return
	}
	a.monitor.RecordGeneration(kind, err, d)
}
