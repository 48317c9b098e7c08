package ai

import (
	"context"
	"fmt"
	"log/slog"

	"automindmap/internal/models"
)

// TextGenerator is satisfied by *Generator.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWith(ctx context.Context, prompt, primaryModel string, maxAttempts int) (string, error)
}

// Tutor runs each study use case through prompt, generation and
// normalization.
type Tutor struct {
	gen         TextGenerator
	chatModel   string
	maxAttempts int
	logger      *slog.Logger
}

func NewTutor(gen TextGenerator, chatModel string, maxAttempts int, logger *slog.Logger) *Tutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tutor{
		gen:         gen,
		chatModel:   chatModel,
		maxAttempts: maxAttempts,
		logger:      logger.With("component", "tutor"),
	}
}

func (t *Tutor) SummarizeVideo(ctx context.Context, videoURL string, video models.VideoDetails) (string, error) {
	raw, err := t.gen.Generate(ctx, SummaryPrompt(videoURL, video))
	if err != nil {
		return "", fmt.Errorf("failed to summarize %q: %w", video.Title, err)
	}
	return Normalize(raw, 0), nil
}

// Explain expects a request whose mode and style were already validated.
// The word budget is enforced here regardless of what the model returned.
func (t *Tutor) Explain(ctx context.Context, req models.ExplanationRequest) (string, error) {
	prompt, wordCap := ExplanationPrompt(req)
	raw, err := t.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to explain text: %w", err)
	}

	text := Normalize(raw, wordCap)
	if req.Mode == models.ModeShort {
		text = SingleLine(text)
	}
	return text, nil
}

func (t *Tutor) Reply(ctx context.Context, history []models.Message, userMessage string, attachments []models.Attachment) (string, error) {
	raw, err := t.gen.GenerateWith(ctx, ChatPrompt(history, userMessage, attachments), t.chatModel, t.maxAttempts)
	if err != nil {
		return "", fmt.Errorf("failed to generate chat reply: %w", err)
	}
	return Normalize(raw, 0), nil
}

// ChatTitle never fails; on any error it returns the default title.
func (t *Tutor) ChatTitle(ctx context.Context, firstMessage string) string {
	raw, err := t.gen.GenerateWith(ctx, TitlePrompt(firstMessage), t.chatModel, 1)
	if err != nil {
		t.logger.Warn("chat title generation failed", "error", err)
		return models.DefaultChatTitle
	}
	return CleanTitle(Normalize(raw, 0))
}

func (t *Tutor) TopicAnalysis(ctx context.Context, topic, topicContext string) (string, error) {
	raw, err := t.gen.GenerateWith(ctx, TopicPrompt(topic, topicContext), t.chatModel, t.maxAttempts)
	if err != nil {
		return "", fmt.Errorf("failed to analyze topic %q: %w", topic, err)
	}
	return Normalize(raw, 0), nil
}
