package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"automindmap/internal/models"
	"automindmap/shared/config"

	"google.golang.org/genai"
)

// ErrGenerationFailed matches every terminal generation failure.
var ErrGenerationFailed = errors.New("generation failed")

// GenerationFailedError is returned once the retry loop gives up. It keeps
// every attempt for logging.
type GenerationFailedError struct {
	Attempts []models.GenerationAttempt
	Err      error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("generation failed after %d attempt(s): %v", len(e.Attempts), e.Err)
}

func (e *GenerationFailedError) Unwrap() error { return e.Err }

func (e *GenerationFailedError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// contentGenerator is the slice of *genai.Models the generator needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Generator struct {
	models          contentGenerator
	model           string
	fallbackModel   string
	maxAttempts     int
	baseBackoff     time.Duration
	fallbackBackoff time.Duration
	attemptTimeout  time.Duration
	sleep           func(ctx context.Context, d time.Duration) error
	logger          *slog.Logger
}

// NewClient builds the Gemini client from configuration.
func NewClient(ctx context.Context, cfg config.AIConfig) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

func NewGenerator(client *genai.Client, cfg config.AIConfig, logger *slog.Logger) *Generator {
	return newGenerator(client.Models, cfg, logger)
}

func newGenerator(cg contentGenerator, cfg config.AIConfig, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		models:          cg,
		model:           cfg.Model,
		fallbackModel:   cfg.FallbackModel,
		maxAttempts:     cfg.MaxAttempts,
		baseBackoff:     cfg.BaseBackoff(),
		fallbackBackoff: cfg.FallbackBackoff(),
		attemptTimeout:  cfg.AttemptTimeout(),
		sleep:           sleepContext,
		logger:          logger.With("component", "generator"),
	}
}

// Generate runs the prompt against the configured primary model.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.GenerateWith(ctx, prompt, g.model, g.maxAttempts)
}

// GenerateWith runs the prompt with bounded retries. Retriable failures
// back off exponentially on the same model while more than one attempt
// remains; otherwise the fallback model gets exactly one turn, which uses
// up an attempt slot. With maxAttempts <= 1 the first failure is final.
// Cancelling ctx stops the loop at once.
func (g *Generator) GenerateWith(ctx context.Context, prompt, primaryModel string, maxAttempts int) (string, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	fallback := g.fallbackModel
	if fallback == primaryModel {
		fallback = ""
	}

	model := primaryModel
	usedFallback := false
	attempts := make([]models.GenerationAttempt, 0, maxAttempts)

	for n := 1; ; n++ {
		text, err := g.attempt(ctx, model, prompt)
		if err == nil {
			attempts = append(attempts, models.GenerationAttempt{Model: model, Number: n, Outcome: models.OutcomeSuccess})
			if n > 1 {
				g.logger.Info("generation recovered", "model", model, "attempt", n)
			}
			return text, nil
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("generation cancelled on attempt %d: %w", n, ctx.Err())
		}

		class := Classify(err)
		remaining := maxAttempts - n

		var delay time.Duration
		switchModel := false
		switch {
		case remaining <= 0 || usedFallback:
			return "", g.fail(attempts, model, n, err)
		case class == Retriable && (fallback == "" || remaining > 1):
			delay = g.baseBackoff * time.Duration(1<<(n-1))
		case fallback != "":
			delay = g.fallbackBackoff
			switchModel = true
		default:
			return "", g.fail(attempts, model, n, err)
		}

		outcome := models.OutcomeRetriableFailure
		if class != Retriable {
			outcome = models.OutcomeTerminalFailure
		}
		attempts = append(attempts, models.GenerationAttempt{Model: model, Number: n, Outcome: outcome})
		g.logger.Warn("generation attempt failed",
			"model", model,
			"attempt", n,
			"max_attempts", maxAttempts,
			"class", class.String(),
			"retry_in", delay,
			"error", err)

		if switchModel {
			model = fallback
			usedFallback = true
			g.logger.Info("switching to fallback model", "model", fallback)
		}

		if err := g.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("generation cancelled during backoff: %w", err)
		}
	}
}

func (g *Generator) fail(attempts []models.GenerationAttempt, model string, n int, err error) error {
	attempts = append(attempts, models.GenerationAttempt{Model: model, Number: n, Outcome: models.OutcomeTerminalFailure})
	g.logger.Error("generation failed",
		"model", model,
		"attempts", n,
		"class", Classify(err).String(),
		"error", err)
	return &GenerationFailedError{Attempts: attempts, Err: err}
}

func (g *Generator) attempt(ctx context.Context, model, prompt string) (string, error) {
	attemptCtx := ctx
	if g.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, g.attemptTimeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := g.models.GenerateContent(attemptCtx, model, contents, nil)
	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %v", ErrAttemptTimeout, g.attemptTimeout, err)
		}
		return "", fmt.Errorf("model %s: %w", model, err)
	}
	if result == nil {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
