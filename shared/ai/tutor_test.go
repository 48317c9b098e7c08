package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"automindmap/internal/models"
)

type stubGenerator struct {
	reply   string
	err     error
	prompts []string
	models  []string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.GenerateWith(ctx, prompt, "default", 3)
}

func (s *stubGenerator) GenerateWith(_ context.Context, prompt, model string, _ int) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.models = append(s.models, model)
	return s.reply, s.err
}

func newTestTutor(gen TextGenerator) *Tutor {
	return NewTutor(gen, "chat-model", 3, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExplainShortStandard(t *testing.T) {
	gen := &stubGenerator{reply: "## Answer\n\n**Mitochondria** are tiny structures inside cells that turn food into usable energy for everything the cell does.\n\n- They have their own DNA."}
	tutor := newTestTutor(gen)

	got, err := tutor.Explain(context.Background(), models.ExplanationRequest{
		Text:  "The mitochondria is the powerhouse of the cell.",
		Mode:  models.ModeShort,
		Style: models.StyleStandard,
	})
	if err != nil {
		t.Fatalf("Explain() error: %v", err)
	}

	if n := WordCount(got); n > 10 {
		t.Errorf("word count = %d, want <= 10 (%q)", n, got)
	}
	if strings.ContainsAny(got, "*#`_\n") {
		t.Errorf("output should be a single plain line: %q", got)
	}
	if strings.HasPrefix(got, "-") || strings.Contains(got, "\n-") {
		t.Errorf("output should carry no bullets: %q", got)
	}
	if !strings.Contains(gen.prompts[0], "The mitochondria is the powerhouse of the cell.") {
		t.Error("prompt should embed the text")
	}
}

func TestExplainComprehensiveIsUncapped(t *testing.T) {
	long := strings.Repeat("Energy moves through every living system in steps. ", 30)
	tutor := newTestTutor(&stubGenerator{reply: long})

	got, err := tutor.Explain(context.Background(), models.ExplanationRequest{
		Text: "x", Mode: models.ModeComprehensive, Style: models.StyleStandard,
	})
	if err != nil {
		t.Fatalf("Explain() error: %v", err)
	}
	if WordCount(got) != WordCount(long) {
		t.Errorf("comprehensive output should not be truncated: %d words", WordCount(got))
	}
}

func TestExplainPropagatesGenerationFailure(t *testing.T) {
	tutor := newTestTutor(&stubGenerator{err: &GenerationFailedError{Err: errEmptyForTest}})

	_, err := tutor.Explain(context.Background(), models.ExplanationRequest{Text: "x", Mode: models.ModeMedium, Style: models.StyleStandard})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
}

var errEmptyForTest = errors.New("upstream said no")

func TestReplyUsesChatModel(t *testing.T) {
	gen := &stubGenerator{reply: "**Great** question. What do you already know?"}
	tutor := newTestTutor(gen)

	got, err := tutor.Reply(context.Background(), nil, "Explain entropy", nil)
	if err != nil {
		t.Fatalf("Reply() error: %v", err)
	}
	if got != "Great question. What do you already know?" {
		t.Errorf("Reply() = %q", got)
	}
	if gen.models[0] != "chat-model" {
		t.Errorf("model = %q, want chat-model", gen.models[0])
	}
}

func TestChatTitleFallsBack(t *testing.T) {
	tutor := newTestTutor(&stubGenerator{err: errEmptyForTest})
	if got := tutor.ChatTitle(context.Background(), "hello"); got != models.DefaultChatTitle {
		t.Errorf("ChatTitle() = %q, want default", got)
	}

	tutor = newTestTutor(&stubGenerator{reply: "**\"Cell Biology Basics\"**"})
	if got := tutor.ChatTitle(context.Background(), "hello"); got != "Cell Biology Basics" {
		t.Errorf("ChatTitle() = %q", got)
	}
}

func TestSummarizeVideoStripsMarkdown(t *testing.T) {
	gen := &stubGenerator{reply: "# Overview\n\n\n\nA talk about cells.\n\n## Key points\n- ATP"}
	tutor := newTestTutor(gen)

	got, err := tutor.SummarizeVideo(context.Background(), "https://youtu.be/x", models.VideoDetails{Title: "Cells"})
	if err != nil {
		t.Fatalf("SummarizeVideo() error: %v", err)
	}
	if want := "Overview\n\nA talk about cells.\n\nKey points\nATP"; got != want {
		t.Errorf("SummarizeVideo() = %q, want %q", got, want)
	}
}
