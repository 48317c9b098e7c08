package ai

import (
	"fmt"
	"strings"
	"testing"

	"automindmap/internal/models"
)

func TestSummaryPrompt(t *testing.T) {
	video := models.VideoDetails{
		Title:        "How Cells Make Energy",
		ChannelTitle: "Bio Basics",
		Duration:     "12:04",
		PublishedAt:  "2024-03-01T10:00:00Z",
		Description:  strings.Repeat("d", 2000),
		Captions:     "mitochondria produce ATP",
	}

	prompt := SummaryPrompt("https://youtu.be/abc", video)

	for _, want := range []string{
		"How Cells Make Energy", "Bio Basics", "12:04", "2024-03-01T10:00:00Z",
		"mitochondria produce ATP", "Overview", "Key points", "Details", "Takeaways", "Conclusion",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("summary prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, strings.Repeat("d", 1501)) {
		t.Error("description should be truncated to 1500 runes")
	}
	if strings.Contains(prompt, "No transcript is available") {
		t.Error("transcript note should only appear without captions")
	}

	video.Captions = ""
	if prompt := SummaryPrompt("https://youtu.be/abc", video); !strings.Contains(prompt, "No transcript is available") {
		t.Error("expected explicit no-transcript note")
	}
}

func TestExplanationPromptBudgets(t *testing.T) {
	tests := []struct {
		mode      models.Mode
		style     models.Style
		wantCap   int
		wantShape string
	}{
		{models.ModeShort, models.StyleStandard, 10, "ONE plain sentence"},
		{models.ModeMedium, models.StyleStandard, 30, "two or three plain sentences"},
		{models.ModeLong, models.StyleTeacher, 100, "3 to 5 compact points"},
		{models.ModeShort, models.StyleExpert, 15, "ONE plain sentence"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.mode, tt.style), func(t *testing.T) {
			prompt, wordCap := ExplanationPrompt(models.ExplanationRequest{
				Text: "Photosynthesis converts light into chemical energy.", Mode: tt.mode, Style: tt.style,
			})
			if wordCap != tt.wantCap {
				t.Errorf("cap = %d, want %d", wordCap, tt.wantCap)
			}
			if !strings.Contains(prompt, tt.wantShape) {
				t.Errorf("prompt missing %q:\n%s", tt.wantShape, prompt)
			}
			if !strings.Contains(prompt, fmt.Sprintf("at most %d words", tt.wantCap)) {
				t.Errorf("prompt should state the word budget")
			}
			if !strings.Contains(prompt, stylePersonas[tt.style]) {
				t.Errorf("prompt missing persona for %s", tt.style)
			}
		})
	}
}

func TestExplanationPromptComprehensive(t *testing.T) {
	prompt, wordCap := ExplanationPrompt(models.ExplanationRequest{
		Text:  "The French Revolution reshaped European politics.",
		Mode:  models.ModeComprehensive,
		Style: models.StyleStandard,
	})
	if wordCap != 0 {
		t.Errorf("comprehensive mode should have no cap, got %d", wordCap)
	}
	if !strings.Contains(prompt, "1 to 2 minutes") || !strings.Contains(prompt, "every key point") {
		t.Errorf("unexpected default hints:\n%s", prompt)
	}

	prompt, _ = ExplanationPrompt(models.ExplanationRequest{
		Text:         "x",
		Mode:         models.ModeComprehensive,
		DurationHint: "3 minutes",
		CoverageHint: "the causes and the outcomes",
	})
	if !strings.Contains(prompt, "3 minutes") || !strings.Contains(prompt, "the causes and the outcomes") {
		t.Errorf("hints not embedded:\n%s", prompt)
	}
}

func TestChatPromptHistoryWindow(t *testing.T) {
	var history []models.Message
	for i := 1; i <= 14; i++ {
		role := models.RoleUser
		if i%2 == 0 {
			role = models.RoleAssistant
		}
		history = append(history, models.Message{Role: role, Content: fmt.Sprintf("turn-%02d", i)})
	}

	prompt := ChatPrompt(history, "what next?", nil)

	for i := 1; i <= 4; i++ {
		if strings.Contains(prompt, fmt.Sprintf("turn-%02d", i)) {
			t.Errorf("turn %d should be outside the history window", i)
		}
	}
	for i := 5; i <= 14; i++ {
		if !strings.Contains(prompt, fmt.Sprintf("turn-%02d", i)) {
			t.Errorf("turn %d should be in the history window", i)
		}
	}
	if !strings.Contains(prompt, "Assistant: turn-14") || !strings.Contains(prompt, "Student: turn-13") {
		t.Error("speakers not labelled")
	}
	if strings.Contains(prompt, "Attached files") {
		t.Error("no attachment section expected")
	}
}

func TestChatPromptAttachments(t *testing.T) {
	prompt := ChatPrompt(nil, "please review", []models.Attachment{
		{FileName: "notes.pdf", FileType: "application/pdf", FileSize: 1536},
	})

	if !strings.Contains(prompt, "notes.pdf (application/pdf, 1.5 KB)") {
		t.Errorf("attachment line missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Do not invent") {
		t.Error("expected no-fabrication instruction")
	}
	if !strings.Contains(prompt, "never copy or repeat") && !strings.Contains(prompt, "Never copy or repeat") {
		t.Error("expected original-analysis framing")
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", models.DefaultChatTitle},
		{"   \n", models.DefaultChatTitle},
		{`"Biology Cell Structure"`, "Biology Cell Structure"},
		{"Title: Calculus Help", "Calculus Help"},
		{strings.Repeat("a", 60), strings.Repeat("a", 47) + "..."},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.in); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{2621440, "2.5 MB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.in); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTopicPrompt(t *testing.T) {
	prompt := TopicPrompt("Entropy", "thermodynamics unit")
	if !strings.Contains(prompt, `"Entropy"`) || !strings.Contains(prompt, "Context: thermodynamics unit") {
		t.Errorf("unexpected topic prompt:\n%s", prompt)
	}
	if strings.Contains(TopicPrompt("Entropy", ""), "Context:") {
		t.Error("empty context should be omitted")
	}
}
