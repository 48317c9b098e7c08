package ai

import (
	"fmt"
	"math"
	"strings"

	"automindmap/internal/models"
)

const (
	descriptionRunes = 1500
	transcriptRunes  = 30000

	// ChatHistoryTurns is how many prior messages a chat prompt carries.
	ChatHistoryTurns = 10

	maxTitleChars = 50
)

const tutorFraming = `You are AutoMindMap AI, a study assistant that helps students learn effectively.

Guidelines:
- Provide original analysis and explanation. Never copy or repeat source material verbatim.
- Help the student think critically and connect ideas to broader knowledge and real situations.
- Explain the reasoning behind concepts instead of listing facts.
- Use clear, student-friendly language and stay encouraging.
- Ask follow-up questions that deepen understanding.`

var stylePersonas = map[models.Style]string{
	models.StyleStandard:   "Write in a clear, neutral tone.",
	models.StyleTeacher:    "Write like a patient teacher: give a concrete example or analogy where it helps.",
	models.StyleExpert:     "Write for a knowledgeable reader: use precise terminology and skip the basics.",
	models.StyleAccessible: "Write for a beginner: use everyday words and avoid jargon.",
}

// SummaryPrompt builds the study-summary prompt for a resolved video.
func SummaryPrompt(videoURL string, video models.VideoDetails) string {
	transcript := "No transcript is available for this video. Base the summary on the metadata above and say so briefly in the Overview."
	if video.HasTranscript() {
		transcript = truncateString(video.Captions, transcriptRunes)
	}

	description := truncateString(video.Description, descriptionRunes)
	if description == "" {
		description = "(none)"
	}

	return fmt.Sprintf(`You are a study assistant that turns YouTube videos into study notes.

VIDEO METADATA:
URL: %s
Title: %s
Channel: %s
Duration: %s
Published: %s
Description: %s

TRANSCRIPT:
%s

INSTRUCTIONS:
Write a detailed study summary of this video in plain text. Do not use markdown: no asterisks, pound signs, backticks, underscores or bullet symbols.
Use exactly these sections, each introduced by its name on its own line:
Overview
Key points
Details
Takeaways
Conclusion

Explain concepts step by step where the video does, keep examples that were mentioned and write so a student can review from it later.`,
		videoURL,
		video.Title,
		video.ChannelTitle,
		video.Duration,
		orUnknown(video.PublishedAt),
		description,
		transcript,
	)
}

// ExplanationPrompt builds the simplification prompt for a validated
// request. The returned cap is the hard word limit the caller must enforce
// on the output, or 0 for comprehensive mode.
func ExplanationPrompt(req models.ExplanationRequest) (string, int) {
	persona := stylePersonas[req.Style]
	if persona == "" {
		persona = stylePersonas[models.StyleStandard]
	}

	if req.Mode == models.ModeComprehensive {
		duration := req.DurationHint
		if duration == "" {
			duration = "1 to 2 minutes"
		}
		coverage := req.CoverageHint
		if coverage == "" {
			coverage = "every key point"
		}
		return fmt.Sprintf(`Explain the following text so it can be read aloud as narration lasting about %s.
%s
Cover %s in the text, in the order it appears, and do not skip any of them.
Write plain spoken prose with no markdown, headings or lists.

TEXT:
"%s"`, duration, persona, coverage, req.Text), 0
	}

	budget, ok := WordBudget(req.Mode, req.Style)
	if !ok {
		budget, _ = WordBudget(models.ModeMedium, models.StyleStandard)
	}

	var shape string
	switch req.Mode {
	case models.ModeShort:
		shape = fmt.Sprintf("Answer with ONE plain sentence of at most %d words. No lists, no line breaks, no preamble.", budget)
	case models.ModeLong:
		shape = fmt.Sprintf("Answer with 3 to 5 compact points, each on its own line without bullet symbols, at most %d words in total.", budget)
	default:
		shape = fmt.Sprintf("Answer with two or three plain sentences, at most %d words in total.", budget)
	}

	return fmt.Sprintf(`Explain the following text in simpler, easier terms while keeping its core meaning.
%s
%s
Do not use markdown of any kind.

TEXT:
"%s"`, persona, shape, req.Text), budget
}

// ChatPrompt builds a tutoring turn from prior messages, the new user
// message and the metadata of any files the user attached to it.
func ChatPrompt(history []models.Message, userMessage string, attachments []models.Attachment) string {
	var b strings.Builder
	b.WriteString(tutorFraming)
	b.WriteString("\n\nCONVERSATION CONTEXT:\n")

	if len(history) > ChatHistoryTurns {
		history = history[len(history)-ChatHistoryTurns:]
	}
	if len(history) > 0 {
		b.WriteString("\nPrevious conversation:\n")
		for _, msg := range history {
			speaker := "Student"
			if msg.Role == models.RoleAssistant {
				speaker = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker, msg.Content)
		}
	}

	fmt.Fprintf(&b, "\nCurrent student message: %s\n", userMessage)

	if len(attachments) > 0 {
		b.WriteString("\nAttached files:\n")
		for _, a := range attachments {
			fmt.Fprintf(&b, "- %s (%s, %s)\n", a.FileName, a.FileType, FormatFileSize(a.FileSize))
		}
		b.WriteString(`
You cannot see the contents of these files. Do not invent or guess what they contain.
Acknowledge them, ask which part the student needs help with, and ask the student to describe the key points if you need them.
`)
	}

	b.WriteString(`
Respond with your own analysis: address the question, connect it to related ideas, give a practical example and end with a question that encourages deeper thinking.`)
	return b.String()
}

// TitlePrompt asks for a short chat title based on the first message.
func TitlePrompt(firstMessage string) string {
	return fmt.Sprintf(`Based on this student message, generate a concise, descriptive title for a study chat session (max %d characters):

"%s"

The title should capture the main topic or question, for example "Calculus Integration Help" or "Biology Cell Structure".
Reply with the title only.

Title:`, maxTitleChars, firstMessage)
}

// TopicPrompt asks for a structured analysis of a study topic.
func TopicPrompt(topic, topicContext string) string {
	contextLine := ""
	if topicContext != "" {
		contextLine = "\nContext: " + topicContext + "\n"
	}
	return fmt.Sprintf(`As an intelligent study assistant, provide a comprehensive analysis of this topic: "%s"
%s
Please cover:
1. A clear explanation of the core concepts
2. Real-world applications and examples
3. Connections to other related topics
4. Common misconceptions or challenges students face
5. Practical tips for understanding and remembering the material
6. Thought-provoking questions to encourage deeper thinking

Write plain text without markdown. Provide insight and analysis, not a list of facts.`, topic, contextLine)
}

// CleanTitle trims a generated title to maxTitleChars, falling back to the
// default chat title when nothing usable came back.
func CleanTitle(raw string) string {
	title := strings.TrimSpace(strings.TrimPrefix(SingleLine(raw), "Title:"))
	title = strings.TrimSpace(strings.Trim(title, `"'`))
	if title == "" {
		return models.DefaultChatTitle
	}
	r := []rune(title)
	if len(r) > maxTitleChars {
		return string(r[:maxTitleChars-len(Ellipsis)]) + Ellipsis
	}
	return title
}

// FormatFileSize renders a byte count as "1.5 KB", "2 MB" and so on.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(units) {
		i = len(units) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(i))
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".") + " " + units[i]
}

func truncateString(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + Ellipsis
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
