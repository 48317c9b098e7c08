package models

import "fmt"

type Mode string

const (
	ModeShort         Mode = "short"
	ModeMedium        Mode = "medium"
	ModeLong          Mode = "long"
	ModeComprehensive Mode = "comprehensive"
)

type Style string

const (
	StyleStandard   Style = "standard"
	StyleTeacher    Style = "teacher"
	StyleExpert     Style = "expert"
	StyleAccessible Style = "accessible"
)

// ParseMode maps a caller-supplied mode to the closed set. An empty value
// selects medium; anything unrecognized is an error.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeMedium, nil
	case ModeShort, ModeMedium, ModeLong, ModeComprehensive:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (want short, medium, long or comprehensive)", s)
}

// ParseStyle maps a caller-supplied style to the closed set. An empty value
// selects standard; anything unrecognized is an error.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case "":
		return StyleStandard, nil
	case StyleStandard, StyleTeacher, StyleExpert, StyleAccessible:
		return Style(s), nil
	}
	return "", fmt.Errorf("unknown style %q (want standard, teacher, expert or accessible)", s)
}

type ExplanationRequest struct {
	Text  string `json:"text"`
	Mode  Mode   `json:"mode"`
	Style Style  `json:"style"`
	// DurationHint and CoverageHint only apply to ModeComprehensive.
	DurationHint string `json:"duration,omitempty"`
	CoverageHint string `json:"coverage,omitempty"`
}

type AttemptOutcome string

const (
	OutcomeSuccess          AttemptOutcome = "success"
	OutcomeRetriableFailure AttemptOutcome = "retriable-failure"
	OutcomeTerminalFailure  AttemptOutcome = "terminal-failure"
)

// GenerationAttempt records one model call inside a single retry loop.
type GenerationAttempt struct {
	Model   string         `json:"model"`
	Number  int            `json:"number"`
	Outcome AttemptOutcome `json:"outcome"`
}
