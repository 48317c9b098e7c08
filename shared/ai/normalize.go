package ai

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Ellipsis is appended to the last kept word when a word cap truncates text.
const Ellipsis = "..."

var (
	// Cf covers zero-width spaces and joiners, BOM, word joiner and soft hyphen.
	invisibleRunes = runes.Remove(runes.In(unicode.Cf))
	decorations    = strings.NewReplacer("*", "", "#", "", "`", "", "_", "")
	spaceRun       = regexp.MustCompile(`[\t\f\v\p{Zs}]+`)
	ruleLine       = regexp.MustCompile(`^[-=]{3,}$`)
)

// Normalize turns model output into plain text: markdown decoration and
// invisible characters are removed, whitespace is collapsed and at most one
// blank line separates paragraphs. When wordCap > 0 the result never holds
// more than wordCap whitespace-delimited words; longer text is cut to
// exactly wordCap words and the last one gets an Ellipsis.
//
// Words are split on Unicode whitespace, so scripts written without spaces
// between words count each unbroken run as a single word.
func Normalize(raw string, wordCap int) string {
	text, _, err := transform.String(invisibleRunes, raw)
	if err != nil {
		text = raw
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = decorations.Replace(text)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		line, keep := cleanLine(line)
		if !keep {
			continue
		}
		if line == "" {
			blanks++
			if blanks == 1 && len(out) > 0 {
				out = append(out, "")
			}
			continue
		}
		blanks = 0
		out = append(out, line)
	}
	text = strings.TrimSpace(strings.Join(out, "\n"))

	if wordCap > 0 {
		text = capWords(text, wordCap)
	}
	return text
}

// cleanLine strips list and quote markers. Rule lines report keep=false so
// they vanish without opening a paragraph break.
func cleanLine(line string) (string, bool) {
	line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	for {
		switch {
		case strings.HasPrefix(line, ">"):
			line = strings.TrimSpace(line[1:])
		case line == "-" || strings.HasPrefix(line, "- "):
			line = strings.TrimSpace(line[1:])
		case strings.HasPrefix(line, "•"):
			line = strings.TrimSpace(strings.TrimPrefix(line, "•"))
		default:
			if ruleLine.MatchString(line) {
				return "", false
			}
			return line, true
		}
	}
}

func capWords(text string, wordCap int) string {
	words := strings.Fields(text)
	if len(words) <= wordCap {
		return text
	}
	kept := words[:wordCap]
	kept[wordCap-1] = strings.TrimRight(kept[wordCap-1], ".,;:!?")
	return strings.Join(kept, " ") + Ellipsis
}

// WordCount counts whitespace-delimited words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// SingleLine folds text onto one line with single spaces.
func SingleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
