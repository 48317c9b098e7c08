package youtube

import (
	"html"
	"regexp"
	"strings"
)

var (
	markupTag    = regexp.MustCompile(`<[^>]*>`)
	sequenceLine = regexp.MustCompile(`^\d+$`)
	blockBreak   = regexp.MustCompile(`\n[ \t]*\n`)
)

// ExtractTranscript flattens an SRT caption payload to plain text. Cue
// numbers, timing lines and markup are dropped, entities are decoded and
// the remaining lines are joined with single spaces in cue order.
func ExtractTranscript(srt string) string {
	srt = strings.ReplaceAll(srt, "\r\n", "\n")
	srt = strings.TrimPrefix(srt, "\ufeff")

	var parts []string
	for _, block := range blockBreak.Split(srt, -1) {
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || sequenceLine.MatchString(line) || strings.Contains(line, "-->") {
				continue
			}
			line = markupTag.ReplaceAllString(line, "")
			line = strings.TrimSpace(html.UnescapeString(line))
			if line == "" {
				continue
			}
			parts = append(parts, line)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
