package youtube

import (
	"strings"
	"testing"
)

func TestExtractTranscript(t *testing.T) {
	srt := "1\r\n00:00:01,000 --> 00:00:03,000\r\nWelcome to <i>the</i> lecture\r\n\r\n" +
		"2\r\n00:00:03,500 --> 00:00:06,000\r\nCells &amp; their parts\r\n\r\n" +
		"3\r\n00:00:06,500 --> 00:00:09,000\r\n<font color=\"#fff\">Let&#39;s begin</font>\r\nwith &quot;ATP&quot; &lt;3\r\n"

	got := ExtractTranscript(srt)

	if strings.Contains(got, "-->") {
		t.Errorf("timing lines should be removed: %q", got)
	}
	if strings.Contains(got, "&amp;") {
		t.Errorf("entities should be decoded: %q", got)
	}
	want := `Welcome to the lecture Cells & their parts Let's begin with "ATP" <3`
	if got != want {
		t.Errorf("ExtractTranscript() = %q, want %q", got, want)
	}

	first := strings.Index(got, "Welcome")
	second := strings.Index(got, "Cells")
	third := strings.Index(got, "begin")
	if !(first < second && second < third) {
		t.Errorf("block order not preserved: %q", got)
	}
}

func TestExtractTranscriptEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only timing", "1\n00:00:01,000 --> 00:00:02,000\n\n2\n00:00:02,000 --> 00:00:03,000\n", ""},
		{"markup only line dropped", "1\n00:00:01,000 --> 00:00:02,000\n<b></b>\nkept\n", "kept"},
		{"numbers inside text kept", "1\n00:00:01,000 --> 00:00:02,000\nchapter 12 starts\n", "chapter 12 starts"},
		{"byte order mark", "\ufeff1\n00:00:01,000 --> 00:00:02,000\nhello\n", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTranscript(tt.in); got != tt.want {
				t.Errorf("ExtractTranscript() = %q, want %q", got, tt.want)
			}
		})
	}
}
