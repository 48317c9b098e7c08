package youtube

import "testing"

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url    string
		wantID string
		wantOK bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ#start", "dQw4w9WgXcQ", true},
		{"  https://youtu.be/abc123  ", "abc123", true},
		{"https://vimeo.com/12345", "", false},
		{"https://www.youtube.com/channel/UC123", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, ok := ExtractVideoID(tt.url)
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("ExtractVideoID(%q) = (%q, %v), want (%q, %v)", tt.url, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestThumbnailURL(t *testing.T) {
	if got := ThumbnailURL("abc"); got != "https://img.youtube.com/vi/abc/hqdefault.jpg" {
		t.Errorf("ThumbnailURL() = %q", got)
	}
}
