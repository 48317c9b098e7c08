package models

// VideoDetails is the best-effort metadata the resolver hands to the
// summary pipeline. Every field is a display string; Captions holds the
// flattened transcript and may be empty.
type VideoDetails struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Duration     string `json:"duration"`
	ChannelTitle string `json:"channel_title"`
	PublishedAt  string `json:"published_at"`
	ViewCount    string `json:"view_count"`
	Captions     string `json:"captions"`
}

// HasTranscript reports whether caption text was retrieved.
func (v VideoDetails) HasTranscript() bool {
	return v.Captions != ""
}
