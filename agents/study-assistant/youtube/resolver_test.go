package youtube

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"automindmap/internal/models"
	"automindmap/shared/config"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const testSRT = "1\n00:00:00,000 --> 00:00:02,000\nHello &amp; welcome\n\n2\n00:00:02,000 --> 00:00:04,000\nto biology\n"

type fakeUpstream struct {
	// videosDelay and captionsStatus are set before the server starts.
	videosDelay    time.Duration
	captionsStatus int

	mu            sync.Mutex
	videosStatus  int
	oembedStatus  int
	captionsCalls int
	oembedCalls   int
	videosCalls   int
	lastOEmbedURL string
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.videosDelay > 0 && strings.HasSuffix(r.URL.Path, "/youtube/v3/videos") {
		select {
		case <-time.After(f.videosDelay):
		case <-r.Context().Done():
			return
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/oembed"):
		f.oembedCalls++
		f.lastOEmbedURL = r.URL.Query().Get("url")
		if f.oembedStatus != http.StatusOK {
			w.WriteHeader(f.oembedStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"title":"Cell Biology 101","author_name":"Bio Channel"}`)

	case strings.HasSuffix(r.URL.Path, "/youtube/v3/videos"):
		f.videosCalls++
		if f.videosStatus != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.videosStatus)
			fmt.Fprint(w, `{"error":{"code":403,"message":"quota exceeded"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[{"id":"vid123","snippet":{"title":"Mitochondria Explained","description":"A short lecture","channelTitle":"Science Hub","publishedAt":"2024-05-01T12:00:00Z"},"contentDetails":{"duration":"PT1H2M3S"},"statistics":{"viewCount":"4521"}}]}`)

	case strings.HasSuffix(r.URL.Path, "/youtube/v3/captions"):
		f.captionsCalls++
		w.Header().Set("Content-Type", "application/json")
		if f.captionsStatus != 0 && f.captionsStatus != http.StatusOK {
			w.WriteHeader(f.captionsStatus)
			fmt.Fprint(w, `{"error":{"code":403,"message":"forbidden"}}`)
			return
		}
		fmt.Fprint(w, `{"items":[{"id":"track-fr","snippet":{"language":"fr"}},{"id":"track-en","snippet":{"language":"en-GB"}}]}`)

	case strings.HasSuffix(r.URL.Path, "/youtube/v3/captions/track-en"):
		if got := r.URL.Query().Get("tfmt"); got != "srt" {
			http.Error(w, "want srt", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, testSRT)

	default:
		http.NotFound(w, r)
	}
}

func testYouTubeConfig(srv *httptest.Server) config.YouTubeConfig {
	return config.YouTubeConfig{
		OEmbedURL:             srv.URL + "/oembed",
		RequestTimeoutSeconds: 5,
		CacheHours:            1,
	}
}

func testResolver(t *testing.T, srv *httptest.Server, withService bool, cache VideoCache) *Resolver {
	t.Helper()
	var service *youtube.Service
	if withService {
		var err error
		service, err = youtube.NewService(context.Background(),
			option.WithEndpoint(srv.URL+"/"),
			option.WithHTTPClient(srv.Client()))
		if err != nil {
			t.Fatalf("Failed to create service: %v", err)
		}
	}
	r := newResolver(service, testYouTubeConfig(srv), cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.httpClient = srv.Client()
	return r
}

func TestResolveDataAPIWithCaptions(t *testing.T) {
	upstream := &fakeUpstream{videosStatus: http.StatusOK, oembedStatus: http.StatusOK}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	got := testResolver(t, srv, true, nil).Resolve(context.Background(), "vid123")

	want := models.VideoDetails{
		Title:        "Mitochondria Explained",
		Description:  "A short lecture",
		ChannelTitle: "Science Hub",
		PublishedAt:  "2024-05-01T12:00:00Z",
		Duration:     "1:02:03",
		ViewCount:    "4521",
		Captions:     "Hello & welcome to biology",
	}
	if got != want {
		t.Errorf("Resolve() = %+v\nwant %+v", got, want)
	}
	if upstream.oembedCalls != 0 {
		t.Errorf("oEmbed should not be called when the Data API succeeds")
	}
}

func TestResolveFallsBackToOEmbed(t *testing.T) {
	upstream := &fakeUpstream{videosStatus: http.StatusForbidden, oembedStatus: http.StatusOK}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	got := testResolver(t, srv, true, nil).Resolve(context.Background(), "vid123")

	if got.Title == "" {
		t.Error("expected non-empty title from oEmbed")
	}
	if got.ChannelTitle != "Bio Channel" {
		t.Errorf("ChannelTitle = %q, want Bio Channel", got.ChannelTitle)
	}
	if got.Duration != UnknownDuration {
		t.Errorf("Duration = %q, want %q", got.Duration, UnknownDuration)
	}
	if got.Captions != "" {
		t.Errorf("Captions = %q, want empty", got.Captions)
	}
	if upstream.lastOEmbedURL != "https://www.youtube.com/watch?v=vid123" {
		t.Errorf("oEmbed url param = %q", upstream.lastOEmbedURL)
	}
}

func TestResolveKeepsMetadataWhenCaptionsFail(t *testing.T) {
	upstream := &fakeUpstream{videosStatus: http.StatusOK, oembedStatus: http.StatusOK, captionsStatus: http.StatusForbidden}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	got := testResolver(t, srv, true, nil).Resolve(context.Background(), "vid123")

	want := models.VideoDetails{
		Title:        "Mitochondria Explained",
		Description:  "A short lecture",
		ChannelTitle: "Science Hub",
		PublishedAt:  "2024-05-01T12:00:00Z",
		Duration:     "1:02:03",
		ViewCount:    "4521",
	}
	if got != want {
		t.Errorf("Resolve() = %+v\nwant %+v", got, want)
	}
	if upstream.captionsCalls != 1 {
		t.Errorf("captions.list calls = %d, want 1", upstream.captionsCalls)
	}
	if upstream.oembedCalls != 0 {
		t.Error("a captions failure should not fall back to oEmbed")
	}
}

func TestResolveTimesOutHungDataAPI(t *testing.T) {
	upstream := &fakeUpstream{videosDelay: 10 * time.Second, videosStatus: http.StatusOK, oembedStatus: http.StatusOK}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	r := testResolver(t, srv, true, nil)
	r.timeout = config.YouTubeConfig{RequestTimeoutSeconds: 1}.RequestTimeout()

	start := time.Now()
	got := r.Resolve(context.Background(), "vid123")
	elapsed := time.Since(start)

	if elapsed > 4*time.Second {
		t.Errorf("Resolve took %v, want the Data API call cut off after about 1s", elapsed)
	}
	if got.Title != "Cell Biology 101" || got.ChannelTitle != "Bio Channel" {
		t.Errorf("expected the oEmbed result after the timeout, got %+v", got)
	}
}

func TestResolveWithoutCredentialUsesOEmbed(t *testing.T) {
	upstream := &fakeUpstream{oembedStatus: http.StatusOK}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	got := testResolver(t, srv, false, nil).Resolve(context.Background(), "vid123")

	if got.Title != "Cell Biology 101" || got.Duration != UnknownDuration {
		t.Errorf("unexpected details: %+v", got)
	}
	if upstream.videosCalls != 0 {
		t.Error("Data API should not be called without a credential")
	}
}

func TestResolvePlaceholder(t *testing.T) {
	upstream := &fakeUpstream{videosStatus: http.StatusForbidden, oembedStatus: http.StatusNotFound}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	got := testResolver(t, srv, true, nil).Resolve(context.Background(), "vid123")

	if !strings.Contains(got.Title, "vid123") {
		t.Errorf("placeholder title should contain the id: %q", got.Title)
	}
	if got != Placeholder("vid123") {
		t.Errorf("Resolve() = %+v, want placeholder", got)
	}
}

func TestResolvePlaceholderWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	r := newResolver(nil, config.YouTubeConfig{OEmbedURL: srv.URL + "/oembed", RequestTimeoutSeconds: 1}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got := r.Resolve(context.Background(), "abc")
	if got.Title != "YouTube Video abc" || got.ChannelTitle != UnknownChannel || got.Duration != UnknownDuration {
		t.Errorf("unexpected placeholder: %+v", got)
	}
}

type memoryCache struct {
	items map[string]models.VideoDetails
	puts  int
}

func (m *memoryCache) CachedVideo(_ context.Context, id string, _ time.Duration) (models.VideoDetails, bool, error) {
	d, ok := m.items[id]
	return d, ok, nil
}

func (m *memoryCache) CacheVideo(_ context.Context, id string, d models.VideoDetails) error {
	m.items[id] = d
	m.puts++
	return nil
}

func TestResolveUsesCache(t *testing.T) {
	upstream := &fakeUpstream{videosStatus: http.StatusOK, oembedStatus: http.StatusOK}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	cache := &memoryCache{items: map[string]models.VideoDetails{}}
	r := testResolver(t, srv, true, cache)

	first := r.Resolve(context.Background(), "vid123")
	second := r.Resolve(context.Background(), "vid123")

	if first != second {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
	if upstream.videosCalls != 1 {
		t.Errorf("videos.list calls = %d, want 1", upstream.videosCalls)
	}
	if cache.puts != 1 {
		t.Errorf("cache puts = %d, want 1", cache.puts)
	}
}

func TestOEmbedResultsAreNotCached(t *testing.T) {
	upstream := &fakeUpstream{oembedStatus: http.StatusOK}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	cache := &memoryCache{items: map[string]models.VideoDetails{}}
	testResolver(t, srv, false, cache).Resolve(context.Background(), "vid123")

	if cache.puts != 0 {
		t.Errorf("oEmbed result should not be cached")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		iso  string
		want string
	}{
		{"PT4M13S", "4:13"},
		{"PT1H2M3S", "1:02:03"},
		{"PT45S", "0:45"},
		{"PT2H", "2:00:00"},
		{"P1DT1M", "24:01:00"},
		{"P0D", UnknownDuration},
		{"", UnknownDuration},
		{"garbage", UnknownDuration},
	}
	for _, tt := range tests {
		if got := FormatDuration(parseDurationSeconds(tt.iso)); got != tt.want {
			t.Errorf("FormatDuration(%q) = %q, want %q", tt.iso, got, tt.want)
		}
	}
}

func TestPickCaptionTrack(t *testing.T) {
	tracks := []*youtube.Caption{
		{Id: "de", Snippet: &youtube.CaptionSnippet{Language: "de"}},
		{Id: "en", Snippet: &youtube.CaptionSnippet{Language: "en"}},
	}
	if got := pickCaptionTrack(tracks); got.Id != "en" {
		t.Errorf("picked %q, want en", got.Id)
	}
	if got := pickCaptionTrack(tracks[:1]); got.Id != "de" {
		t.Errorf("picked %q, want first track", got.Id)
	}
	if pickCaptionTrack(nil) != nil {
		t.Error("expected nil for no tracks")
	}
}
