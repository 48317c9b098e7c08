package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"automindmap/internal/models"
	"automindmap/shared/config"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	UnknownDuration = "Unknown"
	UnknownChannel  = "Unknown Channel"

	maxCaptionBytes = 4 << 20
)

var errVideoNotFound = errors.New("video not found")

// VideoCache stores Data API results between requests.
type VideoCache interface {
	CachedVideo(ctx context.Context, videoID string, maxAge time.Duration) (models.VideoDetails, bool, error)
	CacheVideo(ctx context.Context, videoID string, details models.VideoDetails) error
}

// Resolver looks up video metadata. It prefers the Data API, falls back to
// the public oEmbed endpoint and finally to a placeholder, so Resolve never
// fails.
type Resolver struct {
	service    *youtube.Service
	httpClient *http.Client
	oembedURL  string
	timeout    time.Duration
	cache      VideoCache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewResolver wires the Data API client from whatever credential is
// configured: a stored OAuth token (which also allows caption downloads)
// or an API key. With neither, only oEmbed is used.
func NewResolver(ctx context.Context, cfg config.YouTubeConfig, cache VideoCache, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "resolver")

	var opts []option.ClientOption
	if ts, err := tokenSource(cfg, logger); err == nil {
		opts = append(opts, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
		logger.Info("YouTube Data API enabled with OAuth token", "token_file", cfg.TokenFile)
	} else if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
		logger.Info("YouTube Data API enabled with API key; caption downloads may be refused", "reason", err)
	} else {
		logger.Info("YouTube Data API disabled; using oEmbed only")
	}

	var service *youtube.Service
	if len(opts) > 0 {
		var err error
		service, err = youtube.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube service: %w", err)
		}
	}

	return newResolver(service, cfg, cache, logger), nil
}

func newResolver(service *youtube.Service, cfg config.YouTubeConfig, cache VideoCache, logger *slog.Logger) *Resolver {
	return &Resolver{
		service:    service,
		httpClient: &http.Client{},
		oembedURL:  cfg.OEmbedURL,
		timeout:    cfg.RequestTimeout(),
		cache:      cache,
		cacheTTL:   cfg.CacheTTL(),
		logger:     logger,
	}
}

// Resolve returns the best metadata available for videoID.
func (r *Resolver) Resolve(ctx context.Context, videoID string) models.VideoDetails {
	logger := r.logger.With("video_id", videoID)

	if r.cache != nil && r.cacheTTL > 0 {
		details, ok, err := r.cache.CachedVideo(ctx, videoID, r.cacheTTL)
		if err != nil {
			logger.Warn("video cache lookup failed", "error", err)
		} else if ok {
			logger.Debug("video details served from cache")
			return details
		}
	}

	if r.service != nil {
		details, err := r.fromDataAPI(ctx, videoID)
		if err == nil {
			if r.cache != nil && r.cacheTTL > 0 {
				if err := r.cache.CacheVideo(ctx, videoID, details); err != nil {
					logger.Warn("failed to cache video details", "error", err)
				}
			}
			return details
		}
		logger.Warn("YouTube Data API lookup failed, trying oEmbed", "error", err)
	}

	details, err := r.fromOEmbed(ctx, videoID)
	if err == nil {
		return details
	}
	logger.Warn("oEmbed lookup failed, using placeholder", "error", err)

	return Placeholder(videoID)
}

// Placeholder is the record used when every metadata source failed.
func Placeholder(videoID string) models.VideoDetails {
	return models.VideoDetails{
		Title:        "YouTube Video " + videoID,
		ChannelTitle: UnknownChannel,
		Duration:     UnknownDuration,
	}
}

func (r *Resolver) fromDataAPI(ctx context.Context, videoID string) (models.VideoDetails, error) {
	callCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	resp, err := r.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(videoID).
		Context(callCtx).
		Do()
	if err != nil {
		return models.VideoDetails{}, fmt.Errorf("videos.list: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return models.VideoDetails{}, errVideoNotFound
	}

	item := resp.Items[0]
	details := models.VideoDetails{
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		ChannelTitle: item.Snippet.ChannelTitle,
		PublishedAt:  item.Snippet.PublishedAt,
		Duration:     UnknownDuration,
	}
	if item.ContentDetails != nil {
		details.Duration = FormatDuration(parseDurationSeconds(item.ContentDetails.Duration))
	}
	if item.Statistics != nil {
		details.ViewCount = strconv.FormatUint(item.Statistics.ViewCount, 10)
	}

	captions, err := r.fetchCaptions(ctx, videoID)
	if err != nil {
		r.logger.Debug("captions unavailable", "video_id", videoID, "error", err)
	}
	details.Captions = captions

	return details, nil
}

func (r *Resolver) fetchCaptions(ctx context.Context, videoID string) (string, error) {
	listCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	list, err := r.service.Captions.List([]string{"snippet"}, videoID).Context(listCtx).Do()
	if err != nil {
		return "", fmt.Errorf("captions.list: %w", err)
	}
	track := pickCaptionTrack(list.Items)
	if track == nil {
		return "", nil
	}

	dlCtx, cancelDL := r.withTimeout(ctx)
	defer cancelDL()

	resp, err := r.service.Captions.Download(track.Id).Tfmt("srt").Context(dlCtx).Download()
	if err != nil {
		return "", fmt.Errorf("captions.download %s: %w", track.Id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCaptionBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read caption track: %w", err)
	}
	return ExtractTranscript(string(body)), nil
}

// pickCaptionTrack prefers an English track and otherwise takes the first.
func pickCaptionTrack(tracks []*youtube.Caption) *youtube.Caption {
	for _, t := range tracks {
		if t.Snippet == nil {
			continue
		}
		lang := strings.ToLower(t.Snippet.Language)
		if lang == "en" || strings.HasPrefix(lang, "en-") {
			return t
		}
	}
	if len(tracks) > 0 {
		return tracks[0]
	}
	return nil
}

type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

func (r *Resolver) fromOEmbed(ctx context.Context, videoID string) (models.VideoDetails, error) {
	if r.oembedURL == "" {
		return models.VideoDetails{}, errors.New("oEmbed endpoint not configured")
	}

	callCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	q := url.Values{}
	q.Set("url", WatchURL(videoID))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, r.oembedURL+"?"+q.Encode(), nil)
	if err != nil {
		return models.VideoDetails{}, fmt.Errorf("failed to build oEmbed request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return models.VideoDetails{}, fmt.Errorf("oEmbed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.VideoDetails{}, fmt.Errorf("oEmbed returned status %d", resp.StatusCode)
	}

	var body oembedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return models.VideoDetails{}, fmt.Errorf("failed to decode oEmbed response: %w", err)
	}
	if body.Title == "" {
		return models.VideoDetails{}, errors.New("oEmbed response has no title")
	}

	channel := body.AuthorName
	if channel == "" {
		channel = UnknownChannel
	}
	return models.VideoDetails{
		Title:        body.Title,
		ChannelTitle: channel,
		Duration:     UnknownDuration,
	}, nil
}

func (r *Resolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseDurationSeconds reads ISO 8601 durations such as PT4M13S or
// P1DT2H. Unparseable input yields 0.
func parseDurationSeconds(duration string) int {
	m := isoDuration.FindStringSubmatch(duration)
	if m == nil {
		return 0
	}

	total := 0
	for i, unit := range []int{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		if n, err := strconv.Atoi(m[i+1]); err == nil {
			total += n * unit
		}
	}
	return total
}

// FormatDuration renders seconds as m:ss or h:mm:ss. Zero means the
// duration is unknown.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return UnknownDuration
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
