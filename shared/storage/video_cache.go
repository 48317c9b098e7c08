package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"automindmap/internal/models"
)

// CachedVideo returns details fetched within maxAge. Older rows are
// treated as missing and left for PurgeExpired.
func (s *Store) CachedVideo(ctx context.Context, videoID string, maxAge time.Duration) (models.VideoDetails, bool, error) {
	var details models.VideoDetails
	var raw, fetchedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT details, fetched_at FROM video_cache WHERE video_id = ?`, videoID).Scan(&raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return details, false, nil
	}
	if err != nil {
		return details, false, fmt.Errorf("failed to read video cache: %w", err)
	}

	if s.now().Sub(parseTime(fetchedAt)) >= maxAge {
		return details, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return details, false, fmt.Errorf("failed to decode cached video %s: %w", videoID, err)
	}
	return details, true, nil
}

func (s *Store) CacheVideo(ctx context.Context, videoID string, details models.VideoDetails) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode video details: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO video_cache (video_id, details, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(video_id) DO UPDATE SET details = excluded.details, fetched_at = excluded.fetched_at`,
		videoID, string(raw), formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("failed to cache video %s: %w", videoID, err)
	}
	return nil
}

// CachedVideoCount reports how many videos are cached, regardless of age.
func (s *Store) CachedVideoCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM video_cache`).Scan(&n)
	return n, err
}
