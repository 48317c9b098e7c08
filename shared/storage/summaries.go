package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"automindmap/internal/models"

	"github.com/google/uuid"
)

const (
	hoursSavedPerSummary = 0.5
	activityWindow       = 30
)

const summarySelect = `
SELECT s.id, s.user_id, s.title, s.video_url, s.video_id, s.video_duration, s.summary,
       s.created_at, s.updated_at, b.summary_id IS NOT NULL
FROM summaries s
LEFT JOIN bookmarks b ON b.summary_id = s.id AND b.user_id = s.user_id`

func (s *Store) CreateSummary(ctx context.Context, sum *models.Summary) error {
	now := s.now().UTC()
	sum.ID = uuid.NewString()
	sum.CreatedAt, sum.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (id, user_id, title, video_url, video_id, video_duration, summary, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.UserID, sum.Title, sum.VideoURL, sum.VideoID, sum.VideoDuration, sum.Summary,
		formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}
	return nil
}

// Summary returns one of the user's summaries.
func (s *Store) Summary(ctx context.Context, userID, id string) (*models.Summary, error) {
	rows, err := s.db.QueryContext(ctx, summarySelect+` WHERE s.user_id = ? AND s.id = ?`, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	list, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// ListSummaries returns the user's summaries, newest first.
func (s *Store) ListSummaries(ctx context.Context, userID string) ([]models.Summary, error) {
	rows, err := s.db.QueryContext(ctx, summarySelect+` WHERE s.user_id = ? ORDER BY s.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	return scanSummaries(rows)
}

// SearchSummaries matches query case-insensitively against titles and
// summary text.
func (s *Store) SearchSummaries(ctx context.Context, userID, query string) ([]models.Summary, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	rows, err := s.db.QueryContext(ctx,
		summarySelect+` WHERE s.user_id = ?
		  AND (lower(s.title) LIKE ? ESCAPE '\' OR lower(s.summary) LIKE ? ESCAPE '\')
		ORDER BY s.created_at DESC`,
		userID, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search summaries: %w", err)
	}
	return scanSummaries(rows)
}

// DeleteSummary removes a summary and any bookmark on it.
func (s *Store) DeleteSummary(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM summaries WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	return requireRow(res)
}

// AddBookmark bookmarks one of the user's own summaries.
func (s *Store) AddBookmark(ctx context.Context, userID, summaryID string) (*models.Bookmark, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM summaries WHERE id = ?`, summaryID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up summary: %w", err)
	}

	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (user_id, summary_id, created_at) VALUES (?, ?, ?)`,
		userID, summaryID, formatTime(now))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("bookmark: %w", ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add bookmark: %w", err)
	}
	return &models.Bookmark{UserID: userID, SummaryID: summaryID, CreatedAt: now}, nil
}

func (s *Store) RemoveBookmark(ctx context.Context, userID, summaryID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE user_id = ? AND summary_id = ?`, userID, summaryID)
	if err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	return requireRow(res)
}

// ListBookmarks returns the bookmarked summaries, most recently bookmarked
// first.
func (s *Store) ListBookmarks(ctx context.Context, userID string) ([]models.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT s.id, s.user_id, s.title, s.video_url, s.video_id, s.video_duration, s.summary,
       s.created_at, s.updated_at, 1
FROM bookmarks b
JOIN summaries s ON s.id = b.summary_id
WHERE b.user_id = ?
ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return scanSummaries(rows)
}

// Stats counts summaries and bookmarks, credits half an hour saved per
// summary and groups the 30 most recent summaries by UTC day.
func (s *Store) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	stats := &models.UserStats{DailyActivity: []models.DailyActivity{}}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM summaries WHERE user_id = ?`, userID).Scan(&stats.TotalSummaries); err != nil {
		return nil, fmt.Errorf("failed to count summaries: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookmarks WHERE user_id = ?`, userID).Scan(&stats.TotalBookmarks); err != nil {
		return nil, fmt.Errorf("failed to count bookmarks: %w", err)
	}
	stats.HoursSaved = math.Round(float64(stats.TotalSummaries)*hoursSavedPerSummary*10) / 10

	rows, err := s.db.QueryContext(ctx,
		`SELECT created_at FROM summaries WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, activityWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	defer rows.Close()

	perDay := make(map[string]int)
	for rows.Next() {
		var createdAt string
		if err := rows.Scan(&createdAt); err != nil {
			return nil, err
		}
		perDay[parseTime(createdAt).Format("2006-01-02")]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for day, n := range perDay {
		stats.DailyActivity = append(stats.DailyActivity, models.DailyActivity{Date: day, Summaries: n})
	}
	sort.Slice(stats.DailyActivity, func(i, j int) bool {
		return stats.DailyActivity[i].Date < stats.DailyActivity[j].Date
	})
	return stats, nil
}

func scanSummaries(rows *sql.Rows) ([]models.Summary, error) {
	defer rows.Close()

	list := []models.Summary{}
	for rows.Next() {
		var (
			sum                  models.Summary
			createdAt, updatedAt string
			bookmarked           int
		)
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.Title, &sum.VideoURL, &sum.VideoID,
			&sum.VideoDuration, &sum.Summary, &createdAt, &updatedAt, &bookmarked); err != nil {
			return nil, fmt.Errorf("failed to read summary: %w", err)
		}
		sum.CreatedAt, sum.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
		sum.IsBookmarked = bookmarked != 0
		list = append(list, sum)
	}
	return list, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
