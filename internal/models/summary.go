package models

import "time"

type Summary struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Title         string    `json:"title"`
	VideoURL      string    `json:"videoUrl"`
	VideoID       string    `json:"videoId"`
	VideoDuration string    `json:"videoDuration"`
	ThumbnailURL  string    `json:"thumbnailUrl,omitempty"`
	Summary       string    `json:"summary"`
	IsBookmarked  bool      `json:"isBookmarked"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Bookmark struct {
	UserID    string    `json:"userId"`
	SummaryID string    `json:"summaryId"`
	CreatedAt time.Time `json:"createdAt"`
}

type DailyActivity struct {
	Date      string `json:"date"`
	Summaries int    `json:"summaries"`
}

type UserStats struct {
	TotalSummaries int             `json:"totalSummaries"`
	TotalBookmarks int             `json:"totalBookmarks"`
	HoursSaved     float64         `json:"hoursSaved"`
	DailyActivity  []DailyActivity `json:"dailyActivity"`
}
