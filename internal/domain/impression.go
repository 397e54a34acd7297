package domain

import "time"

// Impression is a single proof-of-play record: one content item shown on
// one screen for some amount of time. Impressions are append-only and live
// in the stats database, not the primary store.
type Impression struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	ScreenID    string    `json:"screen_id"`
	PlaylistID  string    `json:"playlist_id,omitempty"`
	ContentID   string    `json:"content_id"`
	ContentType string    `json:"content_type"`
	DisplayedAt time.Time `json:"displayed_at"`
	DurationMs  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContentPlayCount aggregates impressions for a single content item.
type ContentPlayCount struct {
	ContentID   string    `json:"content_id"`
	ContentType string    `json:"content_type"`
	Impressions int64     `json:"impressions"`
	PlayTimeMs  int64     `json:"play_time_ms"`
	LastShownAt time.Time `json:"last_shown_at"`
}

// ScreenReport summarizes playback activity on a screen over a time range.
type ScreenReport struct {
	ScreenID         string             `json:"screen_id"`
	From             time.Time          `json:"from"`
	To               time.Time          `json:"to"`
	TotalImpressions int64              `json:"total_impressions"`
	TotalPlayTimeMs  int64              `json:"total_play_time_ms"`
	ByContent        []ContentPlayCount `json:"by_content"`
}
