package stats

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/websignapp/websign-server/internal/domain"
	"github.com/websignapp/websign-server/internal/store"
)

// impressionColumns is the ordered list of columns selected in impression queries.
// Must match the scan order in scanImpression.
const impressionColumns = `id, owner_id, screen_id, playlist_id, content_id,
	content_type, displayed_at, duration_ms, created_at`

// scanImpression scans a sql.Row (or sql.Rows via its Scan method) into a domain.Impression.
func scanImpression(scanner interface{ Scan(dest ...any) error }) (*domain.Impression, error) {
	var imp domain.Impression

	var (
		displayedAt string
		createdAt   string
	)

	err := scanner.Scan(
		&imp.ID,
		&imp.OwnerID,
		&imp.ScreenID,
		&imp.PlaylistID,
		&imp.ContentID,
		&imp.ContentType,
		&displayedAt,
		&imp.DurationMs,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	// Parse timestamps.
	imp.DisplayedAt, err = parseTime(displayedAt)
	if err != nil {
		return nil, err
	}
	imp.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &imp, nil
}

// RecordImpression inserts a new impression into the database.
// Returns store.ErrAlreadyExists if the impression ID already exists.
func (s *Store) RecordImpression(ctx context.Context, imp *domain.Impression) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO impressions (
			id, owner_id, screen_id, playlist_id, content_id,
			content_type, displayed_at, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		imp.ID,
		imp.OwnerID,
		imp.ScreenID,
		imp.PlaylistID,
		imp.ContentID,
		imp.ContentType,
		formatTime(imp.DisplayedAt),
		imp.DurationMs,
		formatTime(imp.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetImpression retrieves an impression by ID.
// Returns store.ErrNotFound if the impression does not exist.
func (s *Store) GetImpression(ctx context.Context, id string) (*domain.Impression, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+impressionColumns+` FROM impressions WHERE id = ?`, id)

	imp, err := scanImpression(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return imp, nil
}

// ListScreenImpressions retrieves impressions for a screen, most recent first.
func (s *Store) ListScreenImpressions(ctx context.Context, screenID string, limit int) ([]*domain.Impression, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+impressionColumns+` FROM impressions WHERE screen_id = ? ORDER BY displayed_at DESC LIMIT ?`,
		screenID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var impressions []*domain.Impression
	for rows.Next() {
		imp, err := scanImpression(rows)
		if err != nil {
			return nil, err
		}
		impressions = append(impressions, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return impressions, nil
}

// ScreenReport aggregates impressions for a screen over a time range.
// The report includes per-content counts ordered by impression count descending.
func (s *Store) ScreenReport(ctx context.Context, screenID string, from, to time.Time) (*domain.ScreenReport, error) {
	report := &domain.ScreenReport{
		ScreenID: screenID,
		From:     from,
		To:       to,
	}

	// Totals.
	var totalDuration sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(duration_ms)
		FROM impressions
		WHERE screen_id = ? AND displayed_at >= ? AND displayed_at < ?`,
		screenID, formatTime(from), formatTime(to)).
		Scan(&report.TotalImpressions, &totalDuration)
	if err != nil {
		return nil, err
	}
	if totalDuration.Valid {
		report.TotalPlayTimeMs = totalDuration.Int64
	}

	// Per-content breakdown.
	rows, err := s.db.QueryContext(ctx, `
		SELECT content_id, content_type, COUNT(*), SUM(duration_ms), MAX(displayed_at)
		FROM impressions
		WHERE screen_id = ? AND displayed_at >= ? AND displayed_at < ?
		GROUP BY content_id, content_type
		ORDER BY COUNT(*) DESC, content_id ASC`,
		screenID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			count       domain.ContentPlayCount
			playTime    sql.NullInt64
			lastShownAt string
		)
		if err := rows.Scan(&count.ContentID, &count.ContentType, &count.Impressions, &playTime, &lastShownAt); err != nil {
			return nil, err
		}
		if playTime.Valid {
			count.PlayTimeMs = playTime.Int64
		}
		count.LastShownAt, err = parseTime(lastShownAt)
		if err != nil {
			return nil, err
		}
		report.ByContent = append(report.ByContent, count)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return report, nil
}

// ContentImpressionCount returns the total number of times a content item
// has been shown across all screens.
func (s *Store) ContentImpressionCount(ctx context.Context, contentID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM impressions WHERE content_id = ?`, contentID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// PruneBefore deletes impressions displayed before the cutoff.
// Returns the number of rows removed.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM impressions WHERE displayed_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
