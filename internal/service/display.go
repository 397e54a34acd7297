package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/websignapp/websign-server/internal/display"
	"github.com/websignapp/websign-server/internal/domain"
	"github.com/websignapp/websign-server/internal/id"
	"github.com/websignapp/websign-server/internal/stats"
	"github.com/websignapp/websign-server/internal/store"
)

// DisplayService resolves screens for the rotation engine and records
// proof-of-play impressions. It implements display.Resolver and
// display.PlayRecorder.
type DisplayService struct {
	store  *store.Store
	stats  *stats.Store
	logger *slog.Logger
}

// NewDisplayService creates a new display resolution service.
func NewDisplayService(store *store.Store, stats *stats.Store, logger *slog.Logger) *DisplayService {
	return &DisplayService{
		store:  store,
		stats:  stats,
		logger: logger,
	}
}

// ResolveScreen resolves a screen id to its ordered rotation sequence.
// Lookup misses come back as nil fields, not errors: an unknown screen,
// a missing playlist, and an empty playlist are all displayable states.
// Unresolvable playlist entries are dropped.
func (s *DisplayService) ResolveScreen(ctx context.Context, screenID string) (*display.Resolution, error) {
	screen, err := s.store.GetScreen(ctx, screenID)
	if err != nil {
		if errors.Is(err, store.ErrScreenNotFound) {
			return &display.Resolution{}, nil
		}
		return nil, fmt.Errorf("get screen: %w", err)
	}

	res := &display.Resolution{Screen: screen}
	if !screen.HasPlaylist() {
		return res, nil
	}

	playlist, err := s.store.GetPlaylist(ctx, screen.PlaylistID)
	if err != nil {
		if errors.Is(err, store.ErrPlaylistNotFound) {
			// Stale assignment: treat as no playlist.
			return res, nil
		}
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	res.Playlist = playlist

	items, err := s.store.ResolveContent(ctx, playlist.ContentIDs())
	if err != nil {
		return nil, fmt.Errorf("resolve playlist content: %w", err)
	}
	res.Items = items

	return res, nil
}

// RecordPlay logs an impression and touches the screen's activity
// timestamp. Failures are logged, never surfaced: rotation must not
// stall on accounting.
func (s *DisplayService) RecordPlay(ctx context.Context, play display.Play) {
	impressionID, err := id.Generate("imp")
	if err != nil {
		s.logger.Warn("failed to generate impression ID", slog.Any("error", err))
		return
	}

	impression := &domain.Impression{
		ID:          impressionID,
		OwnerID:     play.OwnerID,
		ScreenID:    play.ScreenID,
		PlaylistID:  play.PlaylistID,
		ContentID:   play.ContentID,
		ContentType: string(play.ContentType),
		DisplayedAt: play.StartedAt,
		DurationMs:  play.Duration.Milliseconds(),
		CreatedAt:   time.Now(),
	}
	if err := s.stats.RecordImpression(ctx, impression); err != nil {
		s.logger.Warn("failed to record impression",
			slog.String("screen_id", play.ScreenID),
			slog.String("content_id", play.ContentID),
			slog.Any("error", err))
	}

	s.touchScreen(ctx, play.ScreenID)
}

// touchScreen bumps the screen's last-activity timestamp.
func (s *DisplayService) touchScreen(ctx context.Context, screenID string) {
	screen, err := s.store.GetScreen(ctx, screenID)
	if err != nil {
		return
	}
	screen.Touch()
	if err := s.store.UpdateScreen(ctx, screen); err != nil {
		s.logger.Warn("failed to touch screen activity",
			slog.String("screen_id", screenID),
			slog.Any("error", err))
	}
}
