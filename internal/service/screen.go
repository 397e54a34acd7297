package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/websignapp/websign-server/internal/domain"
	domainerrors "github.com/websignapp/websign-server/internal/errors"
	"github.com/websignapp/websign-server/internal/id"
	"github.com/websignapp/websign-server/internal/stats"
	"github.com/websignapp/websign-server/internal/store"
)

// ScreenService manages registered screens and their playlist assignments.
type ScreenService struct {
	store  *store.Store
	stats  *stats.Store
	logger *slog.Logger
}

// NewScreenService creates a new screen service.
func NewScreenService(store *store.Store, stats *stats.Store, logger *slog.Logger) *ScreenService {
	return &ScreenService{
		store:  store,
		stats:  stats,
		logger: logger,
	}
}

// CreateScreenRequest contains the data for registering a screen.
type CreateScreenRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Location string `json:"location" validate:"max=200"`
}

// Create registers a new screen for the owner.
func (s *ScreenService) Create(ctx context.Context, ownerID string, req CreateScreenRequest) (*domain.Screen, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	screenID, err := id.Generate("scr")
	if err != nil {
		return nil, fmt.Errorf("generate screen ID: %w", err)
	}

	screen := &domain.Screen{
		OwnerID:  ownerID,
		Name:     req.Name,
		Location: req.Location,
	}
	screen.ID = screenID
	screen.InitTimestamps()

	if err := s.store.CreateScreen(ctx, screen); err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}

	s.logger.Info("screen created",
		slog.String("screen_id", screenID),
		slog.String("owner_id", ownerID),
		slog.String("name", req.Name))

	return screen, nil
}

// Get returns a screen owned by the given user.
func (s *ScreenService) Get(ctx context.Context, ownerID, screenID string) (*domain.Screen, error) {
	screen, err := s.store.GetScreen(ctx, screenID)
	if err != nil {
		if errors.Is(err, store.ErrScreenNotFound) {
			return nil, domainerrors.NotFound("screen not found")
		}
		return nil, fmt.Errorf("get screen: %w", err)
	}
	if screen.OwnerID != ownerID {
		return nil, domainerrors.NotFound("screen not found")
	}
	return screen, nil
}

// List returns all screens owned by the given user.
func (s *ScreenService) List(ctx context.Context, ownerID string) ([]*domain.Screen, error) {
	screens, err := s.store.ListScreens(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list screens: %w", err)
	}
	return screens, nil
}

// AssignPlaylist sets or clears a screen's playlist. An empty playlist id
// clears the assignment. Assigning to an unknown screen is silently
// ignored; assigning an unknown playlist is rejected.
func (s *ScreenService) AssignPlaylist(ctx context.Context, ownerID, screenID, playlistID string) (*domain.Screen, error) {
	screen, err := s.Get(ctx, ownerID, screenID)
	if err != nil {
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) && domainErr.Code == domainerrors.CodeNotFound {
			// Documented permissive behavior: stale screen ids no-op.
			return nil, nil
		}
		return nil, err
	}

	if playlistID != "" {
		playlist, err := s.store.GetPlaylist(ctx, playlistID)
		if err != nil {
			if errors.Is(err, store.ErrPlaylistNotFound) {
				return nil, domainerrors.NotFound("playlist not found")
			}
			return nil, fmt.Errorf("get playlist: %w", err)
		}
		if playlist.OwnerID != ownerID {
			return nil, domainerrors.NotFound("playlist not found")
		}
	}

	if err := s.store.AssignPlaylist(ctx, screenID, playlistID); err != nil {
		return nil, fmt.Errorf("assign playlist: %w", err)
	}

	screen.AssignPlaylist(playlistID)
	s.logger.Info("playlist assignment changed",
		slog.String("screen_id", screenID),
		slog.String("playlist_id", playlistID))

	return screen, nil
}

// Delete removes a screen.
func (s *ScreenService) Delete(ctx context.Context, ownerID, screenID string) error {
	if _, err := s.Get(ctx, ownerID, screenID); err != nil {
		return err
	}

	if err := s.store.DeleteScreen(ctx, screenID); err != nil {
		return fmt.Errorf("delete screen: %w", err)
	}

	s.logger.Info("screen deleted", slog.String("screen_id", screenID))
	return nil
}

// Report aggregates proof-of-play impressions for a screen over the given
// range. A zero range defaults to the last 7 days.
func (s *ScreenService) Report(ctx context.Context, ownerID, screenID string, from, to time.Time) (*domain.ScreenReport, error) {
	if _, err := s.Get(ctx, ownerID, screenID); err != nil {
		return nil, err
	}

	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.Add(-7 * 24 * time.Hour)
	}
	if from.After(to) {
		return nil, domainerrors.Validation("report range start must be before end")
	}

	report, err := s.stats.ScreenReport(ctx, screenID, from, to)
	if err != nil {
		return nil, fmt.Errorf("build screen report: %w", err)
	}
	return report, nil
}
