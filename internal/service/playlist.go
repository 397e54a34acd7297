package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/websignapp/websign-server/internal/domain"
	domainerrors "github.com/websignapp/websign-server/internal/errors"
	"github.com/websignapp/websign-server/internal/id"
	"github.com/websignapp/websign-server/internal/store"
)

// PlaylistService manages playlists and their ordered items.
type PlaylistService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPlaylistService creates a new playlist service.
func NewPlaylistService(store *store.Store, logger *slog.Logger) *PlaylistService {
	return &PlaylistService{
		store:  store,
		logger: logger,
	}
}

// CreatePlaylistRequest contains the data for a new playlist.
type CreatePlaylistRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// Create persists a new, empty playlist for the owner.
func (s *PlaylistService) Create(ctx context.Context, ownerID string, req CreatePlaylistRequest) (*domain.Playlist, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	playlistID, err := id.Generate("pls")
	if err != nil {
		return nil, fmt.Errorf("generate playlist ID: %w", err)
	}

	playlist := &domain.Playlist{
		OwnerID: ownerID,
		Name:    req.Name,
		Items:   []domain.PlaylistItem{},
	}
	playlist.ID = playlistID
	playlist.InitTimestamps()

	if err := s.store.CreatePlaylist(ctx, playlist); err != nil {
		return nil, fmt.Errorf("create playlist: %w", err)
	}

	s.logger.Info("playlist created",
		slog.String("playlist_id", playlistID),
		slog.String("owner_id", ownerID),
		slog.String("name", req.Name))

	return playlist, nil
}

// Get returns a playlist owned by the given user.
func (s *PlaylistService) Get(ctx context.Context, ownerID, playlistID string) (*domain.Playlist, error) {
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
	return playlist, nil
}

// List returns all playlists owned by the given user.
func (s *PlaylistService) List(ctx context.Context, ownerID string) ([]*domain.Playlist, error) {
	playlists, err := s.store.ListPlaylists(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	return playlists, nil
}

// ReplaceItems swaps the playlist's item list wholesale. The new list is
// normalized: duplicates dropped, positions renumbered densely from 1.
// Replacing on an unknown playlist id is silently ignored.
func (s *PlaylistService) ReplaceItems(ctx context.Context, ownerID, playlistID string, contentIDs []string) (*domain.Playlist, error) {
	if err := s.checkOwnership(ctx, ownerID, playlistID); err != nil {
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) && domainErr.Code == domainerrors.CodeNotFound {
			// Documented permissive behavior: stale playlist ids no-op.
			return nil, nil
		}
		return nil, err
	}

	if err := s.checkContentOwnership(ctx, ownerID, contentIDs); err != nil {
		return nil, err
	}

	playlist, err := s.store.ReplacePlaylistItems(ctx, playlistID, contentIDs)
	if err != nil {
		return nil, fmt.Errorf("replace playlist items: %w", err)
	}
	return playlist, nil
}

// AddItems appends content to the end of the playlist, skipping ids that
// are already present.
func (s *PlaylistService) AddItems(ctx context.Context, ownerID, playlistID string, contentIDs []string) (*domain.Playlist, error) {
	if len(contentIDs) == 0 {
		return nil, domainerrors.Validation("content_ids cannot be empty")
	}
	if err := s.checkOwnership(ctx, ownerID, playlistID); err != nil {
		return nil, err
	}
	if err := s.checkContentOwnership(ctx, ownerID, contentIDs); err != nil {
		return nil, err
	}

	playlist, err := s.store.AddPlaylistItems(ctx, playlistID, contentIDs...)
	if err != nil {
		return nil, fmt.Errorf("add playlist items: %w", err)
	}
	return playlist, nil
}

// RemoveItem deletes a content entry from the playlist and renumbers the
// remainder densely.
func (s *PlaylistService) RemoveItem(ctx context.Context, ownerID, playlistID, contentID string) (*domain.Playlist, error) {
	if err := s.checkOwnership(ctx, ownerID, playlistID); err != nil {
		return nil, err
	}

	playlist, err := s.store.RemovePlaylistItem(ctx, playlistID, contentID)
	if err != nil {
		return nil, fmt.Errorf("remove playlist item: %w", err)
	}
	return playlist, nil
}

// MoveItem moves a content entry to the given one-based position.
func (s *PlaylistService) MoveItem(ctx context.Context, ownerID, playlistID, contentID string, position int) (*domain.Playlist, error) {
	if position < 1 {
		return nil, domainerrors.Validation("position must be at least 1")
	}
	if err := s.checkOwnership(ctx, ownerID, playlistID); err != nil {
		return nil, err
	}

	playlist, err := s.store.MovePlaylistItem(ctx, playlistID, contentID, position)
	if err != nil {
		if errors.Is(err, store.ErrContentNotFound) {
			return nil, domainerrors.NotFound("content item is not in this playlist")
		}
		return nil, fmt.Errorf("move playlist item: %w", err)
	}
	return playlist, nil
}

// Delete removes a playlist, clearing the assignment on every screen that
// referenced it.
func (s *PlaylistService) Delete(ctx context.Context, ownerID, playlistID string) error {
	if err := s.checkOwnership(ctx, ownerID, playlistID); err != nil {
		return err
	}

	if err := s.store.DeletePlaylist(ctx, playlistID); err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}

	s.logger.Info("playlist deleted", slog.String("playlist_id", playlistID))
	return nil
}

func (s *PlaylistService) checkOwnership(ctx context.Context, ownerID, playlistID string) error {
	_, err := s.Get(ctx, ownerID, playlistID)
	return err
}

// checkContentOwnership verifies every referenced content item exists and
// belongs to the owner before it enters a playlist.
func (s *PlaylistService) checkContentOwnership(ctx context.Context, ownerID string, contentIDs []string) error {
	for _, contentID := range contentIDs {
		item, err := s.store.GetContent(ctx, contentID)
		if err != nil {
			if errors.Is(err, store.ErrContentNotFound) {
				return domainerrors.NotFoundf("content item %s not found", contentID)
			}
			return fmt.Errorf("get content: %w", err)
		}
		if item.OwnerID != ownerID {
			return domainerrors.NotFoundf("content item %s not found", contentID)
		}
	}
	return nil
}
