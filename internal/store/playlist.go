package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/websignapp/websign-server/internal/domain"
	"github.com/websignapp/websign-server/internal/sse"
)

const (
	playlistPrefix        = "playlist:"
	playlistByOwnerPrefix = "idx:playlists:owner:" // For listing a user's playlists
)

// ErrPlaylistNotFound is returned when a playlist cannot be found by ID.
var ErrPlaylistNotFound = errors.New("playlist not found")

// CreatePlaylist stores a new playlist.
func (s *Store) CreatePlaylist(_ context.Context, p *domain.Playlist) error {
	key := []byte(playlistPrefix + p.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check playlist exists: %w", err)
	}
	if exists {
		return ErrAlreadyExists.WithMessage("playlist already exists")
	}

	p.Normalize()
	ownerKey := []byte(playlistByOwnerPrefix + p.OwnerID + ":" + p.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal playlist: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		return txn.Set(ownerKey, []byte{})
	})
	if err != nil {
		return err
	}

	s.emit(sse.NewPlaylistCreatedEvent(p))
	s.indexPlaylist(p)
	return nil
}

// GetPlaylist retrieves a playlist by ID.
func (s *Store) GetPlaylist(_ context.Context, id string) (*domain.Playlist, error) {
	key := buildKey(playlistPrefix, id)
	defer releaseKey(key)

	var p domain.Playlist
	if err := s.get(key, &p); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("get playlist: %w", err)
	}

	return &p, nil
}

// UpdatePlaylist persists a modified playlist. Items are normalized before
// writing so stored positions are always dense.
func (s *Store) UpdatePlaylist(ctx context.Context, p *domain.Playlist) error {
	if _, err := s.GetPlaylist(ctx, p.ID); err != nil {
		return err
	}

	p.Normalize()
	p.Touch()

	key := []byte(playlistPrefix + p.ID)
	err := s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal playlist: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}

	s.emit(sse.NewPlaylistUpdatedEvent(p))
	s.indexPlaylist(p)
	return nil
}

// DeletePlaylist removes a playlist and cascades to every screen it was
// assigned to: their assignment is cleared so displays fall back to the
// "no playlist" state. Idempotent - deleting a missing playlist is not an error.
func (s *Store) DeletePlaylist(ctx context.Context, id string) error {
	p, err := s.GetPlaylist(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPlaylistNotFound) {
			return nil
		}
		return err
	}

	// Clear screen assignments first so no screen points at a missing playlist.
	unassigned, err := s.ScreensAssignedTo(ctx, id)
	if err != nil {
		return fmt.Errorf("cascade playlist delete: %w", err)
	}
	for _, screenID := range unassigned {
		if err := s.AssignPlaylist(ctx, screenID, ""); err != nil {
			return fmt.Errorf("unassign screen %s: %w", screenID, err)
		}
	}

	key := []byte(playlistPrefix + id)
	ownerKey := []byte(playlistByOwnerPrefix + p.OwnerID + ":" + id)

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(key); err != nil {
			return err
		}
		if err := txn.Delete(ownerKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(sse.NewPlaylistDeletedEvent(id, p.OwnerID, unassigned))
	if s.searchIndexer != nil {
		if err := s.searchIndexer.DeletePlaylist(ctx, id); err != nil {
			s.logger.Warn("failed to remove playlist from search index", "playlist_id", id, "error", err)
		}
	}
	return nil
}

// ListPlaylists returns all playlists belonging to a user, via the owner index.
func (s *Store) ListPlaylists(ctx context.Context, ownerID string) ([]*domain.Playlist, error) {
	prefix := []byte(playlistByOwnerPrefix + ownerID + ":")
	var playlists []*domain.Playlist

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // We only need keys

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// Key format: idx:playlists:owner:ownerID:playlistID
			key := string(it.Item().Key())
			playlistID := key[strings.LastIndex(key, ":")+1:]

			p, err := s.GetPlaylist(ctx, playlistID)
			if err != nil {
				if errors.Is(err, ErrPlaylistNotFound) {
					continue // Stale index entry
				}
				return err
			}

			playlists = append(playlists, p)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}

	return playlists, nil
}

// AddPlaylistItems appends content items to a playlist, skipping duplicates.
// Returns the updated playlist.
func (s *Store) AddPlaylistItems(ctx context.Context, playlistID string, contentIDs ...string) (*domain.Playlist, error) {
	p, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	if p.AddItems(contentIDs...) == 0 {
		return p, nil // Nothing new, skip the write
	}

	if err := s.UpdatePlaylist(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RemovePlaylistItem removes a content item from a playlist and renumbers
// the remaining entries. Removing an item that is not in the playlist is a
// no-op. Returns the updated playlist.
func (s *Store) RemovePlaylistItem(ctx context.Context, playlistID, contentID string) (*domain.Playlist, error) {
	p, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	if !p.RemoveItem(contentID) {
		return p, nil
	}

	if err := s.UpdatePlaylist(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// MovePlaylistItem moves a content item to a new one-based position.
// Positions outside the valid range are clamped. Returns the updated playlist.
func (s *Store) MovePlaylistItem(ctx context.Context, playlistID, contentID string, position int) (*domain.Playlist, error) {
	p, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	if !p.MoveItem(contentID, position) {
		return nil, ErrContentNotFound
	}

	if err := s.UpdatePlaylist(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ReplacePlaylistItems replaces a playlist's entire item list in one write.
// Duplicate content IDs are collapsed to their first occurrence and positions
// renumbered. Replacing items on a playlist that does not exist is a no-op.
func (s *Store) ReplacePlaylistItems(ctx context.Context, playlistID string, contentIDs []string) (*domain.Playlist, error) {
	p, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		if errors.Is(err, ErrPlaylistNotFound) {
			return nil, nil
		}
		return nil, err
	}

	p.Items = nil
	p.AddItems(contentIDs...)

	if err := s.UpdatePlaylist(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// indexPlaylist pushes a playlist into the search index, logging failures.
func (s *Store) indexPlaylist(p *domain.Playlist) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.IndexPlaylist(context.Background(), p); err != nil {
		s.logger.Warn("failed to index playlist", "playlist_id", p.ID, "error", err)
	}
}
