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
	screenPrefix        = "screen:"
	screenByOwnerPrefix = "idx:screens:owner:" // For listing a user's screens
)

// ErrScreenNotFound is returned when a screen cannot be found by ID.
var ErrScreenNotFound = errors.New("screen not found")

// CreateScreen registers a new screen.
func (s *Store) CreateScreen(_ context.Context, screen *domain.Screen) error {
	key := []byte(screenPrefix + screen.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check screen exists: %w", err)
	}
	if exists {
		return ErrAlreadyExists.WithMessage("screen already exists")
	}

	ownerKey := []byte(screenByOwnerPrefix + screen.OwnerID + ":" + screen.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(screen)
		if err != nil {
			return fmt.Errorf("marshal screen: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		// Create owner index for listing
		return txn.Set(ownerKey, []byte{})
	})
	if err != nil {
		return err
	}

	s.emit(sse.NewScreenCreatedEvent(screen))
	s.indexScreen(screen)
	return nil
}

// GetScreen retrieves a screen by ID.
func (s *Store) GetScreen(_ context.Context, id string) (*domain.Screen, error) {
	key := buildKey(screenPrefix, id)
	defer releaseKey(key)

	var screen domain.Screen
	if err := s.get(key, &screen); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrScreenNotFound
		}
		return nil, fmt.Errorf("get screen: %w", err)
	}

	return &screen, nil
}

// UpdateScreen updates an existing screen.
func (s *Store) UpdateScreen(ctx context.Context, screen *domain.Screen) error {
	// Ensure it exists first; owner index is keyed by owner which never changes.
	if _, err := s.GetScreen(ctx, screen.ID); err != nil {
		return err
	}

	screen.Touch()

	key := []byte(screenPrefix + screen.ID)
	err := s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(screen)
		if err != nil {
			return fmt.Errorf("marshal screen: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}

	s.emit(sse.NewScreenUpdatedEvent(screen))
	s.indexScreen(screen)
	return nil
}

// AssignPlaylist points a screen at a playlist. An empty playlistID clears
// the assignment. Assigning to a screen that does not exist is a no-op.
func (s *Store) AssignPlaylist(ctx context.Context, screenID, playlistID string) error {
	screen, err := s.GetScreen(ctx, screenID)
	if err != nil {
		if errors.Is(err, ErrScreenNotFound) {
			return nil
		}
		return err
	}

	screen.AssignPlaylist(playlistID)
	return s.UpdateScreen(ctx, screen)
}

// DeleteScreen removes a screen. Idempotent - deleting a missing screen is
// not an error.
func (s *Store) DeleteScreen(ctx context.Context, id string) error {
	screen, err := s.GetScreen(ctx, id)
	if err != nil {
		if errors.Is(err, ErrScreenNotFound) {
			return nil
		}
		return err
	}

	key := []byte(screenPrefix + id)
	ownerKey := []byte(screenByOwnerPrefix + screen.OwnerID + ":" + id)

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

	s.emit(sse.NewScreenDeletedEvent(id, screen.OwnerID))
	if s.searchIndexer != nil {
		if err := s.searchIndexer.DeleteScreen(ctx, id); err != nil {
			s.logger.Warn("failed to remove screen from search index", "screen_id", id, "error", err)
		}
	}
	return nil
}

// ListScreens returns all screens belonging to a user, via the owner index.
func (s *Store) ListScreens(ctx context.Context, ownerID string) ([]*domain.Screen, error) {
	prefix := []byte(screenByOwnerPrefix + ownerID + ":")
	var screens []*domain.Screen

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // We only need keys

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// Key format: idx:screens:owner:ownerID:screenID
			key := string(it.Item().Key())
			screenID := key[strings.LastIndex(key, ":")+1:]

			screen, err := s.GetScreen(ctx, screenID)
			if err != nil {
				if errors.Is(err, ErrScreenNotFound) {
					continue // Stale index entry
				}
				return err
			}

			screens = append(screens, screen)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list screens: %w", err)
	}

	return screens, nil
}

// ScreensAssignedTo returns the IDs of all screens currently showing the
// given playlist, across all owners.
func (s *Store) ScreensAssignedTo(_ context.Context, playlistID string) ([]string, error) {
	prefix := []byte(screenPrefix)
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var screen domain.Screen
				if unmarshalErr := json.Unmarshal(val, &screen); unmarshalErr != nil {
					return nil //nolint:nilerr // intentionally skip malformed entries
				}
				if screen.PlaylistID == playlistID {
					ids = append(ids, screen.ID)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("screens assigned to playlist: %w", err)
	}

	return ids, nil
}

// indexScreen pushes a screen into the search index, logging failures.
func (s *Store) indexScreen(screen *domain.Screen) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.IndexScreen(context.Background(), screen); err != nil {
		s.logger.Warn("failed to index screen", "screen_id", screen.ID, "error", err)
	}
}
