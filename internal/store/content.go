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
	contentPrefix        = "content:"
	contentByOwnerPrefix = "idx:content:owner:" // For listing a user's content
)

// ErrContentNotFound is returned when a content item cannot be found by ID.
var ErrContentNotFound = errors.New("content item not found")

// CreateContent stores a new content item.
// Content items are immutable after creation - there is no UpdateContent.
func (s *Store) CreateContent(_ context.Context, item *domain.ContentItem) error {
	key := []byte(contentPrefix + item.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check content exists: %w", err)
	}
	if exists {
		return ErrAlreadyExists.WithMessage("content item already exists")
	}

	ownerKey := []byte(contentByOwnerPrefix + item.OwnerID + ":" + item.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal content item: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		return txn.Set(ownerKey, []byte{})
	})
	if err != nil {
		return err
	}

	s.emit(sse.NewContentCreatedEvent(item))
	if s.searchIndexer != nil {
		if err := s.searchIndexer.IndexContent(context.Background(), item); err != nil {
			s.logger.Warn("failed to index content item", "content_id", item.ID, "error", err)
		}
	}
	return nil
}

// GetContent retrieves a content item by ID.
func (s *Store) GetContent(_ context.Context, id string) (*domain.ContentItem, error) {
	key := buildKey(contentPrefix, id)
	defer releaseKey(key)

	var item domain.ContentItem
	if err := s.get(key, &item); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("get content item: %w", err)
	}

	return &item, nil
}

// DeleteContent removes a content item and cascades to every playlist
// referencing it: the item is removed and the remaining entries renumbered.
// Idempotent - deleting a missing item is not an error.
func (s *Store) DeleteContent(ctx context.Context, id string) error {
	item, err := s.GetContent(ctx, id)
	if err != nil {
		if errors.Is(err, ErrContentNotFound) {
			return nil
		}
		return err
	}

	// Cascade first so a crash mid-delete leaves no playlist pointing at
	// a missing item.
	removedFrom, err := s.removeContentFromPlaylists(ctx, id)
	if err != nil {
		return fmt.Errorf("cascade content delete: %w", err)
	}

	key := []byte(contentPrefix + id)
	ownerKey := []byte(contentByOwnerPrefix + item.OwnerID + ":" + id)

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

	s.emit(sse.NewContentDeletedEvent(id, item.OwnerID, removedFrom))
	if s.searchIndexer != nil {
		if err := s.searchIndexer.DeleteContent(ctx, id); err != nil {
			s.logger.Warn("failed to remove content from search index", "content_id", id, "error", err)
		}
	}
	return nil
}

// ListContent returns all content items belonging to a user, via the owner index.
func (s *Store) ListContent(ctx context.Context, ownerID string) ([]*domain.ContentItem, error) {
	prefix := []byte(contentByOwnerPrefix + ownerID + ":")
	var items []*domain.ContentItem

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // We only need keys

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// Key format: idx:content:owner:ownerID:contentID
			key := string(it.Item().Key())
			contentID := key[strings.LastIndex(key, ":")+1:]

			item, err := s.GetContent(ctx, contentID)
			if err != nil {
				if errors.Is(err, ErrContentNotFound) {
					continue // Stale index entry
				}
				return err
			}

			items = append(items, item)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}

	return items, nil
}

// ResolveContent fetches the content items for the given IDs, in order,
// silently skipping IDs that no longer exist. Used by the display engine
// to turn a playlist into a renderable sequence.
func (s *Store) ResolveContent(ctx context.Context, ids []string) ([]*domain.ContentItem, error) {
	items := make([]*domain.ContentItem, 0, len(ids))
	for _, id := range ids {
		item, err := s.GetContent(ctx, id)
		if err != nil {
			if errors.Is(err, ErrContentNotFound) {
				continue
			}
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// removeContentFromPlaylists strips a content ID from every playlist that
// references it and renumbers the survivors. Returns the affected playlist IDs.
func (s *Store) removeContentFromPlaylists(ctx context.Context, contentID string) ([]string, error) {
	prefix := []byte(playlistPrefix)
	var affected []*domain.Playlist

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var p domain.Playlist
				if unmarshalErr := json.Unmarshal(val, &p); unmarshalErr != nil {
					return nil //nolint:nilerr // intentionally skip malformed entries
				}
				if p.ContainsContent(contentID) {
					affected = append(affected, &p)
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
		return nil, err
	}

	ids := make([]string, 0, len(affected))
	for _, p := range affected {
		p.RemoveItem(contentID)
		if err := s.UpdatePlaylist(ctx, p); err != nil {
			return nil, fmt.Errorf("update playlist %s: %w", p.ID, err)
		}
		ids = append(ids, p.ID)
	}

	return ids, nil
}
