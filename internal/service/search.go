package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/websignapp/websign-server/internal/domain"
	"github.com/websignapp/websign-server/internal/search"
	"github.com/websignapp/websign-server/internal/store"
)

// SearchService keeps the bleve index in sync with the store and serves
// dashboard searches. It implements store.SearchIndexer.
type SearchService struct {
	index  *search.SearchIndex
	store  *store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service over the given index.
func NewSearchService(index *search.SearchIndex, store *store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// Search runs an owner-scoped query across screens, content, and playlists.
func (s *SearchService) Search(ctx context.Context, ownerID string, params search.SearchParams) (*search.SearchResult, error) {
	params.OwnerID = ownerID
	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return result, nil
}

// DocumentCount returns the number of indexed documents.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// RebuildIndex drops and re-indexes everything from the store. Used at
// startup when the index mapping version changed.
func (s *SearchService) RebuildIndex(ctx context.Context) error {
	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	var docs []*search.SearchDocument

	for user, err := range s.store.Users.List(ctx) {
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}

		screens, err := s.store.ListScreens(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("list screens: %w", err)
		}
		for _, screen := range screens {
			docs = append(docs, search.ScreenToSearchDocument(screen))
		}

		items, err := s.store.ListContent(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("list content: %w", err)
		}
		for _, item := range items {
			docs = append(docs, search.ContentToSearchDocument(item))
		}

		playlists, err := s.store.ListPlaylists(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("list playlists: %w", err)
		}
		for _, playlist := range playlists {
			docs = append(docs, search.PlaylistToSearchDocument(playlist))
		}
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}

	s.logger.Info("search index rebuilt", slog.Int("documents", len(docs)))
	return nil
}

// IndexScreen implements store.SearchIndexer.
func (s *SearchService) IndexScreen(_ context.Context, screen *domain.Screen) error {
	return s.index.IndexDocument(search.ScreenToSearchDocument(screen))
}

// DeleteScreen implements store.SearchIndexer.
func (s *SearchService) DeleteScreen(_ context.Context, screenID string) error {
	return s.index.DeleteDocument(screenID)
}

// IndexContent implements store.SearchIndexer.
func (s *SearchService) IndexContent(_ context.Context, item *domain.ContentItem) error {
	return s.index.IndexDocument(search.ContentToSearchDocument(item))
}

// DeleteContent implements store.SearchIndexer.
func (s *SearchService) DeleteContent(_ context.Context, contentID string) error {
	return s.index.DeleteDocument(contentID)
}

// IndexPlaylist implements store.SearchIndexer.
func (s *SearchService) IndexPlaylist(_ context.Context, playlist *domain.Playlist) error {
	return s.index.IndexDocument(search.PlaylistToSearchDocument(playlist))
}

// DeletePlaylist implements store.SearchIndexer.
func (s *SearchService) DeletePlaylist(_ context.Context, playlistID string) error {
	return s.index.DeleteDocument(playlistID)
}
