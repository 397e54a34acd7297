package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/websignapp/websign-server/internal/domain"
	"github.com/websignapp/websign-server/internal/service"
)

func (s *Server) registerPlaylistRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPlaylists",
		Method:      http.MethodGet,
		Path:        "/api/v1/playlists",
		Summary:     "List playlists",
		Description: "Returns all playlists owned by the current user",
		Tags:        []string{"Playlists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListPlaylists)

	huma.Register(s.api, huma.Operation{
		OperationID: "createPlaylist",
		Method:      http.MethodPost,
		Path:        "/api/v1/playlists",
		Summary:     "Create playlist",
		Description: "Creates a new, empty playlist",
		Tags:        []string{"Playlists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreatePlaylist)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlaylist",
		Method:      http.MethodGet,
		Path:        "/api/v1/playlists/{id}",
		Summary:     "Get playlist",
		Description: "Returns a playlist by ID",
		Tags:        []string{"Playlists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetPlaylist)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePlaylist",
		Method:      http.MethodDelete,
		Path:        "/api/v1/playlists/{id}",
		Summary:     "Delete playlist",
		Description: "Deletes a playlist and clears it from any screens it was assigned to",
		Tags:        []string{"Playlists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeletePlaylist)

	huma.Register(s.api, huma.Operation{
		OperationID: "replacePlaylistItems",
		Method:      http.MethodPut,
		Path:        "/api/v1/playlists/{id}/items",
		Summary:     "Replace playlist items",
		Description: "Replaces the playlist's items wholesale with the given content IDs, in order",
		Tags:        []string{"Playlists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReplacePlaylistItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "addPlaylistItems",
		Method:      http.MethodPost,
		Path:        "/api/v1/playlists/{id}/items",
		Summary:     "Add playlist items",
		Description: "Appends content items to the end of the playlist. IDs already present are skipped.",
		Tags:        []string{"Playlists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddPlaylistItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "removePlaylistItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/playlists/{id}/items/{contentID}",
		Summary:     "Remove playlist item",
		Description: "Removes a content item from the playlist and renumbers the rest",
		Tags:        []string{"Playlists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemovePlaylistItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "movePlaylistItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/playlists/{id}/items/{contentID}/move",
		Summary:     "Move playlist item",
		Description: "Moves a content item to a new 1-based position. Out-of-range positions clamp to the last slot.",
		Tags:        []string{"Playlists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMovePlaylistItem)
}

// === DTOs ===

// PlaylistItemResponse is one entry in a playlist.
type PlaylistItemResponse struct {
	ContentID string `json:"content_id" doc:"Content item ID"`
	Position  int    `json:"position" doc:"1-based display position"`
}

// PlaylistResponse contains playlist data in API responses.
type PlaylistResponse struct {
	ID        string                 `json:"id" doc:"Playlist ID"`
	Name      string                 `json:"name" doc:"Playlist name"`
	Items     []PlaylistItemResponse `json:"items" doc:"Ordered items"`
	CreatedAt time.Time              `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time              `json:"updated_at" doc:"Last update time"`
}

// ListPlaylistsResponse contains a list of playlists.
type ListPlaylistsResponse struct {
	Playlists []PlaylistResponse `json:"playlists" doc:"List of playlists"`
}

// ListPlaylistsOutput wraps the list playlists response for Huma.
type ListPlaylistsOutput struct {
	Body ListPlaylistsResponse
}

// CreatePlaylistRequest is the request body for creating a playlist.
type CreatePlaylistRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120" doc:"Playlist name"`
}

// CreatePlaylistInput wraps the create playlist request for Huma.
type CreatePlaylistInput struct {
	Authorization string `header:"Authorization"`
	Body          CreatePlaylistRequest
}

// PlaylistOutput wraps the playlist response for Huma.
type PlaylistOutput struct {
	Body PlaylistResponse
}

// GetPlaylistInput contains parameters for getting a playlist.
type GetPlaylistInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Playlist ID"`
}

// DeletePlaylistInput contains parameters for deleting a playlist.
type DeletePlaylistInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Playlist ID"`
}

// PlaylistItemsRequest carries an ordered list of content IDs.
type PlaylistItemsRequest struct {
	ContentIDs []string `json:"content_ids" validate:"required,max=500,dive,max=100" doc:"Content IDs in display order"`
}

// PlaylistItemsInput wraps the playlist items request for Huma.
type PlaylistItemsInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Playlist ID"`
	Body          PlaylistItemsRequest
}

// PlaylistItemInput addresses a single item in a playlist.
type PlaylistItemInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Playlist ID"`
	ContentID     string `path:"contentID" doc:"Content item ID"`
}

// MoveItemRequest is the request body for moving a playlist item.
type MoveItemRequest struct {
	To int `json:"to" validate:"required,min=1" doc:"Target 1-based position"`
}

// MoveItemInput wraps the move item request for Huma.
type MoveItemInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Playlist ID"`
	ContentID     string `path:"contentID" doc:"Content item ID"`
	Body          MoveItemRequest
}

// === Handlers ===

func (s *Server) handleListPlaylists(ctx context.Context, input *AuthenticatedInput) (*ListPlaylistsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	playlists, err := s.services.Playlist.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := ListPlaylistsResponse{Playlists: make([]PlaylistResponse, 0, len(playlists))}
	for _, playlist := range playlists {
		resp.Playlists = append(resp.Playlists, mapPlaylistResponse(playlist))
	}

	return &ListPlaylistsOutput{Body: resp}, nil
}

func (s *Server) handleCreatePlaylist(ctx context.Context, input *CreatePlaylistInput) (*PlaylistOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	playlist, err := s.services.Playlist.Create(ctx, userID, service.CreatePlaylistRequest{
		Name: input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &PlaylistOutput{Body: mapPlaylistResponse(playlist)}, nil
}

func (s *Server) handleGetPlaylist(ctx context.Context, input *GetPlaylistInput) (*PlaylistOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	playlist, err := s.services.Playlist.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &PlaylistOutput{Body: mapPlaylistResponse(playlist)}, nil
}

func (s *Server) handleDeletePlaylist(ctx context.Context, input *DeletePlaylistInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Playlist.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Playlist deleted"}}, nil
}

func (s *Server) handleReplacePlaylistItems(ctx context.Context, input *PlaylistItemsInput) (*PlaylistOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	playlist, err := s.services.Playlist.ReplaceItems(ctx, userID, input.ID, input.Body.ContentIDs)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		// Stale playlist ids no-op; echo an empty playlist shell.
		return &PlaylistOutput{Body: PlaylistResponse{ID: input.ID, Items: []PlaylistItemResponse{}}}, nil
	}

	return &PlaylistOutput{Body: mapPlaylistResponse(playlist)}, nil
}

func (s *Server) handleAddPlaylistItems(ctx context.Context, input *PlaylistItemsInput) (*PlaylistOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	playlist, err := s.services.Playlist.AddItems(ctx, userID, input.ID, input.Body.ContentIDs)
	if err != nil {
		return nil, err
	}

	return &PlaylistOutput{Body: mapPlaylistResponse(playlist)}, nil
}

func (s *Server) handleRemovePlaylistItem(ctx context.Context, input *PlaylistItemInput) (*PlaylistOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	playlist, err := s.services.Playlist.RemoveItem(ctx, userID, input.ID, input.ContentID)
	if err != nil {
		return nil, err
	}

	return &PlaylistOutput{Body: mapPlaylistResponse(playlist)}, nil
}

func (s *Server) handleMovePlaylistItem(ctx context.Context, input *MoveItemInput) (*PlaylistOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	playlist, err := s.services.Playlist.MoveItem(ctx, userID, input.ID, input.ContentID, input.Body.To)
	if err != nil {
		return nil, err
	}

	return &PlaylistOutput{Body: mapPlaylistResponse(playlist)}, nil
}

// === Helpers ===

func mapPlaylistResponse(playlist *domain.Playlist) PlaylistResponse {
	resp := PlaylistResponse{
		ID:        playlist.ID,
		Name:      playlist.Name,
		Items:     make([]PlaylistItemResponse, 0, len(playlist.Items)),
		CreatedAt: playlist.CreatedAt,
		UpdatedAt: playlist.UpdatedAt,
	}
	for _, item := range playlist.Items {
		resp.Items = append(resp.Items, PlaylistItemResponse{
			ContentID: item.ContentID,
			Position:  item.Position,
		})
	}
	return resp
}
