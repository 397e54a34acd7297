package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/websignapp/websign-server/internal/domain"
	"github.com/websignapp/websign-server/internal/service"
)

func (s *Server) registerScreenRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listScreens",
		Method:      http.MethodGet,
		Path:        "/api/v1/screens",
		Summary:     "List screens",
		Description: "Returns all screens owned by the current user",
		Tags:        []string{"Screens"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListScreens)

	huma.Register(s.api, huma.Operation{
		OperationID: "createScreen",
		Method:      http.MethodPost,
		Path:        "/api/v1/screens",
		Summary:     "Create screen",
		Description: "Registers a new signage screen",
		Tags:        []string{"Screens"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateScreen)

	huma.Register(s.api, huma.Operation{
		OperationID: "getScreen",
		Method:      http.MethodGet,
		Path:        "/api/v1/screens/{id}",
		Summary:     "Get screen",
		Description: "Returns a screen by ID",
		Tags:        []string{"Screens"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetScreen)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteScreen",
		Method:      http.MethodDelete,
		Path:        "/api/v1/screens/{id}",
		Summary:     "Delete screen",
		Description: "Deletes a screen",
		Tags:        []string{"Screens"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteScreen)

	huma.Register(s.api, huma.Operation{
		OperationID: "assignScreenPlaylist",
		Method:      http.MethodPut,
		Path:        "/api/v1/screens/{id}/playlist",
		Summary:     "Assign playlist",
		Description: "Assigns a playlist to a screen. An empty playlist ID clears the assignment.",
		Tags:        []string{"Screens"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAssignScreenPlaylist)

	huma.Register(s.api, huma.Operation{
		OperationID: "getScreenReport",
		Method:      http.MethodGet,
		Path:        "/api/v1/screens/{id}/report",
		Summary:     "Get screen report",
		Description: "Returns proof-of-play impression totals for a screen over a time range (defaults to the last 7 days)",
		Tags:        []string{"Screens"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetScreenReport)
}

// === DTOs ===

// ScreenResponse contains screen data in API responses.
type ScreenResponse struct {
	ID         string    `json:"id" doc:"Screen ID"`
	Name       string    `json:"name" doc:"Screen name"`
	Location   string    `json:"location,omitempty" doc:"Physical location"`
	PlaylistID string    `json:"playlist_id,omitempty" doc:"Assigned playlist ID"`
	CreatedAt  time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt  time.Time `json:"updated_at" doc:"Last update time"`
}

// ListScreensResponse contains a list of screens.
type ListScreensResponse struct {
	Screens []ScreenResponse `json:"screens" doc:"List of screens"`
}

// ListScreensOutput wraps the list screens response for Huma.
type ListScreensOutput struct {
	Body ListScreensResponse
}

// CreateScreenRequest is the request body for creating a screen.
type CreateScreenRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=120" doc:"Screen name"`
	Location string `json:"location,omitempty" validate:"omitempty,max=200" doc:"Physical location"`
}

// CreateScreenInput wraps the create screen request for Huma.
type CreateScreenInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateScreenRequest
}

// ScreenOutput wraps the screen response for Huma.
type ScreenOutput struct {
	Body ScreenResponse
}

// GetScreenInput contains parameters for getting a screen.
type GetScreenInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Screen ID"`
}

// DeleteScreenInput contains parameters for deleting a screen.
type DeleteScreenInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Screen ID"`
}

// AssignPlaylistRequest is the request body for assigning a playlist.
type AssignPlaylistRequest struct {
	PlaylistID string `json:"playlist_id" validate:"omitempty,max=100" doc:"Playlist ID, empty to clear"`
}

// AssignPlaylistInput wraps the assign playlist request for Huma.
type AssignPlaylistInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Screen ID"`
	Body          AssignPlaylistRequest
}

// ScreenReportInput contains parameters for the screen report.
type ScreenReportInput struct {
	Authorization string    `header:"Authorization"`
	ID            string    `path:"id" doc:"Screen ID"`
	From          time.Time `query:"from" doc:"Range start (RFC 3339). Defaults to 7 days ago."`
	To            time.Time `query:"to" doc:"Range end (RFC 3339). Defaults to now."`
}

// ContentPlayCount contains per-content impression totals.
type ContentPlayCount struct {
	ContentID   string    `json:"content_id" doc:"Content item ID"`
	ContentType string    `json:"content_type,omitempty" doc:"Content type (text, image, video)"`
	Impressions int64     `json:"impressions" doc:"Play count"`
	PlayTimeMs  int64     `json:"play_time_ms" doc:"Total play time in milliseconds"`
	LastShownAt time.Time `json:"last_shown_at" doc:"Most recent play in range"`
}

// ScreenReportResponse contains aggregated proof-of-play data.
type ScreenReportResponse struct {
	ScreenID         string             `json:"screen_id" doc:"Screen ID"`
	From             time.Time          `json:"from" doc:"Range start"`
	To               time.Time          `json:"to" doc:"Range end"`
	TotalImpressions int64              `json:"total_impressions" doc:"Total plays in range"`
	TotalPlayTimeMs  int64              `json:"total_play_time_ms" doc:"Total play time in milliseconds"`
	ByContent        []ContentPlayCount `json:"by_content" doc:"Per-content totals"`
}

// ScreenReportOutput wraps the screen report for Huma.
type ScreenReportOutput struct {
	Body ScreenReportResponse
}

// === Handlers ===

func (s *Server) handleListScreens(ctx context.Context, input *AuthenticatedInput) (*ListScreensOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	screens, err := s.services.Screen.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := ListScreensResponse{Screens: make([]ScreenResponse, 0, len(screens))}
	for _, screen := range screens {
		resp.Screens = append(resp.Screens, mapScreenResponse(screen))
	}

	return &ListScreensOutput{Body: resp}, nil
}

func (s *Server) handleCreateScreen(ctx context.Context, input *CreateScreenInput) (*ScreenOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	screen, err := s.services.Screen.Create(ctx, userID, service.CreateScreenRequest{
		Name:     input.Body.Name,
		Location: input.Body.Location,
	})
	if err != nil {
		return nil, err
	}

	return &ScreenOutput{Body: mapScreenResponse(screen)}, nil
}

func (s *Server) handleGetScreen(ctx context.Context, input *GetScreenInput) (*ScreenOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	screen, err := s.services.Screen.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ScreenOutput{Body: mapScreenResponse(screen)}, nil
}

func (s *Server) handleDeleteScreen(ctx context.Context, input *DeleteScreenInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Screen.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Screen deleted"}}, nil
}

func (s *Server) handleAssignScreenPlaylist(ctx context.Context, input *AssignPlaylistInput) (*ScreenOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	screen, err := s.services.Screen.AssignPlaylist(ctx, userID, input.ID, input.Body.PlaylistID)
	if err != nil {
		return nil, err
	}
	if screen == nil {
		// Stale screen ids no-op; echo an empty screen shell.
		return &ScreenOutput{Body: ScreenResponse{ID: input.ID}}, nil
	}

	return &ScreenOutput{Body: mapScreenResponse(screen)}, nil
}

func (s *Server) handleGetScreenReport(ctx context.Context, input *ScreenReportInput) (*ScreenReportOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	report, err := s.services.Screen.Report(ctx, userID, input.ID, input.From, input.To)
	if err != nil {
		return nil, err
	}

	resp := ScreenReportResponse{
		ScreenID:         report.ScreenID,
		From:             report.From,
		To:               report.To,
		TotalImpressions: report.TotalImpressions,
		TotalPlayTimeMs:  report.TotalPlayTimeMs,
		ByContent:        make([]ContentPlayCount, 0, len(report.ByContent)),
	}
	for _, c := range report.ByContent {
		resp.ByContent = append(resp.ByContent, ContentPlayCount{
			ContentID:   c.ContentID,
			ContentType: c.ContentType,
			Impressions: c.Impressions,
			PlayTimeMs:  c.PlayTimeMs,
			LastShownAt: c.LastShownAt,
		})
	}

	return &ScreenReportOutput{Body: resp}, nil
}

// === Helpers ===

func mapScreenResponse(screen *domain.Screen) ScreenResponse {
	return ScreenResponse{
		ID:         screen.ID,
		Name:       screen.Name,
		Location:   screen.Location,
		PlaylistID: screen.PlaylistID,
		CreatedAt:  screen.CreatedAt,
		UpdatedAt:  screen.UpdatedAt,
	}
}
