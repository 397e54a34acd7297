package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/websignapp/websign-server/internal/domain"
	"github.com/websignapp/websign-server/internal/service"
)

func (s *Server) registerContentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listContent",
		Method:      http.MethodGet,
		Path:        "/api/v1/content",
		Summary:     "List content",
		Description: "Returns all content items owned by the current user",
		Tags:        []string{"Content"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListContent)

	huma.Register(s.api, huma.Operation{
		OperationID: "createContent",
		Method:      http.MethodPost,
		Path:        "/api/v1/content",
		Summary:     "Create content",
		Description: "Creates a new content item. Text items carry the message inline; image and video items reference an uploaded media URL.",
		Tags:        []string{"Content"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateContent)

	huma.Register(s.api, huma.Operation{
		OperationID: "getContent",
		Method:      http.MethodGet,
		Path:        "/api/v1/content/{id}",
		Summary:     "Get content",
		Description: "Returns a content item by ID",
		Tags:        []string{"Content"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetContent)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteContent",
		Method:      http.MethodDelete,
		Path:        "/api/v1/content/{id}",
		Summary:     "Delete content",
		Description: "Deletes a content item and removes it from all playlists",
		Tags:        []string{"Content"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteContent)
}

// === DTOs ===

// MediaInfoResponse contains media metadata for image and video content.
type MediaInfoResponse struct {
	FileName string `json:"file_name,omitempty" doc:"Original file name"`
	MimeType string `json:"mime_type,omitempty" doc:"MIME type"`
	Size     int64  `json:"size,omitempty" doc:"File size in bytes"`
	Width    int    `json:"width,omitempty" doc:"Pixel width (images)"`
	Height   int    `json:"height,omitempty" doc:"Pixel height (images)"`
	Blurhash string `json:"blurhash,omitempty" doc:"BlurHash preview placeholder (images)"`
}

// ContentResponse contains content item data in API responses.
type ContentResponse struct {
	ID        string             `json:"id" doc:"Content ID"`
	Name      string             `json:"name" doc:"Display name"`
	Type      string             `json:"type" doc:"Content type (text, image, video)"`
	Content   string             `json:"content" doc:"Message text or media URL"`
	Duration  int                `json:"duration" doc:"Display seconds"`
	Media     *MediaInfoResponse `json:"media,omitempty" doc:"Media metadata"`
	CreatedAt time.Time          `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time          `json:"updated_at" doc:"Last update time"`
}

// ListContentResponse contains a list of content items.
type ListContentResponse struct {
	Content []ContentResponse `json:"content" doc:"List of content items"`
}

// ListContentOutput wraps the list content response for Huma.
type ListContentOutput struct {
	Body ListContentResponse
}

// ContentMediaRequest carries media metadata for image and video items,
// typically copied from the upload response.
type ContentMediaRequest struct {
	FileName string `json:"file_name,omitempty" validate:"omitempty,max=255" doc:"Original file name"`
	MimeType string `json:"mime_type,omitempty" validate:"omitempty,max=100" doc:"MIME type"`
	Size     int64  `json:"size,omitempty" validate:"omitempty,min=0" doc:"File size in bytes"`
	Width    int    `json:"width,omitempty" validate:"omitempty,min=0" doc:"Pixel width"`
	Height   int    `json:"height,omitempty" validate:"omitempty,min=0" doc:"Pixel height"`
	Blurhash string `json:"blurhash,omitempty" validate:"omitempty,max=120" doc:"BlurHash string"`
}

// CreateContentRequest is the request body for creating a content item.
type CreateContentRequest struct {
	Type     string               `json:"type" validate:"required,oneof=text image video" doc:"Content type"`
	Content  string               `json:"content" validate:"required,max=10000" doc:"Message text or media URL"`
	Duration int                  `json:"duration" validate:"required,min=1,max=300" doc:"Display seconds (1-300)"`
	Name     string               `json:"name,omitempty" validate:"omitempty,max=120" doc:"Display name, derived when empty"`
	Media    *ContentMediaRequest `json:"media,omitempty" doc:"Media metadata for image/video items"`
}

// CreateContentInput wraps the create content request for Huma.
type CreateContentInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateContentRequest
}

// ContentOutput wraps the content response for Huma.
type ContentOutput struct {
	Body ContentResponse
}

// GetContentInput contains parameters for getting a content item.
type GetContentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Content ID"`
}

// DeleteContentInput contains parameters for deleting a content item.
type DeleteContentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Content ID"`
}

// === Handlers ===

func (s *Server) handleListContent(ctx context.Context, input *AuthenticatedInput) (*ListContentOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	items, err := s.services.Content.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := ListContentResponse{Content: make([]ContentResponse, 0, len(items))}
	for _, item := range items {
		resp.Content = append(resp.Content, mapContentResponse(item))
	}

	return &ListContentOutput{Body: resp}, nil
}

func (s *Server) handleCreateContent(ctx context.Context, input *CreateContentInput) (*ContentOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	req := service.CreateContentRequest{
		Type:     domain.ContentType(input.Body.Type),
		Content:  input.Body.Content,
		Duration: input.Body.Duration,
		Name:     input.Body.Name,
	}
	if m := input.Body.Media; m != nil {
		req.Media = &service.ContentMedia{
			FileName: m.FileName,
			MimeType: m.MimeType,
			Size:     m.Size,
			Width:    m.Width,
			Height:   m.Height,
			Blurhash: m.Blurhash,
		}
	}

	item, err := s.services.Content.Create(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	return &ContentOutput{Body: mapContentResponse(item)}, nil
}

func (s *Server) handleGetContent(ctx context.Context, input *GetContentInput) (*ContentOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Content.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ContentOutput{Body: mapContentResponse(item)}, nil
}

func (s *Server) handleDeleteContent(ctx context.Context, input *DeleteContentInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Content.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Content deleted"}}, nil
}

// === Helpers ===

func mapContentResponse(item *domain.ContentItem) ContentResponse {
	resp := ContentResponse{
		ID:        item.ID,
		Name:      item.Name,
		Type:      string(item.Type),
		Content:   item.Content,
		Duration:  item.Duration,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
	if item.Media != nil {
		resp.Media = &MediaInfoResponse{
			FileName: item.Media.FileName,
			MimeType: item.Media.MimeType,
			Size:     item.Media.Size,
			Width:    item.Media.Width,
			Height:   item.Media.Height,
			Blurhash: item.Media.Blurhash,
		}
	}
	return resp
}
