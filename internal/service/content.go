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

// ContentService manages content items. Payloads are immutable once
// created; there is no update operation.
type ContentService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewContentService creates a new content service.
func NewContentService(store *store.Store, logger *slog.Logger) *ContentService {
	return &ContentService{
		store:  store,
		logger: logger,
	}
}

// ContentMedia carries upload-derived metadata supplied with media items.
// The upload endpoint returns these values; the client passes them through
// when creating the content item.
type ContentMedia struct {
	FileName string `json:"file_name" validate:"max=255"`
	MimeType string `json:"mime_type" validate:"max=100"`
	Size     int64  `json:"size" validate:"min=0"`
	Width    int    `json:"width" validate:"min=0"`
	Height   int    `json:"height" validate:"min=0"`
	Blurhash string `json:"blurhash" validate:"max=120"`
}

// CreateContentRequest contains the data for a new content item.
// Duration is display seconds and must be within 1-300.
type CreateContentRequest struct {
	Type     domain.ContentType `json:"type" validate:"required,oneof=text image video"`
	Content  string             `json:"content" validate:"required,max=10000"`
	Duration int                `json:"duration" validate:"required,min=1,max=300"`
	Name     string             `json:"name" validate:"max=120"`
	Media    *ContentMedia      `json:"media,omitempty"`
}

// Create persists a new content item for the owner.
func (s *ContentService) Create(ctx context.Context, ownerID string, req CreateContentRequest) (*domain.ContentItem, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	contentID, err := id.Generate("cnt")
	if err != nil {
		return nil, fmt.Errorf("generate content ID: %w", err)
	}

	name := req.Name
	if name == "" {
		name = defaultContentName(req)
	}

	item := &domain.ContentItem{
		OwnerID:  ownerID,
		Name:     name,
		Type:     req.Type,
		Content:  req.Content,
		Duration: req.Duration,
	}
	if req.Media != nil && req.Type != domain.ContentTypeText {
		item.Media = &domain.MediaInfo{
			FileName: req.Media.FileName,
			MimeType: req.Media.MimeType,
			Size:     req.Media.Size,
			Width:    req.Media.Width,
			Height:   req.Media.Height,
			Blurhash: req.Media.Blurhash,
		}
	}
	item.ID = contentID
	item.InitTimestamps()

	if err := s.store.CreateContent(ctx, item); err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}

	s.logger.Info("content created",
		slog.String("content_id", contentID),
		slog.String("owner_id", ownerID),
		slog.String("type", string(req.Type)))

	return item, nil
}

// Get returns a content item owned by the given user.
func (s *ContentService) Get(ctx context.Context, ownerID, contentID string) (*domain.ContentItem, error) {
	item, err := s.store.GetContent(ctx, contentID)
	if err != nil {
		if errors.Is(err, store.ErrContentNotFound) {
			return nil, domainerrors.NotFound("content item not found")
		}
		return nil, fmt.Errorf("get content: %w", err)
	}
	if item.OwnerID != ownerID {
		return nil, domainerrors.NotFound("content item not found")
	}
	return item, nil
}

// List returns all content items owned by the given user.
func (s *ContentService) List(ctx context.Context, ownerID string) ([]*domain.ContentItem, error) {
	items, err := s.store.ListContent(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	return items, nil
}

// Delete removes a content item, cascading out of every playlist that
// references it.
func (s *ContentService) Delete(ctx context.Context, ownerID, contentID string) error {
	if _, err := s.Get(ctx, ownerID, contentID); err != nil {
		return err
	}

	if err := s.store.DeleteContent(ctx, contentID); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}

	s.logger.Info("content deleted", slog.String("content_id", contentID))
	return nil
}

// defaultContentName derives a display name for unnamed items.
func defaultContentName(req CreateContentRequest) string {
	if req.Type == domain.ContentTypeText {
		body := req.Content
		if len(body) > 40 {
			body = body[:40] + "…"
		}
		return body
	}
	if req.Media != nil && req.Media.FileName != "" {
		return req.Media.FileName
	}
	return string(req.Type)
}
