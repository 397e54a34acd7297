package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	domainerrors "github.com/websignapp/websign-server/internal/errors"
	"github.com/websignapp/websign-server/internal/media/images"
	"github.com/websignapp/websign-server/internal/media/uploads"
)

// UploadService stores uploaded media files and derives image previews.
type UploadService struct {
	storage   *uploads.Storage
	processor *images.Processor
	logger    *slog.Logger
}

// NewUploadService creates a new upload service.
func NewUploadService(storage *uploads.Storage, processor *images.Processor, logger *slog.Logger) *UploadService {
	return &UploadService{
		storage:   storage,
		processor: processor,
		logger:    logger,
	}
}

// UploadResult describes a stored upload. For images, Width/Height and
// Blurhash carry the derived preview metadata; clients pass these through
// when creating a content item that references the URL.
type UploadResult struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	IsImage  bool   `json:"is_image"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Blurhash string `json:"blurhash,omitempty"`
}

// Upload streams a file to disk and, for images, generates a thumbnail
// and blurhash placeholder. Preview failures degrade to a plain upload.
func (s *UploadService) Upload(ctx context.Context, originalName string, r io.Reader) (*UploadResult, error) {
	if strings.TrimSpace(originalName) == "" {
		return nil, domainerrors.Validation("file name is required")
	}

	stored, err := s.storage.Save(originalName, r)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	result := &UploadResult{
		FileName: stored.Name,
		URL:      "/uploads/" + stored.Name,
		MimeType: stored.MimeType,
		Size:     stored.Size,
		IsImage:  stored.IsImage,
	}

	if stored.IsImage {
		processed, err := s.processor.Process(ctx, stored.Path, thumbnailID(stored.Name))
		if err != nil {
			s.logger.Warn("image preview generation failed",
				slog.String("file", stored.Name),
				slog.Any("error", err))
		} else {
			result.Width = processed.Width
			result.Height = processed.Height
			result.Blurhash = processed.Blurhash
		}
	}

	s.logger.Info("file uploaded",
		slog.String("file", stored.Name),
		slog.String("mime_type", stored.MimeType),
		slog.Int64("size", stored.Size))

	return result, nil
}

// Path resolves a stored file name to its on-disk path for serving.
func (s *UploadService) Path(name string) (string, error) {
	path, err := s.storage.Path(name)
	if err != nil {
		return "", domainerrors.Validation("invalid file name")
	}
	if !s.storage.Exists(name) {
		return "", domainerrors.NotFound("file not found")
	}
	return path, nil
}

// Delete removes a stored file and its thumbnail, if any.
func (s *UploadService) Delete(name string) error {
	if err := s.storage.Delete(name); err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	_ = s.processor.DeleteThumbnail(thumbnailID(name))
	return nil
}

// thumbnailID strips the extension so thumbnails share the upload's uuid.
func thumbnailID(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
