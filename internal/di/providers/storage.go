package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/websignapp/websign-server/internal/config"
	"github.com/websignapp/websign-server/internal/logger"
	"github.com/websignapp/websign-server/internal/media/images"
	"github.com/websignapp/websign-server/internal/media/uploads"
)

// MediaStorages groups the upload file storage and its thumbnail storage.
type MediaStorages struct {
	Uploads *uploads.Storage
	Thumbs  *images.Storage
}

// ProvideMediaStorages provides the media storage services.
func ProvideMediaStorages(i do.Injector) (*MediaStorages, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	uploadStorage, err := uploads.NewStorage(cfg.Uploads.Path, cfg.Uploads.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("upload storage: %w", err)
	}

	thumbStorage, err := images.NewStorage(cfg.Uploads.Path)
	if err != nil {
		return nil, fmt.Errorf("thumbnail storage: %w", err)
	}

	log.Info("Media storages initialized",
		"path", cfg.Uploads.Path,
		"max_upload_size", cfg.Uploads.MaxSize,
	)

	return &MediaStorages{
		Uploads: uploadStorage,
		Thumbs:  thumbStorage,
	}, nil
}

// ProvideImageProcessor provides the image processor for upload thumbnails.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	storages := do.MustInvoke[*MediaStorages](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(storages.Thumbs, log.Logger), nil
}
