package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
)

// thumbnailSize is the longest side of generated thumbnails.
// Dashboards render small previews; 320px keeps them crisp without
// shipping full uploads to the browser.
const thumbnailSize = 320

// thumbnailQuality is the JPEG quality used for thumbnails.
const thumbnailQuality = 80

// Result describes a processed image upload.
type Result struct {
	Width    int    // Pixel width of the original image
	Height   int    // Pixel height of the original image
	Blurhash string // Placeholder string for progressive loading
}

// Processor inspects uploaded images and generates derived assets.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger,
	}
}

// Process decodes an uploaded image, computes its dimensions and blurhash,
// and stores a JPEG thumbnail keyed by id.
func (p *Processor) Process(ctx context.Context, imagePath string, id string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close() //nolint:errcheck // Read-only handle, nothing to do about close errors

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	result := &Result{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	// Blurhash is best-effort; a missing placeholder is not worth
	// failing the upload over.
	hash, err := ComputeBlurHashImage(img)
	if err != nil {
		p.logger.Warn("failed to compute blurhash",
			"path", imagePath,
			"error", err,
		)
	} else {
		result.Blurhash = hash
	}

	// Generate and store the thumbnail.
	thumbnail := scaleToFit(img, thumbnailSize)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumbnail, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	if err := p.storage.Save(id, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("save thumbnail: %w", err)
	}

	p.logger.Debug("processed image upload",
		"id", id,
		"format", format,
		"width", result.Width,
		"height", result.Height,
		"thumbnail_bytes", buf.Len(),
	)

	return result, nil
}

// DeleteThumbnail removes the stored thumbnail for id, if present.
func (p *Processor) DeleteThumbnail(id string) error {
	return p.storage.Delete(id)
}
