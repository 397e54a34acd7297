// Package uploads manages the media files behind image and video content items.
// Files are stored flat under the uploads directory with uuid-derived names
// and served back at /uploads/{name}.
package uploads

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// allowedExtensions is the set of upload extensions we accept, mapped to
// whether they describe an image. Everything else is rejected before any
// bytes hit the disk.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".mp4":  false,
	".webm": false,
	".mov":  false,
}

// StoredFile describes a persisted upload.
type StoredFile struct {
	Name     string // Stored file name ({uuid}{ext})
	Path     string // Absolute path on disk
	MimeType string // Derived from the extension
	Size     int64  // Bytes written
	IsImage  bool   // Whether the extension describes an image
}

// Storage persists uploaded media files.
type Storage struct {
	basePath string
	maxSize  int64
}

// NewStorage creates the uploads directory if needed.
// maxSize caps the bytes accepted per file; zero means no cap.
func NewStorage(basePath string, maxSize int64) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	return &Storage{
		basePath: basePath,
		maxSize:  maxSize,
	}, nil
}

// BasePath returns the uploads directory.
func (s *Storage) BasePath() string {
	return s.basePath
}

// Save streams an upload to disk under a fresh uuid-derived name.
// The original file name only contributes its extension.
func (s *Storage) Save(originalName string, r io.Reader) (*StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	isImage, ok := allowedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.basePath, name)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}

	reader := r
	if s.maxSize > 0 {
		// Read one extra byte so an at-limit file is distinguishable
		// from an over-limit one.
		reader = io.LimitReader(r, s.maxSize+1)
	}

	size, err := io.Copy(file, reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write upload file: %w", err)
	}

	if s.maxSize > 0 && size > s.maxSize {
		os.Remove(path)
		return nil, fmt.Errorf("upload exceeds maximum size of %d bytes", s.maxSize)
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return &StoredFile{
		Name:     name,
		Path:     path,
		MimeType: mimeType,
		Size:     size,
		IsImage:  isImage,
	}, nil
}

// Path returns the absolute path for a stored file name.
// Returns an error if the name tries to escape the uploads directory.
func (s *Storage) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.basePath, name), nil
}

// Exists checks whether a stored file is present.
func (s *Storage) Exists(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Delete removes a stored file. Deleting a missing file is not an error.
func (s *Storage) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}
