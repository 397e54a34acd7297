package domain

import "time"

// ContentType identifies what kind of media a content item carries.
type ContentType string

const (
	// ContentTypeText is an inline text message rendered by the display.
	ContentTypeText ContentType = "text"
	// ContentTypeImage is a still image referenced by URL.
	ContentTypeImage ContentType = "image"
	// ContentTypeVideo is a video referenced by URL. Videos carry their own
	// playback duration.
	ContentTypeVideo ContentType = "video"
)

// IsValid returns true if the content type is one of the known kinds.
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeText, ContentTypeImage, ContentTypeVideo:
		return true
	}
	return false
}

// MediaInfo holds metadata extracted from an uploaded media file.
// Only populated for content items created from uploads.
type MediaInfo struct {
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Blurhash string `json:"blurhash,omitempty"` // Compact preview placeholder (images only)
}

// ContentItem represents a single piece of displayable content.
// For text items, Content holds the message body itself; for image and
// video items it holds the media URL.
type ContentItem struct {
	Timestamps
	OwnerID  string      `json:"owner_id"`
	Name     string      `json:"name"`
	Type     ContentType `json:"type"`
	Content  string      `json:"content"`
	Duration int         `json:"duration"` // Display seconds, 1-300. For videos this is the declared runtime.
	Media    *MediaInfo  `json:"media,omitempty"`
}

// DisplayDuration returns how long this item should stay on screen,
// falling back to the given default when no duration was set.
func (c *ContentItem) DisplayDuration(fallback time.Duration) time.Duration {
	if c.Duration > 0 {
		return time.Duration(c.Duration) * time.Second
	}
	return fallback
}

// IsMedia returns true if the item's Content field is a media URL
// rather than inline text.
func (c *ContentItem) IsMedia() bool {
	return c.Type == ContentTypeImage || c.Type == ContentTypeVideo
}
