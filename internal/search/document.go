// Package search provides full-text search functionality using Bleve.
// It enables federated search across screens, content items, and playlists
// with faceted filtering and fuzzy matching.
package search

import (
	"github.com/websignapp/websign-server/internal/domain"
)

// DocType represents the type of document in the unified index.
type DocType string

// Document types for the search index.
const (
	DocTypeScreen   DocType = "screen"
	DocTypeContent  DocType = "content"
	DocTypePlaylist DocType = "playlist"
)

// SearchDocument is the unified document structure for the Bleve index.
// All searchable entities are indexed as SearchDocuments with type discrimination.
type SearchDocument struct {
	// Identity
	ID      string  `json:"id"`       // Original entity ID (scr-xxx, cnt-xxx, pls-xxx)
	Type    DocType `json:"type"`     // Discriminator for result grouping
	OwnerID string  `json:"owner_id"` // Every result is scoped to its owner

	// Primary searchable text (different meaning per type)
	// Screen: name, Content: name, Playlist: name
	Name string `json:"name"`

	// Content-specific fields (empty for other types)
	ContentType string `json:"content_type,omitempty"` // text, image, video
	Body        string `json:"body,omitempty"`         // Text content or media file name

	// Screen-specific fields
	Location string `json:"location,omitempty"`

	// Playlist-specific fields
	ItemCount int `json:"item_count,omitempty"`

	// Content duration in seconds (videos only)
	Duration int `json:"duration,omitempty"`

	// Timestamps for sorting
	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"type":       string(d.Type),
		"owner_id":   d.OwnerID,
		"name":       d.Name,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	// Optional fields - only add if non-empty
	if d.ContentType != "" {
		m["content_type"] = d.ContentType
	}
	if d.Body != "" {
		m["body"] = d.Body
	}
	if d.Location != "" {
		m["location"] = d.Location
	}
	if d.ItemCount > 0 {
		m["item_count"] = d.ItemCount
	}
	if d.Duration > 0 {
		m["duration"] = d.Duration
	}

	return m
}

// ScreenToSearchDocument converts a domain Screen to a SearchDocument.
func ScreenToSearchDocument(s *domain.Screen) *SearchDocument {
	return &SearchDocument{
		ID:        s.ID,
		Type:      DocTypeScreen,
		OwnerID:   s.OwnerID,
		Name:      s.Name,
		Location:  s.Location,
		CreatedAt: s.CreatedAt.UnixMilli(),
		UpdatedAt: s.UpdatedAt.UnixMilli(),
	}
}

// ContentToSearchDocument converts a domain ContentItem to a SearchDocument.
// For text items the body is the text itself; for media items it's the
// original file name so uploads remain findable by name.
func ContentToSearchDocument(c *domain.ContentItem) *SearchDocument {
	doc := &SearchDocument{
		ID:          c.ID,
		Type:        DocTypeContent,
		OwnerID:     c.OwnerID,
		Name:        c.Name,
		ContentType: string(c.Type),
		Duration:    c.Duration,
		CreatedAt:   c.CreatedAt.UnixMilli(),
		UpdatedAt:   c.UpdatedAt.UnixMilli(),
	}

	if c.Type == domain.ContentTypeText {
		doc.Body = c.Content
	} else if c.Media != nil {
		doc.Body = c.Media.FileName
	}

	return doc
}

// PlaylistToSearchDocument converts a domain Playlist to a SearchDocument.
func PlaylistToSearchDocument(p *domain.Playlist) *SearchDocument {
	return &SearchDocument{
		ID:        p.ID,
		Type:      DocTypePlaylist,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		ItemCount: len(p.Items),
		CreatedAt: p.CreatedAt.UnixMilli(),
		UpdatedAt: p.UpdatedAt.UnixMilli(),
	}
}
