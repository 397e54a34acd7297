// Package sse implements Server-Sent Events for real-time signage updates and event broadcasting.
package sse

import (
	"time"

	"github.com/websignapp/websign-server/internal/domain"
)

// In WebSign we primarily use SSE for server-to-client communication,
// since most interactions follow a request/response pattern. The management
// UI subscribes here to keep screen, content, and playlist lists fresh;
// displays subscribe to their own per-screen state stream.

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventScreenCreated represents a screen registration event.
	EventScreenCreated EventType = "screen.created"
	// EventScreenUpdated represents a screen update event, including
	// playlist assignment changes.
	EventScreenUpdated EventType = "screen.updated"
	// EventScreenDeleted represents a screen deletion event.
	EventScreenDeleted EventType = "screen.deleted"

	// EventContentCreated represents a content item creation event.
	EventContentCreated EventType = "content.created"
	// EventContentDeleted represents a content item deletion event.
	EventContentDeleted EventType = "content.deleted"

	// EventPlaylistCreated represents a playlist creation event.
	EventPlaylistCreated EventType = "playlist.created"
	// EventPlaylistUpdated represents a playlist update event, including
	// item adds, removes, and reorders.
	EventPlaylistUpdated EventType = "playlist.updated"
	// EventPlaylistDeleted represents a playlist deletion event.
	EventPlaylistDeleted EventType = "playlist.deleted"

	// EventMediaAdded represents a media file appearing in the uploads
	// directory, whether through the API or by hand.
	EventMediaAdded EventType = "media.added"
	// EventMediaRemoved represents a media file disappearing from the
	// uploads directory.
	EventMediaRemoved EventType = "media.removed"

	// EventDisplayState represents a display state snapshot pushed to a
	// connected display.
	EventDisplayState EventType = "display.state"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`

	// Filtering field for multi-user support.
	// When set, events are only delivered to clients of this user.
	// Empty string means "broadcast to all".
	UserID string `json:"-"` // Not sent to client
}

// ScreenEventData is the data payload for screen events.
type ScreenEventData struct {
	Screen *domain.Screen `json:"screen"`
}

// ScreenDeletedEventData is the data payload for screen delete events.
type ScreenDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ScreenID  string    `json:"screen_id"`
}

// ContentEventData is the data payload for content item events.
type ContentEventData struct {
	Content *domain.ContentItem `json:"content"`
}

// ContentDeletedEventData is the data payload for content delete events.
type ContentDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ContentID string    `json:"content_id"`
	// Playlists the item was removed from as part of the delete cascade.
	RemovedFromPlaylists []string `json:"removed_from_playlists,omitempty"`
}

// PlaylistEventData is the data payload for playlist events.
type PlaylistEventData struct {
	Playlist *domain.Playlist `json:"playlist"`
}

// PlaylistDeletedEventData is the data payload for playlist delete events.
type PlaylistDeletedEventData struct {
	DeletedAt  time.Time `json:"deleted_at"`
	PlaylistID string    `json:"playlist_id"`
	// Screens whose assignment was cleared as part of the delete cascade.
	UnassignedScreens []string `json:"unassigned_screens,omitempty"`
}

// MediaEventData is the data payload for media file events.
type MediaEventData struct {
	FileName  string    `json:"file_name"`
	URL       string    `json:"url"`
	Size      int64     `json:"size,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewScreenCreatedEvent creates a screen.created event scoped to the owner.
func NewScreenCreatedEvent(screen *domain.Screen) Event {
	return Event{
		Type:      EventScreenCreated,
		Data:      ScreenEventData{Screen: screen},
		Timestamp: time.Now(),
		UserID:    screen.OwnerID,
	}
}

// NewScreenUpdatedEvent creates a screen.updated event scoped to the owner.
func NewScreenUpdatedEvent(screen *domain.Screen) Event {
	return Event{
		Type:      EventScreenUpdated,
		Data:      ScreenEventData{Screen: screen},
		Timestamp: time.Now(),
		UserID:    screen.OwnerID,
	}
}

// NewScreenDeletedEvent creates a screen.deleted event scoped to the owner.
func NewScreenDeletedEvent(screenID, ownerID string) Event {
	return Event{
		Type: EventScreenDeleted,
		Data: ScreenDeletedEventData{
			ScreenID:  screenID,
			DeletedAt: time.Now(),
		},
		Timestamp: time.Now(),
		UserID:    ownerID,
	}
}

// NewContentCreatedEvent creates a content.created event scoped to the owner.
func NewContentCreatedEvent(content *domain.ContentItem) Event {
	return Event{
		Type:      EventContentCreated,
		Data:      ContentEventData{Content: content},
		Timestamp: time.Now(),
		UserID:    content.OwnerID,
	}
}

// NewContentDeletedEvent creates a content.deleted event scoped to the owner.
func NewContentDeletedEvent(contentID, ownerID string, removedFrom []string) Event {
	return Event{
		Type: EventContentDeleted,
		Data: ContentDeletedEventData{
			ContentID:            contentID,
			DeletedAt:            time.Now(),
			RemovedFromPlaylists: removedFrom,
		},
		Timestamp: time.Now(),
		UserID:    ownerID,
	}
}

// NewPlaylistCreatedEvent creates a playlist.created event scoped to the owner.
func NewPlaylistCreatedEvent(playlist *domain.Playlist) Event {
	return Event{
		Type:      EventPlaylistCreated,
		Data:      PlaylistEventData{Playlist: playlist},
		Timestamp: time.Now(),
		UserID:    playlist.OwnerID,
	}
}

// NewPlaylistUpdatedEvent creates a playlist.updated event scoped to the owner.
func NewPlaylistUpdatedEvent(playlist *domain.Playlist) Event {
	return Event{
		Type:      EventPlaylistUpdated,
		Data:      PlaylistEventData{Playlist: playlist},
		Timestamp: time.Now(),
		UserID:    playlist.OwnerID,
	}
}

// NewPlaylistDeletedEvent creates a playlist.deleted event scoped to the owner.
func NewPlaylistDeletedEvent(playlistID, ownerID string, unassigned []string) Event {
	return Event{
		Type: EventPlaylistDeleted,
		Data: PlaylistDeletedEventData{
			PlaylistID:        playlistID,
			DeletedAt:         time.Now(),
			UnassignedScreens: unassigned,
		},
		Timestamp: time.Now(),
		UserID:    ownerID,
	}
}

// NewMediaAddedEvent creates a media.added broadcast event.
func NewMediaAddedEvent(fileName, url string, size int64) Event {
	return Event{
		Type: EventMediaAdded,
		Data: MediaEventData{
			FileName:  fileName,
			URL:       url,
			Size:      size,
			ChangedAt: time.Now(),
		},
		Timestamp: time.Now(),
	}
}

// NewMediaRemovedEvent creates a media.removed broadcast event.
func NewMediaRemovedEvent(fileName, url string) Event {
	return Event{
		Type: EventMediaRemoved,
		Data: MediaEventData{
			FileName:  fileName,
			URL:       url,
			ChangedAt: time.Now(),
		},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
