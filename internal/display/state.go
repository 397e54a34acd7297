// Package display implements the per-session rotation engine that drives
// connected signage viewers. Each open display view gets its own Session:
// a single-goroutine state machine that resolves a screen to its playlist,
// rotates through the items on timers, reacts to viewer media signals, and
// folds every failure into a displayable state.
package display

import (
	"context"
	"time"

	"github.com/websignapp/websign-server/internal/domain"
)

// State is what a display session is currently showing.
type State string

const (
	// StateLoading is the initial state before the first resolution.
	StateLoading State = "loading"
	// StateNoScreen means the screen id is unknown.
	StateNoScreen State = "no_screen"
	// StateNoPlaylist means the screen exists but has no assigned playlist.
	StateNoPlaylist State = "no_playlist"
	// StateEmptyPlaylist means the assigned playlist resolves to zero items.
	StateEmptyPlaylist State = "empty_playlist"
	// StateDisconnected means simulated connectivity is down. Rotation is
	// paused; the current index is kept.
	StateDisconnected State = "disconnected"
	// StatePlaying means an item is on screen and its advance trigger is armed.
	StatePlaying State = "playing"
	// StatePlaybackError means the current item failed to render. It is shown
	// for a fixed grace period, then rotation resumes.
	StatePlaybackError State = "playback_error"
)

// SignalType identifies a media event reported by the viewer.
type SignalType string

const (
	// SignalEnded is the end-of-playback edge for the current video.
	SignalEnded SignalType = "ended"
	// SignalError means the current item failed to load or play.
	SignalError SignalType = "error"
)

// IsValid returns true for known signal types.
func (t SignalType) IsValid() bool {
	return t == SignalEnded || t == SignalError
}

// Signal is a media event delivered from the viewer to its session.
type Signal struct {
	Type    SignalType
	Message string // Optional detail for error signals
}

// Snapshot is the externally visible state of a display session.
// Streamed to the viewer on every transition and readable on demand.
type Snapshot struct {
	SessionID    string              `json:"session_id,omitempty"`
	ScreenID     string              `json:"screen_id"`
	State        State               `json:"state"`
	PlaylistID   string              `json:"playlist_id,omitempty"`
	CurrentIndex int                 `json:"current_index"`
	ItemCount    int                 `json:"item_count"`
	CurrentItem  *domain.ContentItem `json:"current_item,omitempty"`
	Connected    bool                `json:"connected"`
	Error        string              `json:"error,omitempty"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Resolution is a screen resolved to its rotation sequence.
// Screen is nil for an unknown id; Playlist is nil when none is assigned;
// Items holds the ordered content with unresolvable entries already dropped.
type Resolution struct {
	Screen   *domain.Screen
	Playlist *domain.Playlist
	Items    []*domain.ContentItem
}

// Resolver resolves a screen id to its current rotation sequence.
// Implementations should treat the lookup misses as data (nil fields),
// reserving the error return for backend failures.
type Resolver interface {
	ResolveScreen(ctx context.Context, screenID string) (*Resolution, error)
}

// Play describes one item beginning playback on a screen.
type Play struct {
	SessionID   string
	OwnerID     string
	ScreenID    string
	PlaylistID  string
	ContentID   string
	ContentType domain.ContentType
	StartedAt   time.Time
	Duration    time.Duration
}

// PlayRecorder receives a Play each time a session starts showing an item.
// Used for proof-of-play accounting and screen activity tracking; failures
// must not affect rotation, so the interface has no error return.
type PlayRecorder interface {
	RecordPlay(ctx context.Context, play Play)
}

// NoopRecorder is a PlayRecorder that discards plays.
type NoopRecorder struct{}

// RecordPlay implements PlayRecorder as a no-op.
func (NoopRecorder) RecordPlay(context.Context, Play) {}

// Config tunes the rotation engine timers. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	// DefaultDuration is used for items without a declared duration.
	DefaultDuration time.Duration
	// VideoFallbackGrace is added to a video's duration for the fallback
	// advance timer that backs up the ended signal.
	VideoFallbackGrace time.Duration
	// ErrorGrace is how long a failed item stays on screen before advancing.
	ErrorGrace time.Duration
	// ConnectivityInterval is the simulated connectivity check period.
	ConnectivityInterval time.Duration
	// SimulateConnectivity enables the random connectivity flip.
	SimulateConnectivity bool
	// UptimeRatio is the probability a connectivity check lands "up".
	UptimeRatio float64
}

// DefaultConfig returns production rotation timings.
func DefaultConfig() Config {
	return Config{
		DefaultDuration:      5 * time.Second,
		VideoFallbackGrace:   2 * time.Second,
		ErrorGrace:           5 * time.Second,
		ConnectivityInterval: 30 * time.Second,
		SimulateConnectivity: true,
		UptimeRatio:          0.9,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = def.DefaultDuration
	}
	if c.VideoFallbackGrace <= 0 {
		c.VideoFallbackGrace = def.VideoFallbackGrace
	}
	if c.ErrorGrace <= 0 {
		c.ErrorGrace = def.ErrorGrace
	}
	if c.ConnectivityInterval <= 0 {
		c.ConnectivityInterval = def.ConnectivityInterval
	}
	if c.UptimeRatio <= 0 || c.UptimeRatio > 1 {
		c.UptimeRatio = def.UptimeRatio
	}
	return c
}
