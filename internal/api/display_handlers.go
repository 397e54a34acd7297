package api

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/websignapp/websign-server/internal/display"
	"github.com/websignapp/websign-server/internal/http/response"
)

func (s *Server) registerDisplayRoutes() {
	// Display routes are public: viewers identify by screen id alone.
	huma.Register(s.api, huma.Operation{
		OperationID: "peekDisplay",
		Method:      http.MethodGet,
		Path:        "/api/v1/display/{screenID}",
		Summary:     "Peek display state",
		Description: "Resolves the screen's current rotation state without opening a streaming session",
		Tags:        []string{"Display"},
	}, s.handlePeekDisplay)

	huma.Register(s.api, huma.Operation{
		OperationID: "signalDisplay",
		Method:      http.MethodPost,
		Path:        "/api/v1/display/{screenID}/signal",
		Summary:     "Send display signal",
		Description: "Reports a media event (ended, error) from a viewer to its streaming session",
		Tags:        []string{"Display"},
	}, s.handleSignalDisplay)

	// The stream uses chi directly for SSE.
	s.router.Get("/api/v1/display/{screenID}/stream", s.handleDisplayStream)
}

// === DTOs ===

// DisplaySnapshot is the externally visible state of a display session.
type DisplaySnapshot struct {
	SessionID    string           `json:"session_id,omitempty" doc:"Display session ID (streaming only)"`
	ScreenID     string           `json:"screen_id" doc:"Screen ID"`
	State        string           `json:"state" doc:"Rotation state (loading, no_screen, no_playlist, empty_playlist, disconnected, playing, playback_error)"`
	PlaylistID   string           `json:"playlist_id,omitempty" doc:"Resolved playlist ID"`
	CurrentIndex int              `json:"current_index" doc:"Zero-based index of the current item"`
	ItemCount    int              `json:"item_count" doc:"Number of resolvable items"`
	CurrentItem  *ContentResponse `json:"current_item,omitempty" doc:"Item currently on screen"`
	Connected    bool             `json:"connected" doc:"Simulated connectivity state"`
	Error        string           `json:"error,omitempty" doc:"Playback error detail"`
	UpdatedAt    time.Time        `json:"updated_at" doc:"Snapshot time"`
}

// PeekDisplayInput contains parameters for peeking at a display.
type PeekDisplayInput struct {
	ScreenID string `path:"screenID" doc:"Screen ID"`
}

// DisplaySnapshotOutput wraps the display snapshot for Huma.
type DisplaySnapshotOutput struct {
	Body DisplaySnapshot
}

// SignalRequest is the request body for a display signal.
type SignalRequest struct {
	Type      string `json:"type" validate:"required,oneof=ended error" doc:"Signal type"`
	SessionID string `json:"session_id" validate:"required,max=100" doc:"Display session ID from the stream handshake"`
	Message   string `json:"message,omitempty" validate:"omitempty,max=500" doc:"Error detail (error signals)"`
}

// SignalDisplayInput wraps the signal request for Huma.
type SignalDisplayInput struct {
	ScreenID string `path:"screenID" doc:"Screen ID"`
	Body     SignalRequest
}

// === Handlers ===

func (s *Server) handlePeekDisplay(ctx context.Context, input *PeekDisplayInput) (*DisplaySnapshotOutput, error) {
	if s.displayManager == nil {
		return nil, huma.Error503ServiceUnavailable("Display engine not running")
	}

	snapshot := s.displayManager.Peek(ctx, input.ScreenID)
	return &DisplaySnapshotOutput{Body: mapDisplaySnapshot(snapshot)}, nil
}

func (s *Server) handleSignalDisplay(ctx context.Context, input *SignalDisplayInput) (*MessageOutput, error) {
	if s.displayManager == nil {
		return nil, huma.Error503ServiceUnavailable("Display engine not running")
	}

	err := s.displayManager.Signal(input.ScreenID, input.Body.SessionID, display.Signal{
		Type:    display.SignalType(input.Body.Type),
		Message: input.Body.Message,
	})
	if err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Signal delivered"}}, nil
}

// handleDisplayStream opens a rotation session for a screen and streams
// state snapshots over SSE until the viewer disconnects.
// GET /api/v1/display/{screenID}/stream
func (s *Server) handleDisplayStream(w http.ResponseWriter, r *http.Request) {
	if s.displayManager == nil {
		response.Error(w, http.StatusServiceUnavailable, "Display engine not running", s.logger)
		return
	}

	screenID := chi.URLParam(r, "screenID")
	ctx := r.Context()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		response.InternalError(w, "streaming not supported", s.logger)
		return
	}

	session, err := s.displayManager.Open(ctx, screenID)
	if err != nil {
		s.logger.Error("failed to open display session",
			"screen_id", screenID, "error", err)
		return
	}
	defer s.displayManager.Close(session.ID())

	// Handshake carries the session id the viewer needs for signals.
	if err := s.sendDisplayEvent(w, rc, "session", map[string]string{
		"session_id": session.ID(),
		"screen_id":  screenID,
	}); err != nil {
		return
	}

	if err := s.sendDisplayEvent(w, rc, "state", mapDisplaySnapshot(session.Snapshot())); err != nil {
		return
	}

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case snapshot, ok := <-session.Updates():
			if !ok {
				return
			}
			if err := s.sendDisplayEvent(w, rc, "state", mapDisplaySnapshot(snapshot)); err != nil {
				return
			}

		case <-heartbeat.C:
			if err := s.sendDisplayEvent(w, rc, "heartbeat", map[string]int64{
				"timestamp": time.Now().Unix(),
			}); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) sendDisplayEvent(w http.ResponseWriter, rc *http.ResponseController, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, jsonData); err != nil {
		return err
	}

	if err := rc.Flush(); err != nil {
		return err
	}

	if err := rc.SetWriteDeadline(time.Now().Add(60 * time.Second)); err != nil {
		s.logger.Debug("failed to set write deadline", "error", err)
	}

	return nil
}

// === Helpers ===

func mapDisplaySnapshot(snapshot display.Snapshot) DisplaySnapshot {
	out := DisplaySnapshot{
		SessionID:    snapshot.SessionID,
		ScreenID:     snapshot.ScreenID,
		State:        string(snapshot.State),
		PlaylistID:   snapshot.PlaylistID,
		CurrentIndex: snapshot.CurrentIndex,
		ItemCount:    snapshot.ItemCount,
		Connected:    snapshot.Connected,
		Error:        snapshot.Error,
		UpdatedAt:    snapshot.UpdatedAt,
	}
	if snapshot.CurrentItem != nil {
		item := mapContentResponse(snapshot.CurrentItem)
		out.CurrentItem = &item
	}
	return out
}
