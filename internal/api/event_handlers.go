package api

import (
	"net/http"

	"github.com/websignapp/websign-server/internal/http/response"
)

func (s *Server) registerEventRoutes() {
	// SSE uses chi directly; huma buffers response bodies.
	s.router.Get("/api/v1/events", s.handleEventStream)
}

// handleEventStream streams owner-scoped change events to dashboard clients.
// GET /api/v1/events
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.sseHandler == nil {
		response.Error(w, http.StatusServiceUnavailable, "Event stream not running", s.logger)
		return
	}

	// The handler resolves identity itself (header or token query param),
	// but reject anonymous clients up front so they get a clean 401
	// instead of an unfiltered stream.
	if userID, _ := s.sseIdentity(r); userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	s.sseHandler.ServeHTTP(w, r)
}
