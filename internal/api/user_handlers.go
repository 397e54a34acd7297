package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/sessions",
		Summary:     "List sessions",
		Description: "Returns the authenticated user's active sessions",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSessions)

	huma.Register(s.api, huma.Operation{
		OperationID: "revokeSession",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/me/sessions/{id}",
		Summary:     "Revoke session",
		Description: "Revokes one of the authenticated user's sessions",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRevokeSession)
}

// === DTOs ===

// AuthenticatedInput carries only the Authorization header.
type AuthenticatedInput struct {
	Authorization string `header:"Authorization"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// SessionResponse contains session data in API responses.
// Token hashes are never included.
type SessionResponse struct {
	ID            string    `json:"id" doc:"Session ID"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation time"`
	LastSeenAt    time.Time `json:"last_seen_at" doc:"Last activity time"`
	ExpiresAt     time.Time `json:"expires_at" doc:"Expiry time"`
	IPAddress     string    `json:"ip_address,omitempty" doc:"Client IP address"`
	DeviceType    string    `json:"device_type,omitempty" doc:"Device type"`
	Platform      string    `json:"platform,omitempty" doc:"Platform"`
	ClientName    string    `json:"client_name,omitempty" doc:"Client name"`
	ClientVersion string    `json:"client_version,omitempty" doc:"Client version"`
	DeviceName    string    `json:"device_name,omitempty" doc:"Device name"`
	DeviceModel   string    `json:"device_model,omitempty" doc:"Device model"`
}

// ListSessionsResponse contains a list of sessions.
type ListSessionsResponse struct {
	Sessions []SessionResponse `json:"sessions" doc:"Active sessions"`
}

// ListSessionsOutput wraps the session list for Huma.
type ListSessionsOutput struct {
	Body ListSessionsResponse
}

// RevokeSessionInput contains parameters for revoking a session.
type RevokeSessionInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Session ID"`
}

// === Handlers ===

func (s *Server) handleGetCurrentUser(ctx context.Context, input *AuthenticatedInput) (*UserOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Auth.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleListSessions(ctx context.Context, input *AuthenticatedInput) (*ListSessionsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	sessions, err := s.services.Session.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := ListSessionsResponse{Sessions: make([]SessionResponse, 0, len(sessions))}
	for _, sess := range sessions {
		resp.Sessions = append(resp.Sessions, SessionResponse{
			ID:            sess.ID,
			CreatedAt:     sess.CreatedAt,
			LastSeenAt:    sess.LastSeenAt,
			ExpiresAt:     sess.ExpiresAt,
			IPAddress:     sess.IPAddress,
			DeviceType:    sess.DeviceType,
			Platform:      sess.Platform,
			ClientName:    sess.ClientName,
			ClientVersion: sess.ClientVersion,
			DeviceName:    sess.DeviceName,
			DeviceModel:   sess.DeviceModel,
		})
	}

	return &ListSessionsOutput{Body: resp}, nil
}

func (s *Server) handleRevokeSession(ctx context.Context, input *RevokeSessionInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	// Only the session's owner can revoke it.
	sess, err := s.store.GetSession(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("Session not found")
	}
	if sess.UserID != userID {
		return nil, huma.Error404NotFound("Session not found")
	}

	if err := s.services.Session.DeleteSession(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Session revoked"}}, nil
}
