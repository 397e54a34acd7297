package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "owner@example.com",
		"password": "SecurePassword123!",
		"name":     "Shop Owner",
	})

	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[AuthResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	assert.NotEmpty(t, envelope.Data.SessionID)
	assert.Equal(t, "Bearer", envelope.Data.TokenType)
	assert.Positive(t, envelope.Data.ExpiresIn)
	assert.Equal(t, "owner@example.com", envelope.Data.User.Email)
	assert.Equal(t, "Shop Owner", envelope.Data.User.DisplayName)
	// First registered user becomes the root admin.
	assert.True(t, envelope.Data.User.IsRoot)
}

func TestRegister_SecondUserIsMember(t *testing.T) {
	ts := setupTestServer(t)

	ts.registerTestUser(t, "first@example.com")

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "second@example.com",
		"password": "SecurePassword123!",
		"name":     "Second User",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())
	assert.False(t, envelope.Data.User.IsRoot)
	assert.Equal(t, "member", envelope.Data.User.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)

	ts.registerTestUser(t, "dup@example.com")

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "dup@example.com",
		"password": "SecurePassword123!",
		"name":     "Imposter",
	})

	assert.Equal(t, http.StatusConflict, resp.Code)

	envelope := decodeErrorEnvelope(t, resp.Body.Bytes())
	assert.False(t, envelope.Success)
	assert.Equal(t, "ALREADY_EXISTS", envelope.Code)
}

func TestRegister_ValidationErrors(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{
			name: "missing email",
			body: map[string]any{
				"password": "SecurePassword123!",
				"name":     "No Email",
			},
			wantStatus: http.StatusUnprocessableEntity, // Huma rejects missing required fields
		},
		{
			name: "invalid email format",
			body: map[string]any{
				"email":    "not-an-email",
				"password": "SecurePassword123!",
				"name":     "Bad Email",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "password too short",
			body: map[string]any{
				"email":    "short@example.com",
				"password": "short",
				"name":     "Short Password",
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/auth/register", tt.body)
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
		})
	}
}

func TestLogin_Success(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "login@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "login@example.com",
		"password": "SuperSecret123!",
		"device_info": map[string]any{
			"device_type": "web",
			"platform":    "Web",
			"client_name": "WebSign Web",
		},
	})

	assert.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())
	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.Equal(t, "login@example.com", envelope.Data.User.Email)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "victim@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "victim@example.com",
		"password": "WrongPassword1!",
	})

	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	envelope := decodeErrorEnvelope(t, resp.Body.Bytes())
	assert.Equal(t, "INVALID_CREDENTIALS", envelope.Code)
}

func TestRefresh_RotatesTokens(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "refresh@example.com",
		"password": "SecurePassword123!",
		"name":     "Refresher",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	initial := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": initial.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	refreshed := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())
	assert.NotEqual(t, initial.Data.RefreshToken, refreshed.Data.RefreshToken)
	assert.Equal(t, initial.Data.SessionID, refreshed.Data.SessionID)

	// The old refresh token is burned.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": initial.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogout_RevokesSession(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "logout@example.com",
		"password": "SecurePassword123!",
		"name":     "Leaver",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	initial := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())

	resp = ts.api.Post("/api/v1/auth/logout", map[string]any{
		"session_id": initial.Data.SessionID,
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": initial.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGetCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerTestUser(t, "me@example.com")

	resp := ts.api.Get("/api/v1/users/me", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[UserResponse](t, resp.Body.Bytes())
	assert.Equal(t, userID, envelope.Data.ID)
	assert.Equal(t, "me@example.com", envelope.Data.Email)
}

func TestGetCurrentUser_Unauthorized(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/users/me")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/users/me", "Authorization: Bearer bogus-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestListSessions(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "sessions@example.com")

	// A second login creates a second session.
	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "sessions@example.com",
		"password": "SuperSecret123!",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/users/me/sessions", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[ListSessionsResponse](t, resp.Body.Bytes())
	assert.Len(t, envelope.Data.Sessions, 2)
}

func TestRevokeSession_OtherUsersSessionHidden(t *testing.T) {
	ts := setupTestServer(t)

	tokenA, _ := ts.registerTestUser(t, "owner-a@example.com")

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "owner-b@example.com",
		"password": "SecurePassword123!",
		"name":     "Owner B",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	sessionB := decodeEnvelope[AuthResponse](t, resp.Body.Bytes()).Data.SessionID

	resp = ts.api.Delete("/api/v1/users/me/sessions/"+sessionB, "Authorization: Bearer "+tokenA)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
