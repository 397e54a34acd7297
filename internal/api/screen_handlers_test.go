package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateScreen(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "screens@example.com")

	resp := ts.api.Post("/api/v1/screens",
		map[string]any{"name": "Lobby Screen", "location": "Lobby, 2nd floor"},
		"Authorization: Bearer "+token)

	assert.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[ScreenResponse](t, resp.Body.Bytes())
	assert.True(t, envelope.Success)
	assert.True(t, strings.HasPrefix(envelope.Data.ID, "scr-"))
	assert.Equal(t, "Lobby Screen", envelope.Data.Name)
	assert.Equal(t, "Lobby, 2nd floor", envelope.Data.Location)
	assert.Empty(t, envelope.Data.PlaylistID)
	assert.False(t, envelope.Data.CreatedAt.IsZero())
}

func TestCreateScreen_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/screens", map[string]any{"name": "Rogue Screen"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestListScreens_OwnerScoped(t *testing.T) {
	ts := setupTestServer(t)
	tokenA, _ := ts.registerTestUser(t, "list-a@example.com")
	tokenB, _ := ts.registerTestUser(t, "list-b@example.com")

	ts.createScreen(t, tokenA, "Screen A1")
	ts.createScreen(t, tokenA, "Screen A2")
	ts.createScreen(t, tokenB, "Screen B1")

	resp := ts.api.Get("/api/v1/screens", "Authorization: Bearer "+tokenA)
	assert.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[ListScreensResponse](t, resp.Body.Bytes())
	assert.Len(t, envelope.Data.Screens, 2)

	resp = ts.api.Get("/api/v1/screens", "Authorization: Bearer "+tokenB)
	envelope = decodeEnvelope[ListScreensResponse](t, resp.Body.Bytes())
	assert.Len(t, envelope.Data.Screens, 1)
	assert.Equal(t, "Screen B1", envelope.Data.Screens[0].Name)
}

func TestGetScreen_OtherOwnerHidden(t *testing.T) {
	ts := setupTestServer(t)
	tokenA, _ := ts.registerTestUser(t, "get-a@example.com")
	tokenB, _ := ts.registerTestUser(t, "get-b@example.com")

	screenID := ts.createScreen(t, tokenA, "Private Screen")

	// Owner sees it.
	resp := ts.api.Get("/api/v1/screens/"+screenID, "Authorization: Bearer "+tokenA)
	assert.Equal(t, http.StatusOK, resp.Code)

	// Another owner gets an indistinguishable 404.
	resp = ts.api.Get("/api/v1/screens/"+screenID, "Authorization: Bearer "+tokenB)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	envelope := decodeErrorEnvelope(t, resp.Body.Bytes())
	assert.Equal(t, "NOT_FOUND", envelope.Code)
}

func TestAssignPlaylist(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "assign@example.com")

	screenID := ts.createScreen(t, token, "Assignable")
	playlistID := ts.createPlaylist(t, token, "Morning Loop")

	resp := ts.api.Put("/api/v1/screens/"+screenID+"/playlist",
		map[string]any{"playlist_id": playlistID},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[ScreenResponse](t, resp.Body.Bytes())
	assert.Equal(t, playlistID, envelope.Data.PlaylistID)

	// Empty playlist id clears the assignment.
	resp = ts.api.Put("/api/v1/screens/"+screenID+"/playlist",
		map[string]any{"playlist_id": ""},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	envelope = decodeEnvelope[ScreenResponse](t, resp.Body.Bytes())
	assert.Empty(t, envelope.Data.PlaylistID)
}

func TestAssignPlaylist_UnknownPlaylistRejected(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "assign-bad@example.com")

	screenID := ts.createScreen(t, token, "Strict Screen")

	resp := ts.api.Put("/api/v1/screens/"+screenID+"/playlist",
		map[string]any{"playlist_id": "pls-nonexistent"},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteScreen(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "delete@example.com")

	screenID := ts.createScreen(t, token, "Doomed Screen")

	resp := ts.api.Delete("/api/v1/screens/"+screenID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/screens/"+screenID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestScreenReport_EmptyDefaults(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "report@example.com")

	screenID := ts.createScreen(t, token, "Reporting Screen")

	resp := ts.api.Get("/api/v1/screens/"+screenID+"/report", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[ScreenReportResponse](t, resp.Body.Bytes())
	assert.Equal(t, screenID, envelope.Data.ScreenID)
	assert.Zero(t, envelope.Data.TotalImpressions)
	assert.Empty(t, envelope.Data.ByContent)

	// Zero range defaults to the last 7 days.
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -7), envelope.Data.From, time.Minute)
	assert.WithinDuration(t, time.Now(), envelope.Data.To, time.Minute)
}

func TestScreenReport_InvalidRange(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "report-bad@example.com")

	screenID := ts.createScreen(t, token, "Backwards Screen")

	resp := ts.api.Get(
		"/api/v1/screens/"+screenID+"/report?from=2026-02-01T00:00:00Z&to=2026-01-01T00:00:00Z",
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
