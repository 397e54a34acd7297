package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePlaylist(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "playlist@example.com")

	resp := ts.api.Post("/api/v1/playlists",
		map[string]any{"name": "Morning Loop"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[PlaylistResponse](t, resp.Body.Bytes())
	assert.True(t, strings.HasPrefix(envelope.Data.ID, "pls-"))
	assert.Equal(t, "Morning Loop", envelope.Data.Name)
	assert.Empty(t, envelope.Data.Items)
}

func TestAddPlaylistItems_AppendsAndSkipsDuplicates(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "playlist-add@example.com")

	first := ts.createTextContent(t, token, "First slide")
	second := ts.createTextContent(t, token, "Second slide")
	playlistID := ts.createPlaylist(t, token, "Loop")

	resp := ts.api.Post("/api/v1/playlists/"+playlistID+"/items",
		map[string]any{"content_ids": []string{first}},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Appending the same id again is a no-op; the new id lands at the end.
	resp = ts.api.Post("/api/v1/playlists/"+playlistID+"/items",
		map[string]any{"content_ids": []string{first, second}},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[PlaylistResponse](t, resp.Body.Bytes())
	require.Len(t, envelope.Data.Items, 2)
	assert.Equal(t, first, envelope.Data.Items[0].ContentID)
	assert.Equal(t, 1, envelope.Data.Items[0].Position)
	assert.Equal(t, second, envelope.Data.Items[1].ContentID)
	assert.Equal(t, 2, envelope.Data.Items[1].Position)
}

func TestReplacePlaylistItems(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "playlist-replace@example.com")

	a := ts.createTextContent(t, token, "A")
	b := ts.createTextContent(t, token, "B")
	c := ts.createTextContent(t, token, "C")
	playlistID := ts.createPlaylist(t, token, "Loop")

	resp := ts.api.Put("/api/v1/playlists/"+playlistID+"/items",
		map[string]any{"content_ids": []string{a, b}},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Wholesale replacement with duplicates collapsed, renumbered from 1.
	resp = ts.api.Put("/api/v1/playlists/"+playlistID+"/items",
		map[string]any{"content_ids": []string{c, a, c}},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[PlaylistResponse](t, resp.Body.Bytes())
	require.Len(t, envelope.Data.Items, 2)
	assert.Equal(t, c, envelope.Data.Items[0].ContentID)
	assert.Equal(t, 1, envelope.Data.Items[0].Position)
	assert.Equal(t, a, envelope.Data.Items[1].ContentID)
	assert.Equal(t, 2, envelope.Data.Items[1].Position)
}

func TestReplacePlaylistItems_StalePlaylistNoOp(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "playlist-stale@example.com")

	contentID := ts.createTextContent(t, token, "Orphan")

	resp := ts.api.Put("/api/v1/playlists/pls-gone/items",
		map[string]any{"content_ids": []string{contentID}},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[PlaylistResponse](t, resp.Body.Bytes())
	assert.Equal(t, "pls-gone", envelope.Data.ID)
	assert.Empty(t, envelope.Data.Items)
}

func TestReplacePlaylistItems_UnknownContentRejected(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "playlist-badref@example.com")

	playlistID := ts.createPlaylist(t, token, "Loop")

	resp := ts.api.Put("/api/v1/playlists/"+playlistID+"/items",
		map[string]any{"content_ids": []string{"cnt-missing"}},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestReplacePlaylistItems_ForeignContentRejected(t *testing.T) {
	ts := setupTestServer(t)
	tokenA, _ := ts.registerTestUser(t, "playlist-owner@example.com")
	tokenB, _ := ts.registerTestUser(t, "playlist-intruder@example.com")

	foreign := ts.createTextContent(t, tokenA, "Not yours")
	playlistID := ts.createPlaylist(t, tokenB, "Loop")

	resp := ts.api.Put("/api/v1/playlists/"+playlistID+"/items",
		map[string]any{"content_ids": []string{foreign}},
		"Authorization: Bearer "+tokenB)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRemovePlaylistItem_Renumbers(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "playlist-remove@example.com")

	a := ts.createTextContent(t, token, "A")
	b := ts.createTextContent(t, token, "B")
	c := ts.createTextContent(t, token, "C")
	playlistID := ts.createPlaylist(t, token, "Loop")

	resp := ts.api.Put("/api/v1/playlists/"+playlistID+"/items",
		map[string]any{"content_ids": []string{a, b, c}},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/playlists/"+playlistID+"/items/"+b,
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[PlaylistResponse](t, resp.Body.Bytes())
	require.Len(t, envelope.Data.Items, 2)
	assert.Equal(t, a, envelope.Data.Items[0].ContentID)
	assert.Equal(t, 1, envelope.Data.Items[0].Position)
	assert.Equal(t, c, envelope.Data.Items[1].ContentID)
	assert.Equal(t, 2, envelope.Data.Items[1].Position)
}

func TestMovePlaylistItem(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "playlist-move@example.com")

	a := ts.createTextContent(t, token, "A")
	b := ts.createTextContent(t, token, "B")
	c := ts.createTextContent(t, token, "C")
	playlistID := ts.createPlaylist(t, token, "Loop")

	resp := ts.api.Put("/api/v1/playlists/"+playlistID+"/items",
		map[string]any{"content_ids": []string{a, b, c}},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/playlists/"+playlistID+"/items/"+c+"/move",
		map[string]any{"to": 1},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[PlaylistResponse](t, resp.Body.Bytes())
	require.Len(t, envelope.Data.Items, 3)
	assert.Equal(t, c, envelope.Data.Items[0].ContentID)
	assert.Equal(t, a, envelope.Data.Items[1].ContentID)
	assert.Equal(t, b, envelope.Data.Items[2].ContentID)

	// Out-of-range targets clamp to the last slot.
	resp = ts.api.Post("/api/v1/playlists/"+playlistID+"/items/"+c+"/move",
		map[string]any{"to": 99},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope = decodeEnvelope[PlaylistResponse](t, resp.Body.Bytes())
	assert.Equal(t, c, envelope.Data.Items[2].ContentID)
	assert.Equal(t, 3, envelope.Data.Items[2].Position)
}

func TestMovePlaylistItem_NotInPlaylist(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "playlist-move-miss@example.com")

	outsider := ts.createTextContent(t, token, "Outsider")
	playlistID := ts.createPlaylist(t, token, "Loop")

	resp := ts.api.Post("/api/v1/playlists/"+playlistID+"/items/"+outsider+"/move",
		map[string]any{"to": 1},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeletePlaylist_ClearsScreenAssignment(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "playlist-delete@example.com")

	playlistID := ts.createPlaylist(t, token, "Doomed Loop")
	screenID := ts.createScreen(t, token, "Assigned Screen")

	resp := ts.api.Put("/api/v1/screens/"+screenID+"/playlist",
		map[string]any{"playlist_id": playlistID},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/playlists/"+playlistID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/screens/"+screenID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[ScreenResponse](t, resp.Body.Bytes())
	assert.Empty(t, envelope.Data.PlaylistID)
}
