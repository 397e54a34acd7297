package api

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/websignapp/websign-server/internal/auth"
	"github.com/websignapp/websign-server/internal/display"
	"github.com/websignapp/websign-server/internal/media/images"
	"github.com/websignapp/websign-server/internal/media/uploads"
	"github.com/websignapp/websign-server/internal/search"
	"github.com/websignapp/websign-server/internal/service"
	"github.com/websignapp/websign-server/internal/sse"
	"github.com/websignapp/websign-server/internal/stats"
	"github.com/websignapp/websign-server/internal/store"
)

// testEnvelope mirrors APIEnvelope with a typed Data field for assertions.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// testErrorEnvelope mirrors APIErrorEnvelope for detailed error assertions.
type testErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// apiTestServer wraps the API server for handler testing.
type apiTestServer struct {
	*Server
	api    humatest.TestAPI
	tokens *auth.TokenService
}

// setupTestServer creates a full server over throwaway storage.
func setupTestServer(t *testing.T) *apiTestServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := store.New(filepath.Join(tmpDir, "test.db"), nil, store.NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	statsStore, err := stats.Open(filepath.Join(tmpDir, "stats.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = statsStore.Close() })

	searchIndex, err := search.NewSearchIndex(search.Options{
		DataPath: filepath.Join(tmpDir, "search.bleve"),
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = searchIndex.Close() })

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	uploadStorage, err := uploads.NewStorage(filepath.Join(tmpDir, "uploads"), 16<<20)
	require.NoError(t, err)
	thumbStorage, err := images.NewStorage(filepath.Join(tmpDir, "uploads"))
	require.NoError(t, err)

	sessionService := service.NewSessionService(st, tokens, logger)
	authService := service.NewAuthService(st, tokens, sessionService, logger)
	displayService := service.NewDisplayService(st, statsStore, logger)
	searchService := service.NewSearchService(searchIndex, st, logger)
	st.SetSearchIndexer(searchService)

	services := &Services{
		Auth:     authService,
		Session:  sessionService,
		Screen:   service.NewScreenService(st, statsStore, logger),
		Content:  service.NewContentService(st, logger),
		Playlist: service.NewPlaylistService(st, logger),
		Search:   searchService,
		Upload:   service.NewUploadService(uploadStorage, images.NewProcessor(thumbStorage, logger), logger),
		Display:  displayService,
	}

	sseManager := sse.NewManager(logger)

	displayCfg := display.DefaultConfig()
	displayCfg.SimulateConnectivity = false
	displayManager := display.NewManager(logger, displayService, displayService, displayCfg)

	s := NewServer(st, services, sseManager, displayManager, logger)

	return &apiTestServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
		tokens: tokens,
	}
}

// registerTestUser registers a user through the API and returns the access
// token and user ID.
func (ts *apiTestServer) registerTestUser(t *testing.T, email string) (token string, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    email,
		"password": "SuperSecret123!",
		"name":     "Test User",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Register failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)

	return envelope.Data.AccessToken, envelope.Data.User.ID
}

// decodeEnvelope parses a response body into a typed envelope.
func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()

	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

// decodeErrorEnvelope parses a detailed error response body.
func decodeErrorEnvelope(t *testing.T, body []byte) testErrorEnvelope {
	t.Helper()

	var envelope testErrorEnvelope
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

// createScreen creates a screen through the API and returns its ID.
func (ts *apiTestServer) createScreen(t *testing.T, token, name string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/screens",
		map[string]any{"name": name, "location": "Lobby"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, "Create screen failed: %s", resp.Body.String())

	envelope := decodeEnvelope[ScreenResponse](t, resp.Body.Bytes())
	return envelope.Data.ID
}

// createTextContent creates a text content item through the API and returns its ID.
func (ts *apiTestServer) createTextContent(t *testing.T, token, body string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/content",
		map[string]any{"type": "text", "content": body, "duration": 10},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, "Create content failed: %s", resp.Body.String())

	envelope := decodeEnvelope[ContentResponse](t, resp.Body.Bytes())
	return envelope.Data.ID
}

// createPlaylist creates a playlist through the API and returns its ID.
func (ts *apiTestServer) createPlaylist(t *testing.T, token, name string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/playlists",
		map[string]any{"name": name},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, "Create playlist failed: %s", resp.Body.String())

	envelope := decodeEnvelope[PlaylistResponse](t, resp.Body.Bytes())
	return envelope.Data.ID
}
