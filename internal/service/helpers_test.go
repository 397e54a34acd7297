package service

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/websignapp/websign-server/internal/auth"
	"github.com/websignapp/websign-server/internal/domain"
	"github.com/websignapp/websign-server/internal/id"
	"github.com/websignapp/websign-server/internal/logger"
	"github.com/websignapp/websign-server/internal/stats"
	"github.com/websignapp/websign-server/internal/store"
)

// testEnv bundles the services wired against temporary storage.
type testEnv struct {
	store     *store.Store
	stats     *stats.Store
	tokens    *auth.TokenService
	auth      *AuthService
	sessions  *SessionService
	screens   *ScreenService
	content   *ContentService
	playlists *PlaylistService
	display   *DisplayService
}

// newTestEnv creates a full service stack over a throwaway database.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	log := logger.New(logger.Config{}).Logger

	s, err := store.New(filepath.Join(tmpDir, "test.db"), nil, store.NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	statsStore, err := stats.Open(filepath.Join(tmpDir, "stats.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = statsStore.Close() })

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	sessions := NewSessionService(s, tokens, log)

	return &testEnv{
		store:     s,
		stats:     statsStore,
		tokens:    tokens,
		auth:      NewAuthService(s, tokens, sessions, log),
		sessions:  sessions,
		screens:   NewScreenService(s, statsStore, log),
		content:   NewContentService(s, log),
		playlists: NewPlaylistService(s, log),
		display:   NewDisplayService(s, statsStore, log),
	}
}

// createTestUser inserts a user directly into the store.
func createTestUser(t *testing.T, s *store.Store, email, passwordHash string) *domain.User {
	t.Helper()

	userID, err := id.Generate("user")
	require.NoError(t, err)

	user := &domain.User{
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  "Test User",
		Role:         domain.RoleMember,
	}
	user.ID = userID
	user.InitTimestamps()

	err = s.Users.Create(context.Background(), userID, user)
	require.NoError(t, err)

	return user
}

// createTestContent inserts a text content item for the owner.
func createTestContent(t *testing.T, env *testEnv, ownerID, body string) *domain.ContentItem {
	t.Helper()

	item, err := env.content.Create(context.Background(), ownerID, CreateContentRequest{
		Type:     domain.ContentTypeText,
		Content:  body,
		Duration: 10,
	})
	require.NoError(t, err)
	return item
}
