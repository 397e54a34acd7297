package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/websignapp/websign-server/internal/auth"
)

func TestSessionService_CreateSession_StoresDeviceInfo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	passwordHash, err := auth.HashPassword("SecurePassword123!")
	require.NoError(t, err)
	user := createTestUser(t, env.store, "device@example.com", passwordHash)

	resp, err := env.sessions.CreateSession(ctx, user, auth.DeviceInfo{
		DeviceType: "display",
		Platform:   "WebOS",
		ClientName: "websign-player",
	}, "10.0.0.5")
	require.NoError(t, err)

	session, err := env.store.GetSession(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "display", session.DeviceType)
	assert.Equal(t, "WebOS", session.Platform)
	assert.Equal(t, "10.0.0.5", session.IPAddress)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	// The raw refresh token is never stored, only its hash.
	assert.NotEqual(t, resp.RefreshToken, session.RefreshTokenHash)
	assert.Equal(t, auth.HashRefreshToken(resp.RefreshToken), session.RefreshTokenHash)
}

func TestSessionService_ListUserSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	passwordHash, err := auth.HashPassword("SecurePassword123!")
	require.NoError(t, err)
	user := createTestUser(t, env.store, "multi@example.com", passwordHash)
	other := createTestUser(t, env.store, "other@example.com", passwordHash)

	for range 2 {
		_, err := env.sessions.CreateSession(ctx, user, auth.DeviceInfo{}, "")
		require.NoError(t, err)
	}
	_, err = env.sessions.CreateSession(ctx, other, auth.DeviceInfo{}, "")
	require.NoError(t, err)

	sessions, err := env.sessions.ListUserSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestSessionService_DeleteExpiredSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	passwordHash, err := auth.HashPassword("SecurePassword123!")
	require.NoError(t, err)
	user := createTestUser(t, env.store, "cleanup@example.com", passwordHash)

	fresh, err := env.sessions.CreateSession(ctx, user, auth.DeviceInfo{}, "")
	require.NoError(t, err)
	stale, err := env.sessions.CreateSession(ctx, user, auth.DeviceInfo{}, "")
	require.NoError(t, err)

	session, err := env.store.GetSession(ctx, stale.SessionID)
	require.NoError(t, err)
	session.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, env.store.UpdateSession(ctx, session))

	count, err := env.sessions.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = env.store.GetSession(ctx, fresh.SessionID)
	assert.NoError(t, err)
	_, err = env.store.GetSession(ctx, stale.SessionID)
	assert.Error(t, err)
}
