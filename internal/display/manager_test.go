package display

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/websignapp/websign-server/internal/domain"
	"github.com/websignapp/websign-server/internal/logger"
)

func newTestManager(t *testing.T, resolver Resolver) *Manager {
	t.Helper()
	log := logger.New(logger.Config{}).Logger
	m := NewManager(log, resolver, NoopRecorder{}, testConfig())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})
	return m
}

func TestManagerOpenAndClose(t *testing.T) {
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{Screen: testScreen("scr-1", "")})

	m := newTestManager(t, resolver)

	session, err := m.Open(context.Background(), "scr-1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID())
	assert.Equal(t, "scr-1", session.ScreenID())
	assert.Equal(t, 1, m.SessionCount())

	got, ok := m.Get(session.ID())
	require.True(t, ok)
	assert.Same(t, session, got)

	waitForState(t, session, StateNoPlaylist)

	m.Close(session.ID())
	assert.Equal(t, 0, m.SessionCount())
	_, ok = m.Get(session.ID())
	assert.False(t, ok)
}

func TestManagerSignalRouting(t *testing.T) {
	items := []*domain.ContentItem{
		videoItem("cnt-v", 10),
		textItem("cnt-t", "after", 10),
	}
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1", items...),
		Items:    items,
	})

	m := newTestManager(t, resolver)

	session, err := m.Open(context.Background(), "scr-1")
	require.NoError(t, err)
	waitForIndex(t, session, 0)

	t.Run("routes to the session", func(t *testing.T) {
		require.NoError(t, m.Signal("scr-1", session.ID(), Signal{Type: SignalEnded}))
		waitForIndex(t, session, 1)
	})

	t.Run("unknown session", func(t *testing.T) {
		err := m.Signal("scr-1", "dsp-nope", Signal{Type: SignalEnded})
		assert.Error(t, err)
	})

	t.Run("screen mismatch", func(t *testing.T) {
		err := m.Signal("scr-other", session.ID(), Signal{Type: SignalEnded})
		assert.Error(t, err)
	})

	t.Run("invalid signal type", func(t *testing.T) {
		err := m.Signal("scr-1", session.ID(), Signal{Type: "paused"})
		assert.Error(t, err)
	})
}

func TestManagerEmitRefreshesSessions(t *testing.T) {
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{Screen: testScreen("scr-1", "")})

	m := newTestManager(t, resolver)
	session, err := m.Open(context.Background(), "scr-1")
	require.NoError(t, err)
	waitForState(t, session, StateNoPlaylist)

	items := []*domain.ContentItem{textItem("cnt-a", "Welcome", 10)}
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1", items...),
		Items:    items,
	})

	// Any store mutation notification re-resolves every session.
	m.Emit(struct{}{})
	waitForState(t, session, StatePlaying)
}

func TestManagerPeek(t *testing.T) {
	items := []*domain.ContentItem{textItem("cnt-a", "Welcome", 10)}
	resolver := newFakeResolver()
	resolver.set("scr-assigned", &Resolution{
		Screen:   testScreen("scr-assigned", "pls-1"),
		Playlist: testPlaylist("pls-1", items...),
		Items:    items,
	})
	resolver.set("scr-bare", &Resolution{Screen: testScreen("scr-bare", "")})
	resolver.set("scr-empty", &Resolution{
		Screen:   testScreen("scr-empty", "pls-2"),
		Playlist: testPlaylist("pls-2"),
	})

	m := newTestManager(t, resolver)
	ctx := context.Background()

	t.Run("playing", func(t *testing.T) {
		snap := m.Peek(ctx, "scr-assigned")
		assert.Equal(t, StatePlaying, snap.State)
		assert.Equal(t, 0, snap.CurrentIndex)
		assert.Equal(t, "cnt-a", snap.CurrentItem.ID)
		assert.Empty(t, snap.SessionID)
	})

	t.Run("no screen", func(t *testing.T) {
		snap := m.Peek(ctx, "scr-missing")
		assert.Equal(t, StateNoScreen, snap.State)
	})

	t.Run("no playlist", func(t *testing.T) {
		snap := m.Peek(ctx, "scr-bare")
		assert.Equal(t, StateNoPlaylist, snap.State)
	})

	t.Run("empty playlist", func(t *testing.T) {
		snap := m.Peek(ctx, "scr-empty")
		assert.Equal(t, StateEmptyPlaylist, snap.State)
	})

	// Peeking never leaves a session behind.
	assert.Equal(t, 0, m.SessionCount())
}

func TestManagerShutdownStopsSessions(t *testing.T) {
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{Screen: testScreen("scr-1", "")})

	log := logger.New(logger.Config{}).Logger
	m := NewManager(log, resolver, NoopRecorder{}, testConfig())

	session, err := m.Open(context.Background(), "scr-1")
	require.NoError(t, err)
	waitForState(t, session, StateNoPlaylist)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	assert.Equal(t, 0, m.SessionCount())

	// New sessions are rejected after shutdown.
	_, err = m.Open(context.Background(), "scr-1")
	assert.Error(t, err)
}
