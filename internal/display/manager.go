package display

import (
	"context"
	"log/slog"
	"sync"

	domainerrors "github.com/websignapp/websign-server/internal/errors"
	"github.com/websignapp/websign-server/internal/id"
)

// Manager owns the display sessions. It opens one session per connected
// viewer, routes viewer signals to their session, and fans store-change
// notifications out so every session re-resolves its screen.
type Manager struct {
	cfg      Config
	logger   *slog.Logger
	resolver Resolver
	recorder PlayRecorder

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

// NewManager creates a display session manager.
func NewManager(logger *slog.Logger, resolver Resolver, recorder PlayRecorder, cfg Config) *Manager {
	return &Manager{
		cfg:      cfg.withDefaults(),
		logger:   logger,
		resolver: resolver,
		recorder: recorder,
		sessions: make(map[string]*Session),
	}
}

// Open starts a session for a viewer of the given screen. The session runs
// until the context is cancelled or Close is called with its id.
func (m *Manager) Open(ctx context.Context, screenID string) (*Session, error) {
	sessionID, err := id.Generate("dsp")
	if err != nil {
		return nil, domainerrors.Internal("failed to create display session").WithCause(err)
	}

	session := newSession(sessionID, screenID, m.cfg, m.logger, m.resolver, m.recorder)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, domainerrors.Internal("display manager is shut down")
	}
	m.sessions[sessionID] = session
	total := len(m.sessions)
	m.mu.Unlock()

	go func() {
		session.run(ctx)
		m.remove(sessionID)
	}()

	m.logger.Info("display session opened",
		slog.String("session_id", sessionID),
		slog.String("screen_id", screenID),
		slog.Int("total_sessions", total))

	return session, nil
}

// Close stops a session and removes it from the manager.
func (m *Manager) Close(sessionID string) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	session.close()
	<-session.stopped
	m.remove(sessionID)
}

func (m *Manager) remove(sessionID string) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	total := len(m.sessions)
	m.mu.Unlock()

	if ok {
		m.logger.Info("display session closed",
			slog.String("session_id", sessionID),
			slog.String("screen_id", session.screenID),
			slog.Int("total_sessions", total))
	}
}

// Get returns a live session by id.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	return session, ok
}

// Signal routes a viewer media event to its session. The screen id must
// match the session's screen, so a signal cannot cross screens.
func (m *Manager) Signal(screenID, sessionID string, sig Signal) error {
	if !sig.Type.IsValid() {
		return domainerrors.Validation("unknown signal type")
	}

	session, ok := m.Get(sessionID)
	if !ok || session.ScreenID() != screenID {
		return domainerrors.NotFound("display session not found")
	}

	session.Signal(sig)
	return nil
}

// SessionCount returns the number of live sessions.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Emit implements store.EventEmitter. Any store mutation may change what a
// screen should be showing, so every session re-resolves. The refresh
// channel coalesces bursts.
func (m *Manager) Emit(_ any) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, session := range m.sessions {
		session.notifyRefresh()
	}
}

// Peek resolves a screen to a one-shot state snapshot without opening a
// session. Used for the stateless display state endpoint.
func (m *Manager) Peek(ctx context.Context, screenID string) Snapshot {
	session := newSession("", screenID, m.cfg, m.logger, m.resolver, NoopRecorder{})
	res, err := m.resolver.ResolveScreen(ctx, screenID)

	switch {
	case err != nil, res == nil, res.Screen == nil:
		session.state = StateNoScreen
	case res.Playlist == nil:
		session.state = StateNoPlaylist
		session.screen = res.Screen
	case len(res.Items) == 0:
		session.state = StateEmptyPlaylist
		session.screen = res.Screen
		session.playlist = res.Playlist
	default:
		session.state = StatePlaying
		session.screen = res.Screen
		session.playlist = res.Playlist
		session.items = res.Items
	}

	snap := session.buildSnapshot()
	snap.SessionID = ""
	return snap
}

// Shutdown stops all sessions and rejects new ones.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.close()
		select {
		case <-session.stopped:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.logger.Info("display manager shut down", slog.Int("sessions_closed", len(sessions)))
	return nil
}
