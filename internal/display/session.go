package display

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/websignapp/websign-server/internal/domain"
)

// Session is the rotation state machine for one connected viewer.
//
// All transitions happen on the run goroutine: the timer, viewer signals,
// store-change refreshes, and the connectivity tick are funneled into one
// select loop, so the rotation state itself needs no locking. Readers get
// the latest Snapshot through a small mutex-guarded copy.
type Session struct {
	id       string
	screenID string
	cfg      Config
	logger   *slog.Logger
	resolver Resolver
	recorder PlayRecorder
	upRoll   func() float64

	signals    chan Signal
	refresh    chan struct{}
	timerFired chan uint64
	updates    chan Snapshot
	done       chan struct{}
	closeOnce  sync.Once
	stopped    chan struct{}

	// Rotation state, owned by the run goroutine.
	state     State
	connected bool
	index     int
	items     []*domain.ContentItem
	screen    *domain.Screen
	playlist  *domain.Playlist
	playingID string // id of the item the live trigger was armed for
	errMsg    string

	// Advance trigger bookkeeping. gen identifies the currently armed
	// trigger; a timer fire carrying a stale gen is ignored. Arming and
	// disarming both bump gen, so at most one trigger is ever live.
	gen   uint64
	timer *time.Timer

	mu       sync.RWMutex
	snapshot Snapshot
}

func newSession(id, screenID string, cfg Config, logger *slog.Logger, resolver Resolver, recorder PlayRecorder) *Session {
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	s := &Session{
		id:         id,
		screenID:   screenID,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		resolver:   resolver,
		recorder:   recorder,
		upRoll:     rand.Float64,
		signals:    make(chan Signal, 8),
		refresh:    make(chan struct{}, 1),
		timerFired: make(chan uint64, 1),
		updates:    make(chan Snapshot, 32),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		state:      StateLoading,
		connected:  true,
	}
	s.snapshot = s.buildSnapshot()
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// ScreenID returns the screen this session is viewing.
func (s *Session) ScreenID() string { return s.screenID }

// Snapshot returns the latest published state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Updates returns the stream of state snapshots, one per transition.
// Slow consumers lose intermediate snapshots, never the channel.
func (s *Session) Updates() <-chan Snapshot {
	return s.updates
}

// Signal delivers a media event from the viewer.
func (s *Session) Signal(sig Signal) {
	select {
	case s.signals <- sig:
	case <-s.done:
	}
}

// notifyRefresh asks the session to re-resolve its screen. Coalesced: a
// pending refresh absorbs later ones.
func (s *Session) notifyRefresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// close stops the session. Safe to call more than once.
func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// run is the session event loop. Exactly one goroutine executes it.
func (s *Session) run(ctx context.Context) {
	defer close(s.stopped)
	defer s.disarm()

	var tick <-chan time.Time
	if s.cfg.SimulateConnectivity {
		ticker := time.NewTicker(s.cfg.ConnectivityInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	s.resolveAndEnter(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case gen := <-s.timerFired:
			s.onTimerFired(ctx, gen)
		case sig := <-s.signals:
			s.onSignal(ctx, sig)
		case <-s.refresh:
			s.resolveAndEnter(ctx)
		case <-tick:
			s.onConnectivityTick(ctx)
		}
	}
}

// resolveAndEnter re-resolves the screen and routes to the matching state.
// Called on entry and on every store change touching the session's data,
// so NoScreen/NoPlaylist/EmptyPlaylist are reactive rather than one-shot.
func (s *Session) resolveAndEnter(ctx context.Context) {
	res, err := s.resolver.ResolveScreen(ctx, s.screenID)
	if err != nil {
		s.logger.Warn("display resolution failed",
			slog.String("session_id", s.id),
			slog.String("screen_id", s.screenID),
			slog.Any("error", err))
	}

	switch {
	case err != nil, res == nil, res.Screen == nil:
		s.enterIdle(StateNoScreen, nil, nil)
	case res.Playlist == nil:
		s.enterIdle(StateNoPlaylist, res.Screen, nil)
	case len(res.Items) == 0:
		s.enterIdle(StateEmptyPlaylist, res.Screen, res.Playlist)
	default:
		s.screen = res.Screen
		s.playlist = res.Playlist
		s.updateItems(res.Items)

		if !s.connected {
			s.enterDisconnected()
			return
		}

		// A live grace timer keeps counting through data refreshes.
		if s.state == StatePlaybackError {
			s.publish()
			return
		}

		// Same item still current: keep the running timer instead of
		// restarting the rotation clock.
		if s.state == StatePlaying && s.currentItem() != nil && s.currentItem().ID == s.playingID {
			s.publish()
			return
		}

		s.enterPlaying(ctx)
	}
}

// updateItems swaps in a fresh item sequence, keeping the index valid
// modulo the new length.
func (s *Session) updateItems(items []*domain.ContentItem) {
	s.items = items
	if len(items) == 0 {
		s.index = 0
		return
	}
	s.index %= len(items)
}

func (s *Session) currentItem() *domain.ContentItem {
	if len(s.items) == 0 {
		return nil
	}
	return s.items[s.index%len(s.items)]
}

// enterIdle moves to a non-rotating display state.
func (s *Session) enterIdle(state State, screen *domain.Screen, playlist *domain.Playlist) {
	s.disarm()
	s.screen = screen
	s.playlist = playlist
	s.items = nil
	s.playingID = ""
	s.errMsg = ""
	s.state = state
	s.publish()
}

func (s *Session) enterDisconnected() {
	s.disarm()
	s.playingID = ""
	s.state = StateDisconnected
	s.publish()
}

// enterPlaying shows the item at the current index and arms its advance
// trigger: a plain duration timer for text and images, the ended-signal
// fallback timer for videos.
func (s *Session) enterPlaying(ctx context.Context) {
	item := s.currentItem()
	if item == nil {
		s.enterIdle(StateEmptyPlaylist, s.screen, s.playlist)
		return
	}

	s.errMsg = ""
	s.state = StatePlaying
	s.playingID = item.ID

	duration := item.DisplayDuration(s.cfg.DefaultDuration)
	armFor := duration
	if item.Type == domain.ContentTypeVideo {
		armFor = duration + s.cfg.VideoFallbackGrace
	}
	s.arm(armFor)

	s.recorder.RecordPlay(ctx, Play{
		SessionID:   s.id,
		OwnerID:     s.screen.OwnerID,
		ScreenID:    s.screenID,
		PlaylistID:  s.playlist.ID,
		ContentID:   item.ID,
		ContentType: item.Type,
		StartedAt:   time.Now(),
		Duration:    duration,
	})

	s.publish()
}

// advance steps to the next index, wrapping modulo the current length.
func (s *Session) advance(ctx context.Context) {
	s.disarm()
	if len(s.items) == 0 {
		s.enterIdle(StateEmptyPlaylist, s.screen, s.playlist)
		return
	}
	s.index = (s.index + 1) % len(s.items)
	s.enterPlaying(ctx)
}

func (s *Session) onTimerFired(ctx context.Context, gen uint64) {
	if gen != s.gen {
		return // Stale trigger, already disarmed.
	}
	switch s.state {
	case StatePlaying, StatePlaybackError:
		s.advance(ctx)
	}
}

func (s *Session) onSignal(ctx context.Context, sig Signal) {
	switch sig.Type {
	case SignalEnded:
		// Ended only advances videos; the fallback timer is disarmed on
		// this edge so it cannot double-advance.
		item := s.currentItem()
		if s.state == StatePlaying && item != nil && item.Type == domain.ContentTypeVideo {
			s.advance(ctx)
		}
	case SignalError:
		if s.state != StatePlaying {
			return
		}
		s.disarm()
		s.errMsg = sig.Message
		if s.errMsg == "" {
			s.errMsg = "media failed to load"
		}
		s.state = StatePlaybackError
		s.arm(s.cfg.ErrorGrace)
		s.publish()
	}
}

func (s *Session) onConnectivityTick(ctx context.Context) {
	up := s.upRoll() < s.cfg.UptimeRatio

	switch {
	case s.connected && !up:
		s.connected = false
		if s.state == StatePlaying || s.state == StatePlaybackError {
			s.enterDisconnected()
		} else {
			s.publish()
		}
	case !s.connected && up:
		// Reconnect resumes at the current index, not from the start.
		s.connected = true
		s.resolveAndEnter(ctx)
	}
}

// arm replaces the live trigger with a new one firing after d.
func (s *Session) arm(d time.Duration) {
	s.disarm()
	gen := s.gen
	s.timer = time.AfterFunc(d, func() {
		select {
		case s.timerFired <- gen:
		case <-s.done:
		}
	})
}

// disarm releases the live trigger, if any. A fire already in flight is
// neutralized by the generation bump.
func (s *Session) disarm() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Session) buildSnapshot() Snapshot {
	snap := Snapshot{
		SessionID:    s.id,
		ScreenID:     s.screenID,
		State:        s.state,
		CurrentIndex: s.index,
		ItemCount:    len(s.items),
		CurrentItem:  s.currentItem(),
		Connected:    s.connected,
		Error:        s.errMsg,
		UpdatedAt:    time.Now(),
	}
	if s.playlist != nil {
		snap.PlaylistID = s.playlist.ID
	}
	return snap
}

// publish stores the current snapshot and pushes it to the viewer.
func (s *Session) publish() {
	snap := s.buildSnapshot()

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	select {
	case s.updates <- snap:
	default:
		// Viewer is not draining; it will catch up from a later snapshot.
	}
}
