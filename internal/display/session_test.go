package display

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/websignapp/websign-server/internal/domain"
	"github.com/websignapp/websign-server/internal/logger"
)

// fakeResolver serves canned resolutions keyed by screen id.
type fakeResolver struct {
	mu  sync.Mutex
	res map[string]*Resolution
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{res: make(map[string]*Resolution)}
}

func (f *fakeResolver) set(screenID string, res *Resolution) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.res[screenID] = res
}

func (f *fakeResolver) ResolveScreen(_ context.Context, screenID string) (*Resolution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.res[screenID]
	if !ok {
		return &Resolution{}, nil
	}
	return res, nil
}

// countingRecorder collects plays for assertion.
type countingRecorder struct {
	mu    sync.Mutex
	plays []Play
}

func (r *countingRecorder) RecordPlay(_ context.Context, play Play) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plays = append(r.plays, play)
}

func (r *countingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plays)
}

func testConfig() Config {
	return Config{
		DefaultDuration:      40 * time.Millisecond,
		VideoFallbackGrace:   30 * time.Millisecond,
		ErrorGrace:           40 * time.Millisecond,
		ConnectivityInterval: 25 * time.Millisecond,
		SimulateConnectivity: false,
		UptimeRatio:          0.9,
	}
}

func textItem(id, body string, seconds int) *domain.ContentItem {
	item := &domain.ContentItem{
		OwnerID:  "user-1",
		Name:     id,
		Type:     domain.ContentTypeText,
		Content:  body,
		Duration: seconds,
	}
	item.ID = id
	item.InitTimestamps()
	return item
}

func videoItem(id string, seconds int) *domain.ContentItem {
	item := &domain.ContentItem{
		OwnerID:  "user-1",
		Name:     id,
		Type:     domain.ContentTypeVideo,
		Content:  "/uploads/" + id + ".mp4",
		Duration: seconds,
	}
	item.ID = id
	item.InitTimestamps()
	return item
}

func testScreen(id, playlistID string) *domain.Screen {
	screen := &domain.Screen{
		OwnerID:    "user-1",
		Name:       "Lobby",
		PlaylistID: playlistID,
	}
	screen.ID = id
	screen.InitTimestamps()
	return screen
}

func testPlaylist(id string, items ...*domain.ContentItem) *domain.Playlist {
	p := &domain.Playlist{
		OwnerID: "user-1",
		Name:    "Rotation",
	}
	p.ID = id
	p.InitTimestamps()
	for _, item := range items {
		p.AddItems(item.ID)
	}
	return p
}

// startSession runs a session against the resolver with test timings.
// mutate lets a test adjust the session (rng, config) before it starts.
func startSession(t *testing.T, resolver Resolver, recorder PlayRecorder, cfg Config, screenID string, mutate func(*Session)) *Session {
	t.Helper()

	log := logger.New(logger.Config{}).Logger
	session := newSession("dsp-test", screenID, cfg, log, resolver, recorder)
	if mutate != nil {
		mutate(session)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		session.run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		session.close()
		<-done
	})
	return session
}

// waitForState drains snapshots until one matches, failing on timeout.
func waitForState(t *testing.T, session *Session, want State) Snapshot {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case snap := <-session.Updates():
			if snap.State == want {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %q (currently %q)", want, session.Snapshot().State)
			return Snapshot{}
		}
	}
}

// waitForIndex drains snapshots until Playing lands on the given index.
func waitForIndex(t *testing.T, session *Session, index int) Snapshot {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case snap := <-session.Updates():
			if snap.State == StatePlaying && snap.CurrentIndex == index {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for index %d (currently %d, state %q)",
				index, session.Snapshot().CurrentIndex, session.Snapshot().State)
			return Snapshot{}
		}
	}
}

func TestSessionUnknownScreen(t *testing.T) {
	resolver := newFakeResolver()
	session := startSession(t, resolver, nil, testConfig(), "scr-missing", nil)

	snap := waitForState(t, session, StateNoScreen)
	assert.Equal(t, 0, snap.ItemCount)
	assert.Nil(t, snap.CurrentItem)
}

func TestSessionNoPlaylist(t *testing.T) {
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{Screen: testScreen("scr-1", "")})

	session := startSession(t, resolver, nil, testConfig(), "scr-1", nil)
	waitForState(t, session, StateNoPlaylist)
}

func TestSessionEmptyPlaylist(t *testing.T) {
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1"),
	})

	session := startSession(t, resolver, nil, testConfig(), "scr-1", nil)
	snap := waitForState(t, session, StateEmptyPlaylist)
	assert.Equal(t, "pls-1", snap.PlaylistID)
	assert.NotEqual(t, StatePlaying, snap.State)
}

func TestSessionRotatesTextItems(t *testing.T) {
	items := []*domain.ContentItem{
		textItem("cnt-a", "Welcome", 0),
		textItem("cnt-b", "Hours", 0),
		textItem("cnt-c", "Specials", 0),
	}
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1", items...),
		Items:    items,
	})

	session := startSession(t, resolver, nil, testConfig(), "scr-1", nil)

	snap := waitForIndex(t, session, 0)
	assert.Equal(t, "cnt-a", snap.CurrentItem.ID)
	assert.Equal(t, 3, snap.ItemCount)

	waitForIndex(t, session, 1)
	waitForIndex(t, session, 2)

	// Fourth fire wraps back to the start.
	snap = waitForIndex(t, session, 0)
	assert.Equal(t, "cnt-a", snap.CurrentItem.ID)
}

func TestSessionVideoEndedSignalAdvances(t *testing.T) {
	items := []*domain.ContentItem{
		videoItem("cnt-v", 10), // Long enough that the fallback never fires in-test.
		textItem("cnt-t", "after", 10),
	}
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1", items...),
		Items:    items,
	})

	session := startSession(t, resolver, nil, testConfig(), "scr-1", nil)
	waitForIndex(t, session, 0)

	session.Signal(Signal{Type: SignalEnded})
	snap := waitForIndex(t, session, 1)
	assert.Equal(t, "cnt-t", snap.CurrentItem.ID)
}

func TestSessionVideoEndedDisarmsFallback(t *testing.T) {
	// Short video: the fallback would fire quickly if it were still armed.
	items := []*domain.ContentItem{
		videoItem("cnt-v", 0),
		textItem("cnt-t", "after", 10),
	}
	cfg := testConfig()
	cfg.DefaultDuration = 60 * time.Millisecond
	cfg.VideoFallbackGrace = 20 * time.Millisecond

	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1", items...),
		Items:    items,
	})

	session := startSession(t, resolver, nil, cfg, "scr-1", nil)
	waitForIndex(t, session, 0)

	// Ended wins the race; the fallback timer must not also advance.
	session.Signal(Signal{Type: SignalEnded})
	waitForIndex(t, session, 1)

	// Give the stale fallback a chance to misfire, then confirm no
	// double-advance happened (index 1 plays a 10 s item).
	time.Sleep(150 * time.Millisecond)
	snap := session.Snapshot()
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, 1, snap.CurrentIndex)
}

func TestSessionVideoFallbackAdvancesWithoutEnded(t *testing.T) {
	items := []*domain.ContentItem{
		videoItem("cnt-v", 0), // Falls back to DefaultDuration + grace.
		textItem("cnt-t", "after", 10),
	}
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1", items...),
		Items:    items,
	})

	session := startSession(t, resolver, nil, testConfig(), "scr-1", nil)
	waitForIndex(t, session, 0)

	// No ended signal: the fallback timer advances on its own.
	snap := waitForIndex(t, session, 1)
	assert.Equal(t, "cnt-t", snap.CurrentItem.ID)
}

func TestSessionErrorSignalShowsGraceThenAdvances(t *testing.T) {
	items := []*domain.ContentItem{
		textItem("cnt-a", "first", 10),
		textItem("cnt-b", "second", 10),
	}
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1", items...),
		Items:    items,
	})

	session := startSession(t, resolver, nil, testConfig(), "scr-1", nil)
	waitForIndex(t, session, 0)

	session.Signal(Signal{Type: SignalError, Message: "image failed"})
	snap := waitForState(t, session, StatePlaybackError)
	assert.Equal(t, "image failed", snap.Error)
	assert.Equal(t, 0, snap.CurrentIndex)

	// After the grace period the session advances and the error clears.
	snap = waitForIndex(t, session, 1)
	assert.Empty(t, snap.Error)
}

func TestSessionReactsToStoreChanges(t *testing.T) {
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{Screen: testScreen("scr-1", "")})

	session := startSession(t, resolver, nil, testConfig(), "scr-1", nil)
	waitForState(t, session, StateNoPlaylist)

	// Assigning a playlist and poking the session moves it to Playing.
	items := []*domain.ContentItem{textItem("cnt-a", "Welcome", 10)}
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1", items...),
		Items:    items,
	})
	session.notifyRefresh()

	snap := waitForState(t, session, StatePlaying)
	assert.Equal(t, "cnt-a", snap.CurrentItem.ID)

	// Deleting the playlist folds back to NoPlaylist, not a crash.
	resolver.set("scr-1", &Resolution{Screen: testScreen("scr-1", "")})
	session.notifyRefresh()
	waitForState(t, session, StateNoPlaylist)
}

func TestSessionIndexWrapsAfterExternalShrink(t *testing.T) {
	items := []*domain.ContentItem{
		textItem("cnt-a", "a", 0),
		textItem("cnt-b", "b", 0),
		textItem("cnt-c", "c", 0),
	}
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1", items...),
		Items:    items,
	})

	session := startSession(t, resolver, nil, testConfig(), "scr-1", nil)
	waitForIndex(t, session, 2)

	// Shrink to one item while index sits at 2: the next resolution must
	// land on a valid index modulo the new length.
	shrunk := []*domain.ContentItem{textItem("cnt-a", "a", 0)}
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1", shrunk...),
		Items:    shrunk,
	})
	session.notifyRefresh()

	snap := waitForIndex(t, session, 0)
	assert.Equal(t, "cnt-a", snap.CurrentItem.ID)
	assert.Equal(t, 1, snap.ItemCount)
}

func TestSessionRecordsPlays(t *testing.T) {
	items := []*domain.ContentItem{
		textItem("cnt-a", "a", 0),
		textItem("cnt-b", "b", 0),
	}
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1", items...),
		Items:    items,
	})

	recorder := &countingRecorder{}
	session := startSession(t, resolver, recorder, testConfig(), "scr-1", nil)

	waitForIndex(t, session, 0)
	waitForIndex(t, session, 1)
	waitForIndex(t, session, 0)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	require.GreaterOrEqual(t, len(recorder.plays), 3)
	first := recorder.plays[0]
	assert.Equal(t, "scr-1", first.ScreenID)
	assert.Equal(t, "pls-1", first.PlaylistID)
	assert.Equal(t, "cnt-a", first.ContentID)
	assert.Equal(t, "user-1", first.OwnerID)
	assert.Equal(t, domain.ContentTypeText, first.ContentType)
}

func TestSessionDataRefreshKeepsRunningTimer(t *testing.T) {
	items := []*domain.ContentItem{textItem("cnt-a", "a", 10)}
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1", items...),
		Items:    items,
	})

	recorder := &countingRecorder{}
	session := startSession(t, resolver, recorder, testConfig(), "scr-1", nil)
	waitForIndex(t, session, 0)
	require.Equal(t, 1, recorder.count())

	// A refresh that does not change the current item must not restart
	// the rotation clock or double-count the play.
	session.notifyRefresh()
	waitForState(t, session, StatePlaying)
	assert.Equal(t, 1, recorder.count())
}

func TestSessionConnectivityPausesAndResumes(t *testing.T) {
	items := []*domain.ContentItem{
		textItem("cnt-a", "a", 10),
		textItem("cnt-b", "b", 10),
	}
	resolver := newFakeResolver()
	resolver.set("scr-1", &Resolution{
		Screen:   testScreen("scr-1", "pls-1"),
		Playlist: testPlaylist("pls-1", items...),
		Items:    items,
	})

	cfg := testConfig()
	cfg.SimulateConnectivity = true

	var rollMu sync.Mutex
	roll := 0.0 // Below UptimeRatio: up.
	setRoll := func(v float64) {
		rollMu.Lock()
		roll = v
		rollMu.Unlock()
	}

	session := startSession(t, resolver, nil, cfg, "scr-1", func(s *Session) {
		s.upRoll = func() float64 {
			rollMu.Lock()
			defer rollMu.Unlock()
			return roll
		}
	})

	waitForIndex(t, session, 0)

	// Force the next check down.
	setRoll(1.0)
	snap := waitForState(t, session, StateDisconnected)
	assert.False(t, snap.Connected)
	assert.Equal(t, 0, snap.CurrentIndex)

	// Back up: rotation resumes at the same index, not from the start.
	setRoll(0.0)
	snap = waitForState(t, session, StatePlaying)
	assert.True(t, snap.Connected)
	assert.Equal(t, 0, snap.CurrentIndex)
}
