package uploads

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType identifies what happened to a file in the uploads directory.
type EventType int

const (
	EventAdded EventType = iota
	EventRemoved
)

func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event describes a change observed in the uploads directory.
type Event struct {
	Type    EventType
	Name    string // File name relative to the uploads directory
	Path    string // Absolute path
	Size    int64
	ModTime time.Time
}

// defaultSettleDelay is how long a file must stay unchanged before the
// watcher considers it fully written. Uploads written through the API
// are atomic, but files copied into the directory by hand may take a
// while to finish.
const defaultSettleDelay = 2 * time.Second

// pendingFile tracks a file that may still be changing.
type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// Watcher monitors the uploads directory for files that appear or
// disappear outside the API, with write events debounced until the
// file size and mtime stop moving.
type Watcher struct {
	logger      *slog.Logger
	dir         string
	settleDelay time.Duration
	watcher     *fsnotify.Watcher

	pending map[string]*pendingFile
	mu      sync.Mutex

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher over the given uploads directory.
// Call Start to begin receiving events.
func NewWatcher(logger *slog.Logger, dir string, settleDelay time.Duration) (*Watcher, error) {
	if settleDelay <= 0 {
		settleDelay = defaultSettleDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch uploads directory: %w", err)
	}

	return &Watcher{
		logger:      logger,
		dir:         filepath.Clean(dir),
		settleDelay: settleDelay,
		watcher:     fsw,
		pending:     make(map[string]*pendingFile),
		events:      make(chan Event, 64),
		done:        make(chan struct{}),
	}, nil
}

// Events returns the channel of settled file events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start runs the watcher until the context is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.processEvents(ctx)
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("uploads watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleFsnotifyEvent(event fsnotify.Event) {
	path := event.Name

	// Ignore hidden/temp files and anything under the thumbs subdirectory.
	if w.shouldIgnore(path) {
		return
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.cancelPending(path)
		w.emitEvent(Event{
			Type: EventRemoved,
			Name: filepath.Base(path),
			Path: path,
		})
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		w.startSettling(path)
	}
}

func (w *Watcher) shouldIgnore(path string) bool {
	if filepath.Dir(path) != w.dir {
		return true
	}
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, ".part")
}

// startSettling begins or restarts the settle timer for a file.
func (w *Watcher) startSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pending, exists := w.pending[path]; exists {
		pending.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		return
	}
	if info.IsDir() {
		return
	}

	pending := &pendingFile{
		size:    info.Size(),
		modTime: info.ModTime(),
	}
	pending.timer = time.AfterFunc(w.settleDelay, func() {
		w.checkSettled(path)
	})
	w.pending[path] = pending
}

// checkSettled emits the added event once the file stops changing.
func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending, exists := w.pending[path]
	if !exists {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// Deleted while settling.
		delete(w.pending, path)
		w.emitEvent(Event{
			Type: EventRemoved,
			Name: filepath.Base(path),
			Path: path,
		})
		return
	}

	if info.Size() != pending.size || info.ModTime() != pending.modTime {
		// Still being written, restart the timer.
		pending.size = info.Size()
		pending.modTime = info.ModTime()
		pending.timer = time.AfterFunc(w.settleDelay, func() {
			w.checkSettled(path)
		})
		return
	}

	delete(w.pending, path)

	w.emitEvent(Event{
		Type:    EventAdded,
		Name:    filepath.Base(path),
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pending, exists := w.pending[path]; exists {
		pending.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) emitEvent(event Event) {
	select {
	case w.events <- event:
	case <-w.done:
	}
}

// Stop shuts the watcher down and closes the events channel.
func (w *Watcher) Stop() error {
	close(w.done)

	w.mu.Lock()
	for _, pending := range w.pending {
		pending.timer.Stop()
	}
	clear(w.pending)
	w.mu.Unlock()

	w.watcher.Close()
	w.wg.Wait()

	close(w.events)
	return nil
}
