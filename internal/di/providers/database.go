package providers

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/samber/do/v2"

	"github.com/websignapp/websign-server/internal/config"
	"github.com/websignapp/websign-server/internal/logger"
	"github.com/websignapp/websign-server/internal/sse"
	"github.com/websignapp/websign-server/internal/stats"
	"github.com/websignapp/websign-server/internal/store"
)

// EmitterHub fans store change events out to listeners. The store needs an
// emitter at construction time, but the SSE manager and the display manager
// are built later in the graph, so they register themselves as they come up.
type EmitterHub struct {
	mu        sync.RWMutex
	listeners []store.EventEmitter
}

// Emit implements store.EventEmitter.
func (h *EmitterHub) Emit(event any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, l := range h.listeners {
		l.Emit(event)
	}
}

// Register adds a listener for future store events.
func (h *EmitterHub) Register(e store.EventEmitter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, e)
}

// ProvideEmitterHub provides the store event fan-out.
func ProvideEmitterHub(i do.Injector) (*EmitterHub, error) {
	return &EmitterHub{}, nil
}

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	hub := do.MustInvoke[*EmitterHub](i)

	manager := sse.NewManager(log.Logger)
	hub.Register(manager)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the key-value store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	hub := do.MustInvoke[*EmitterHub](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "db")
	db, err := store.New(dbPath, log.Logger, hub)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// StatsStoreHandle wraps the impressions database with shutdown capability.
type StatsStoreHandle struct {
	*stats.Store
}

// Shutdown implements do.Shutdownable.
func (h *StatsStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStatsStore provides the proof-of-play impressions database.
func ProvideStatsStore(i do.Injector) (*StatsStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "stats.db")
	db, err := stats.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Stats database initialized", "path", dbPath)

	return &StatsStoreHandle{Store: db}, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
