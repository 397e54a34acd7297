package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/websignapp/websign-server/internal/config"
	"github.com/websignapp/websign-server/internal/logger"
	"github.com/websignapp/websign-server/internal/media/uploads"
	"github.com/websignapp/websign-server/internal/sse"
)

// MediaWatcherHandle wraps the uploads directory watcher with shutdown capability.
type MediaWatcherHandle struct {
	*uploads.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *MediaWatcherHandle) Shutdown() error {
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideMediaWatcher provides the uploads directory watcher. Files that
// appear or disappear outside the API (e.g. copied in by hand) are
// broadcast to dashboard clients so media pickers stay current.
func ProvideMediaWatcher(i do.Injector) (*MediaWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	// MediaStorages must initialize first so the directory exists.
	_ = do.MustInvoke[*MediaStorages](i)

	w, err := uploads.NewWatcher(log.Logger, cfg.Uploads.Path, 0)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	go func() {
		for {
			select {
			case event, ok := <-w.Events():
				if !ok {
					return
				}
				url := "/uploads/" + event.Name
				switch event.Type {
				case uploads.EventAdded:
					sseHandle.Emit(sse.NewMediaAddedEvent(event.Name, url, event.Size))
				case uploads.EventRemoved:
					sseHandle.Emit(sse.NewMediaRemovedEvent(event.Name, url))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Media watcher started", "path", cfg.Uploads.Path)

	return &MediaWatcherHandle{
		Watcher: w,
		cancel:  cancel,
	}, nil
}

// SessionCleanupJob runs periodic session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		// Initial cleanup on startup
		if count, err := storeHandle.DeleteExpiredSessions(ctx); err != nil {
			log.Warn("Initial session cleanup failed", "error", err)
		} else if count > 0 {
			log.Info("Initial session cleanup completed", "deleted", count)
		}

		for {
			select {
			case <-ticker.C:
				if count, err := storeHandle.DeleteExpiredSessions(ctx); err != nil {
					log.Warn("Session cleanup failed", "error", err)
				} else if count > 0 {
					log.Info("Session cleanup completed", "deleted", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started")

	return &SessionCleanupJob{cancel: cancel}, nil
}
