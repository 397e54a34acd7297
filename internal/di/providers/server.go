package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/websignapp/websign-server/internal/api"
	"github.com/websignapp/websign-server/internal/config"
	"github.com/websignapp/websign-server/internal/logger"
	"github.com/websignapp/websign-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	displayHandle := do.MustInvoke[*DisplayManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:     do.MustInvoke[*service.AuthService](i),
		Session:  do.MustInvoke[*service.SessionService](i),
		Screen:   do.MustInvoke[*service.ScreenService](i),
		Content:  do.MustInvoke[*service.ContentService](i),
		Playlist: do.MustInvoke[*service.PlaylistService](i),
		Search:   do.MustInvoke[*service.SearchService](i),
		Upload:   do.MustInvoke[*service.UploadService](i),
		Display:  do.MustInvoke[*service.DisplayService](i),
	}

	handler := api.NewServer(storeHandle.Store, services, sseHandle.Manager, displayHandle.Manager, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
