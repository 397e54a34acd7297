package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/websignapp/websign-server/internal/config"
	"github.com/websignapp/websign-server/internal/display"
	"github.com/websignapp/websign-server/internal/logger"
	"github.com/websignapp/websign-server/internal/service"
)

// DisplayManagerHandle wraps the rotation engine with shutdown capability.
type DisplayManagerHandle struct {
	*display.Manager
}

// Shutdown implements do.Shutdownable.
func (h *DisplayManagerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideDisplayManager provides the display rotation engine.
func ProvideDisplayManager(i do.Injector) (*DisplayManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	hub := do.MustInvoke[*EmitterHub](i)
	displayService := do.MustInvoke[*service.DisplayService](i)

	dcfg := display.DefaultConfig()
	dcfg.DefaultDuration = cfg.Display.ImageDuration
	dcfg.VideoFallbackGrace = cfg.Display.VideoFallbackGrace
	dcfg.ErrorGrace = cfg.Display.ErrorGrace
	dcfg.ConnectivityInterval = cfg.Display.ConnectivityInterval
	dcfg.SimulateConnectivity = cfg.Display.SimulateConnectivity

	manager := display.NewManager(log.Logger, displayService, displayService, dcfg)

	// Store mutations re-resolve every live session.
	hub.Register(manager)

	log.Info("Display engine started",
		"default_duration", dcfg.DefaultDuration,
		"simulate_connectivity", dcfg.SimulateConnectivity,
	)

	return &DisplayManagerHandle{Manager: manager}, nil
}
