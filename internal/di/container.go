// Package di provides dependency injection configuration for the WebSign server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/websignapp/websign-server/internal/auth"
	"github.com/websignapp/websign-server/internal/config"
	"github.com/websignapp/websign-server/internal/di/providers"
	"github.com/websignapp/websign-server/internal/logger"
	"github.com/websignapp/websign-server/internal/media/images"
	"github.com/websignapp/websign-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideEmitterHub)
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideStatsStore)

	// Storage layer
	do.Provide(injector, providers.ProvideMediaStorages)
	do.Provide(injector, providers.ProvideImageProcessor)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideScreenService)
	do.Provide(injector, providers.ProvideContentService)
	do.Provide(injector, providers.ProvidePlaylistService)
	do.Provide(injector, providers.ProvideUploadService)
	do.Provide(injector, providers.ProvideDisplayService)

	// Display rotation engine
	do.Provide(injector, providers.ProvideDisplayManager)

	// Workers
	do.Provide(injector, providers.ProvideMediaWatcher)
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.EmitterHub](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.StatsStoreHandle](injector)
	_ = do.MustInvoke[*providers.MediaStorages](injector)
	_ = do.MustInvoke[*images.Processor](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.ScreenService](injector)
	_ = do.MustInvoke[*service.ContentService](injector)
	_ = do.MustInvoke[*service.PlaylistService](injector)
	_ = do.MustInvoke[*service.UploadService](injector)
	_ = do.MustInvoke[*service.DisplayService](injector)

	// Display rotation engine
	_ = do.MustInvoke[*providers.DisplayManagerHandle](injector)

	// Workers
	_ = do.MustInvoke[*providers.MediaWatcherHandle](injector)
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Trigger search reindex if needed
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
