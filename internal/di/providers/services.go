package providers

import (
	"github.com/samber/do/v2"

	"github.com/websignapp/websign-server/internal/auth"
	"github.com/websignapp/websign-server/internal/logger"
	"github.com/websignapp/websign-server/internal/media/images"
	"github.com/websignapp/websign-server/internal/service"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, log.Logger), nil
}

// ProvideScreenService provides the screen management service.
func ProvideScreenService(i do.Injector) (*service.ScreenService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	statsHandle := do.MustInvoke[*StatsStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewScreenService(storeHandle.Store, statsHandle.Store, log.Logger), nil
}

// ProvideContentService provides the content item service.
func ProvideContentService(i do.Injector) (*service.ContentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewContentService(storeHandle.Store, log.Logger), nil
}

// ProvidePlaylistService provides the playlist service.
func ProvidePlaylistService(i do.Injector) (*service.PlaylistService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPlaylistService(storeHandle.Store, log.Logger), nil
}

// ProvideUploadService provides the media upload service.
func ProvideUploadService(i do.Injector) (*service.UploadService, error) {
	storages := do.MustInvoke[*MediaStorages](i)
	processor := do.MustInvoke[*images.Processor](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUploadService(storages.Uploads, processor, log.Logger), nil
}

// ProvideDisplayService provides the screen resolution and play recording service.
func ProvideDisplayService(i do.Injector) (*service.DisplayService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	statsHandle := do.MustInvoke[*StatsStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDisplayService(storeHandle.Store, statsHandle.Store, log.Logger), nil
}
