package api

import (
	"github.com/websignapp/websign-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth     *service.AuthService
	Session  *service.SessionService
	Screen   *service.ScreenService
	Content  *service.ContentService
	Playlist *service.PlaylistService
	Search   *service.SearchService
	Upload   *service.UploadService
	Display  *service.DisplayService // Screen-to-rotation resolver backing the display engine
}
