// Package api provides the HTTP API server and handlers for the WebSign application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/websignapp/websign-server/internal/display"
	"github.com/websignapp/websign-server/internal/sse"
	"github.com/websignapp/websign-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *store.Store
	services        *Services
	sseManager      *sse.Manager
	sseHandler      *sse.Handler
	displayManager  *display.Manager
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, sseManager *sse.Manager, displayManager *display.Manager, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Last-Event-ID"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("WebSign API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:          st,
		services:       services,
		sseManager:     sseManager,
		displayManager: displayManager,
		router:         router,
		api:            api,
		logger:         logger,
		// Login and register share a per-IP budget of 20 attempts per
		// minute with a burst of 10.
		authRateLimiter: NewRateLimiter(20, time.Minute, 10),
	}

	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, logger, s.sseIdentity)
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerScreenRoutes()
	s.registerContentRoutes()
	s.registerPlaylistRoutes()
	s.registerSearchRoutes()
	s.registerUploadRoutes()
	s.registerDisplayRoutes()
	s.registerEventRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying chi router, mainly for mounting in tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// sseIdentity resolves the authenticated user for event stream requests.
// Browsers cannot set the Authorization header on EventSource, so a token
// query parameter is accepted as well.
func (s *Server) sseIdentity(r *http.Request) (string, bool) {
	token := ""
	if authHeader := r.Header.Get("Authorization"); len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	} else {
		token = r.URL.Query().Get("token")
	}

	if token == "" {
		return "", false
	}

	user, _, err := s.services.Auth.VerifyAccessToken(r.Context(), token)
	if err != nil {
		return "", false
	}
	return user.ID, user.IsAdmin()
}
