package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	domainerrors "github.com/websignapp/websign-server/internal/errors"
	"github.com/websignapp/websign-server/internal/http/response"
)

// maxUploadMemory bounds how much of a multipart form is buffered in memory
// before spilling to temp files.
const maxUploadMemory = 32 << 20 // 32 MiB

func (s *Server) registerUploadRoutes() {
	// Uploads use chi directly: huma does not stream multipart bodies, and
	// the static file route needs http.ServeFile's Range support for video.
	s.router.Post("/api/v1/uploads", s.handleUploadFile)
	s.router.Get("/uploads/{name}", s.handleServeUpload)
	s.router.Delete("/api/v1/uploads/{name}", s.handleDeleteUpload)
}

// handleUploadFile accepts a multipart form with a single "file" field and
// stores it in the media directory.
// POST /api/v1/uploads
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := GetUserID(ctx); err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		response.BadRequest(w, "Invalid multipart form", s.logger)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "Missing file field", s.logger)
		return
	}
	defer file.Close()

	result, err := s.services.Upload.Upload(ctx, header.Filename, file)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, result, s.logger)
}

// handleServeUpload serves a stored media file. Public: display clients
// fetch media without credentials.
// GET /uploads/{name}
func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	path, err := s.services.Upload.Path(name)
	if err != nil {
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) && domainErr.Code == domainerrors.CodeNotFound {
			response.NotFound(w, "File not found", s.logger)
			return
		}
		response.BadRequest(w, "Invalid file name", s.logger)
		return
	}

	// ServeFile handles Range requests, needed for video seeking.
	http.ServeFile(w, r, path)
}

// handleDeleteUpload removes a stored media file and its thumbnail.
// DELETE /api/v1/uploads/{name}
func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := GetUserID(ctx); err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	name := chi.URLParam(r, "name")
	if _, err := s.services.Upload.Path(name); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.services.Upload.Delete(name); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}
