package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// registerMediaRoutes serves post images straight from disk. These are plain
// chi routes rather than Huma operations: they return file bytes, not JSON,
// and don't belong in the OpenAPI surface.
func (s *Server) registerMediaRoutes() {
	s.router.Get("/media/posts/{filename}", s.handleServePostImage)
}

func (s *Server) handleServePostImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" {
		http.NotFound(w, r)
		return
	}

	// Exists runs the same filename validation as the rest of the storage
	// layer, which rejects path separators and traversal sequences.
	if !s.storage.Images.Exists(filename) {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(w, r, s.storage.Images.Path(filename))
}
