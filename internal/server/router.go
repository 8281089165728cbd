package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/municipiolabs/gacetas/pkg/logging"
)

// routes builds the chi router.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Get("/files", s.handleListFiles)
		r.Get("/files/{id}", s.handleGetFile)
		r.Post("/files/{id}/view", s.handleView)
		r.Post("/files/{id}/download", s.handleDownload)

		r.Get("/categories", s.handleListCategories)

		r.Get("/backup", s.handleExport)

		r.Get("/events", s.broadcaster.ServeHTTP)

		// Admin surface.
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Post("/files", s.handleUpload)
			r.Delete("/files/{id}", s.handleDeleteFile)
			r.Patch("/files/{id}/description", s.handleUpdateDescription)

			r.Post("/categories", s.handleAddCategory)
			r.Patch("/categories/{id}", s.handleRenameCategory)
			r.Delete("/categories/{id}", s.handleDeleteCategory)

			r.Post("/backup", s.handleImport)
		})
	})

	return r
}

// requestLogger logs one line per request with latency and status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		reqLogger := s.logger.With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Logger()
		r = r.WithContext(logging.WithLogger(r.Context(), &reqLogger))

		next.ServeHTTP(ww, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request")
	})
}
