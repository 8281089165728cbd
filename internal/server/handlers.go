package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/agentstation/utc"
	"github.com/go-chi/chi/v5"

	"github.com/municipiolabs/gacetas/pkg/catalog"
	errs "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/municipiolabs/gacetas/pkg/logging"
	"github.com/municipiolabs/gacetas/pkg/session"
)

// maxUploadMemory bounds the in-memory part of multipart parsing.
const maxUploadMemory = 32 << 20

// ctxKey is the private context key type for request-scoped values.
type ctxKey int

const claimsKey ctxKey = iota

// claimsFrom returns the admin claims stored by requireAdmin.
func claimsFrom(ctx context.Context) *claims {
	c, _ := ctx.Value(claimsKey).(*claims)
	return c
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, errs.NewValidationError("body", "", "invalid JSON body"))
		return
	}

	creds := s.cfg.Credentials
	if req.Username != creds.Username || req.Password != creds.Password {
		s.logger.Warn().Str("username", req.Username).Msg("Rejected login attempt")
		writeError(w, r, errs.NewAuthenticationError(req.Username, "invalid credentials"))
		return
	}

	user := session.User{
		Username:  req.Username,
		Name:      creds.DisplayName,
		Role:      adminRole,
		LoginTime: utc.Now(),
	}

	token, err := s.issueToken(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.logger.Info().Str("username", user.Username).Msg("Admin logged in")
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// handleLogout acknowledges session end. Tokens are stateless, so the
// client discards its copy; nothing is revoked server side.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// queryResponse is the file listing envelope. CategoryCounts carries
// one entry per live category plus the "all" pseudo-category.
type queryResponse struct {
	Files          []catalog.File `json:"files"`
	CategoryCounts map[string]int `json:"categoryCounts"`
	Total          int            `json:"total"`
	Term           string         `json:"term"`
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("category")
	if filter == "" {
		filter = catalog.FilterAll
	}
	term := r.URL.Query().Get("q")

	result := s.store.Query(filter, term)

	counts := make(map[string]int, len(result.CategoryCounts)+1)
	for id, n := range result.CategoryCounts {
		counts[string(id)] = n
	}
	counts[catalog.FilterAll] = result.Total

	writeJSON(w, http.StatusOK, queryResponse{
		Files:          result.Files,
		CategoryCounts: counts,
		Total:          result.Total,
		Term:           result.Term,
	})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	file, err := s.store.File(catalog.FileID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.handleCounter(w, r, catalog.CounterView)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := catalog.FileID(chi.URLParam(r, "id"))
	ctx := logging.WithFile(r.Context(), string(id))
	file, err := s.store.IncrementCounter(ctx, id, catalog.CounterDownload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if file.DownloadURL != "" {
		http.Redirect(w, r, file.DownloadURL, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (s *Server) handleCounter(w http.ResponseWriter, r *http.Request, counter catalog.Counter) {
	id := catalog.FileID(chi.URLParam(r, "id"))
	ctx := logging.WithFile(r.Context(), string(id))
	file, err := s.store.IncrementCounter(ctx, id, counter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Categories())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, r, errs.NewValidationError("body", "", "invalid multipart form"))
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, errs.NewValidationError("file", "", "file part is required"))
		return
	}
	defer part.Close()

	uploadedBy := ""
	if c := claimsFrom(r.Context()); c != nil {
		uploadedBy = c.Name
	}

	file, err := s.store.AddFile(r.Context(), catalog.Upload{
		Name:       header.Filename,
		Size:       header.Size,
		Content:    part,
		UploadedBy: uploadedBy,
	}, catalog.CategoryID(r.FormValue("categoryId")))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, file)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id := catalog.FileID(chi.URLParam(r, "id"))
	ctx := logging.WithFile(r.Context(), string(id))
	if err := s.store.DeleteFile(ctx, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateDescription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, errs.NewValidationError("body", "", "invalid JSON body"))
		return
	}

	id := catalog.FileID(chi.URLParam(r, "id"))
	if err := s.store.UpdateDescription(r.Context(), id, req.Description); err != nil {
		writeError(w, r, err)
		return
	}

	file, err := s.store.File(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, errs.NewValidationError("body", "", "invalid JSON body"))
		return
	}

	category, err := s.store.AddCategory(r.Context(), req.Name, req.Color)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, errs.NewValidationError("body", "", "invalid JSON body"))
		return
	}

	id := catalog.CategoryID(chi.URLParam(r, "id"))
	if err := s.store.RenameCategory(r.Context(), id, req.Name); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := s.store.Category(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := catalog.CategoryID(chi.URLParam(r, "id"))
	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.ExportJSON()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="gacetas-backup.json"`)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, errs.WrapIO("read", "request body", err))
		return
	}

	if err := s.store.Import(r.Context(), data); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}
