package server

import (
	"encoding/json"
	"errors"
	"net/http"

	errs "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/municipiolabs/gacetas/pkg/logging"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON serializes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps the catalog error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	var parseErr *errs.ParseError
	switch {
	case errs.IsNotFound(err):
		status = http.StatusNotFound
		message = err.Error()
	case errs.IsValidation(err):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.As(err, &parseErr):
		status = http.StatusBadRequest
		message = err.Error()
	case errs.IsConflict(err):
		status = http.StatusConflict
		message = err.Error()
	case errs.IsAuthentication(err):
		status = http.StatusUnauthorized
		message = err.Error()
	case errs.IsPermission(err):
		status = http.StatusForbidden
		message = err.Error()
	case errs.IsReadOnly(err):
		status = http.StatusServiceUnavailable
		message = err.Error()
	case errs.IsPersistence(err):
		logging.Ctx(r.Context()).Error().Err(err).Msg("Persistence failure")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Unhandled error")
	}

	writeJSON(w, status, errorBody{Error: message})
}
