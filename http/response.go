package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/duplo"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type.
// ErrTooManyFiles is checked before ErrQuotaExceeded since it wraps it.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, duplo.ErrInvalidInput):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid_filename", "This filename is not allowed")
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrBadMultipart):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, duplo.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "File not found")
	case errors.Is(err, duplo.ErrConflict):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusConflict, "conflict", "Could not find a free file name")
	case errors.Is(err, duplo.ErrTooManyFiles):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusRequestEntityTooLarge, "too_many_files", "Too many files")
	case errors.Is(err, duplo.ErrQuotaExceeded):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
	case errors.Is(err, duplo.ErrUploadAborted):
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "upload_aborted", "Upload was interrupted")
	default:
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
