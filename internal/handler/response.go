package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// WHY HELPERS?
// Without helpers, every handler repeats the same boilerplate:
//   w.Header().Set("Content-Type", "application/json")
//   w.WriteHeader(statusCode)
//   json.NewEncoder(w).Encode(data)
//
// With helpers, handlers stay short:
//   writeJSON(w, http.StatusOK, data)
//   writeError(w, err)
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "not_found", "message": "board not found with id c1u5p8"}
//
// The board UI always knows what fields to expect, whatever the status.

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/sakif/kanban-boards/internal/apperror"
)

const (
	// maxBodyBytes caps ordinary JSON request bodies.
	maxBodyBytes = 1 << 20
	// maxDocumentBytes caps whole board collections (save, import).
	maxDocumentBytes = 16 << 20
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body. Once Encode writes, the
// headers are on the wire and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps an apperror sentinel to its HTTP status and error type.
//
// ERROR MAPPING:
// The service and board layers return apperror.ErrValidation,
// apperror.ErrPersistence, etc. They know nothing about HTTP; this table is
// the only place where a domain failure becomes a status code.
var statusFor = []struct {
	sentinel  error
	status    int
	errorType string
}{
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{apperror.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrConflict, http.StatusConflict, "conflict"},
	{apperror.ErrImport, http.StatusUnprocessableEntity, "import_rejected"},
	{apperror.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	{apperror.ErrPersistence, http.StatusServiceUnavailable, "persistence_error"},
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// errors.As() walks the chain and fills appErr if it finds an *AppError, so a
// handler may wrap with fmt.Errorf("...: %w", err) and still get the right
// status. The client only ever sees AppError.Message, never the Cause:
// causes carry file paths and driver errors and belong in the logs.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, m := range statusFor {
			if errors.Is(err, m.sentinel) {
				writeJSON(w, m.status, ErrorResponse{Error: m.errorType, Message: appErr.Message})
				return
			}
		}
	}

	// Unknown error: generic 500, details stay server-side.
	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a JSON body into dst. Any decoding failure is reported as
// a validation error so the client gets a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeJSONLimit(w, r, dst, maxBodyBytes)
}

func decodeJSONLimit(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is required")
		}
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return nil
}
