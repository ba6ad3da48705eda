// Package handler contains the HTTP layer: request parsing, response
// shaping, and the mapping from domain errors to status codes. No
// business rules live here.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tmirzaev/signaldesk/internal/apperror"
)

// timeFormat is how timestamps are rendered in response bodies the
// frontend consumes directly (e.g. the redeemed expiry), matching the
// "YYYY-MM-DD HH:MM:SS" format the clients were built against.
const timeFormat = "2006-01-02 15:04:05"

// ErrorResponse is the standard error format returned by all API
// endpoints: a machine-readable kind plus a human-readable message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body; once Encode
// writes, header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// The service layer returns apperror sentinels; this is the single place
// they become status codes. Anything unrecognized is a generic 500 — raw
// error text never reaches the client, it may contain SQL or paths.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		kind := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status, kind = http.StatusBadRequest, "validation_error"
		case errors.Is(err, apperror.ErrCodeExpired):
			status, kind = http.StatusBadRequest, "code_expired"
		case errors.Is(err, apperror.ErrUnauthorized):
			status, kind = http.StatusUnauthorized, "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status, kind = http.StatusForbidden, "forbidden"
		case errors.Is(err, apperror.ErrInvalidCode):
			// 404 like "not found", keeping used and nonexistent codes
			// indistinguishable on the wire.
			status, kind = http.StatusNotFound, "invalid_code"
		case errors.Is(err, apperror.ErrNotFound):
			status, kind = http.StatusNotFound, "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status, kind = http.StatusConflict, "conflict"
		}

		writeJSON(w, status, ErrorResponse{Error: kind, Message: appErr.Message})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// formatTime renders a timestamp for response bodies.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}
