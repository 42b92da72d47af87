package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/bidtrack/internal/store"
	"github.com/hyperengineering/bidtrack/internal/tracker"
	"github.com/hyperengineering/bidtrack/internal/types"
	"github.com/hyperengineering/bidtrack/internal/validation"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeMessage writes the generic `{success, message}` envelope.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.MessageResponse{
		Success: status < http.StatusBadRequest,
		Message: message,
	})
}

// isNotFound reports whether err is a missing-document error.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// MapError converts domain errors to HTTP responses in one place:
// validation failures and rejected deliverables become 400 carrying the
// error message verbatim, missing documents and actions become 404, and
// everything else is a 500 with the error's string message.
func MapError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErr *validation.FieldError
	switch {
	case errors.As(err, &fieldErr):
		writeMessage(w, http.StatusBadRequest, fieldErr.Message)
	case errors.Is(err, tracker.ErrInvalidDeliverable):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, err.Error())
	}
}
