package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/apperr"
	appI18n "github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/i18n"
)

// respond writes a JSON response with the given status.
func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// errorStatus maps application errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrQuizNotAvailable),
		errors.Is(err, apperr.ErrMaxAttempts),
		errors.Is(err, apperr.ErrAlreadySubmitted),
		errors.Is(err, apperr.ErrNotPublished),
		errors.Is(err, apperr.ErrBadTransition),
		errors.Is(err, apperr.ErrNotEnrolled),
		apperr.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes an error as {"error": "..."}. Internal errors are
// logged and replaced with a localized generic message.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = appI18n.T(r.Context(), "InternalError")
	}
	respond(w, status, map[string]string{"error": msg})
}
