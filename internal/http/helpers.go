package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"outlay/internal/core"
	"outlay/internal/storage"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps domain and storage errors to HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrEmailTaken):
		respondError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, storage.ErrBudgetExists):
		respondError(w, http.StatusConflict, "budget already exists for this category and month")
	case errors.Is(err, storage.ErrDuplicateExpense):
		respondError(w, http.StatusConflict, "expense already generated for this date")
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidFrequency),
		errors.Is(err, core.ErrInvalidDateRange),
		errors.Is(err, core.ErrInvalidMonth):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// parseOptionalDate parses an optional YYYY-MM-DD field; empty input
// yields the zero date.
func parseOptionalDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}
