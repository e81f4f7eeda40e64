package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/client"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/recommend"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/validation"
)

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

// writeErr maps a domain error onto a status and error type.
func writeErr(w http.ResponseWriter, err error) {
	var apiErr *client.APIError
	switch {
	case validation.IsValidation(err), errors.Is(err, recommend.ErrNoSelection):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", err.Error())
	case errors.Is(err, recommend.ErrNoRecommendation):
		httpError(w, http.StatusNotFound, "not_found_error", "%s", err.Error())
	case errors.Is(err, recommend.ErrSuperseded):
		httpError(w, http.StatusConflict, "conflict_error", "%s", err.Error())
	case errors.As(err, &apiErr):
		httpError(w, http.StatusBadGateway, "api_error", "%s", apiErr.Error())
	default:
		httpError(w, http.StatusInternalServerError, "server_error", "%s", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
