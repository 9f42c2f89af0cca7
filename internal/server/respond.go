package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/clubledger/server/internal/models"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain error kinds to HTTP statuses. Store and unknown
// errors are logged server-side and reported as an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case models.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: err.Error()})
	case models.IsConflict(err):
		writeJSON(w, http.StatusConflict, ErrorResponse{Code: "conflict", Message: err.Error()})
	case models.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Code: "not_found", Message: err.Error()})
	case models.IsPermission(err):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Code: "forbidden", Message: err.Error()})
	default:
		slog.Error("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Code: "server_error", Message: "internal server error"})
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.Validationf("invalid request body: %v", err)
	}
	return nil
}
