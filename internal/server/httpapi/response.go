// Package httpapi is the request-handling collaborator: it decodes and
// validates JSON requests, resolves the owner from the bearer token, calls
// the services and renders their results. No business rules live here.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prompta-dev/prompta-server/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeErrorMessage(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, errorResponse{Error: msg})
}

// writeError maps the service sentinel errors onto HTTP status codes.
// Anything unrecognized is a 500 with a generic body so internals never
// leak to clients.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrConflict):
		writeErrorMessage(w, http.StatusConflict, "conflict")
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
	default:
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
