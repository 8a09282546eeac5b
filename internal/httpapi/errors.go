package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"coderd/internal/registry"
	"coderd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

func isNotFound(err error) bool { return errors.Is(err, registry.ErrModelNotFound) }

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
