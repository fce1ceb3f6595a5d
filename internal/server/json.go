package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/koopa0/nlqagent/internal/server/middleware"
)

// parseJSONRequest decodes r's JSON body into v, rejecting unknown fields.
func parseJSONRequest(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// writeJSONResponse writes data as a successful standard-envelope
// response (spec.md §6's response bodies all go through this).
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	middleware.WriteSuccess(w, statusCode, data, "")
}

// writeErrorResponse writes a standard-envelope error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	middleware.WriteError(w, errorCodeForStatus(statusCode), message, statusCode)
}

// errorCodeForStatus maps an HTTP status to the middleware package's
// error-code vocabulary.
func errorCodeForStatus(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return middleware.CodeInvalidRequest
	case http.StatusNotFound:
		return middleware.CodeNotFound
	case http.StatusUnauthorized:
		return middleware.CodeUnauthorized
	case http.StatusForbidden:
		return middleware.CodeForbidden
	case http.StatusTooManyRequests:
		return middleware.CodeRateLimited
	case http.StatusServiceUnavailable:
		return middleware.CodeServiceUnavailable
	default:
		return middleware.CodeServerError
	}
}
