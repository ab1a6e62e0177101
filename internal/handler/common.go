// Package handler implements the HTTP API: authentication, VIP lifecycle,
// the load balancer registry, and configuration promotion and migration.
package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
)

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps an error onto the API error envelope. Structured
// errors carry their own status code; anything else is a 500.
func respondError(w http.ResponseWriter, err error) {
	status := apperrors.GetHTTPStatusCode(err)
	body := map[string]interface{}{
		"error":  string(apperrors.GetErrorCode(err)),
		"detail": err.Error(),
	}
	if e, ok := err.(*apperrors.LBaaSError); ok {
		body["detail"] = e.Message
		if len(e.Metadata) > 0 {
			body["metadata"] = e.Metadata
		}
	}
	respondJSON(w, status, body)
}

// decodeJSON parses a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeInvalidRequest, "api", "malformed request body")
	}
	return nil
}
