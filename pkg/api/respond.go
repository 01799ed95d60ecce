package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/marketd/marketd/pkg/market"
)

// writeJSON writes data as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError converts err to its wire form and writes it. Typed errors
// pick their own status code; anything untyped is a 500.
func writeError(w http.ResponseWriter, err error) {
	resp := market.ToErrorResponse(err)
	writeJSON(w, resp.StatusCode, resp)
}

// decodeJSON decodes a required request body into dst. Malformed JSON is
// reported as a validation error on the body.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &market.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}
