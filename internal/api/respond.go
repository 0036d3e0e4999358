// internal/api/respond.go
//
// JSON response helpers shared by the management handlers.
package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type errBody struct {
	Error string `json:"error"`
}

// respond writes v as JSON with the given status.
func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorw("json response encode failed", "err", err)
	}
}

// respondErr writes a one-field error body.
func respondErr(w http.ResponseWriter, status int, msg string) {
	respond(w, status, errBody{Error: msg})
}

// decode reads the request body into v, limited to 64 KiB.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
