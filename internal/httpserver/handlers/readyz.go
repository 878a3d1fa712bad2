package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bridgeworks/slackrelay/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool `json:"ready"`
}

// Readyz reports whether the relay can accept events: endpoints are
// loaded and the queue has not been closed for shutdown.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := d.Table.Len() > 0 && !d.Queue.Closed()

		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(readyzResponse{Ready: ready})
	}
}
