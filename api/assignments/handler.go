// Package assignments serves the stored assignment log over HTTP.
package assignments

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kilianp07/warehouse-sim/core/dispatch/logging"
)

// Path is the route the handler is mounted on.
const Path = "/api/assignments"

// NewHandler returns an HTTP handler exposing assignment records via
// GET /api/assignments?run_id=&scenario=&agent=&limit=.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewHandler(store logging.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		v := r.URL.Query()
		q := logging.Query{
			RunID:    v.Get("run_id"),
			Scenario: v.Get("scenario"),
			Agent:    v.Get("agent"),
		}
		if s := v.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			q.Limit = n
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []logging.AssignmentRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// NewMux mounts the handler on Path.
func NewMux(store logging.Store, token string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(Path, NewHandler(store, token))
	return mux
}
