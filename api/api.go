package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

// New creates a bare router with only the health check attached. The full
// route table lives in handlers.App.New; this one exists for probes and tests
// that need a router without a database behind it.
func New() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", healthCheckHandler)

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{"alive": true}`)
}
