// Package v1 keeps the read-only /api/v1 surface used by older report
// tooling. Writes go through the current /api routes.
package v1

import (
	"net/http"

	"wmsadmin/interfaces/http/rest/handlers"

	"github.com/gorilla/mux"
)

// Prefix is where the router expects to be mounted.
const Prefix = "/api/v1"

// NewRouter creates the v1 API router. authn guards every route.
func NewRouter(codes *handlers.CodesHandler, authn func(http.Handler) http.Handler) *mux.Router {
	router := mux.NewRouter()
	v1 := router.PathPrefix(Prefix).Subrouter()

	v1.Use(versionHeaders)
	v1.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	read := v1.NewRoute().Subrouter()
	read.Use(mux.MiddlewareFunc(authn))
	read.HandleFunc("/codes/tree", codes.GetTree).Methods(http.MethodGet)
	read.HandleFunc("/codes/search", codes.Search).Methods(http.MethodGet)

	return router
}

// versionHeaders adds API version headers to responses
func versionHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		w.Header().Set("X-API-Deprecated", "true")
		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","version":"v1"}`))
}
