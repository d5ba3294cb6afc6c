package handlers

import (
	"net/http"

	"fotoboek/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers every route of h and wraps them in the access log
// and request metrics middleware.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()

	mwConfig := middleware.DefaultConfig()
	r.Use(middleware.Metrics(mwConfig), middleware.Logger(mwConfig))

	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet, http.MethodHead).Name("health")
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead).Name("liveness")
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	api.HandleFunc("/tasks", h.ListTasks).Methods(http.MethodGet)
	api.HandleFunc("/metadata/{id:[0-9]+}", h.GetMetadata).Methods(http.MethodGet)
	api.HandleFunc("/images/{id:[0-9]+}", h.GetImage).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/videos/{id:[0-9]+}", h.GetVideo).Methods(http.MethodGet, http.MethodHead)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/scan", h.TriggerScan).Methods(http.MethodPost)

	return r
}
