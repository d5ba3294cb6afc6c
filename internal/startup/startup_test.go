package startup

import (
	"context"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Errorf("Expected OS and Arch to be set, got %q/%q", info.OS, info.Arch)
	}
}

func TestGetRoutes(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request) {}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", noop).Methods(http.MethodGet).Name("health")
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tasks", noop).Methods(http.MethodGet)
	api.HandleFunc("/admin/scan", noop).Methods(http.MethodPost)
	r.HandleFunc("/metrics", noop)

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes() failed: %v", err)
	}

	want := map[string]string{
		"/healthz":        http.MethodGet,
		"/api/tasks":      http.MethodGet,
		"/api/admin/scan": http.MethodPost,
		"/metrics":        "*",
	}
	found := make(map[string]string)
	for _, route := range routes {
		found[route.Path] = route.Method
		if route.Path == "/healthz" && route.Name != "health" {
			t.Errorf("route name = %q, want health", route.Name)
		}
	}
	for path, method := range want {
		if found[path] != method {
			t.Errorf("route %s method = %q, want %q", path, found[path], method)
		}
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "healthz"},
		{"/api/images/{id}", "api/images"},
		{"/api/admin/scan", "api/admin"},
		{"/api", "api"},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFFmpeg_Missing(t *testing.T) {
	if _, err := CheckFFmpeg(context.Background(), "/nonexistent/ffmpeg"); err == nil {
		t.Error("CheckFFmpeg() succeeded for a missing binary")
	}
}
