package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pantry/internal/handlers"
	"pantry/internal/metrics"
)

func TestNewRouterRegistersHealthRoute(t *testing.T) {
	router := newRouter(nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected /healthz to return 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json content type, got %q", ct)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected POST /healthz to return 405, got %d", rr.Code)
	}
}

func TestNewRouterProtectsAPIRoutes(t *testing.T) {
	t.Cleanup(func() { handlers.Configure(handlers.Dependencies{}) })
	handlers.Configure(handlers.Dependencies{})

	router := newRouter(nil)
	for _, path := range []string{"/api/inventory", "/api/shopping-list", "/api/recipes/cookable"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected %s without identity to return 401, got %d", path, rr.Code)
		}
	}
}

func TestNewRouterRecordsMatchedPattern(t *testing.T) {
	m := metrics.New()
	router := newRouter(m)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, `path="GET /healthz"`) {
		t.Fatalf("expected request counter labelled by pattern, got:\n%s", body)
	}
}
