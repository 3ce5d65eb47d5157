package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// profilingRequest sends one request through a Profiling-wrapped handler
// whose body identifies whether the wrapped handler ran.
func profilingRequest(cfg ProfilingConfig, path string) *httptest.ResponseRecorder {
	wrapped := Profiling(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("api handler"))
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestProfiling_Disabled(t *testing.T) {
	rec := profilingRequest(ProfilingConfig{Enabled: false, Environment: "development"}, "/debug/pprof/")

	// Disabled profiling leaves /debug/pprof/ to the normal router.
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "api handler" {
		t.Errorf("expected the wrapped handler to serve the request, got %q", body)
	}
}

func TestProfiling_EnabledInDevelopment(t *testing.T) {
	rec := profilingRequest(ProfilingConfig{Enabled: true, Environment: "development"}, "/debug/pprof/")

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Profile") && !strings.Contains(body, "pprof") {
		t.Errorf("expected the pprof index page, got %q", body)
	}
}

func TestProfiling_BlockedInProduction(t *testing.T) {
	// Enabled flag alone must not expose pprof in production.
	rec := profilingRequest(ProfilingConfig{Enabled: true, Environment: "production"}, "/debug/pprof/")

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "api handler" {
		t.Errorf("expected pprof to stay hidden in production, got %q", body)
	}
}

func TestProfiling_ProfileEndpoints(t *testing.T) {
	for _, path := range []string{"/debug/pprof/heap", "/debug/pprof/goroutine"} {
		t.Run(path, func(t *testing.T) {
			rec := profilingRequest(ProfilingConfig{Enabled: true, Environment: "development"}, path)
			if rec.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", rec.Code)
			}
		})
	}
}

func TestProfiling_NonProfilingRoute(t *testing.T) {
	rec := profilingRequest(ProfilingConfig{Enabled: true, Environment: "development"}, "/api/places")

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "api handler" {
		t.Errorf("expected API routes to bypass pprof, got %q", body)
	}
}
