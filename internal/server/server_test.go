package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type pingRegistrar struct{}

func (pingRegistrar) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ping/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

type fakeObserver struct {
	mu     sync.Mutex
	routes []string
	codes  []int
}

func (o *fakeObserver) ObserveRequest(route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, route)
	o.codes = append(o.codes, status)
}

func TestHealth(t *testing.T) {
	srv := New(":0", zap.NewNop(), nil, WithHealth(func() map[string]any {
		return map[string]any{"records": 56}
	}))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-DistroCompare-Version"); got != "dev" {
		t.Errorf("version header = %q, want dev", got)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["records"] != float64(56) {
		t.Errorf("records = %v, want 56", body["records"])
	}
}

func TestRegistrarsAndMiddleware(t *testing.T) {
	obs := &fakeObserver{}
	srv := New(":0", zap.NewNop(), []RouteRegistrar{pingRegistrar{}},
		WithMiddleware(RequestID, Observe(obs, zap.NewNop())))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping/7", nil))

	if w.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTeapot)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if len(obs.routes) != 1 || obs.routes[0] != "GET /api/v1/ping/{id}" {
		t.Errorf("observed routes = %v", obs.routes)
	}
	if obs.codes[0] != http.StatusTeapot {
		t.Errorf("observed status = %d, want %d", obs.codes[0], http.StatusTeapot)
	}
}

func TestObserve_Unmatched(t *testing.T) {
	obs := &fakeObserver{}
	srv := New(":0", zap.NewNop(), nil, WithMiddleware(Observe(obs, zap.NewNop())))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if len(obs.routes) != 1 || obs.routes[0] != "unmatched" {
		t.Errorf("observed routes = %v, want [unmatched]", obs.routes)
	}
}

func TestRequestID_ReusesClientValue(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen != "abc-123" {
		t.Errorf("context request ID = %q, want abc-123", seen)
	}
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("header request ID = %q, want abc-123", got)
	}
}
