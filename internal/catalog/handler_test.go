package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/internal/testutil"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	engine := NewEngine(testutil.NewSnapshot(t, testutil.SampleTemplate, testutil.SampleRecords()...))
	mux := http.NewServeMux()
	NewHandler(engine, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestHandleAttributes(t *testing.T) {
	mux := newTestMux(t)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/attributes", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp AttributesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Attributes) != 6 {
		t.Errorf("attributes = %d, want 6", len(resp.Attributes))
	}
	if len(resp.Groups) != 17 {
		t.Errorf("groups = %d, want 17", len(resp.Groups))
	}
	if len(resp.Priorities) != 5 || resp.Priorities[4].Label != "Non-negotiable" {
		t.Errorf("priorities = %+v", resp.Priorities)
	}
}

func TestHandleListRecords(t *testing.T) {
	mux := newTestMux(t)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/records", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Count   int              `json:"count"`
		Records []map[string]any `json:"records"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 3 || resp.Records[0]["name"] != "Fedora" {
		t.Errorf("records = %+v", resp)
	}
}

func TestHandleGetRecord(t *testing.T) {
	mux := newTestMux(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/catalog/records/Gentoo", http.StatusOK},
		{"/api/v1/catalog/records/Slackware", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestHandleEvaluate(t *testing.T) {
	mux := newTestMux(t)

	tests := []struct {
		name  string
		body  string
		want  int
		names []string
	}{
		{
			// Default sort is overall, driven here by privacy_rating.
			name:  "empty state",
			body:  `{}`,
			want:  http.StatusOK,
			names: []string{"Gentoo", "Fedora", "Ubuntu"},
		},
		{
			name: "filtered and sorted",
			body: `{"eliminated":["Fedora"],"sort_key":"stability",
				"attributes":{"secure_boot":{"priority":4,"selection":{"bool":true}}}}`,
			want:  http.StatusOK,
			names: []string{"Ubuntu"},
		},
		{"malformed", `{`, http.StatusBadRequest, nil},
		{"unknown attribute", `{"attributes":{"nope":{"priority":3}}}`, http.StatusUnprocessableEntity, nil},
		{"bad sort", `{"sort_key":"nope"}`, http.StatusUnprocessableEntity, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/evaluate", strings.NewReader(tt.body))
			mux.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			if tt.names == nil {
				if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
					t.Errorf("content-type = %q, want problem+json", ct)
				}
				return
			}
			var view struct {
				Entries []struct {
					Record map[string]any `json:"record"`
				} `json:"entries"`
				Total int `json:"total"`
			}
			if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if view.Total != 3 {
				t.Errorf("total = %d, want 3", view.Total)
			}
			var got []string
			for _, e := range view.Entries {
				got = append(got, e.Record["name"].(string))
			}
			if strings.Join(got, ",") != strings.Join(tt.names, ",") {
				t.Errorf("names = %v, want %v", got, tt.names)
			}
		})
	}
}
