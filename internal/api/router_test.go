package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/credgate/internal/api"
	mw "github.com/kiranshivaraju/credgate/internal/api/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Handler", name)
		if base := chi.URLParam(r, "base"); base != "" {
			w.Header().Set("X-Base", base)
		}
		w.WriteHeader(http.StatusOK)
	}
}

func newTestRouter(reg *prometheus.Registry) http.Handler {
	return api.NewRouter(api.Dependencies{
		Metrics:             mw.NewMetrics(reg),
		HealthHandler:       named("health"),
		CreateAPIKeyHandler: named("apikey"),
		TokenHandler:        named("token"),
		ConvertHandler:      named("convert"),
		MetricsHandler:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(prometheus.NewRegistry())

	tests := []struct {
		method  string
		path    string
		handler string
	}{
		{"GET", "/health", "health"},
		{"POST", "/auth/api-key", "apikey"},
		{"POST", "/auth/token", "token"},
		{"GET", "/convert/USD/EUR/10", "convert"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.handler, w.Header().Get("X-Handler"))
		})
	}
}

func TestRouter_ConvertPathParams(t *testing.T) {
	router := newTestRouter(prometheus.NewRegistry())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/convert/GBP/JPY/3.5", nil))

	assert.Equal(t, "GBP", w.Header().Get("X-Base"))
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := newTestRouter(reg)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "credgate_http_requests_total")
	assert.Contains(t, w.Body.String(), `route="/health"`)
}

func TestRouter_MetricsCountPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := api.NewRouter(api.Dependencies{
		Metrics: mw.NewMetrics(reg),
		TokenHandler: func(_ http.ResponseWriter, _ *http.Request) {
			panic("boom")
		},
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/auth/token", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(),
		`credgate_http_requests_total{method="POST",route="/auth/token",status="500"} 1`)
}

func TestRouter_NotImplemented(t *testing.T) {
	router := api.NewRouter(api.Dependencies{})

	req := httptest.NewRequest("POST", "/auth/token", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_IMPLEMENTED", body["code"])
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(prometheus.NewRegistry())

	req := httptest.NewRequest("GET", "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(prometheus.NewRegistry())

	req := httptest.NewRequest("GET", "/auth/token", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
