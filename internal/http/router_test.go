package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRouter(t *testing.T) (http.Handler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	svc, repo := seededSession(t)
	renderer := newTestRenderer(t)
	svc.Subscribe(renderer.OnChange)

	cfg := RouterConfig{RequestTimeout: time.Second, MaxRequestBodySize: 1 << 20}
	r := NewRouter(cfg,
		NewWidgetHandler(svc, renderer, testTimeout, log),
		NewCartHandler(svc, repo, testTimeout),
		NewProductHandler(repo, testTimeout),
		log,
	)
	return r, logs
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t)

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func TestRouter_RequestIDAndLogging(t *testing.T) {
	r, logs := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("X-Request-Id", "req-42")
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "req-42", recorder.Header().Get("X-Request-ID"))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/v1/products", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "req-42", fields["request_id"])
}

func TestRouter_ActionThenPage(t *testing.T) {
	r, _ := newTestRouter(t)

	form := url.Values{"control": {"remove:1"}}
	req := httptest.NewRequest(http.MethodPost, "/cart/actions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusSeeOther, recorder.Code)

	recorder = httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	assert.NotContains(t, body, "Prod 1")
	assert.Contains(t, body, "$40.50")
}

func TestRouter_APIRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{http.MethodGet, "/api/v1/cart", "", http.StatusOK},
		{http.MethodPost, "/api/v1/cart/items", `{"product_id": 1, "quantity": 1}`, http.StatusCreated},
		{http.MethodPatch, "/api/v1/cart/items/1", `{"delta": 1}`, http.StatusOK},
		{http.MethodDelete, "/api/v1/cart/items/1", "", http.StatusOK},
		{http.MethodGet, "/cart/fragment", "", http.StatusOK},
		{http.MethodGet, "/cart/actions", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			r.ServeHTTP(recorder, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}
