package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/api/devices")

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `nocdesk_http_requests_total{code="418",route="/api/devices"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `nocdesk_http_request_duration_seconds_bucket{route="/api/devices"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestObserveGateway(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveGateway("devices.list", "ok", 120*time.Millisecond)
	metrics.ObserveGateway("devices.list", "502", time.Second)

	body := scrape(t, metrics)
	if !strings.Contains(body, `nocdesk_gateway_requests_total{op="devices.list",outcome="ok"} 1`) {
		t.Fatalf("expected ok outcome, got: %s", body)
	}
	if !strings.Contains(body, `nocdesk_gateway_requests_total{op="devices.list",outcome="502"} 1`) {
		t.Fatalf("expected 502 outcome, got: %s", body)
	}
	if !strings.Contains(body, `nocdesk_gateway_request_duration_seconds_count{op="devices.list"} 2`) {
		t.Fatalf("expected two latency samples, got: %s", body)
	}
}

func TestNilMetrics(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveGateway("wifi.update", "ok", time.Millisecond)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics, got %d", rr.Code)
	}
}
