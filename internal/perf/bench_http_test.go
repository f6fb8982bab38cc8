package perf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/devices"
)

const inventorySize = 20000

func inventory(n int) []devices.Device {
	kinds := []devices.Kind{devices.KindOLT, devices.KindONU, devices.KindCPE}
	statuses := []devices.Status{devices.StatusOnline, devices.StatusOffline, devices.StatusDegraded}
	vendors := []string{"Huawei", "ZTE", "Nokia", "FiberHome"}
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	out := make([]devices.Device, n)
	for i := range out {
		out[i] = devices.Device{
			ID:       fmt.Sprintf("dev-%05d", i),
			Serial:   fmt.Sprintf("SN%08X", i*7919),
			Name:     fmt.Sprintf("Node %d Rua %d", i, i%311),
			Kind:     kinds[i%len(kinds)],
			Vendor:   vendors[i%len(vendors)],
			Model:    fmt.Sprintf("M%d", i%17),
			IP:       fmt.Sprintf("10.%d.%d.%d", i/65536%256, i/256%256, i%256),
			Status:   statuses[i%len(statuses)],
			RxPower:  -15 - float64(i%150)/10,
			LastSeen: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func newRouter(items []devices.Device) http.Handler {
	src := collection.SourceFunc[devices.Device](func(context.Context) ([]devices.Device, error) { return items, nil })
	r := chi.NewRouter()
	h := devices.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), devices.NewService(src, nil), collection.ParamLimits{DefaultPageSize: 25, MaxPageSize: 200})
	r.Route("/api/devices", h.MountRoutes)
	return r
}

func TestListLatencyTargets(t *testing.T) {
	router := newRouter(inventory(inventorySize))
	scenarios := []struct {
		name      string
		target    string
		threshold time.Duration
	}{
		{name: "default page", target: "/api/devices", threshold: 500 * time.Millisecond},
		{name: "search and filter", target: "/api/devices?q=rua+42&status=online&sort=rx_power&dir=desc", threshold: 500 * time.Millisecond},
		{name: "deep page", target: "/api/devices?sort=last_seen&page=400&page_size=50", threshold: 500 * time.Millisecond},
	}

	for _, scenario := range scenarios {
		samples := make([]time.Duration, 0, 20)
		for range 20 {
			rec := httptest.NewRecorder()
			start := time.Now()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, scenario.target, nil))
			samples = append(samples, time.Since(start))
			if rec.Code != http.StatusOK {
				t.Fatalf("%s: unexpected status %d", scenario.name, rec.Code)
			}
		}
		if p95 := percentile95(samples); p95 > scenario.threshold {
			t.Fatalf("%s latency regression: p95=%s threshold=%s", scenario.name, p95, scenario.threshold)
		}
	}
}

func BenchmarkCompute(b *testing.B) {
	items := inventory(inventorySize)
	schema := devices.Schema()
	state := collection.NewState(schema).WithQuery("rua 1").WithFilter("kind", "onu")
	state, err := state.WithSort("rx_power", collection.Descending)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		_ = collection.Compute(items, schema, state)
	}
}

func BenchmarkListEndpoint(b *testing.B) {
	router := newRouter(inventory(inventorySize))
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices?q=huawei&sort=name", nil))
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[index]
}
