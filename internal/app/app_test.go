package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nocdesk/nocdesk/internal/observability"
	"github.com/nocdesk/nocdesk/internal/shared"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("GATEWAY_URL", "http://gateway.local")
	t.Setenv("GATEWAY_RPS", "5.5")
	t.Setenv("CACHE_TTL", "90s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://gateway.local", cfg.GatewayURL)
	assert.Equal(t, 5.5, cfg.GatewayRPS)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 10, cfg.ListLimits().DefaultPageSize)
	assert.Equal(t, 200, cfg.ListLimits().MaxPageSize)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresGateway(t *testing.T) {
	t.Setenv("GATEWAY_URL", "")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsPageSizes(t *testing.T) {
	t.Setenv("GATEWAY_URL", "http://gateway.local")
	t.Setenv("LIST_DEFAULT_PAGE_SIZE", "500")
	t.Setenv("LIST_MAX_PAGE_SIZE", "100")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestAPIKeyAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("noc-key"), bcrypt.MinCost)
	require.NoError(t, err)

	handler := APIKeyAuth(string(hash), discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong key", APIKeyHeader, "nope", http.StatusUnauthorized},
		{"header", APIKeyHeader, "noc-key", http.StatusNoContent},
		{"bearer", "Authorization", "Bearer noc-key", http.StatusNoContent},
		{"header again", APIKeyHeader, "noc-key", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	handler := APIKeyAuth("", discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type pingHandler struct{}

func (pingHandler) MountRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	})
}

func TestRouter(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("noc-key"), bcrypt.MinCost)
	require.NoError(t, err)
	healthy := true

	router := NewRouter(RouterParams{
		Logger:         discardLogger(),
		Config:         &Config{APIKeyHash: string(hash), RateLimitPerMinute: 1000},
		Metrics:        observability.NewMetrics(),
		DevicesHandler: pingHandler{},
		Health: func(*http.Request) error {
			if healthy {
				return nil
			}
			return errors.New("postgres down")
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	healthy = false
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	req.Header.Set(APIKeyHeader, "noc-key")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nocdesk_http_requests_total")
}

func TestTestMode(t *testing.T) {
	t.Setenv(TestModeEnv, "true")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(TestModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())
}

func TestOperator(t *testing.T) {
	var seen string
	handler := Operator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/alerts/a1/ack", nil)
	req.Header.Set(OperatorHeader, "  ops.rita ")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "ops.rita", seen)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, shared.AnonymousActor, seen)

	req = httptest.NewRequest(http.MethodPost, "/api/alerts/a1/ack", nil)
	req.Header.Set(OperatorHeader, strings.Repeat("é", 70))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, utf8.ValidString(seen))
	assert.Equal(t, strings.Repeat("é", maxActorLen), seen)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{AppEnv: "staging", LogFormat: "json", LogLevel: "warn"})
	logger.Info("dropped")
	logger.Warn("gateway slow", slog.String("op", "devices.list"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "gateway slow", entry["msg"])
	assert.Equal(t, "nocdesk", entry["service"])
	assert.Equal(t, "staging", entry["env"])
	assert.Equal(t, "devices.list", entry["op"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelError, parseLevel(" ERROR "))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
