package app

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"golang.org/x/crypto/bcrypt"

	"github.com/nocdesk/nocdesk/internal/observability"
	"github.com/nocdesk/nocdesk/internal/platform/httpx"
	"github.com/nocdesk/nocdesk/internal/shared"
)

const (
	// APIKeyHeader carries the dashboard API key.
	APIKeyHeader = "X-API-Key"
	// OperatorHeader names the signed-in dashboard operator for the audit log.
	OperatorHeader = "X-Operator"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the NOCDesk middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		FeaturePolicy:         "none",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	limit := 600
	if cfg.Config != nil {
		if cfg.Config.AppRequestTimeout > 0 {
			timeout = cfg.Config.AppRequestTimeout
		}
		if cfg.Config.RateLimitPerMinute > 0 {
			limit = cfg.Config.RateLimitPerMinute
		}
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(limit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, func(next http.Handler) http.Handler {
			return cfg.Metrics.Middleware(next)
		})
	}
	return middlewares
}

// APIKeyAuth rejects requests whose key does not match the bcrypt hash. An
// empty hash disables the check. Keys that verified once are remembered so
// bcrypt runs once per distinct key.
func APIKeyAuth(hash string, logger *slog.Logger) func(http.Handler) http.Handler {
	if hash == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	var verified sync.Map
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestKey(r)
			if key == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing API key")
				return
			}
			if _, ok := verified.Load(key); !ok {
				if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
					logger.Warn("api key rejected", slog.String("remote", r.RemoteAddr), slog.String("path", r.URL.Path))
					httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid API key")
					return
				}
				verified.Store(key, struct{}{})
			}
			next.ServeHTTP(w, r)
		})
	}
}

// maxActorLen bounds the operator name in runes.
const maxActorLen = 64

// Operator stores the operator named by the dashboard in the request context.
func Operator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(OperatorHeader))
		if runes := []rune(actor); len(runes) > maxActorLen {
			actor = string(runes[:maxActorLen])
		}
		if actor != "" {
			r = r.WithContext(shared.ContextWithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

func requestKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
